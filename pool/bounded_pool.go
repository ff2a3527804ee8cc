package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wuyinxian124/netty/future"
	uberatomic "go.uber.org/atomic"
)

// acquireTask is a queued acquirer (§3 "Pending queue").
type acquireTask[K comparable, C Connection] struct {
	ctx     context.Context
	key     K
	promise *future.Future[C]
}

// BoundedPool is the bounded-admission wrapper (component F): it counts
// in-flight connections, admits up to a configured maximum, queues excess
// acquirers, and replenishes budget on release, remote close, or acquire
// failure.
//
// Grounded on holdno-keypool's openingConns/connReqs/maybeOpenNewConnections
// admission gate and, more precisely, on the pool's origin design's
// FixedChannelPool (acquiredChannelCount/pendingAcquireQueue/runTaskQueue/
// decrementListener/closeListener). acquiredCount uses go.uber.org/atomic,
// matching the admission-counter idiom seen elsewhere in the retrieval
// pack's connection-pool snippets.
type BoundedPool[K comparable, C Connection] struct {
	inner          Pool[K, C]
	maxConnections int64
	acquiredCount  uberatomic.Int64

	mu      sync.Mutex
	pending []acquireTask[K, C]

	closed atomic.Bool
	logger Logger
}

// BoundedOption configures a BoundedPool at construction time.
type BoundedOption[K comparable, C Connection] func(*BoundedPool[K, C])

// WithBoundedLogger installs a diagnostic Logger. A nil logger is ignored.
func WithBoundedLogger[K comparable, C Connection](l Logger) BoundedOption[K, C] {
	return func(b *BoundedPool[K, C]) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBoundedPool wraps inner with an admission ceiling of maxConnections,
// which must be >= 1.
func NewBoundedPool[K comparable, C Connection](inner Pool[K, C], maxConnections int, opts ...BoundedOption[K, C]) (*BoundedPool[K, C], error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner pool is nil", ErrArgument)
	}
	if maxConnections < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrMaxConnections, maxConnections)
	}
	b := &BoundedPool[K, C]{
		inner:          inner,
		maxConnections: int64(maxConnections),
		logger:         defaultLogger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Acquire is the no-promise convenience form of AcquireWithPromise.
func (b *BoundedPool[K, C]) Acquire(ctx context.Context, key K) *future.Future[C] {
	return b.AcquireWithPromise(ctx, key, future.New[C]())
}

// AcquireWithPromise implements §4.F "Acquire": admit immediately if under
// budget, else queue the task and hold the reservation. A nil promise is
// reported as ErrArgument on a freshly failed Future rather than silently
// replaced, matching SimplePool.AcquireWithPromise.
func (b *BoundedPool[K, C]) AcquireWithPromise(ctx context.Context, key K, promise *future.Future[C]) *future.Future[C] {
	if promise == nil {
		return future.Failed[C](ErrArgument)
	}
	if b.closed.Load() {
		promise.SetFailure(ErrPoolClosed)
		return promise
	}

	if b.acquiredCount.Add(1) <= b.maxConnections {
		b.armDecrementListener(promise)
		return b.inner.AcquireWithPromise(ctx, key, promise)
	}

	b.mu.Lock()
	b.pending = append(b.pending, acquireTask[K, C]{ctx: ctx, key: key, promise: promise})
	depth := len(b.pending)
	b.mu.Unlock()
	b.logger.Debugf("pool: queued pending acquirer for key %v (pending depth=%d)", key, depth)
	return promise
}

// armDecrementListener implements §4.F's "decrement-on-complete listener".
// On success the admission slot stays charged (the connection is now
// "issued") but a close-listener is armed so a remote-initiated close
// eventually frees it. On failure the slot is freed immediately.
func (b *BoundedPool[K, C]) armDecrementListener(promise *future.Future[C]) {
	promise.AddListener(func(f *future.Future[C]) {
		if f.IsSuccess() {
			conn, _ := f.GetNow()
			conn.CloseFuture().AddListener(func(*future.Future[struct{}]) {
				b.logger.Debugf("pool: connection closed, replenishing admission budget")
				b.runTaskQueue()
			})
			return
		}
		b.acquiredCount.Add(-1)
		b.runTaskQueue()
	})
}

// Release is the no-promise convenience form of ReleaseWithPromise.
func (b *BoundedPool[K, C]) Release(conn C) *future.Future[bool] {
	return b.ReleaseWithPromise(conn, future.New[bool]())
}

// ReleaseWithPromise implements §4.F "Release". A nil promise or nil conn
// is reported as ErrArgument rather than reaching conn.IsActive() and
// panicking. Per §9 Q1, whenever the inner pool re-pools the connection
// this arms a close-listener on it in addition to the one armed on the
// acquire path,
// so that a connection that dies while sitting idle (rather than while in
// a caller's hands) still replenishes admission — the required fix for
// the origin design's asymmetric behavior.
func (b *BoundedPool[K, C]) ReleaseWithPromise(conn C, promise *future.Future[bool]) *future.Future[bool] {
	if promise == nil {
		return future.Failed[bool](ErrArgument)
	}
	if isNilConnection(conn) {
		promise.SetFailure(fmt.Errorf("%w: conn is nil", ErrArgument))
		return promise
	}
	if !conn.IsActive() {
		promise.SetSuccess(false)
		return promise
	}

	result := b.inner.ReleaseWithPromise(conn, promise)
	result.AddListener(func(f *future.Future[bool]) {
		rePooled, _ := f.GetNow()
		if rePooled {
			conn.CloseFuture().AddListener(func(*future.Future[struct{}]) {
				b.runTaskQueue()
			})
		}
		b.runTaskQueue()
	})
	return result
}

// runTaskQueue implements §4.F's run_task_queue(): decrement, then either
// hand the freed budget to the next pending task or, if the queue is
// empty, give the budget back. Preserves the origin design's
// decrement-then-check-then-reincrement idiom (§9 Q3) on top of an atomic
// integer; the pending-queue pop is separately guarded by mu, so there is
// no multi-field composite state that would need a true CAS.
func (b *BoundedPool[K, C]) runTaskQueue() {
	for {
		remaining := b.acquiredCount.Add(-1)
		if remaining > b.maxConnections {
			return
		}
		task, ok := b.popPending()
		if !ok {
			b.acquiredCount.Add(1)
			return
		}
		b.armDecrementListener(task.promise)
		b.inner.AcquireWithPromise(task.ctx, task.key, task.promise)
	}
}

func (b *BoundedPool[K, C]) popPending() (acquireTask[K, C], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		var zero acquireTask[K, C]
		return zero, false
	}
	task := b.pending[0]
	b.pending = b.pending[1:]
	return task, true
}

// PendingCount returns the current pending-queue depth.
func (b *BoundedPool[K, C]) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Close fails every still-pending acquirer with ErrPoolClosed and closes
// the wrapped pool.
func (b *BoundedPool[K, C]) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, task := range pending {
		task.promise.SetFailure(ErrPoolClosed)
	}
	return b.inner.Close()
}

// Stats returns a snapshot combining the wrapped pool's idle counts (when
// it exposes them) with the admission counter and pending depth.
func (b *BoundedPool[K, C]) Stats() Stats {
	s := Stats{}
	if withStats, ok := b.inner.(interface{ Stats() Stats }); ok {
		s = withStats.Stats()
	}
	s.InFlight = int(b.acquiredCount.Load())
	s.MaxConnections = int(b.maxConnections)
	s.PendingAcquirers = b.PendingCount()
	return s
}

var _ Pool[string, Connection] = (*BoundedPool[string, Connection])(nil)
