package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/wuyinxian124/netty/future"
)

// Pool is the interface BoundedPool wraps (typically a *SimplePool, but
// any conforming implementation works, per §4.F "wraps any pool").
type Pool[K comparable, C Connection] interface {
	AcquireWithPromise(ctx context.Context, key K, promise *future.Future[C]) *future.Future[C]
	ReleaseWithPromise(conn C, promise *future.Future[bool]) *future.Future[bool]
	Close() error
}

// SimplePool is the keyed pool engine (component E): a keyed LIFO cache
// of idle connections plus the acquire/release protocol, health-check
// gating, and key attribution on connections.
//
// Grounded on holdno-keypool's channelPool[T] (per-key stores, get-or-create
// on first use) restructured around a mutex-guarded idleStack per key
// instead of a bounded channel, and on the pool's origin design's
// SimpleChannelPool (acquire/release/notifyHealthCheck control flow).
type SimplePool[K comparable, C Connection] struct {
	factory  Factory[K, C]
	observer Observer[K, C]
	health   HealthChecker[K, C]
	logger   Logger

	stacks sync.Map // K -> *idleStack[C], put-if-absent via LoadOrStore (§4.E step 2)
	closed atomic.Bool
}

// SimpleOption configures a SimplePool at construction time.
type SimpleOption[K comparable, C Connection] func(*SimplePool[K, C])

// WithHealthChecker overrides the default ActiveHealthChecker.
func WithHealthChecker[K comparable, C Connection](h HealthChecker[K, C]) SimpleOption[K, C] {
	return func(p *SimplePool[K, C]) { p.health = h }
}

// WithLogger installs a diagnostic Logger. A nil logger is ignored.
func WithLogger[K comparable, C Connection](l Logger) SimpleOption[K, C] {
	return func(p *SimplePool[K, C]) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewSimplePool constructs a pool engine around factory and observer, per
// §6 "construction taking (factory, observer[, health_checker[, max_connections]])".
// The max_connections argument, when wanted, is applied by wrapping the
// returned *SimplePool in a BoundedPool (see NewBoundedPool) rather than
// as a constructor parameter here, keeping the two components' state
// machines (§4.E vs §4.F) independent, as the spec's own component table
// already separates them.
func NewSimplePool[K comparable, C Connection](factory Factory[K, C], observer Observer[K, C], opts ...SimpleOption[K, C]) *SimplePool[K, C] {
	if observer == nil {
		observer = NoopObserver[K, C]{}
	}
	p := &SimplePool[K, C]{
		factory:  factory,
		observer: observer,
		health:   ActiveHealthChecker[K, C](),
		logger:   defaultLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire is the no-promise convenience form of AcquireWithPromise.
func (p *SimplePool[K, C]) Acquire(ctx context.Context, key K) *future.Future[C] {
	return p.AcquireWithPromise(ctx, key, future.New[C]())
}

// AcquireWithPromise implements the acquire algorithm of §4.E. A nil
// promise is a caller mistake, not a request to have one fabricated: it is
// reported as ErrArgument on a freshly failed Future rather than silently
// replaced, per §7's "checkNotNull" boundary checks.
func (p *SimplePool[K, C]) AcquireWithPromise(ctx context.Context, key K, promise *future.Future[C]) *future.Future[C] {
	if promise == nil {
		return future.Failed[C](ErrArgument)
	}
	if p.closed.Load() {
		promise.SetFailure(ErrPoolClosed)
		return promise
	}
	p.acquireLoop(ctx, key, promise)
	return promise
}

// acquireLoop implements steps 1-4 of the acquire algorithm. The
// synchronous-health-check case is a true loop (no stack growth); the
// asynchronous case re-enters via the health Future's listener, so its
// recursion depth is bounded by the number of unhealthy idle entries
// encountered for this call, per §9 "coroutine / promise-chain control
// flow" — never by the total lifetime of the pool.
func (p *SimplePool[K, C]) acquireLoop(ctx context.Context, key K, promise *future.Future[C]) {
	for {
		stack := p.stackFor(key)
		conn, ok := stack.pop()
		if !ok {
			p.newConnection(ctx, key, promise)
			return
		}

		verdict := p.health.IsHealthy(ctx, conn, key)
		if !verdict.IsDone() {
			verdict.AddListener(func(v *future.Future[bool]) {
				if !p.deliverIfHealthy(v, conn, key, promise) {
					p.acquireLoop(ctx, key, promise)
				}
			})
			return
		}
		if p.deliverIfHealthy(verdict, conn, key, promise) {
			return
		}
		// unhealthy: conn was already closed by deliverIfHealthy; retry.
	}
}

// deliverIfHealthy resolves promise and returns true if verdict says conn
// is healthy. Otherwise, including when the health check itself errored
// (a check failure is never surfaced to the caller, per §4.E "Failure
// semantics"), it closes conn and returns false to tell the caller to
// loop and try the next idle candidate.
func (p *SimplePool[K, C]) deliverIfHealthy(verdict *future.Future[bool], conn C, key K, promise *future.Future[C]) bool {
	healthy, ok := verdict.GetNow()
	if ok && healthy {
		if notifyObserver(promise, func() { p.observer.OnAcquired(conn, key) }) {
			promise.SetSuccess(conn)
		}
		return true
	}
	p.logger.Debugf("pool: evicting unhealthy idle connection for key %v", key)
	conn.Close()
	return false
}

// newConnection implements acquire step 4: construct via the factory,
// attribute the key on success, notify the observer, and deliver.
func (p *SimplePool[K, C]) newConnection(ctx context.Context, key K, promise *future.Future[C]) {
	connFuture := p.factory.Connect(ctx, key)
	connFuture.AddListener(func(f *future.Future[C]) {
		if !f.IsSuccess() {
			promise.SetFailure(fmt.Errorf("%w: %v", ErrConnect, f.Cause()))
			return
		}
		conn, _ := f.GetNow()
		conn.Attributes().Set(KeyAttribute, key)
		if notifyObserver(promise, func() { p.observer.OnCreated(conn, key) }) {
			promise.SetSuccess(conn)
		}
	})
}

// notifyObserver invokes fn, converting a panic from the (trust-boundary)
// Observer into a failure of promise rather than letting it escape, per §7
// "any factory or observer error" being fatal-but-surfaced, not a crash.
// It returns false if the panic was caught (promise already resolved with
// the failure), telling the caller not to also resolve it with success.
func notifyObserver[T any](promise *future.Future[T], fn func()) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			ok = false
			promise.SetFailure(fmt.Errorf("%w: %v", ErrInitializer, r))
		}
	}()
	fn()
	return ok
}

// Release is the no-promise convenience form of ReleaseWithPromise.
func (p *SimplePool[K, C]) Release(conn C) *future.Future[bool] {
	return p.ReleaseWithPromise(conn, future.New[bool]())
}

// ReleaseWithPromise implements the release algorithm of §4.E. A nil
// promise is reported as ErrArgument on a fresh Future rather than
// silently replaced (mirrors AcquireWithPromise); a nil conn is reported
// as ErrArgument on the caller's own promise instead of being allowed to
// panic through Attributes()'s pointer dereference. Only a genuine
// Observer panic past this point is converted to ErrInitializer by the
// recover below.
func (p *SimplePool[K, C]) ReleaseWithPromise(conn C, promise *future.Future[bool]) *future.Future[bool] {
	if promise == nil {
		return future.Failed[bool](ErrArgument)
	}
	if isNilConnection(conn) {
		promise.SetFailure(fmt.Errorf("%w: conn is nil", ErrArgument))
		return promise
	}

	defer func() {
		if r := recover(); r != nil {
			promise.SetFailure(fmt.Errorf("%w: %v", ErrInitializer, r))
		}
	}()

	rawKey, had := conn.Attributes().GetAndClear(KeyAttribute)
	if !had {
		promise.SetSuccess(false)
		return promise
	}
	key, ok := rawKey.(K)
	if !ok {
		promise.SetFailure(fmt.Errorf("%w: pool_key attribute has unexpected type", ErrNotPooled))
		return promise
	}

	stack := p.stackFor(key)
	stack.push(conn)
	p.observer.OnReleased(conn, key)
	promise.SetSuccess(true)
	return promise
}

// stackFor returns the idle stack for key, creating it race-free on first
// use (§4.E Release step 2 "put-if-absent semantics").
func (p *SimplePool[K, C]) stackFor(key K) *idleStack[C] {
	if v, ok := p.stacks.Load(key); ok {
		return v.(*idleStack[C])
	}
	actual, _ := p.stacks.LoadOrStore(key, newIdleStack[C]())
	return actual.(*idleStack[C])
}

// Close marks the pool closed (further Acquire calls fail with
// ErrPoolClosed) and closes every currently-idle connection. Issued
// connections are left untouched: the pool never owns a connection's
// final destruction (§3 "Lifecycles").
func (p *SimplePool[K, C]) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.stacks.Range(func(_, v any) bool {
		for _, conn := range v.(*idleStack[C]).drain() {
			conn.Close()
		}
		return true
	})
	return nil
}

// Stats returns a read-only snapshot of idle connection counts.
func (p *SimplePool[K, C]) Stats() Stats {
	var idle int
	p.stacks.Range(func(_, v any) bool {
		idle += v.(*idleStack[C]).len()
		return true
	})
	return Stats{Idle: idle}
}

var _ Pool[string, Connection] = (*SimplePool[string, Connection])(nil)
