package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/wuyinxian124/netty/future"
)

// fakeConn is the minimal Connection used across this package's tests: an
// in-memory stand-in for a real transport connection.
type fakeConn struct {
	id     int
	attrs  *Attributes
	closed atomic.Bool
	closeF *future.Future[struct{}]
}

func newFakeConn(id int) *fakeConn {
	return &fakeConn{id: id, attrs: NewAttributes(), closeF: future.New[struct{}]()}
}

func (c *fakeConn) IsActive() bool { return !c.closed.Load() }

func (c *fakeConn) Close() *future.Future[struct{}] {
	if c.closed.CompareAndSwap(false, true) {
		c.closeF.SetSuccess(struct{}{})
	}
	return c.closeF
}

func (c *fakeConn) CloseFuture() *future.Future[struct{}] { return c.closeF }

func (c *fakeConn) Attributes() *Attributes { return c.attrs }

var _ Connection = (*fakeConn)(nil)

// fakeFactory hands out fresh *fakeConn values and counts how many it has
// created, the way S1/S2/S5 assert against "factory-created count".
type fakeFactory struct {
	created atomic.Int64
	nextID  atomic.Int64
	fail    atomic.Bool
}

func (f *fakeFactory) Clone() Factory[DefaultKey, *fakeConn] {
	return f
}

func (f *fakeFactory) CloneWithExecutor(Executor) Factory[DefaultKey, *fakeConn] {
	return f
}

func (f *fakeFactory) Connect(_ context.Context, _ DefaultKey) *future.Future[*fakeConn] {
	if f.fail.Load() {
		return future.Failed[*fakeConn](errors.New("dial refused"))
	}
	id := int(f.nextID.Add(1))
	f.created.Add(1)
	return future.Succeeded(newFakeConn(id))
}

var _ Factory[DefaultKey, *fakeConn] = (*fakeFactory)(nil)

// recordingObserver tallies the three lifecycle callbacks so tests can
// assert the exact totals from S1-S5.
type recordingObserver struct {
	mu       sync.Mutex
	created  int
	acquired int
	released int
}

func (r *recordingObserver) OnCreated(*fakeConn, DefaultKey) {
	r.mu.Lock()
	r.created++
	r.mu.Unlock()
}

func (r *recordingObserver) OnAcquired(*fakeConn, DefaultKey) {
	r.mu.Lock()
	r.acquired++
	r.mu.Unlock()
}

func (r *recordingObserver) OnReleased(*fakeConn, DefaultKey) {
	r.mu.Lock()
	r.released++
	r.mu.Unlock()
}

func (r *recordingObserver) totals() (created, acquired, released int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created, r.acquired, r.released
}

var _ Observer[DefaultKey, *fakeConn] = (*recordingObserver)(nil)

// flakyHealthChecker reports unhealthy for the first n probes of a given
// connection id, then healthy forever after, per S5.
type flakyHealthChecker struct {
	mu          sync.Mutex
	unhealthyN  map[int]int
	defaultFlip int
}

func newFlakyHealthChecker(defaultFlip int) *flakyHealthChecker {
	return &flakyHealthChecker{unhealthyN: make(map[int]int), defaultFlip: defaultFlip}
}

func (h *flakyHealthChecker) IsHealthy(_ context.Context, conn *fakeConn, _ DefaultKey) *future.Future[bool] {
	h.mu.Lock()
	defer h.mu.Unlock()
	remaining, ok := h.unhealthyN[conn.id]
	if !ok {
		remaining = h.defaultFlip
	}
	if remaining > 0 {
		h.unhealthyN[conn.id] = remaining - 1
		return future.Succeeded(false)
	}
	return future.Succeeded(conn.IsActive())
}

var _ HealthChecker[DefaultKey, *fakeConn] = (*flakyHealthChecker)(nil)
