package pool

// Executor models a pinned execution context a connection, and the
// factory that creates it, may be bound to (e.g. a particular event loop
// or worker goroutine). A nil Executor means "no affinity". Executor
// implementations must be comparable, since they are embedded in Key
// values used as map keys.
type Executor interface {
	// Go schedules fn to run on this executor.
	Go(fn func())
}

// Key identifies the destination (and optional executor affinity) that
// connections are partitioned by (component A). Two keys with equal
// RemoteAddress and Executor are interchangeable from the pool's
// perspective (I6).
type Key interface {
	RemoteAddress() string
	Executor() (Executor, bool)
}

// DefaultKey is the concrete Key implementation (component G): a remote
// address plus an optional pinned Executor. It is a plain comparable
// value, cheap to copy, suitable as a generic pool's map key type.
type DefaultKey struct {
	addr     string
	executor Executor
}

// NewKey returns a DefaultKey with no executor affinity.
func NewKey(addr string) DefaultKey {
	return DefaultKey{addr: addr}
}

// WithExecutor returns a copy of k pinned to executor.
func (k DefaultKey) WithExecutor(executor Executor) DefaultKey {
	k.executor = executor
	return k
}

// RemoteAddress implements Key.
func (k DefaultKey) RemoteAddress() string { return k.addr }

// Executor implements Key.
func (k DefaultKey) Executor() (Executor, bool) {
	return k.executor, k.executor != nil
}

var _ Key = DefaultKey{}
