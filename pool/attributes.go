package pool

import "sync"

// KeyAttribute is the name of the mutable slot every pooled connection
// carries: the Key it currently belongs to while idle, absent while
// acquired (§3 "Key attribute").
const KeyAttribute = "pool_key"

// Attributes is the small atomic key/value slot holder attached to a
// connection (§6 "attribute(name) -> Slot"). It is deliberately generic
// (named slots, not just the one pool_key) so a Connection implementation
// can reuse the same mechanism for its own bookkeeping.
type Attributes struct {
	mu   sync.Mutex
	vals map[string]any
}

// NewAttributes returns an empty attribute set.
func NewAttributes() *Attributes {
	return &Attributes{vals: make(map[string]any)}
}

// Get returns the value stored under name, if any.
func (a *Attributes) Get(name string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.vals[name]
	return v, ok
}

// Set stores v under name, overwriting any previous value.
func (a *Attributes) Set(name string, v any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vals[name] = v
}

// GetAndSet atomically replaces the value under name with v, returning the
// previous value if any.
func (a *Attributes) GetAndSet(name string, v any) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	old, ok := a.vals[name]
	a.vals[name] = v
	return old, ok
}

// GetAndClear atomically removes name, returning the value it held if any.
// This is the operation Release uses to recover a connection's key (§4.E
// Release algorithm step 1).
func (a *Attributes) GetAndClear(name string) (any, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	old, ok := a.vals[name]
	delete(a.vals, name)
	return old, ok
}
