package pool

import (
	"reflect"

	"github.com/wuyinxian124/netty/future"
)

// Connection is the capability set the pool requires of C (§3 "Connection
// (C)"): it does not otherwise assume anything about thread-affinity
// beyond what a bound Executor prescribes, and it never owns a
// connection's final destruction.
type Connection interface {
	// IsActive reports whether the connection is currently usable.
	IsActive() bool
	// Close begins closing the connection.
	Close() *future.Future[struct{}]
	// CloseFuture returns the (shared, long-lived) Future that resolves
	// once this connection is closed, for any reason. The bounded wrapper
	// listens on it to replenish admission after a remote-initiated close.
	CloseFuture() *future.Future[struct{}]
	// Attributes returns this connection's attribute slots, used by the
	// pool to store and recover KeyAttribute.
	Attributes() *Attributes
}

// isNilConnection reports whether conn holds a nil value. C is a type
// parameter, not a concrete pointer type, so a caller's nil (e.g. a nil
// *demoConn passed as C) cannot be compared against a literal nil; this
// checks the boxed value's kind via reflection instead, the way generic
// code without a `comparable` constraint has to.
func isNilConnection[C Connection](conn C) bool {
	v := reflect.ValueOf(conn)
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
