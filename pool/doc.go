// Package pool implements a keyed connection pool for network clients: a
// reusable component that amortizes the cost of establishing outbound
// connections by caching idle connections per destination, reusing them
// across logical requests, and optionally capping the number of
// concurrent live connections with fair pending-acquire queueing.
//
// SimplePool is the engine: a keyed LIFO cache of idle connections with
// health-check gating and key attribution. BoundedPool wraps any Pool
// (typically a *SimplePool) to enforce a maximum of in-flight connections
// per pool, queueing excess acquirers in FIFO order.
//
// Neither type performs background maintenance: no idle eviction by age,
// no adaptive sizing, no circuit breaking, no cross-process sharing, and
// no request-level retry. Callers compose timeouts and retries on top of
// the Futures this package returns.
package pool
