package pool

import (
	"context"

	"github.com/wuyinxian124/netty/future"
)

// HealthChecker produces an eventual verdict of reusability for a
// previously-idle connection (component B). Implementations must not
// mutate the connection in a way that prevents its reuse.
type HealthChecker[K comparable, C Connection] interface {
	IsHealthy(ctx context.Context, conn C, key K) *future.Future[bool]
}

// activeHealthChecker is the default implementation: "is connected and not
// closed", resolved synchronously. It carries no state, so a single value
// can be shared freely (§9 "global singletons" reproduced as a stateless
// shared constant rather than mutable global state).
type activeHealthChecker[K comparable, C Connection] struct{}

// IsHealthy implements HealthChecker.
func (activeHealthChecker[K, C]) IsHealthy(_ context.Context, conn C, _ K) *future.Future[bool] {
	return future.Succeeded(conn.IsActive())
}

// ActiveHealthChecker returns the default "is connected and not closed"
// health checker for the given K, C instantiation.
func ActiveHealthChecker[K comparable, C Connection]() HealthChecker[K, C] {
	return activeHealthChecker[K, C]{}
}
