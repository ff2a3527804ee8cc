package pool

import "errors"

// Error kinds surfaced via promise failure (§7). Each is a sentinel
// suitable for errors.Is; ConnectFailure and InitializerFailure are
// returned as fmt.Errorf("%w: %v", sentinel, cause), so errors.Is matches
// the sentinel and the cause is carried as text only.
var (
	// ErrArgument reports an invalid argument at the API boundary.
	ErrArgument = errors.New("pool: invalid argument")
	// ErrConnect reports a transport refusal or aborted connection attempt.
	ErrConnect = errors.New("pool: connect failed")
	// ErrInitializer reports an observer callback that panicked or
	// otherwise failed during a created/acquired/released notification.
	ErrInitializer = errors.New("pool: observer initializer failed")
	// ErrNotPooled is returned by Release when a connection's pool_key
	// attribute holds a value of the wrong key type. A connection without
	// the attribute (never issued, or already released) is not an error:
	// Release resolves false for it (I4).
	ErrNotPooled = errors.New("pool: connection not owned by this pool")
	// ErrPoolClosed is returned by Acquire once the pool has been closed.
	ErrPoolClosed = errors.New("pool: pool is closed")
	// ErrMaxConnections reports an invalid max_connections configuration.
	ErrMaxConnections = errors.New("pool: max_connections must be >= 1")
)
