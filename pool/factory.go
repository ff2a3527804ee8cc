package pool

import (
	"context"

	"github.com/wuyinxian124/netty/future"
)

// Factory is the external connection-establishment collaborator
// (component D, §6 "Transport collaborator"). Clone and CloneWithExecutor
// exist so a caller-supplied bootstrap can be duplicated per key the way
// Netty's Bootstrap.clone()/clone(EventLoop) is, without mutating a
// shared instance across concurrent acquires.
//
// The pool itself performs the key-attribute bookkeeping and invokes the
// lifecycle Observer directly after a successful Connect (see
// SimplePool's acquire algorithm); it does not need Factory to expose a
// separate pre-connect attribute/handler hook the way the pool's origin
// design's Bootstrap did, because a Go Factory value has no equivalent
// mutable pipeline to install one into.
type Factory[K comparable, C Connection] interface {
	// Clone returns an independent copy of this factory.
	Clone() Factory[K, C]
	// CloneWithExecutor returns a copy of this factory bound to executor.
	CloneWithExecutor(executor Executor) Factory[K, C]
	// Connect establishes a new connection for key.
	Connect(ctx context.Context, key K) *future.Future[C]
}
