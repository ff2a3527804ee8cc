// Command poolbench drives a pool.SimplePool (optionally wrapped in a
// pool.BoundedPool) against an in-memory fake factory, reporting idle and
// in-flight counts the way a production dial-pool smoke test would.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wuyinxian124/netty/future"
	"github.com/wuyinxian124/netty/internal/poolcfg"
	"github.com/wuyinxian124/netty/pool"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (optional)")
	flag.Parse()

	log := logrus.New()

	cfg, err := poolcfg.DefaultConfig(), error(nil)
	if *configPath != "" {
		cfg, err = poolcfg.LoadConfig(*configPath)
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if level, parseErr := logrus.ParseLevel(cfg.Log.Level); parseErr == nil {
		log.SetLevel(level)
	}

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatalf("poolbench: %v", err)
	}
}

func run(ctx context.Context, cfg *poolcfg.Config, log *logrus.Logger) error {
	factory := newDemoFactory(cfg.Pool.ConnectLatency, log)
	observer := pool.LoggingObserver[pool.DefaultKey, *demoConn]{Logger: log}

	simple := pool.NewSimplePool[pool.DefaultKey, *demoConn](factory, observer, pool.WithLogger[pool.DefaultKey, *demoConn](log))

	var engine pool.Pool[pool.DefaultKey, *demoConn] = simple
	if cfg.Pool.MaxConnections > 0 {
		bounded, err := pool.NewBoundedPool[pool.DefaultKey, *demoConn](simple, cfg.Pool.MaxConnections, pool.WithBoundedLogger[pool.DefaultKey, *demoConn](log))
		if err != nil {
			return fmt.Errorf("constructing bounded pool: %w", err)
		}
		engine = bounded
	}

	keys := make([]pool.DefaultKey, len(cfg.Pool.Addresses))
	for i, addr := range cfg.Pool.Addresses {
		keys[i] = pool.NewKey(addr)
	}

	var wg sync.WaitGroup
	var succeeded, failed atomic.Int64
	wg.Add(cfg.Pool.Workers)
	for w := 0; w < cfg.Pool.Workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for r := 0; r < cfg.Pool.Rounds; r++ {
				key := keys[(w+r)%len(keys)]
				conn, err := engine.AcquireWithPromise(ctx, key, future.New[*demoConn]()).Wait(ctx)
				if err != nil {
					failed.Add(1)
					log.Warnf("worker %d round %d: acquire failed: %v", w, r, err)
					continue
				}
				succeeded.Add(1)
				if _, err := engine.ReleaseWithPromise(conn, future.New[bool]()).Wait(ctx); err != nil {
					log.Warnf("worker %d round %d: release failed: %v", w, r, err)
				}
			}
		}()
	}
	wg.Wait()

	log.Infof("done: %d succeeded, %d failed, %d connections created", succeeded.Load(), failed.Load(), factory.created.Load())
	if stats, ok := engine.(interface{ Stats() pool.Stats }); ok {
		s := stats.Stats()
		log.Infof("final stats: idle=%d in_flight=%d max=%d pending=%d", s.Idle, s.InFlight, s.MaxConnections, s.PendingAcquirers)
	}

	if err := engine.Close(); err != nil {
		return fmt.Errorf("closing pool: %w", err)
	}
	return nil
}

// demoConn is a fake network connection: no real I/O, just a trace ID and
// an activity flag, closed cooperatively via its own Future.
type demoConn struct {
	id     uuid.UUID
	attrs  *pool.Attributes
	closed atomic.Bool
	closeF *future.Future[struct{}]
}

func newDemoConn() *demoConn {
	return &demoConn{
		id:     uuid.New(),
		attrs:  pool.NewAttributes(),
		closeF: future.New[struct{}](),
	}
}

func (c *demoConn) IsActive() bool { return !c.closed.Load() }

func (c *demoConn) Close() *future.Future[struct{}] {
	if c.closed.CompareAndSwap(false, true) {
		c.closeF.SetSuccess(struct{}{})
	}
	return c.closeF
}

func (c *demoConn) CloseFuture() *future.Future[struct{}] { return c.closeF }

func (c *demoConn) Attributes() *pool.Attributes { return c.attrs }

var _ pool.Connection = (*demoConn)(nil)

// demoFactory manufactures demoConns with a configurable simulated dial
// latency, standing in for a real TCP/TLS dialer.
type demoFactory struct {
	latency time.Duration
	log     *logrus.Logger
	created atomic.Int64
}

func newDemoFactory(latency time.Duration, log *logrus.Logger) *demoFactory {
	return &demoFactory{latency: latency, log: log}
}

func (f *demoFactory) Clone() pool.Factory[pool.DefaultKey, *demoConn] { return f }

func (f *demoFactory) CloneWithExecutor(pool.Executor) pool.Factory[pool.DefaultKey, *demoConn] {
	return f
}

func (f *demoFactory) Connect(ctx context.Context, key pool.DefaultKey) *future.Future[*demoConn] {
	promise := future.New[*demoConn]()
	go func() {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			promise.SetFailure(ctx.Err())
			return
		}
		conn := newDemoConn()
		f.created.Add(1)
		f.log.Debugf("dialed %s, trace=%s", key.RemoteAddress(), conn.id)
		promise.SetSuccess(conn)
	}()
	return promise
}

var _ pool.Factory[pool.DefaultKey, *demoConn] = (*demoFactory)(nil)

func init() {
	if os.Getenv("POOLBENCH_JSON_LOG") != "" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
