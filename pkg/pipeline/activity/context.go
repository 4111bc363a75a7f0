package activity

import (
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/source"
	"github.com/ordermart/ordermart/pkg/workers"
)

// Context carries the dependencies shared by every pipeline activity.
type Context struct {
	Logger *zap.Logger
	// Loader reads the raw input files.
	Loader source.Loader
	// Store receives every published layer and serves reads between layers.
	Store warehouse.Store
	Rules config.Rules
	// Notifier announces refreshed layers. Nil disables notifications.
	Notifier Notifier
	Metrics  *metrics.Metrics
	// Parallelism overrides the aggregation pool size.
	Parallelism int

	poolOnce sync.Once
	pool     pond.Pool
}

// Pool returns the shared aggregation pool, created on first use.
func (c *Context) Pool() pond.Pool {
	c.poolOnce.Do(func() {
		c.pool = workers.NewPool(c.Parallelism)
	})
	return c.pool
}

// PoolSize exposes the configured pool size for logging purposes.
func (c *Context) PoolSize() int {
	return workers.Parallelism(c.Parallelism)
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Close stops the pool once queued work is done.
func (c *Context) Close() {
	if c.pool != nil {
		c.pool.StopAndWait()
	}
}
