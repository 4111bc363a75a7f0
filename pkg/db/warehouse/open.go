package warehouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/clickhouse"
	"github.com/ordermart/ordermart/pkg/db/postgres"
)

// Opened is a store plus the connections it owns.
type Opened struct {
	Store   Store
	closers []func()
}

// Close releases every connection held by the store.
func (o *Opened) Close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		o.closers[i]()
	}
}

// Open builds the configured primary store and, when enabled, the Postgres serving copy.
// component selects the connection pool sizes.
func Open(ctx context.Context, logger *zap.Logger, cfg config.Config, component string) (*Opened, error) {
	out := &Opened{}

	var primary Store
	switch cfg.StoreBackend {
	case config.BackendMemory, "":
		primary = NewMemory(logger)
	case config.BackendClickHouse:
		client, err := clickhouse.New(ctx, logger, cfg.ClickHouseDB, clickhouse.GetPoolConfigForComponent(component))
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		out.closers = append(out.closers, func() { _ = client.Close() })
		ch := NewClickHouse(logger, &client)
		if err := ch.InitTables(ctx); err != nil {
			out.Close()
			return nil, err
		}
		primary = ch
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if !cfg.PostgresEnabled {
		out.Store = primary
		return out, nil
	}

	pg, err := postgres.New(ctx, logger, cfg.PostgresDB, postgres.GetPoolConfigForComponent(component))
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}
	out.closers = append(out.closers, pg.Close)
	out.Store = NewFanout(logger, primary, NewPostgres(logger, &pg))
	return out, nil
}
