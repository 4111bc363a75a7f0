package warehouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/clickhouse"
	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/models"
)

// ClickHouse publishes each entity into a _staging table and swaps it with the live one
// once every entity of the layer has been loaded.
type ClickHouse struct {
	Logger *zap.Logger
	Client *clickhouse.Client
}

func NewClickHouse(logger *zap.Logger, client *clickhouse.Client) *ClickHouse {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClickHouse{Logger: logger, Client: client}
}

func (s *ClickHouse) Name() string { return "clickhouse" }

func (s *ClickHouse) qualified(table string) string {
	return fmt.Sprintf(`"%s"."%s"`, s.Client.Database, table)
}

func (s *ClickHouse) createTable(ctx context.Context, e entities.Entity, table string) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s %s (
			%s
		) ENGINE = MergeTree
		ORDER BY (%s)
	`, s.qualified(table), s.Client.OnCluster(), models.ColumnsToSchemaSQL(Columns(e)), strings.Join(e.Key(), ", "))
	return s.Client.Exec(ctx, query)
}

func (s *ClickHouse) dropTable(ctx context.Context, table string) error {
	return s.Client.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s %s SYNC", s.qualified(table), s.Client.OnCluster()))
}

// InitTables creates every live table that does not exist yet.
func (s *ClickHouse) InitTables(ctx context.Context) error {
	for _, e := range entities.All() {
		if err := s.createTable(ctx, e, e.TableName()); err != nil {
			return fmt.Errorf("create %s: %w", e, err)
		}
	}
	return nil
}

func (s *ClickHouse) load(ctx context.Context, b Batch) error {
	table := b.Entity.StagingTableName()
	if err := s.dropTable(ctx, table); err != nil {
		return err
	}
	if err := s.createTable(ctx, b.Entity, table); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES", s.qualified(table), models.ColumnsToNameList(b.Columns))
	batch, err := s.Client.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = batch.Close() }()

	for _, row := range b.Rows {
		if err := batch.Append(row...); err != nil {
			_ = batch.Abort()
			return err
		}
	}
	return batch.Send()
}

func (s *ClickHouse) Publish(ctx context.Context, layer entities.Layer, batches []Batch) error {
	if err := checkLayer(layer, batches); err != nil {
		return err
	}

	for _, b := range batches {
		if err := s.load(ctx, b); err != nil {
			return fmt.Errorf("load %s: %w", b.Entity, err)
		}
	}

	// Nothing is visible until every staging table is complete.
	swaps := make([]tableSwap, 0, len(batches))
	for _, b := range batches {
		if err := s.createTable(ctx, b.Entity, b.Entity.TableName()); err != nil {
			return fmt.Errorf("create %s: %w", b.Entity, err)
		}
		swaps = append(swaps, tableSwap{
			entity:  b.Entity,
			live:    s.qualified(b.Entity.TableName()),
			staging: s.qualified(b.Entity.StagingTableName()),
		})
	}
	if err := exchangeAll(ctx, s.Client, s.Client.OnCluster(), swaps, s.Logger); err != nil {
		return err
	}

	for _, b := range batches {
		if err := s.dropTable(ctx, b.Entity.StagingTableName()); err != nil {
			s.Logger.Warn("Failed to drop previous table", zap.String("table", b.Entity.StagingTableName()), zap.Error(err))
		}
	}

	s.Logger.Info("Layer published",
		zap.String("store", s.Name()),
		zap.String("layer", string(layer)),
		zap.Int("entities", len(batches)))
	return nil
}

type execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

type tableSwap struct {
	entity        entities.Entity
	live, staging string
}

func (t tableSwap) query(onCluster string) string {
	return fmt.Sprintf("EXCHANGE TABLES %s AND %s %s", t.live, t.staging, onCluster)
}

// exchangeAll swaps every pair in order. When one swap fails, the pairs already swapped
// are exchanged back in reverse order so the live tables keep the previous layer.
func exchangeAll(ctx context.Context, db execer, onCluster string, swaps []tableSwap, logger *zap.Logger) error {
	for i, sw := range swaps {
		err := db.Exec(ctx, sw.query(onCluster))
		if err == nil {
			continue
		}

		restoreCtx := context.WithoutCancel(ctx)
		for j := i - 1; j >= 0; j-- {
			if rerr := db.Exec(restoreCtx, swaps[j].query(onCluster)); rerr != nil {
				logger.Error("Failed to restore previous table",
					zap.String("entity", swaps[j].entity.String()),
					zap.Error(rerr))
				err = errors.Join(err, fmt.Errorf("restore %s: %w", swaps[j].entity, rerr))
			}
		}
		return fmt.Errorf("swap %s: %w", sw.entity, err)
	}
	return nil
}

func (s *ClickHouse) Select(ctx context.Context, e entities.Entity, dest any) error {
	if !e.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, e)
	}
	exists, err := s.Client.TableExists(ctx, s.Client.Database, e.TableName())
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotPublished, e)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		models.ColumnsToNameList(Columns(e)), s.qualified(e.TableName()), strings.Join(e.Key(), ", "))
	return s.Client.Select(ctx, dest, query)
}
