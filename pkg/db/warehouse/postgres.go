package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/models"
	"github.com/ordermart/ordermart/pkg/db/postgres"
)

// Postgres keeps a serving copy of published layers. Every layer is replaced in a single
// transaction, so readers of the database see the swap at commit.
type Postgres struct {
	Logger *zap.Logger
	Client *postgres.Client
}

func NewPostgres(logger *zap.Logger, client *postgres.Client) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{Logger: logger, Client: client}
}

func (s *Postgres) Name() string { return "postgres" }

func (s *Postgres) Publish(ctx context.Context, layer entities.Layer, batches []Batch) error {
	if err := checkLayer(layer, batches); err != nil {
		return err
	}

	err := s.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := s.Client.WithTx(ctx, tx)
		for _, b := range batches {
			if err := s.replace(txCtx, b); err != nil {
				return fmt.Errorf("replace %s: %w", b.Entity, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Info("Layer published",
		zap.String("store", s.Name()),
		zap.String("layer", string(layer)),
		zap.Int("entities", len(batches)))
	return nil
}

func (s *Postgres) replace(ctx context.Context, b Batch) error {
	ex := s.Client.GetExecutor(ctx)
	live := pgx.Identifier{b.Entity.TableName()}
	staging := pgx.Identifier{b.Entity.StagingTableName()}

	statements := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", staging.Sanitize()),
		fmt.Sprintf("CREATE TABLE %s (%s)", staging.Sanitize(), models.ColumnsToPGSchemaSQL(b.Columns)),
	}
	for _, q := range statements {
		if _, err := ex.Exec(ctx, q); err != nil {
			return err
		}
	}

	if b.Len() > 0 {
		rows := make([][]any, len(b.Rows))
		for i, r := range b.Rows {
			rows[i] = pgValues(r)
		}
		if _, err := ex.CopyFrom(ctx, staging, models.ColumnNames(b.Columns), pgx.CopyFromRows(rows)); err != nil {
			return err
		}
	}

	statements = []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", live.Sanitize()),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging.Sanitize(), live.Sanitize()),
	}
	for _, q := range statements {
		if _, err := ex.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// pgValues converts decimals, which pgx does not encode natively, to numerics.
func pgValues(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch d := v.(type) {
		case decimal.Decimal:
			out[i] = numeric(d)
		case *decimal.Decimal:
			if d == nil {
				out[i] = nil
			} else {
				out[i] = numeric(*d)
			}
		default:
			out[i] = v
		}
	}
	return out
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
