package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/ordermart/ordermart/pkg/retry"
)

func TestGetPoolConfigForComponent(t *testing.T) {
	tests := []struct {
		component string
		wantMin   int32
		wantMax   int32
		wantName  string
	}{
		{"pipeline", 2, 10, "pipeline"},
		{"worker", 2, 10, "worker"},
		{"query", 2, 20, "query"},
		{"", 2, 20, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			cfg := GetPoolConfigForComponent(tt.component)
			assert.Equal(t, tt.wantMin, cfg.MinConns)
			assert.Equal(t, tt.wantMax, cfg.MaxConns)
			assert.Equal(t, tt.wantName, cfg.Component)
			assert.Equal(t, 5*time.Minute, cfg.ConnMaxLifetime)
			assert.LessOrEqual(t, cfg.MinConns, cfg.MaxConns)
		})
	}
}

func TestClassifyConnErr(t *testing.T) {
	auth := fmt.Errorf("failed to ping postgres: %w", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"})
	assert.True(t, retry.IsPermanent(classifyConnErr(auth)))
	assert.ErrorIs(t, classifyConnErr(auth), auth)

	down := fmt.Errorf("failed to ping postgres: %w", &pgconn.PgError{Code: "57P03", Message: "the database system is starting up"})
	assert.False(t, retry.IsPermanent(classifyConnErr(down)))
	assert.False(t, retry.IsPermanent(classifyConnErr(context.DeadlineExceeded)))
}

func TestGetExecutorWithoutTx(t *testing.T) {
	c := &Client{}
	ex := c.GetExecutor(context.Background())
	assert.IsType(t, (*pgxpool.Pool)(nil), ex)
}
