package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"

	"github.com/ordermart/ordermart/pkg/retry"
)

func TestGetPoolConfigForComponent(t *testing.T) {
	tests := []struct {
		name      string
		component string
		wantOpen  int
		wantIdle  int
		wantLife  time.Duration
	}{
		{name: "pipeline", component: "pipeline", wantOpen: 20, wantIdle: 5, wantLife: 5 * time.Minute},
		{name: "worker", component: "worker", wantOpen: 20, wantIdle: 5, wantLife: 5 * time.Minute},
		{name: "query", component: "query", wantOpen: 10, wantIdle: 3, wantLife: 5 * time.Minute},
		{name: "unknown_component_uses_defaults", component: "unknown", wantOpen: 75, wantIdle: 75, wantLife: 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := GetPoolConfigForComponent(tt.component)
			assert.Equal(t, tt.wantOpen, config.MaxOpenConns, "MaxOpenConns mismatch")
			assert.Equal(t, tt.wantIdle, config.MaxIdleConns, "MaxIdleConns mismatch")
			assert.Equal(t, tt.wantLife, config.ConnMaxLifetime, "ConnMaxLifetime mismatch")
			assert.Equal(t, tt.component, config.Component, "Component name mismatch")
		})
	}
}

func TestGetPoolConfigForComponent_KnownComponentsIgnoreEnv(t *testing.T) {
	t.Setenv("CLICKHOUSE_MAX_OPEN_CONNS", "999")
	t.Setenv("CLICKHOUSE_CONN_MAX_LIFETIME", "99h")

	config := GetPoolConfigForComponent("query")
	assert.Equal(t, 10, config.MaxOpenConns, "Should ignore env and use fixed value")
	assert.Equal(t, 5*time.Minute, config.ConnMaxLifetime, "Should ignore env and use fixed value")
}

func TestGetPoolConfigForComponent_EnforcesMaxIdleLEMaxOpen(t *testing.T) {
	t.Setenv("CLICKHOUSE_MAX_OPEN_CONNS", "5")
	t.Setenv("CLICKHOUSE_MAX_IDLE_CONNS", "10")
	t.Setenv("CLICKHOUSE_CONN_MAX_LIFETIME", "10m")

	config := GetPoolConfigForComponent("")
	assert.Equal(t, 5, config.MaxOpenConns, "MaxOpenConns should be 5")
	assert.Equal(t, 5, config.MaxIdleConns, "MaxIdleConns should be capped at MaxOpenConns")
	assert.Equal(t, 10*time.Minute, config.ConnMaxLifetime)
	assert.Equal(t, "unknown", config.Component)
}

func TestExtractReplicas(t *testing.T) {
	assert.Equal(t, []string{"ch1:9000", "ch2:9000"}, extractReplicas("clickhouse://u:p@ch1:9000,ch2:9000/db?sslmode=disable"))
	assert.Equal(t, []string{"localhost:9000"}, extractReplicas("clickhouse://localhost:9000?sslmode=disable"))
	assert.Equal(t, []string{"localhost:9000"}, extractReplicas("clickhouse://u:p@/db"))
}

func TestExtractCredentials(t *testing.T) {
	user, pass := extractCredentials("clickhouse://analyst:s3cret@ch:9000/db")
	assert.Equal(t, "analyst", user)
	assert.Equal(t, "s3cret", pass)

	user, pass = extractCredentials("clickhouse://analyst@ch:9000")
	assert.Equal(t, "analyst", user)
	assert.Empty(t, pass)

	user, pass = extractCredentials("tcp://ch:9000")
	assert.Equal(t, "default", user)
	assert.Empty(t, pass)
}

func TestConnOpenStrategy(t *testing.T) {
	assert.Equal(t, clickhouse.ConnOpenRoundRobin, parseConnOpenStrategy(" Round_Robin "))
	assert.Equal(t, clickhouse.ConnOpenRandom, parseConnOpenStrategy("random"))
	assert.Equal(t, clickhouse.ConnOpenInOrder, parseConnOpenStrategy("bogus"))
	assert.Equal(t, "round_robin", formatConnOpenStrategy(clickhouse.ConnOpenRoundRobin))
}

func TestOnCluster(t *testing.T) {
	c := Client{}
	assert.Empty(t, c.OnCluster())
	c.Cluster = "analytics"
	assert.Equal(t, "ON CLUSTER analytics", c.OnCluster())
	assert.Equal(t, "ordermart_dev", SanitizeName("Ordermart-Dev"))
}

func TestClassifyConnErr(t *testing.T) {
	auth := fmt.Errorf("failed to ping clickhouse: %w", &clickhouse.Exception{Code: 516, Name: "AUTHENTICATION_FAILED"})
	assert.True(t, retry.IsPermanent(classifyConnErr(auth)))
	assert.ErrorIs(t, classifyConnErr(auth), auth)

	busy := fmt.Errorf("failed to ping clickhouse: %w", &clickhouse.Exception{Code: 202, Name: "TOO_MANY_SIMULTANEOUS_QUERIES"})
	assert.False(t, retry.IsPermanent(classifyConnErr(busy)))
	assert.False(t, retry.IsPermanent(classifyConnErr(context.DeadlineExceeded)))
}
