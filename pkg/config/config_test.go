package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SOURCE_DIR", "SOURCE_DELIMITER", "STORE_BACKEND", "PIPELINE_MODE", "PIPELINE_CRON", "PIPELINE_RUN_TIMEOUT", "ADDR"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "./data", cfg.SourceDir)
	assert.Equal(t, ',', cfg.Delimiter)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, "0 0 2 * * *", cfg.PipelineCron)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, ":3001", cfg.Addr)
	assert.False(t, cfg.PostgresEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SOURCE_DELIMITER", ";")
	t.Setenv("STORE_BACKEND", BackendClickHouse)
	t.Setenv("PIPELINE_MODE", ModeTemporal)
	t.Setenv("POSTGRES_ENABLED", "true")
	t.Setenv("PIPELINE_PARALLELISM", "3")
	t.Setenv("PIPELINE_RUN_TIMEOUT", "90s")

	cfg := Load()
	assert.Equal(t, ';', cfg.Delimiter)
	assert.Equal(t, BackendClickHouse, cfg.StoreBackend)
	assert.Equal(t, ModeTemporal, cfg.Mode)
	assert.True(t, cfg.PostgresEnabled)
	assert.Equal(t, 3, cfg.Parallelism)
	assert.Equal(t, 90*time.Second, cfg.RunTimeout)
}
