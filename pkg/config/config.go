package config

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/ordermart/ordermart/pkg/utils"
)

// Store backends accepted in STORE_BACKEND.
const (
	BackendMemory     = "memory"
	BackendClickHouse = "clickhouse"
)

// Execution modes accepted in PIPELINE_MODE.
const (
	ModeLocal    = "local"
	ModeTemporal = "temporal"
)

// Config is the process configuration shared by every binary.
type Config struct {
	// SourceDir holds the nine delimited input files.
	SourceDir string
	Delimiter rune

	StoreBackend     string
	ClickHouseDB     string
	PostgresEnabled  bool
	PostgresDB       string
	RedisEnabled     bool
	MetricsNamespace string

	// Parallelism caps the shared aggregation pool. Zero means four workers per CPU.
	Parallelism int

	// Mode selects whether the scheduler runs the pipeline in process or through Temporal.
	Mode          string
	TemporalQueue string
	PipelineCron  string
	RunTimeout    time.Duration

	Addr string
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	_ = godotenv.Load()

	delimiter := ','
	if d := utils.Env("SOURCE_DELIMITER", ","); d != "" {
		delimiter = []rune(d)[0]
	}

	return Config{
		SourceDir:        utils.Env("SOURCE_DIR", "./data"),
		Delimiter:        delimiter,
		StoreBackend:     utils.Env("STORE_BACKEND", BackendMemory),
		ClickHouseDB:     utils.Env("CLICKHOUSE_DB", "ordermart"),
		PostgresEnabled:  utils.EnvBool("POSTGRES_ENABLED", false),
		PostgresDB:       utils.Env("POSTGRES_DB", "ordermart"),
		RedisEnabled:     utils.EnvBool("REDIS_ENABLED", false),
		MetricsNamespace: utils.Env("METRICS_NAMESPACE", "ordermart"),
		Parallelism:      utils.EnvInt("PIPELINE_PARALLELISM", 0),
		Mode:             utils.Env("PIPELINE_MODE", ModeLocal),
		TemporalQueue:    utils.Env("TEMPORAL_PIPELINE_QUEUE", "pipeline"),
		PipelineCron:     utils.Env("PIPELINE_CRON", "0 0 2 * * *"),
		RunTimeout:       utils.EnvDuration("PIPELINE_RUN_TIMEOUT", 30*time.Minute),
		Addr:             utils.Env("ADDR", ":3001"),
	}
}
