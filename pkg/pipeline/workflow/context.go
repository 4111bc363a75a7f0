package workflow

import (
	"time"

	"github.com/ordermart/ordermart/pkg/pipeline/activity"
)

// Config holds the workflow configuration.
type Config struct {
	// LayerTimeout bounds a single layer activity.
	LayerTimeout time.Duration
	// MaxAttempts bounds retries of transient activity failures.
	MaxAttempts int32
}

func DefaultConfig() Config {
	return Config{LayerTimeout: 30 * time.Minute, MaxAttempts: 3}
}

// Context holds the workflow context.
type Context struct {
	ActivityContext *activity.Context
	Config          Config
}

// Registered workflow names, used by callers that start runs through the Temporal client.
const (
	PipelineWorkflowName    = "PipelineWorkflow"
	RefreshMartWorkflowName = "RefreshMartWorkflow"
)
