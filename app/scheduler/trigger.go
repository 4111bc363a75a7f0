package scheduler

import (
	"context"
	"errors"

	"github.com/ordermart/ordermart/pkg/pipeline/types"
)

// ErrRunInProgress is returned when a run with the same identity is already executing.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Started identifies a run that was accepted.
type Started struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// Trigger starts pipeline runs and single view refreshes. Both calls return once the work is
// accepted, not when it completes.
type Trigger interface {
	StartPipeline(ctx context.Context, in types.PipelineInput) (Started, error)
	StartRefresh(ctx context.Context, in types.RefreshMartInput) (Started, error)
	// Ready reports whether accepted work would be picked up.
	Ready(ctx context.Context) error
	Close() error
}
