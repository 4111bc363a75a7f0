// Package pipeline runs the layered build either in process or through Temporal.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/pipeline/activity"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
)

// Runner executes the pipeline activities directly, in order, without a Temporal server.
type Runner struct {
	Logger     *zap.Logger
	Activities *activity.Context
}

func NewRunner(logger *zap.Logger, activities *activity.Context) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Logger: logger, Activities: activities}
}

// LayerError reports which layer failed a run.
type LayerError struct {
	Type string
	Err  error
}

func (e *LayerError) Error() string { return fmt.Sprintf("%s: %v", e.Type, e.Err) }
func (e *LayerError) Unwrap() error { return e.Err }

// ErrorType returns the application error type of err, or "" when there is none.
func ErrorType(err error) string {
	var le *LayerError
	if errors.As(err, &le) {
		return le.Type
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Type()
	}
	return ""
}

// Run performs one full run. Nothing after a failed layer is published.
func (r *Runner) Run(ctx context.Context, in types.PipelineInput) (types.PipelineOutput, error) {
	started := time.Now()
	if in.RunID == "" {
		in.RunID = started.UTC().Format("20060102T150405Z")
	}
	ac := r.Activities
	out := types.PipelineOutput{RunID: in.RunID}

	fail := func(errType string, err error) (types.PipelineOutput, error) {
		_ = ac.RecordRun(ctx, types.RecordRunInput{
			RunID:        in.RunID,
			Status:       types.RunFailed,
			Error:        errType,
			RecordErrors: out.Staging.RecordErrors,
			StartedAt:    started,
			FinishedAt:   time.Now(),
		})
		return out, &LayerError{Type: errType, Err: err}
	}

	var err error
	if out.Staging, err = ac.StageRaw(ctx, types.StageRawInput{RunID: in.RunID}); err != nil {
		return fail(types.ErrTypeStagingFailed, err)
	}

	layerIn := types.BuildLayerInput{RunID: in.RunID, Anchor: in.Anchor}
	if out.Intermediate, err = ac.BuildIntermediate(ctx, layerIn); err != nil {
		return fail(types.ErrTypeIntermediateFailed, err)
	}
	if out.Marts, err = ac.BuildMarts(ctx, layerIn); err != nil {
		return fail(types.ErrTypeMartsFailed, err)
	}

	finished := time.Now()
	out.DurationMs = float64(finished.Sub(started).Milliseconds())
	out.Rows = make(map[string]int)
	for _, rows := range []map[string]int{out.Staging.Rows, out.Intermediate.Rows, out.Marts.Rows} {
		for e, n := range rows {
			out.Rows[e] = n
		}
	}

	_ = ac.RecordRun(ctx, types.RecordRunInput{
		RunID:        in.RunID,
		Status:       types.RunSucceeded,
		RecordErrors: out.Staging.RecordErrors,
		StartedAt:    started,
		FinishedAt:   finished,
	})
	return out, nil
}

// Refresh rebuilds a single view.
func (r *Runner) Refresh(ctx context.Context, in types.RefreshMartInput) (types.LayerOutput, error) {
	if in.RunID == "" {
		in.RunID = time.Now().UTC().Format("20060102T150405Z")
	}
	out, err := r.Activities.RefreshMart(ctx, in)
	if err != nil {
		return types.LayerOutput{}, &LayerError{Type: types.ErrTypeMartsFailed, Err: err}
	}
	return out, nil
}
