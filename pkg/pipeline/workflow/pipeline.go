// Package workflow orchestrates the pipeline layers as Temporal workflows.
package workflow

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/pipeline/types"
)

func (wc *Context) activityOptions() workflow.ActivityOptions {
	cfg := wc.Config
	if cfg.LayerTimeout <= 0 || cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}
	return workflow.ActivityOptions{
		StartToCloseTimeout: cfg.LayerTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    cfg.MaxAttempts,
			NonRetryableErrorTypes: []string{
				types.ErrTypeStagingFailed,
				types.ErrTypeInvalidInput,
			},
		},
	}
}

// layerError marks a failed layer so the run fails without retries and names the layer.
func layerError(errType string, err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == errType {
		return err
	}
	return temporal.NewNonRetryableApplicationError(errType, errType, err)
}

// PipelineWorkflow rebuilds staging, intermediate and marts in that order.
// A layer starts only after the previous one is published; a failed layer ends the run
// and the previously published copy of every later layer stays in place.
func (wc *Context) PipelineWorkflow(ctx workflow.Context, in types.PipelineInput) (types.PipelineOutput, error) {
	started := workflow.Now(ctx)
	logger := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, wc.activityOptions())

	runID := in.RunID
	if runID == "" {
		runID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}
	ac := wc.ActivityContext
	out := types.PipelineOutput{RunID: runID}

	logger.Info("Starting pipeline run", zap.String("runId", runID))

	fail := func(errType string, err error) (types.PipelineOutput, error) {
		logger.Error("Pipeline run failed", zap.String("runId", runID), zap.String("type", errType), zap.Error(err))
		wc.recordRun(ctx, types.RecordRunInput{
			RunID:        runID,
			Status:       types.RunFailed,
			Error:        errType,
			RecordErrors: out.Staging.RecordErrors,
			StartedAt:    started,
			FinishedAt:   workflow.Now(ctx),
		})
		return out, layerError(errType, err)
	}

	if err := workflow.ExecuteActivity(ctx, ac.StageRaw, types.StageRawInput{RunID: runID}).Get(ctx, &out.Staging); err != nil {
		return fail(types.ErrTypeStagingFailed, err)
	}

	layerIn := types.BuildLayerInput{RunID: runID, Anchor: in.Anchor}
	if err := workflow.ExecuteActivity(ctx, ac.BuildIntermediate, layerIn).Get(ctx, &out.Intermediate); err != nil {
		return fail(types.ErrTypeIntermediateFailed, err)
	}

	if err := workflow.ExecuteActivity(ctx, ac.BuildMarts, layerIn).Get(ctx, &out.Marts); err != nil {
		return fail(types.ErrTypeMartsFailed, err)
	}

	finished := workflow.Now(ctx)
	out.DurationMs = float64(finished.Sub(started).Milliseconds())
	out.Rows = make(map[string]int)
	for _, rows := range []map[string]int{out.Staging.Rows, out.Intermediate.Rows, out.Marts.Rows} {
		for e, n := range rows {
			out.Rows[e] = n
		}
	}

	wc.recordRun(ctx, types.RecordRunInput{
		RunID:        runID,
		Status:       types.RunSucceeded,
		RecordErrors: out.Staging.RecordErrors,
		StartedAt:    started,
		FinishedAt:   finished,
	})

	logger.Info("Pipeline run completed",
		zap.String("runId", runID),
		zap.Int("recordErrors", out.Staging.RecordErrors),
		zap.Float64("durationMs", out.DurationMs))
	return out, nil
}

// recordRun is best effort: a failure to record never changes the run outcome.
func (wc *Context) recordRun(ctx workflow.Context, in types.RecordRunInput) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 2},
	})
	if err := workflow.ExecuteActivity(ctx, wc.ActivityContext.RecordRun, in).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Warn("Failed to record run", zap.String("runId", in.RunID), zap.Error(err))
	}
}

// RefreshMartWorkflow rebuilds a single view from the published intermediate layer.
func (wc *Context) RefreshMartWorkflow(ctx workflow.Context, in types.RefreshMartInput) (types.LayerOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, wc.activityOptions())
	if in.RunID == "" {
		in.RunID = workflow.GetInfo(ctx).WorkflowExecution.ID
	}

	var out types.LayerOutput
	if err := workflow.ExecuteActivity(ctx, wc.ActivityContext.RefreshMart, in).Get(ctx, &out); err != nil {
		return types.LayerOutput{}, layerError(types.ErrTypeMartsFailed, err)
	}
	workflow.GetLogger(ctx).Info("Mart refresh completed", zap.String("view", in.View), zap.String("runId", in.RunID))
	return out, nil
}
