package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/pipeline/workflow"
	"github.com/ordermart/ordermart/pkg/temporal"
)

// TemporalTrigger starts the pipeline workflows on the worker task queue.
type TemporalTrigger struct {
	Client     *temporal.Client
	RunTimeout time.Duration
}

func NewTemporalTrigger(c *temporal.Client, runTimeout time.Duration) *TemporalTrigger {
	return &TemporalTrigger{Client: c, RunTimeout: runTimeout}
}

func (t *TemporalTrigger) StartPipeline(ctx context.Context, in types.PipelineInput) (Started, error) {
	if in.RunID == "" {
		in.RunID = temporal.RunKey(time.Now())
	}
	options := client.StartWorkflowOptions{
		ID:                       t.Client.GetPipelineWorkflowID(in.RunID),
		TaskQueue:                t.Client.PipelineQueue,
		WorkflowExecutionTimeout: t.RunTimeout,
	}
	return t.execute(ctx, options, workflow.PipelineWorkflowName, in)
}

func (t *TemporalTrigger) StartRefresh(ctx context.Context, in types.RefreshMartInput) (Started, error) {
	if in.RunID == "" {
		in.RunID = temporal.RunKey(time.Now())
	}
	options := client.StartWorkflowOptions{
		ID:                       t.Client.GetRefreshWorkflowID(in.View, in.RunID),
		TaskQueue:                t.Client.PipelineQueue,
		WorkflowExecutionTimeout: t.RunTimeout,
	}
	return t.execute(ctx, options, workflow.RefreshMartWorkflowName, in)
}

func (t *TemporalTrigger) execute(ctx context.Context, options client.StartWorkflowOptions, name string, in any) (Started, error) {
	run, err := t.Client.TClient.ExecuteWorkflow(ctx, options, name, in)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return Started{}, fmt.Errorf("%w: %s", ErrRunInProgress, options.ID)
		}
		return Started{}, err
	}
	return Started{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}

// Ready fails when no worker polls the pipeline queue.
func (t *TemporalTrigger) Ready(ctx context.Context) error {
	h, err := t.Client.Health(ctx)
	if err != nil {
		return err
	}
	if len(h.PipelineQueue) == 0 {
		return fmt.Errorf("no worker is polling %s", t.Client.PipelineQueue)
	}
	return nil
}

func (t *TemporalTrigger) Close() error {
	t.Client.TClient.Close()
	return nil
}
