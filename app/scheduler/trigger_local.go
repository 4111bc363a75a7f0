package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/pipeline"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/temporal"
)

// LocalTrigger runs the pipeline in this process, one run or refresh at a time.
type LocalTrigger struct {
	Runner     *pipeline.Runner
	Logger     *zap.Logger
	RunTimeout time.Duration

	// base outlives the request that started a run.
	base    context.Context
	running atomic.Bool
	wg      sync.WaitGroup
}

func NewLocalTrigger(base context.Context, logger *zap.Logger, runner *pipeline.Runner, runTimeout time.Duration) *LocalTrigger {
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &LocalTrigger{Runner: runner, Logger: logger, RunTimeout: runTimeout, base: base}
}

// Running reports whether a run or refresh is executing.
func (t *LocalTrigger) Running() bool { return t.running.Load() }

func (t *LocalTrigger) StartPipeline(_ context.Context, in types.PipelineInput) (Started, error) {
	if in.RunID == "" {
		in.RunID = temporal.RunKey(time.Now())
	}
	err := t.spawn(func(ctx context.Context) {
		out, err := t.Runner.Run(ctx, in)
		if err != nil {
			t.Logger.Error("Pipeline run failed",
				zap.String("runId", in.RunID),
				zap.String("type", pipeline.ErrorType(err)),
				zap.Error(err))
			return
		}
		t.Logger.Info("Pipeline run succeeded", zap.String("runId", out.RunID), zap.Float64("durationMs", out.DurationMs))
	})
	if err != nil {
		return Started{}, err
	}
	return Started{WorkflowID: "pipeline:" + in.RunID, RunID: in.RunID}, nil
}

func (t *LocalTrigger) StartRefresh(_ context.Context, in types.RefreshMartInput) (Started, error) {
	if in.RunID == "" {
		in.RunID = temporal.RunKey(time.Now())
	}
	err := t.spawn(func(ctx context.Context) {
		if _, err := t.Runner.Refresh(ctx, in); err != nil {
			t.Logger.Error("Mart refresh failed", zap.String("view", in.View), zap.Error(err))
		}
	})
	if err != nil {
		return Started{}, err
	}
	return Started{WorkflowID: "refresh:" + in.View + ":" + in.RunID, RunID: in.RunID}, nil
}

func (t *LocalTrigger) spawn(fn func(ctx context.Context)) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.running.Store(false)

		ctx, cancel := context.WithTimeout(t.base, t.RunTimeout)
		defer cancel()
		fn(ctx)
	}()
	return nil
}

func (t *LocalTrigger) Ready(context.Context) error { return nil }

// Close waits for the current run, which stops early once base is canceled.
func (t *LocalTrigger) Close() error {
	t.wg.Wait()
	return nil
}
