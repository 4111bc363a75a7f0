package worker

import (
	"context"
	"time"

	"go.temporal.io/sdk/worker"
	sdkworkflow "go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/logging"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/pipeline/activity"
	"github.com/ordermart/ordermart/pkg/pipeline/workflow"
	"github.com/ordermart/ordermart/pkg/redis"
	"github.com/ordermart/ordermart/pkg/source"
	"github.com/ordermart/ordermart/pkg/temporal"
)

type App struct {
	Worker          worker.Worker
	TemporalClient  *temporal.Client
	ActivityContext *activity.Context
	Store           *warehouse.Opened
	RedisClient     *redis.Client
	Logger          *zap.Logger
}

// Start starts the worker and blocks until the context is canceled.
func (a *App) Start(ctx context.Context) {
	err := a.Worker.Start()
	if err != nil {
		a.Logger.Fatal("Unable to start worker", zap.Error(err))
	}
	<-ctx.Done()
	a.Stop()
}

// Stop stops the worker.
func (a *App) Stop() {
	a.Worker.Stop()
	a.ActivityContext.Close()
	a.Store.Close()
	if a.RedisClient != nil {
		_ = a.RedisClient.Close()
	}
	a.TemporalClient.TClient.Close()
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}

// Register adds the pipeline workflows and their activities to w.
func Register(w worker.Registry, wc *workflow.Context) {
	w.RegisterWorkflowWithOptions(wc.PipelineWorkflow, sdkworkflow.RegisterOptions{Name: workflow.PipelineWorkflowName})
	w.RegisterWorkflowWithOptions(wc.RefreshMartWorkflow, sdkworkflow.RegisterOptions{Name: workflow.RefreshMartWorkflowName})

	ac := wc.ActivityContext
	w.RegisterActivity(ac.StageRaw)
	w.RegisterActivity(ac.BuildIntermediate)
	w.RegisterActivity(ac.BuildMarts)
	w.RegisterActivity(ac.RefreshMart)
	w.RegisterActivity(ac.RecordRun)
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	cfg := config.Load()
	rules, err := config.LoadRules()
	if err != nil {
		logger.Fatal("Unable to load business rules", zap.Error(err))
	}

	store, err := warehouse.Open(ctx, logger, cfg, "worker")
	if err != nil {
		logger.Fatal("Unable to open the warehouse", zap.Error(err))
	}

	temporalClient, err := temporal.NewClient(ctx, logger, cfg.TemporalQueue)
	if err != nil {
		logger.Fatal("Unable to establish temporal connection", zap.Error(err))
	}

	var (
		redisClient *redis.Client
		notifier    activity.Notifier
	)
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - refresh notifications will be disabled", zap.Error(err))
			redisClient = nil
		} else {
			notifier = activity.RedisNotifier{Client: redisClient}
		}
	}

	activityContext := &activity.Context{
		Logger:      logger,
		Loader:      source.DirLoader{Dir: cfg.SourceDir, Opts: source.Options{Delimiter: cfg.Delimiter, Logger: logger}},
		Store:       store.Store,
		Rules:       rules,
		Notifier:    notifier,
		Metrics:     metrics.New(cfg.MetricsNamespace),
		Parallelism: cfg.Parallelism,
	}
	workflowContext := &workflow.Context{
		ActivityContext: activityContext,
		Config:          workflow.DefaultConfig(),
	}

	// A single queue serves both workflows and every activity.
	wkr := worker.New(
		temporalClient.TClient,
		temporalClient.PipelineQueue,
		worker.Options{
			// layers already fan out on the aggregation pool
			MaxConcurrentActivityExecutionSize: 1,
		},
	)
	Register(wkr, workflowContext)

	logger.Info("Pipeline worker ready",
		zap.String("queue", temporalClient.PipelineQueue),
		zap.Int("parallelism", activityContext.PoolSize()))

	return &App{
		Worker:          wkr,
		TemporalClient:  temporalClient,
		ActivityContext: activityContext,
		Store:           store,
		RedisClient:     redisClient,
		Logger:          logger,
	}
}
