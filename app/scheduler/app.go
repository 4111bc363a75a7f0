package scheduler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	querycontroller "github.com/ordermart/ordermart/app/query/controller"
	querytypes "github.com/ordermart/ordermart/app/query/types"
	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/logging"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/temporal"
	"github.com/ordermart/ordermart/pkg/utils"
)

// App triggers a pipeline run on every Cron tick and on demand over HTTP.
type App struct {
	// Trigger starts runs, either in process or through Temporal.
	Trigger Trigger

	// Cron is the scheduler that triggers pipeline runs according to CronSpec.
	Cron     *cron.Cron
	CronSpec string

	// Query is set in local mode, where this process also serves the query API.
	Query *querytypes.App

	// Auth guards the endpoints that start work.
	Auth Auth

	Logger *zap.Logger
	Addr   string
	// Server is the HTTP server that serves the API.
	Server *http.Server

	// OnClose releases what Initialize opened.
	OnClose func()
}

// Initialize initializes the App.
func Initialize(ctx context.Context) (*App, error) {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	cfg := config.Load()
	app := &App{
		CronSpec: cfg.PipelineCron,
		Auth: Auth{
			Token:  utils.Env("SCHEDULER_TOKEN", ""),
			Secret: []byte(utils.Env("SCHEDULER_JWT_SECRET", "")),
		},
		Logger: logger,
		Addr:   cfg.Addr,
	}
	if !app.Auth.Enabled() {
		logger.Warn("Trigger endpoints are not protected, set SCHEDULER_TOKEN or SCHEDULER_JWT_SECRET")
	}

	switch cfg.Mode {
	case config.ModeTemporal:
		temporalClient, err := temporal.NewClient(ctx, logger, cfg.TemporalQueue)
		if err != nil {
			logger.Fatal("Unable to establish temporal connection", zap.Error(err))
		}
		app.Trigger = NewTemporalTrigger(temporalClient, cfg.RunTimeout)
	default:
		local, err := NewLocal(ctx, logger, cfg)
		if err != nil {
			logger.Fatal("Unable to initialize the local pipeline", zap.Error(err))
		}
		app.Trigger = NewLocalTrigger(ctx, logger, local.Runner, cfg.RunTimeout)
		app.Query = &querytypes.App{
			Cache:       local.Cache,
			RedisClient: local.RedisClient,
			Metrics:     local.Metrics,
			Logger:      logger,
		}
		app.OnClose = local.Close
	}
	logger.Info("Scheduler mode", zap.String("mode", cfg.Mode))

	if err := app.SetupScheduler(ctx, newCronLogger(logger), app.CronSpec); err != nil {
		return nil, err
	}
	if err := app.SetupServer(); err != nil {
		return nil, err
	}
	return app, nil
}

// SetupScheduler sets up the cron scheduler.
func (a *App) SetupScheduler(ctx context.Context, logger cron.Logger, cronSpec string) error {
	// Seconds field, optional
	a.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(logger)))

	_, err := a.Cron.AddFunc(cronSpec, func() {
		started, err := a.Trigger.StartPipeline(ctx, types.PipelineInput{RunID: temporal.RunKey(time.Now())})
		if err != nil {
			logger.Error(err, "scheduled run not started")
			return
		}
		logger.Info("scheduled run started", "workflowId", started.WorkflowID, "runId", started.RunID)
	})
	return err
}

// StartCron starts the cron scheduler.
func (a *App) StartCron() {
	a.Cron.Start()
	a.Logger.Info("Cron started", zap.String("cronSpec", a.CronSpec))
}

// StopCron stops the cron scheduler and waits for the running job.
func (a *App) StopCron() {
	if a.Cron != nil {
		<-a.Cron.Stop().Done()
	}
}

// RunOnce starts a run immediately, outside the schedule.
func (a *App) RunOnce(ctx context.Context) {
	started, err := a.Trigger.StartPipeline(ctx, types.PipelineInput{RunID: temporal.RunKey(time.Now())})
	if err != nil {
		a.Logger.Warn("Initial run not started", zap.Error(err))
		return
	}
	a.Logger.Info("Initial run started", zap.String("workflowId", started.WorkflowID))
}

// NewRouter returns the trigger routes, mounted on the query API in local mode.
func (a *App) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()
	if a.Query != nil {
		var err error
		if r, err = querycontroller.NewController(a.Query).NewRouter(); err != nil {
			return nil, err
		}
	}

	r.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.HandleReady).Methods(http.MethodGet)
	r.Handle("/runs", a.Auth.RequireOperator(http.HandlerFunc(a.HandleStartRun))).Methods(http.MethodPost)
	r.Handle("/marts/{view}/refresh", a.Auth.RequireOperator(http.HandlerFunc(a.HandleRefresh))).Methods(http.MethodPost)
	return r, nil
}

// SetupServer sets up the HTTP server.
func (a *App) SetupServer() error {
	r, err := a.NewRouter()
	if err != nil {
		return err
	}
	// use <ip>:<port> to bind to a specific interface or :<port> to bind to all interfaces
	a.Server = &http.Server{Addr: a.Addr, Handler: r}
	return nil
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	if a.Query != nil {
		go a.Query.WatchRefreshes(ctx)
	}
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	a.Logger.Info("Starting server", zap.String("addr", a.Addr))

	<-ctx.Done()
	_ = a.Server.Close()
	a.Logger.Info("shutting down…")
	a.StopCron()
	_ = a.Trigger.Close()
	if a.OnClose != nil {
		a.OnClose()
	}
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
