package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	querytypes "github.com/ordermart/ordermart/app/query/types"
	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/pipeline"
	"github.com/ordermart/ordermart/pkg/pipeline/activity"
	"github.com/ordermart/ordermart/pkg/redis"
	"github.com/ordermart/ordermart/pkg/source"
)

// cacheNotifier drops cached query results of a layer as soon as it is republished
// in this process, then forwards the event.
type cacheNotifier struct {
	cache *querytypes.Cache
	next  activity.Notifier
}

func (n cacheNotifier) LayerPublished(ctx context.Context, event redis.RefreshEvent) {
	n.cache.Invalidate(entities.Layer(event.Layer))
	if n.next != nil {
		n.next.LayerPublished(ctx, event)
	}
}

func (n cacheNotifier) RunFinished(ctx context.Context, run redis.RunRecord) {
	if n.next != nil {
		n.next.RunFinished(ctx, run)
	}
}

// Local is an in-process pipeline together with the query cache over the same store.
type Local struct {
	Runner      *pipeline.Runner
	Activities  *activity.Context
	Cache       *querytypes.Cache
	Metrics     *metrics.Metrics
	RedisClient *redis.Client

	store *warehouse.Opened
}

// NewLocal opens the store and wires the activities for in-process runs.
func NewLocal(ctx context.Context, logger *zap.Logger, cfg config.Config) (*Local, error) {
	rules, err := config.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	store, err := warehouse.Open(ctx, logger, cfg, "pipeline")
	if err != nil {
		return nil, err
	}

	var (
		redisClient *redis.Client
		next        activity.Notifier
	)
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - refresh notifications and run history will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			next = activity.RedisNotifier{Client: redisClient}
		}
	}

	cache := querytypes.NewCache(store.Store)
	m := metrics.New(cfg.MetricsNamespace)
	ac := &activity.Context{
		Logger:      logger,
		Loader:      source.DirLoader{Dir: cfg.SourceDir, Opts: source.Options{Delimiter: cfg.Delimiter, Logger: logger}},
		Store:       store.Store,
		Rules:       rules,
		Notifier:    cacheNotifier{cache: cache, next: next},
		Metrics:     m,
		Parallelism: cfg.Parallelism,
	}

	return &Local{
		Runner:      pipeline.NewRunner(logger, ac),
		Activities:  ac,
		Cache:       cache,
		Metrics:     m,
		RedisClient: redisClient,
		store:       store,
	}, nil
}

// Close stops the pool and releases the store and Redis connections.
func (l *Local) Close() {
	l.Activities.Close()
	l.store.Close()
	if l.RedisClient != nil {
		_ = l.RedisClient.Close()
	}
}
