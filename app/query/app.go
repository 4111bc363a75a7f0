package query

import (
	"context"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/app/query/types"
	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/logging"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/redis"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr'
		panic(err)
	}

	cfg := config.Load()

	store, err := warehouse.Open(ctx, logger, cfg, "query")
	if err != nil {
		logger.Fatal("Unable to open the warehouse", zap.Error(err))
	}

	// Redis carries refresh notifications and the run history (optional)
	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - cache invalidation and run history will be disabled",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized")
		}
	} else {
		logger.Info("Redis disabled - cached layers are never invalidated")
	}

	app := &types.App{
		Cache:       types.NewCache(store.Store),
		RedisClient: redisClient,
		Metrics:     metrics.New(cfg.MetricsNamespace),
		Logger:      logger,
		Addr:        cfg.Addr,
		OnClose:     store.Close,
	}

	return app
}
