package types

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/redis"
)

type App struct {
	Cache *Cache
	// RedisClient is optional: it carries refresh notifications and the run history.
	RedisClient *redis.Client
	Metrics     *metrics.Metrics
	// Zap Logger
	Logger *zap.Logger
	// Addr is <ip>:<port> or :<port>.
	Addr string
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
	// OnClose releases the store connections.
	OnClose func()
}

// WatchRefreshes invalidates cached layers as refresh notifications arrive, until ctx is done.
func (a *App) WatchRefreshes(ctx context.Context) {
	if a.RedisClient == nil {
		return
	}
	sub := a.RedisClient.PSubscribe(ctx, redis.RefreshPattern)
	defer func() { _ = sub.Close() }()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			layer, ok := redis.LayerFromChannel(msg.Channel)
			if !ok {
				continue
			}
			a.Cache.Invalidate(entities.Layer(layer))
			a.Logger.Debug("Layer cache invalidated", zap.String("layer", layer))
		}
	}
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go a.WatchRefreshes(ctx)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = a.Server.Shutdown(shutdownCtx)
	if a.RedisClient != nil {
		_ = a.RedisClient.Close()
	}
	if a.OnClose != nil {
		a.OnClose()
	}
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
