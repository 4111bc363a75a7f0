package activity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/redis"
)

// Notifier announces published layers and finished runs. Implementations are best effort.
type Notifier interface {
	LayerPublished(ctx context.Context, event redis.RefreshEvent)
	RunFinished(ctx context.Context, run redis.RunRecord)
}

// RedisNotifier publishes refresh events on Pub/Sub and appends runs to the history stream.
type RedisNotifier struct {
	Client *redis.Client
}

func (n RedisNotifier) LayerPublished(ctx context.Context, event redis.RefreshEvent) {
	n.Client.Publish(ctx, redis.RefreshChannel(event.Layer), event)
}

func (n RedisNotifier) RunFinished(ctx context.Context, run redis.RunRecord) {
	n.Client.AddRun(ctx, run)
}

func rowCounts(batches []warehouse.Batch) map[string]int {
	out := make(map[string]int, len(batches))
	for e, n := range warehouse.Count(batches) {
		out[e.String()] = n
	}
	return out
}

// publish swaps in a layer, then records row gauges and notifies subscribers.
func (c *Context) publish(ctx context.Context, runID string, layer entities.Layer, batches []warehouse.Batch) (map[string]int, error) {
	if err := c.Store.Publish(ctx, layer, batches); err != nil {
		return nil, err
	}

	rows := rowCounts(batches)
	for e, n := range rows {
		c.Metrics.SetRows(e, n)
	}
	if c.Notifier != nil {
		c.Notifier.LayerPublished(ctx, redis.RefreshEvent{
			Layer:       string(layer),
			RunID:       runID,
			Rows:        rows,
			PublishedAt: time.Now().UTC(),
		})
	}
	return rows, nil
}

// RecordRun appends the outcome of a run to the history and counts it.
func (c *Context) RecordRun(ctx context.Context, in types.RecordRunInput) error {
	status := metrics.StatusSuccess
	if in.Status != types.RunSucceeded {
		status = metrics.StatusFailed
	}
	c.Metrics.RunFinished(status)

	if c.Notifier != nil {
		c.Notifier.RunFinished(ctx, redis.RunRecord{
			RunID:        in.RunID,
			Status:       in.Status,
			Error:        in.Error,
			RecordErrors: in.RecordErrors,
			StartedAt:    in.StartedAt.UTC().Format(time.RFC3339),
			FinishedAt:   in.FinishedAt.UTC().Format(time.RFC3339),
		})
	}

	c.logger().Info("Pipeline run finished",
		zap.String("runId", in.RunID),
		zap.String("status", in.Status),
		zap.String("error", in.Error),
		zap.Duration("duration", in.FinishedAt.Sub(in.StartedAt)))
	return nil
}
