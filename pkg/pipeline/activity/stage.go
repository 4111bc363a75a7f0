package activity

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/staging"
)

// StageRaw loads the raw files, normalizes them and publishes the staging layer.
// A record without a primary key fails the run without retries; read errors are retried.
func (c *Context) StageRaw(ctx context.Context, in types.StageRawInput) (types.StageRawOutput, error) {
	start := time.Now()
	logger := c.logger().With(zap.String("runId", in.RunID))
	layer := string(entities.LayerStaging)

	raw, err := c.Loader.Load(ctx)
	if err != nil {
		c.Metrics.ObserveLayer(layer, metrics.StatusFailed, time.Since(start))
		return types.StageRawOutput{}, err
	}

	ds, report, err := staging.NewNormalizer(logger).Normalize(ctx, raw)
	if report != nil {
		for _, re := range report.Errors {
			c.Metrics.AddRecordErrors(string(re.Source), re.Kind(), 1)
		}
	}
	if err != nil {
		c.Metrics.ObserveLayer(layer, metrics.StatusFailed, time.Since(start))
		if errors.Is(err, staging.ErrMissingPrimaryKey) {
			return types.StageRawOutput{}, temporal.NewNonRetryableApplicationError(err.Error(), types.ErrTypeStagingFailed, err)
		}
		return types.StageRawOutput{}, err
	}

	rows, err := c.publish(ctx, in.RunID, entities.LayerStaging, StagingBatches(ds))
	if err != nil {
		c.Metrics.ObserveLayer(layer, metrics.StatusFailed, time.Since(start))
		return types.StageRawOutput{}, err
	}

	bySource := make(map[string]int)
	for src, n := range report.BySource() {
		bySource[string(src)] = n
	}
	duration := time.Since(start)
	c.Metrics.ObserveLayer(layer, metrics.StatusSuccess, duration)

	logger.Info("Staging layer published",
		zap.Any("rows", rows),
		zap.Int("recordErrors", len(report.Errors)),
		zap.Duration("duration", duration))

	return types.StageRawOutput{
		Rows:           rows,
		RecordErrors:   len(report.Errors),
		ErrorsBySource: bySource,
		DurationMs:     float64(duration.Milliseconds()),
	}, nil
}
