package activity

import (
	"context"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/intermediate"
	"github.com/ordermart/ordermart/pkg/marts"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
)

func (c *Context) observe(layer entities.Layer, start time.Time, err error) {
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailed
	}
	c.Metrics.ObserveLayer(string(layer), status, time.Since(start))
}

// BuildIntermediate rebuilds the intermediate layer from the published staging layer.
func (c *Context) BuildIntermediate(ctx context.Context, in types.BuildLayerInput) (out types.LayerOutput, err error) {
	start := time.Now()
	defer func() { c.observe(entities.LayerIntermediate, start, err) }()
	logger := c.logger().With(zap.String("runId", in.RunID))

	ds, err := LoadDataset(ctx, c.Store)
	if err != nil {
		return types.LayerOutput{}, err
	}

	layer, err := intermediate.NewBuilder(logger, c.Pool()).Build(ctx, ds)
	if err != nil {
		return types.LayerOutput{}, err
	}

	rows, err := c.publish(ctx, in.RunID, entities.LayerIntermediate, IntermediateBatches(layer))
	if err != nil {
		return types.LayerOutput{}, err
	}
	return types.LayerOutput{Rows: rows, DurationMs: float64(time.Since(start).Milliseconds())}, nil
}

func (c *Context) martInput(ctx context.Context, anchor *time.Time) (*marts.Input, error) {
	input, err := LoadMartInput(ctx, c.Store)
	if err != nil {
		return nil, err
	}
	if anchor != nil {
		input.Anchor = anchor.UTC()
	}
	return input, nil
}

// BuildMarts rebuilds all five views and publishes them together.
func (c *Context) BuildMarts(ctx context.Context, in types.BuildLayerInput) (out types.LayerOutput, err error) {
	start := time.Now()
	defer func() { c.observe(entities.LayerMarts, start, err) }()
	logger := c.logger().With(zap.String("runId", in.RunID))

	input, err := c.martInput(ctx, in.Anchor)
	if err != nil {
		return types.LayerOutput{}, err
	}

	views, err := marts.NewBuilder(logger, c.Pool(), c.Rules).Build(ctx, input)
	if err != nil {
		return types.LayerOutput{}, err
	}

	rows, err := c.publish(ctx, in.RunID, entities.LayerMarts, MartBatches(views))
	if err != nil {
		return types.LayerOutput{}, err
	}
	return types.LayerOutput{Rows: rows, DurationMs: float64(time.Since(start).Milliseconds())}, nil
}

// RefreshMart rebuilds one view. The other views keep their published copy.
func (c *Context) RefreshMart(ctx context.Context, in types.RefreshMartInput) (out types.LayerOutput, err error) {
	start := time.Now()
	defer func() { c.observe(entities.LayerMarts, start, err) }()
	logger := c.logger().With(zap.String("runId", in.RunID), zap.String("view", in.View))

	view, err := entities.FromString(in.View)
	if err != nil || view.Layer() != entities.LayerMarts {
		msg := in.View + " is not a mart view"
		return types.LayerOutput{}, temporal.NewNonRetryableApplicationError(msg, types.ErrTypeInvalidInput, err)
	}

	input, err := c.martInput(ctx, in.Anchor)
	if err != nil {
		return types.LayerOutput{}, err
	}

	views, err := marts.NewBuilder(logger, c.Pool(), c.Rules).View(ctx, view, input)
	if err != nil {
		return types.LayerOutput{}, err
	}

	rows, err := c.publish(ctx, in.RunID, entities.LayerMarts, MartBatches(views))
	if err != nil {
		return types.LayerOutput{}, err
	}
	logger.Info("Mart refreshed", zap.Int("rows", rows[view.String()]))
	return types.LayerOutput{Rows: rows, DurationMs: float64(time.Since(start).Milliseconds())}, nil
}
