package warehouse

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
)

// Fanout reads from a primary store and publishes to it first, then to every sink.
// A sink failure does not roll back the primary.
type Fanout struct {
	Logger  *zap.Logger
	Primary Store
	Sinks   []Publisher
}

func NewFanout(logger *zap.Logger, primary Store, sinks ...Publisher) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{Logger: logger, Primary: primary, Sinks: sinks}
}

func (f *Fanout) Name() string { return f.Primary.Name() }

func (f *Fanout) Publish(ctx context.Context, layer entities.Layer, batches []Batch) error {
	if err := f.Primary.Publish(ctx, layer, batches); err != nil {
		return err
	}

	var errs []error
	for _, sink := range f.Sinks {
		if err := sink.Publish(ctx, layer, batches); err != nil {
			f.Logger.Error("Sink publish failed",
				zap.String("sink", sink.Name()),
				zap.String("layer", string(layer)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Select(ctx context.Context, e entities.Entity, dest any) error {
	return f.Primary.Select(ctx, e, dest)
}
