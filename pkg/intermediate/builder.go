// Package intermediate builds the fact table, the seller status history and the
// per-key performance tables from a staging dataset.
package intermediate

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/staging"
	"github.com/ordermart/ordermart/pkg/workers"
)

// Layer is one complete intermediate snapshot.
type Layer struct {
	Orders        []model.EnrichedOrder
	SellerHistory []model.SellerStatusInterval
	Sellers       []model.SellerPerformance
	Products      []model.ProductPerformance
	Customers     []model.CustomerHistory
}

// Builder computes a Layer, fanning per-key work out on Pool.
type Builder struct {
	Logger *zap.Logger
	Pool   pond.Pool
	// Parts is the number of key chunks per aggregation. Defaults to workers.Parallelism(0).
	Parts int
}

func NewBuilder(logger *zap.Logger, pool pond.Pool) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{Logger: logger.Named("intermediate"), Pool: pool}
}

func (b *Builder) parts() int {
	if b.Parts > 0 {
		return b.Parts
	}
	return workers.Parallelism(0)
}

// Build runs enrichment first and then the history and the three aggregators over its output.
// Nothing is returned on error.
func (b *Builder) Build(ctx context.Context, ds *staging.Dataset) (*Layer, error) {
	start := time.Now()

	orders, err := b.Enrich(ctx, ds)
	if err != nil {
		return nil, err
	}

	layer := &Layer{Orders: orders}
	if layer.SellerHistory, err = b.SellerHistory(ctx, ds, orders); err != nil {
		return nil, err
	}

	ix := newPerformanceIndex(ds, orders)
	if layer.Sellers, err = workers.MapChunks(ctx, b.Pool, ix.sellerKeys(), b.parts(), chunkOf(ix.seller)); err != nil {
		return nil, err
	}
	if layer.Products, err = workers.MapChunks(ctx, b.Pool, ix.productKeys(), b.parts(), chunkOf(ix.product)); err != nil {
		return nil, err
	}
	if layer.Customers, err = workers.MapChunks(ctx, b.Pool, ix.customerKeys(), b.parts(), chunkOf(ix.customer)); err != nil {
		return nil, err
	}

	b.Logger.Info("Intermediate layer built",
		zap.Int("orders", len(layer.Orders)),
		zap.Int("intervals", len(layer.SellerHistory)),
		zap.Int("sellers", len(layer.Sellers)),
		zap.Int("products", len(layer.Products)),
		zap.Int("customers", len(layer.Customers)),
		zap.Duration("duration", time.Since(start)),
	)
	return layer, nil
}

// Enrich is EnrichOrders with the per-order joins spread over the pool.
func (b *Builder) Enrich(ctx context.Context, ds *staging.Dataset) ([]model.EnrichedOrder, error) {
	ix := newOrderIndex(ds)
	return workers.MapChunks(ctx, b.Pool, sortedOrders(ds.Orders), b.parts(),
		func(ctx context.Context, chunk []stg.Order) ([]model.EnrichedOrder, error) {
			out := make([]model.EnrichedOrder, len(chunk))
			for i, o := range chunk {
				out[i] = ix.enrich(o)
			}
			return out, ctx.Err()
		})
}

// SellerHistory is BuildSellerHistory with sellers spread over the pool.
func (b *Builder) SellerHistory(ctx context.Context, ds *staging.Dataset, orders []model.EnrichedOrder) ([]model.SellerStatusInterval, error) {
	window := ObservationWindow(orders)
	activity := NewSellerActivity(orders, ds.OrderItems)
	return workers.MapChunks(ctx, b.Pool, activity.Sellers(ds.Sellers), b.parts(),
		func(ctx context.Context, chunk []string) ([]model.SellerStatusInterval, error) {
			var out []model.SellerStatusInterval
			for _, id := range chunk {
				out = append(out, SellerIntervals(id, window, activity[id])...)
			}
			return out, ctx.Err()
		})
}

func chunkOf[R any](fn func(string) R) func(context.Context, []string) ([]R, error) {
	return func(ctx context.Context, keys []string) ([]R, error) {
		return mapKeys(keys, fn), ctx.Err()
	}
}
