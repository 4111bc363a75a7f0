package activity

import (
	"context"
	"fmt"

	"github.com/ordermart/ordermart/pkg/db/entities"
	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/intermediate"
	"github.com/ordermart/ordermart/pkg/marts"
	"github.com/ordermart/ordermart/pkg/staging"
)

// StagingBatches converts a normalized dataset into the staging layer.
func StagingBatches(ds *staging.Dataset) []warehouse.Batch {
	return []warehouse.Batch{
		warehouse.NewBatch(entities.Customers, ds.Customers),
		warehouse.NewBatch(entities.Sellers, ds.Sellers),
		warehouse.NewBatch(entities.Products, ds.Products),
		warehouse.NewBatch(entities.Orders, ds.Orders),
		warehouse.NewBatch(entities.OrderItems, ds.OrderItems),
		warehouse.NewBatch(entities.Payments, ds.Payments),
		warehouse.NewBatch(entities.Reviews, ds.Reviews),
		warehouse.NewBatch(entities.Geolocation, ds.Geolocation),
		warehouse.NewBatch(entities.CategoryTranslation, ds.CategoryTranslation),
	}
}

func IntermediateBatches(l *intermediate.Layer) []warehouse.Batch {
	return []warehouse.Batch{
		warehouse.NewBatch(entities.EnrichedOrders, l.Orders),
		warehouse.NewBatch(entities.SellerStatusHistory, l.SellerHistory),
		warehouse.NewBatch(entities.SellerPerformance, l.Sellers),
		warehouse.NewBatch(entities.ProductPerformance, l.Products),
		warehouse.NewBatch(entities.CustomerHistory, l.Customers),
	}
}

// MartBatches returns one batch per built view; views left nil are skipped.
func MartBatches(v *marts.Views) []warehouse.Batch {
	var out []warehouse.Batch
	for _, e := range v.Built() {
		switch e {
		case entities.MonthlyRevenue:
			out = append(out, warehouse.NewBatch(e, v.MonthlyRevenue))
		case entities.StatePerformance:
			out = append(out, warehouse.NewBatch(e, v.StatePerformance))
		case entities.CategoryAnalysis:
			out = append(out, warehouse.NewBatch(e, v.CategoryAnalysis))
		case entities.SellerScorecard:
			out = append(out, warehouse.NewBatch(e, v.SellerScorecard))
		case entities.CustomerSegments:
			out = append(out, warehouse.NewBatch(e, v.CustomerSegments))
		}
	}
	return out
}

// LoadDataset reads the published staging layer back.
func LoadDataset(ctx context.Context, r warehouse.Reader) (*staging.Dataset, error) {
	ds := &staging.Dataset{}
	var err error
	if ds.Customers, err = warehouse.Load[stg.Customer](ctx, r, entities.Customers); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.Customers, err)
	}
	if ds.Sellers, err = warehouse.Load[stg.Seller](ctx, r, entities.Sellers); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.Sellers, err)
	}
	if ds.Products, err = warehouse.Load[stg.Product](ctx, r, entities.Products); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.Products, err)
	}
	if ds.Orders, err = warehouse.Load[stg.Order](ctx, r, entities.Orders); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.Orders, err)
	}
	if ds.OrderItems, err = warehouse.Load[stg.OrderItem](ctx, r, entities.OrderItems); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.OrderItems, err)
	}
	if ds.Payments, err = warehouse.Load[stg.Payment](ctx, r, entities.Payments); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.Payments, err)
	}
	if ds.Reviews, err = warehouse.Load[stg.Review](ctx, r, entities.Reviews); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.Reviews, err)
	}
	if ds.Geolocation, err = warehouse.Load[stg.Geolocation](ctx, r, entities.Geolocation); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.Geolocation, err)
	}
	if ds.CategoryTranslation, err = warehouse.Load[stg.CategoryTranslation](ctx, r, entities.CategoryTranslation); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.CategoryTranslation, err)
	}
	return ds, nil
}

// LoadMartInput reads what the views need: the intermediate layer plus staging items.
func LoadMartInput(ctx context.Context, r warehouse.Reader) (*marts.Input, error) {
	in := &marts.Input{}
	var err error
	if in.Orders, err = warehouse.Load[model.EnrichedOrder](ctx, r, entities.EnrichedOrders); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.EnrichedOrders, err)
	}
	if in.Items, err = warehouse.Load[stg.OrderItem](ctx, r, entities.OrderItems); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.OrderItems, err)
	}
	if in.Sellers, err = warehouse.Load[model.SellerPerformance](ctx, r, entities.SellerPerformance); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.SellerPerformance, err)
	}
	if in.Products, err = warehouse.Load[model.ProductPerformance](ctx, r, entities.ProductPerformance); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.ProductPerformance, err)
	}
	if in.Customers, err = warehouse.Load[model.CustomerHistory](ctx, r, entities.CustomerHistory); err != nil {
		return nil, fmt.Errorf("load %s: %w", entities.CustomerHistory, err)
	}
	return in, nil
}
