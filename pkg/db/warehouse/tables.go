package warehouse

import (
	"context"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/models"
	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
)

type table struct {
	columns []models.ColumnDef
	rows    func(ctx context.Context, r Reader, e entities.Entity) ([]models.Row, error)
}

func tableOf[T models.Row](columns []models.ColumnDef) table {
	return table{
		columns: columns,
		rows: func(ctx context.Context, r Reader, e entities.Entity) ([]models.Row, error) {
			typed, err := Load[T](ctx, r, e)
			if err != nil {
				return nil, err
			}
			out := make([]models.Row, len(typed))
			for i, row := range typed {
				out[i] = row
			}
			return out, nil
		},
	}
}

var tables = map[entities.Entity]table{
	entities.Customers:           tableOf[stg.Customer](stg.CustomerColumns),
	entities.Sellers:             tableOf[stg.Seller](stg.SellerColumns),
	entities.Products:            tableOf[stg.Product](stg.ProductColumns),
	entities.Orders:              tableOf[stg.Order](stg.OrderColumns),
	entities.OrderItems:          tableOf[stg.OrderItem](stg.OrderItemColumns),
	entities.Payments:            tableOf[stg.Payment](stg.PaymentColumns),
	entities.Reviews:             tableOf[stg.Review](stg.ReviewColumns),
	entities.Geolocation:         tableOf[stg.Geolocation](stg.GeolocationColumns),
	entities.CategoryTranslation: tableOf[stg.CategoryTranslation](stg.CategoryTranslationColumns),

	entities.EnrichedOrders:      tableOf[model.EnrichedOrder](model.EnrichedOrderColumns),
	entities.SellerStatusHistory: tableOf[model.SellerStatusInterval](model.SellerStatusIntervalColumns),
	entities.SellerPerformance:   tableOf[model.SellerPerformance](model.SellerPerformanceColumns),
	entities.ProductPerformance:  tableOf[model.ProductPerformance](model.ProductPerformanceColumns),
	entities.CustomerHistory:     tableOf[model.CustomerHistory](model.CustomerHistoryColumns),

	entities.MonthlyRevenue:   tableOf[mart.MonthlyRevenue](mart.MonthlyRevenueColumns),
	entities.StatePerformance: tableOf[mart.StatePerformance](mart.StatePerformanceColumns),
	entities.CategoryAnalysis: tableOf[mart.CategoryAnalysis](mart.CategoryAnalysisColumns),
	entities.SellerScorecard:  tableOf[mart.SellerScorecard](mart.SellerScorecardColumns),
	entities.CustomerSegments: tableOf[mart.CustomerSegment](mart.CustomerSegmentColumns),
}

// Columns returns the column definitions of e, or nil for an unknown entity.
func Columns(e entities.Entity) []models.ColumnDef {
	return tables[e].columns
}

// Rows loads e as untyped rows, for callers that only serialize them.
func Rows(ctx context.Context, r Reader, e entities.Entity) ([]models.Row, error) {
	t, ok := tables[e]
	if !ok {
		return nil, ErrUnknownEntity
	}
	return t.rows(ctx, r, e)
}
