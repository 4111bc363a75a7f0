package marts

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/staging"
	"github.com/ordermart/ordermart/pkg/utils"
)

type categoryStats struct {
	orders  map[string]struct{}
	items   int64
	revenue decimal.Decimal
	freight decimal.Decimal
	price   mean
	review  mean
}

// CategoryAnalysisView aggregates delivered order items per product category. Categories with
// fewer than minOrders distinct orders are left out; revenue share is relative to all
// delivered item revenue, including the categories left out. Sorted by revenue descending.
func CategoryAnalysisView(orders []model.EnrichedOrder, items []stg.OrderItem, products []model.ProductPerformance, minOrders int64) []mart.CategoryAnalysis {
	byOrder := make(map[string]*model.EnrichedOrder, len(orders))
	for _, o := range delivered(orders) {
		byOrder[o.OrderID] = o
	}
	categories := make(map[string]string, len(products))
	for _, p := range products {
		categories[p.ProductID] = p.Category
	}

	stats := make(map[string]*categoryStats)
	total := decimal.Zero
	for _, it := range items {
		o, ok := byOrder[it.OrderID]
		if !ok {
			continue
		}
		category, ok := categories[it.ProductID]
		if !ok || category == "" {
			category = staging.UnknownCategory
		}
		s := stats[category]
		if s == nil {
			s = &categoryStats{orders: make(map[string]struct{}), revenue: decimal.Zero, freight: decimal.Zero}
			stats[category] = s
		}
		if _, seen := s.orders[o.OrderID]; !seen {
			s.orders[o.OrderID] = struct{}{}
			if o.ReviewScore != nil {
				s.review.add(utils.Ptr(float64(*o.ReviewScore)))
			}
		}
		s.items++
		s.revenue = s.revenue.Add(it.Price)
		s.freight = s.freight.Add(it.Freight)
		s.price.add(utils.Ptr(it.Price.InexactFloat64()))
		total = total.Add(it.Price)
	}

	out := make([]mart.CategoryAnalysis, 0, len(stats))
	for category, s := range stats {
		if int64(len(s.orders)) < minOrders {
			continue
		}
		out = append(out, mart.CategoryAnalysis{
			Category:       category,
			Orders:         int64(len(s.orders)),
			Items:          s.items,
			Revenue:        s.revenue,
			Freight:        s.freight,
			AvgPrice:       s.price.value(),
			AvgReviewScore: s.review.value(),
			FreightRatio:   utils.Ratio(s.freight.InexactFloat64(), s.revenue.InexactFloat64()),
			RevenueShare:   utils.Ratio(s.revenue.InexactFloat64(), total.InexactFloat64()),
		})
	}
	slices.SortFunc(out, func(a, b mart.CategoryAnalysis) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
	return out
}
