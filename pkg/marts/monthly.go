package marts

import (
	"time"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	"github.com/ordermart/ordermart/pkg/intermediate"
	"github.com/ordermart/ordermart/pkg/utils"
)

// MonthlyRevenueView aggregates delivered orders per purchase month. Every month between the
// first and the last delivered month appears, months without sales with zero totals.
// Growth is relative to the previous month and null when that month had no GMV.
func MonthlyRevenueView(orders []model.EnrichedOrder) []mart.MonthlyRevenue {
	rows := delivered(orders)
	if len(rows) == 0 {
		return []mart.MonthlyRevenue{}
	}

	stats := make(map[time.Time]*orderStats)
	first, last := intermediate.MonthStart(rows[0].PurchasedAt), intermediate.MonthStart(rows[0].PurchasedAt)
	for _, o := range rows {
		m := intermediate.MonthStart(o.PurchasedAt)
		if stats[m] == nil {
			stats[m] = newOrderStats()
		}
		stats[m].add(o)
		if m.Before(first) {
			first = m
		}
		if m.After(last) {
			last = m
		}
	}

	var out []mart.MonthlyRevenue
	var prevGMV *float64
	for month := range intermediate.Months(first, last) {
		s := stats[month]
		if s == nil {
			s = newOrderStats()
		}
		gmv := s.gmv.InexactFloat64()
		row := mart.MonthlyRevenue{
			Month:           month,
			Orders:          s.orders,
			Customers:       int64(len(s.customers)),
			GMV:             s.gmv,
			Freight:         s.freight,
			AvgOrderValue:   s.avgOrderValue(),
			AvgReviewScore:  s.review.value(),
			AvgDeliveryDays: s.delivery.value(),
			OnTimeRate:      utils.Ratio(float64(s.onTime), s.classified()),
		}
		if prevGMV != nil {
			row.GMVGrowth = utils.SafeDiv(gmv-*prevGMV, prevGMV)
		}
		prevGMV = &gmv
		out = append(out, row)
	}
	return out
}
