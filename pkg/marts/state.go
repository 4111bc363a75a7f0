package marts

import (
	"slices"
	"strings"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	"github.com/ordermart/ordermart/pkg/utils"
)

// StatePerformanceView aggregates delivered orders per customer state, sorted by state.
func StatePerformanceView(orders []model.EnrichedOrder) []mart.StatePerformance {
	stats := make(map[string]*orderStats)
	for _, o := range delivered(orders) {
		state := UnknownState
		if o.CustomerState != nil && *o.CustomerState != "" {
			state = *o.CustomerState
		}
		if stats[state] == nil {
			stats[state] = newOrderStats()
		}
		stats[state].add(o)
	}

	out := make([]mart.StatePerformance, 0, len(stats))
	for state, s := range stats {
		out = append(out, mart.StatePerformance{
			State:           state,
			Orders:          s.orders,
			Customers:       int64(len(s.customers)),
			GMV:             s.gmv,
			AvgOrderValue:   s.avgOrderValue(),
			AvgReviewScore:  s.review.value(),
			AvgDeliveryDays: s.delivery.value(),
			LateRate:        utils.Ratio(float64(s.late), s.classified()),
		})
	}
	slices.SortFunc(out, func(a, b mart.StatePerformance) int { return strings.Compare(a.State, b.State) })
	return out
}
