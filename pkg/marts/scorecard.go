package marts

import (
	"slices"
	"strings"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	"github.com/ordermart/ordermart/pkg/utils"
)

// SellerScorecardView ranks every seller with at least one order. Percentiles are computed
// over the whole population first and joined back per seller: revenue and review ascending,
// delivery days descending so faster sellers rank higher. Rows are ordered by revenue
// descending, then seller id.
func SellerScorecardView(sellers []model.SellerPerformance, tiers Rules[TierInput]) []mart.SellerScorecard {
	active := make([]model.SellerPerformance, 0, len(sellers))
	for _, s := range sellers {
		if s.TotalOrders > 0 {
			active = append(active, s)
		}
	}

	revenue := make([]Metric, len(active))
	review := make([]Metric, len(active))
	delivery := make([]Metric, len(active))
	for i, s := range active {
		revenue[i] = Metric{Key: s.SellerID, Value: utils.Ptr(s.Revenue.InexactFloat64())}
		review[i] = Metric{Key: s.SellerID, Value: s.AvgReviewScore}
		delivery[i] = Metric{Key: s.SellerID, Value: s.AvgDeliveryDays}
	}
	revenueRank := PercentRank(revenue, Ascending)
	reviewRank := PercentRank(review, Ascending)
	deliveryRank := PercentRank(delivery, Descending)

	out := make([]mart.SellerScorecard, len(active))
	for i, s := range active {
		out[i] = mart.SellerScorecard{
			SellerID:           s.SellerID,
			State:              s.State,
			Orders:             s.DeliveredOrders,
			Revenue:            s.Revenue,
			AvgReviewScore:     s.AvgReviewScore,
			AvgDeliveryDays:    s.AvgDeliveryDays,
			RevenuePercentile:  lookup(revenueRank, s.SellerID),
			ReviewPercentile:   lookup(reviewRank, s.SellerID),
			DeliveryPercentile: lookup(deliveryRank, s.SellerID),
			Tier:               tiers.Assign(TierInput{Orders: s.DeliveredOrders, AvgReview: s.AvgReviewScore}),
		}
	}
	slices.SortFunc(out, func(a, b mart.SellerScorecard) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return strings.Compare(a.SellerID, b.SellerID)
	})
	for i := range out {
		out[i].Rank = int64(i + 1)
	}
	return out
}

func lookup(ranks map[string]float64, key string) *float64 {
	v, ok := ranks[key]
	if !ok {
		return nil
	}
	return &v
}
