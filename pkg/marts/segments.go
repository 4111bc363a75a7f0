package marts

import (
	"math"
	"slices"
	"strings"
	"time"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	"github.com/ordermart/ordermart/pkg/utils"
)

// RecencyAnchor is the latest purchase timestamp of the dataset. It is computed once per run
// and passed to CustomerSegmentsView.
func RecencyAnchor(orders []model.EnrichedOrder) time.Time {
	var anchor time.Time
	for _, o := range orders {
		if o.PurchasedAt.After(anchor) {
			anchor = o.PurchasedAt
		}
	}
	return anchor
}

// RecencyDays is the number of whole days between last and anchor.
func RecencyDays(anchor, last time.Time) int64 {
	return int64(math.Floor(anchor.Sub(last).Hours() / 24))
}

// CustomerSegmentsView bins recency, frequency and monetary value into quantiles over the
// whole customer population and assigns the first matching segment. The most recent
// customers get the highest recency score.
func CustomerSegmentsView(customers []model.CustomerHistory, anchor time.Time, quantiles int, segments Rules[RFM]) []mart.CustomerSegment {
	recency := make([]Metric, len(customers))
	frequency := make([]Metric, len(customers))
	monetary := make([]Metric, len(customers))
	days := make([]int64, len(customers))
	for i, c := range customers {
		days[i] = RecencyDays(anchor, c.LastOrderAt)
		recency[i] = Metric{Key: c.CustomerUniqueID, Value: utils.Ptr(float64(days[i]))}
		frequency[i] = Metric{Key: c.CustomerUniqueID, Value: utils.Ptr(float64(c.TotalOrders))}
		monetary[i] = Metric{Key: c.CustomerUniqueID, Value: utils.Ptr(c.LifetimeValue.InexactFloat64())}
	}
	recencyScore := NTile(recency, quantiles, Descending)
	frequencyScore := NTile(frequency, quantiles, Ascending)
	monetaryScore := NTile(monetary, quantiles, Ascending)

	out := make([]mart.CustomerSegment, len(customers))
	for i, c := range customers {
		score := RFM{
			Recency:   recencyScore[c.CustomerUniqueID],
			Frequency: frequencyScore[c.CustomerUniqueID],
			Monetary:  monetaryScore[c.CustomerUniqueID],
		}
		out[i] = mart.CustomerSegment{
			CustomerUniqueID: c.CustomerUniqueID,
			RecencyDays:      days[i],
			Frequency:        c.TotalOrders,
			Monetary:         c.LifetimeValue,
			RecencyScore:     int64(score.Recency),
			FrequencyScore:   int64(score.Frequency),
			MonetaryScore:    int64(score.Monetary),
			Segment:          segments.Assign(score),
		}
	}
	slices.SortFunc(out, func(a, b mart.CustomerSegment) int { return strings.Compare(a.CustomerUniqueID, b.CustomerUniqueID) })
	return out
}
