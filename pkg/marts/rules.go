package marts

import (
	"github.com/ordermart/ordermart/pkg/config"
)

// Rule labels a value when its predicate holds.
type Rule[T any] struct {
	Label string
	When  func(T) bool
}

// Rules is an ordered precedence chain: the first matching rule wins, Fallback otherwise.
type Rules[T any] struct {
	Ordered  []Rule[T]
	Fallback string
}

func (r Rules[T]) Assign(v T) string {
	for _, rule := range r.Ordered {
		if rule.When(v) {
			return rule.Label
		}
	}
	return r.Fallback
}

// TierInput is what a seller tier is decided on.
type TierInput struct {
	Orders    int64
	AvgReview *float64
}

// TierRules builds the seller tier chain. A rule with a review threshold never matches
// a seller without reviews.
func TierRules(cfg config.Rules) Rules[TierInput] {
	out := Rules[TierInput]{Fallback: cfg.TierFallback}
	for _, t := range cfg.Tiers {
		out.Ordered = append(out.Ordered, Rule[TierInput]{
			Label: t.Label,
			When: func(in TierInput) bool {
				if in.Orders < t.MinOrders {
					return false
				}
				if t.MinReview == nil {
					return true
				}
				return in.AvgReview != nil && *in.AvgReview >= *t.MinReview
			},
		})
	}
	return out
}

// RFM holds the three quantile scores of a customer.
type RFM struct {
	Recency, Frequency, Monetary int
}

func SegmentRules(cfg config.Rules) Rules[RFM] {
	out := Rules[RFM]{Fallback: cfg.SegmentFallback}
	for _, s := range cfg.Segments {
		out.Ordered = append(out.Ordered, Rule[RFM]{
			Label: s.Label,
			When: func(in RFM) bool {
				return s.Recency.Contains(in.Recency) && s.Frequency.Contains(in.Frequency) && s.Monetary.Contains(in.Monetary)
			},
		})
	}
	return out
}
