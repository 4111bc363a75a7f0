package marts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/utils"
)

func TestTierRules(t *testing.T) {
	tiers := TierRules(config.DefaultRules())
	tests := []struct {
		name string
		in   TierInput
		want string
	}{
		{"gold", TierInput{Orders: 50, AvgReview: utils.Ptr(4.0)}, "gold"},
		{"many orders weak reviews", TierInput{Orders: 80, AvgReview: utils.Ptr(3.9)}, "silver"},
		{"silver", TierInput{Orders: 20, AvgReview: utils.Ptr(3.5)}, "silver"},
		{"many orders no reviews", TierInput{Orders: 200}, "bronze"},
		{"bronze", TierInput{Orders: 5, AvgReview: utils.Ptr(1.0)}, "bronze"},
		{"new", TierInput{Orders: 4, AvgReview: utils.Ptr(5.0)}, "new"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tiers.Assign(tt.in))
		})
	}
}

func TestSegmentRules(t *testing.T) {
	segments := SegmentRules(config.DefaultRules())
	tests := []struct {
		in   RFM
		want string
	}{
		{RFM{5, 5, 5}, "champions"},
		{RFM{5, 5, 2}, "loyal"},
		{RFM{4, 3, 1}, "loyal"},
		{RFM{4, 1, 4}, "big_spenders"},
		{RFM{4, 1, 1}, "recent"},
		{RFM{3, 4, 1}, "frequent"},
		{RFM{1, 4, 1}, "frequent"},
		{RFM{2, 2, 5}, "at_risk"},
		{RFM{1, 1, 1}, "at_risk"},
		{RFM{3, 3, 3}, "regular"},
		{RFM{2, 3, 3}, "regular"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, segments.Assign(tt.in), "%+v", tt.in)
	}
}

func TestRulesFirstMatchWins(t *testing.T) {
	r := Rules[int]{
		Ordered: []Rule[int]{
			{Label: "big", When: func(v int) bool { return v > 10 }},
			{Label: "positive", When: func(v int) bool { return v > 0 }},
		},
		Fallback: "other",
	}
	assert.Equal(t, "big", r.Assign(11))
	assert.Equal(t, "positive", r.Assign(3))
	assert.Equal(t, "other", r.Assign(-1))
}
