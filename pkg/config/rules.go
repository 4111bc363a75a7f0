package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

var ErrInvalidRules = errors.New("invalid rules")

// TierRule assigns Label to sellers with at least MinOrders delivered orders and,
// when MinReview is set, an average review score of at least MinReview.
type TierRule struct {
	Label     string   `mapstructure:"label"`
	MinOrders int64    `mapstructure:"minOrders"`
	MinReview *float64 `mapstructure:"minReview"`
}

// Bound is an inclusive quintile range. Zero means unbounded on that side.
type Bound struct {
	Min int `mapstructure:"min"`
	Max int `mapstructure:"max"`
}

func (b Bound) Contains(v int) bool {
	if b.Min > 0 && v < b.Min {
		return false
	}
	if b.Max > 0 && v > b.Max {
		return false
	}
	return true
}

type SegmentRule struct {
	Label     string `mapstructure:"label"`
	Recency   Bound  `mapstructure:"recency"`
	Frequency Bound  `mapstructure:"frequency"`
	Monetary  Bound  `mapstructure:"monetary"`
}

// Rules holds the business thresholds used by the mart layer.
type Rules struct {
	Tiers             []TierRule    `mapstructure:"tiers"`
	TierFallback      string        `mapstructure:"tierFallback"`
	Segments          []SegmentRule `mapstructure:"segments"`
	SegmentFallback   string        `mapstructure:"segmentFallback"`
	Quantiles         int           `mapstructure:"quantiles"`
	MinCategoryOrders int64         `mapstructure:"minCategoryOrders"`
}

func floatPtr(v float64) *float64 { return &v }

func DefaultRules() Rules {
	return Rules{
		Tiers: []TierRule{
			{Label: "gold", MinOrders: 50, MinReview: floatPtr(4.0)},
			{Label: "silver", MinOrders: 20, MinReview: floatPtr(3.5)},
			{Label: "bronze", MinOrders: 5},
		},
		TierFallback: "new",
		Segments: []SegmentRule{
			{Label: "champions", Recency: Bound{Min: 4}, Frequency: Bound{Min: 4}, Monetary: Bound{Min: 4}},
			{Label: "loyal", Recency: Bound{Min: 4}, Frequency: Bound{Min: 3}},
			{Label: "big_spenders", Recency: Bound{Min: 4}, Monetary: Bound{Min: 4}},
			{Label: "recent", Recency: Bound{Min: 4}},
			{Label: "frequent", Frequency: Bound{Min: 4}},
			{Label: "at_risk", Recency: Bound{Max: 2}, Frequency: Bound{Max: 2}},
		},
		SegmentFallback:   "regular",
		Quantiles:         5,
		MinCategoryOrders: 10,
	}
}

// LoadRules reads rules.yml from the working directory or /etc/ordermart.
// A missing file yields DefaultRules.
func LoadRules() (Rules, error) {
	v := viper.New()
	v.SetConfigName("rules")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/ordermart")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ORDERMART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return loadRules(v)
}

// loadRules decodes the file over DefaultRules. Keys absent from the file keep their
// default; a list present in the file replaces the default list as a whole.
func loadRules(v *viper.Viper) (Rules, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Rules{}, err
		}
	}

	rules := DefaultRules()
	if v.IsSet("rules") {
		err := v.UnmarshalKey("rules", &rules, func(c *mapstructure.DecoderConfig) {
			c.ZeroFields = true
		})
		if err != nil {
			return Rules{}, err
		}
	}
	if err := ValidateRules(rules); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func ValidateRules(r Rules) error {
	if len(r.Tiers) == 0 || r.TierFallback == "" {
		return fmt.Errorf("%w: tiers and tierFallback are required", ErrInvalidRules)
	}
	if len(r.Segments) == 0 || r.SegmentFallback == "" {
		return fmt.Errorf("%w: segments and segmentFallback are required", ErrInvalidRules)
	}
	if r.Quantiles < 2 {
		return fmt.Errorf("%w: quantiles must be at least 2, got %d", ErrInvalidRules, r.Quantiles)
	}
	if r.MinCategoryOrders < 0 {
		return fmt.Errorf("%w: minCategoryOrders cannot be negative", ErrInvalidRules)
	}
	for _, s := range r.Segments {
		for _, b := range []Bound{s.Recency, s.Frequency, s.Monetary} {
			if b.Min > r.Quantiles || b.Max > r.Quantiles {
				return fmt.Errorf("%w: segment %q bound exceeds %d quantiles", ErrInvalidRules, s.Label, r.Quantiles)
			}
		}
	}
	return nil
}
