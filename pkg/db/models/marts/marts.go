// Package marts holds the five reporting views.
package marts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordermart/ordermart/pkg/db/models"
)

type MonthlyRevenue struct {
	Month           time.Time       `ch:"month" json:"month"`
	Orders          int64           `ch:"orders" json:"orders"`
	Customers       int64           `ch:"customers" json:"customers"`
	GMV             decimal.Decimal `ch:"gmv" json:"gmv"`
	Freight         decimal.Decimal `ch:"freight" json:"freight"`
	AvgOrderValue   *float64        `ch:"avg_order_value" json:"avg_order_value"`
	AvgReviewScore  *float64        `ch:"avg_review_score" json:"avg_review_score"`
	AvgDeliveryDays *float64        `ch:"avg_delivery_days" json:"avg_delivery_days"`
	OnTimeRate      *float64        `ch:"on_time_rate" json:"on_time_rate"`
	GMVGrowth       *float64        `ch:"gmv_growth" json:"gmv_growth"`
}

var MonthlyRevenueColumns = []models.ColumnDef{
	models.Date("month"),
	models.Int64("orders"),
	models.Int64("customers"),
	models.Money("gmv"),
	models.Money("freight"),
	models.NullableFloat64("avg_order_value"),
	models.NullableFloat64("avg_review_score"),
	models.NullableFloat64("avg_delivery_days"),
	models.NullableFloat64("on_time_rate"),
	models.NullableFloat64("gmv_growth"),
}

func (m MonthlyRevenue) Values() []any {
	return []any{
		m.Month, m.Orders, m.Customers, m.GMV, m.Freight,
		m.AvgOrderValue, m.AvgReviewScore, m.AvgDeliveryDays, m.OnTimeRate, m.GMVGrowth,
	}
}

func (m MonthlyRevenue) RowKey() string { return m.Month.Format("2006-01") }

type StatePerformance struct {
	State           string          `ch:"state" json:"state"`
	Orders          int64           `ch:"orders" json:"orders"`
	Customers       int64           `ch:"customers" json:"customers"`
	GMV             decimal.Decimal `ch:"gmv" json:"gmv"`
	AvgOrderValue   *float64        `ch:"avg_order_value" json:"avg_order_value"`
	AvgReviewScore  *float64        `ch:"avg_review_score" json:"avg_review_score"`
	AvgDeliveryDays *float64        `ch:"avg_delivery_days" json:"avg_delivery_days"`
	LateRate        *float64        `ch:"late_rate" json:"late_rate"`
}

var StatePerformanceColumns = []models.ColumnDef{
	models.String("state"),
	models.Int64("orders"),
	models.Int64("customers"),
	models.Money("gmv"),
	models.NullableFloat64("avg_order_value"),
	models.NullableFloat64("avg_review_score"),
	models.NullableFloat64("avg_delivery_days"),
	models.NullableFloat64("late_rate"),
}

func (s StatePerformance) Values() []any {
	return []any{s.State, s.Orders, s.Customers, s.GMV, s.AvgOrderValue, s.AvgReviewScore, s.AvgDeliveryDays, s.LateRate}
}

func (s StatePerformance) RowKey() string { return s.State }

type CategoryAnalysis struct {
	Category       string          `ch:"category" json:"category"`
	Orders         int64           `ch:"orders" json:"orders"`
	Items          int64           `ch:"items" json:"items"`
	Revenue        decimal.Decimal `ch:"revenue" json:"revenue"`
	Freight        decimal.Decimal `ch:"freight" json:"freight"`
	AvgPrice       *float64        `ch:"avg_price" json:"avg_price"`
	AvgReviewScore *float64        `ch:"avg_review_score" json:"avg_review_score"`
	FreightRatio   *float64        `ch:"freight_ratio" json:"freight_ratio"`
	RevenueShare   *float64        `ch:"revenue_share" json:"revenue_share"`
}

var CategoryAnalysisColumns = []models.ColumnDef{
	models.String("category"),
	models.Int64("orders"),
	models.Int64("items"),
	models.Money("revenue"),
	models.Money("freight"),
	models.NullableFloat64("avg_price"),
	models.NullableFloat64("avg_review_score"),
	models.NullableFloat64("freight_ratio"),
	models.NullableFloat64("revenue_share"),
}

func (c CategoryAnalysis) Values() []any {
	return []any{c.Category, c.Orders, c.Items, c.Revenue, c.Freight, c.AvgPrice, c.AvgReviewScore, c.FreightRatio, c.RevenueShare}
}

func (c CategoryAnalysis) RowKey() string { return c.Category }

// SellerScorecard rows are ordered by revenue descending; Rank is the 1-based position.
type SellerScorecard struct {
	Rank               int64           `ch:"rank" json:"rank"`
	SellerID           string          `ch:"seller_id" json:"seller_id"`
	State              *string         `ch:"state" json:"state"`
	Orders             int64           `ch:"orders" json:"orders"`
	Revenue            decimal.Decimal `ch:"revenue" json:"revenue"`
	AvgReviewScore     *float64        `ch:"avg_review_score" json:"avg_review_score"`
	AvgDeliveryDays    *float64        `ch:"avg_delivery_days" json:"avg_delivery_days"`
	RevenuePercentile  *float64        `ch:"revenue_percentile" json:"revenue_percentile"`
	ReviewPercentile   *float64        `ch:"review_percentile" json:"review_percentile"`
	DeliveryPercentile *float64        `ch:"delivery_percentile" json:"delivery_percentile"`
	Tier               string          `ch:"tier" json:"tier"`
}

var SellerScorecardColumns = []models.ColumnDef{
	models.Int64("rank"),
	models.String("seller_id"),
	models.NullableString("state"),
	models.Int64("orders"),
	models.Money("revenue"),
	models.NullableFloat64("avg_review_score"),
	models.NullableFloat64("avg_delivery_days"),
	models.NullableFloat64("revenue_percentile"),
	models.NullableFloat64("review_percentile"),
	models.NullableFloat64("delivery_percentile"),
	models.LowCardinality("tier"),
}

func (s SellerScorecard) Values() []any {
	return []any{
		s.Rank, s.SellerID, s.State, s.Orders, s.Revenue, s.AvgReviewScore, s.AvgDeliveryDays,
		s.RevenuePercentile, s.ReviewPercentile, s.DeliveryPercentile, s.Tier,
	}
}

func (s SellerScorecard) RowKey() string { return s.SellerID }

type CustomerSegment struct {
	CustomerUniqueID string          `ch:"customer_unique_id" json:"customer_unique_id"`
	RecencyDays      int64           `ch:"recency_days" json:"recency_days"`
	Frequency        int64           `ch:"frequency" json:"frequency"`
	Monetary         decimal.Decimal `ch:"monetary" json:"monetary"`
	RecencyScore     int64           `ch:"recency_score" json:"recency_score"`
	FrequencyScore   int64           `ch:"frequency_score" json:"frequency_score"`
	MonetaryScore    int64           `ch:"monetary_score" json:"monetary_score"`
	Segment          string          `ch:"segment" json:"segment"`
}

var CustomerSegmentColumns = []models.ColumnDef{
	models.String("customer_unique_id"),
	models.Int64("recency_days"),
	models.Int64("frequency"),
	models.Money("monetary"),
	models.Int64("recency_score"),
	models.Int64("frequency_score"),
	models.Int64("monetary_score"),
	models.LowCardinality("segment"),
}

func (c CustomerSegment) Values() []any {
	return []any{
		c.CustomerUniqueID, c.RecencyDays, c.Frequency, c.Monetary,
		c.RecencyScore, c.FrequencyScore, c.MonetaryScore, c.Segment,
	}
}

func (c CustomerSegment) RowKey() string { return c.CustomerUniqueID }
