// Package intermediate holds the fact and performance rows derived from staging.
package intermediate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordermart/ordermart/pkg/db/models"
)

// Delivery classifications.
const (
	DeliveryOnTime       = "on_time"
	DeliveryLate         = "late"
	DeliveryNotDelivered = "not_delivered"
)

// Seller activity states.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// OrderStatusDelivered is the only order status counted toward revenue and quality metrics.
const (
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// EnrichedOrder is the fact row: exactly one per order.
type EnrichedOrder struct {
	OrderID          string  `ch:"order_id" json:"order_id"`
	CustomerID       string  `ch:"customer_id" json:"customer_id"`
	CustomerUniqueID *string `ch:"customer_unique_id" json:"customer_unique_id"`
	CustomerCity     *string `ch:"customer_city" json:"customer_city"`
	CustomerState    *string `ch:"customer_state" json:"customer_state"`
	Status           string  `ch:"status" json:"status"`

	PurchasedAt        time.Time  `ch:"purchased_at" json:"purchased_at"`
	ApprovedAt         *time.Time `ch:"approved_at" json:"approved_at"`
	DeliveredCarrierAt *time.Time `ch:"delivered_carrier_at" json:"delivered_carrier_at"`
	DeliveredAt        *time.Time `ch:"delivered_at" json:"delivered_at"`
	EstimatedAt        *time.Time `ch:"estimated_at" json:"estimated_at"`

	PurchaseDate    time.Time `ch:"purchase_date" json:"purchase_date"`
	PurchaseYear    int64     `ch:"purchase_year" json:"purchase_year"`
	PurchaseMonth   int64     `ch:"purchase_month" json:"purchase_month"`
	PurchaseWeekday string    `ch:"purchase_weekday" json:"purchase_weekday"`

	ItemCount        int64            `ch:"item_count" json:"item_count"`
	DistinctProducts int64            `ch:"distinct_products" json:"distinct_products"`
	DistinctSellers  int64            `ch:"distinct_sellers" json:"distinct_sellers"`
	TotalPrice       *decimal.Decimal `ch:"total_price" json:"total_price"`
	TotalFreight     *decimal.Decimal `ch:"total_freight" json:"total_freight"`
	TotalOrderValue  *decimal.Decimal `ch:"total_order_value" json:"total_order_value"`

	PaymentCount    int64            `ch:"payment_count" json:"payment_count"`
	TotalPayment    *decimal.Decimal `ch:"total_payment" json:"total_payment"`
	PaymentMethods  []string         `ch:"payment_methods" json:"payment_methods"`
	MaxInstallments *int64           `ch:"max_installments" json:"max_installments"`

	ReviewScore *int64 `ch:"review_score" json:"review_score"`

	DeliveryStatus         string   `ch:"delivery_status" json:"delivery_status"`
	DeliveryDays           *float64 `ch:"delivery_days" json:"delivery_days"`
	DeliveryVsEstimateDays *float64 `ch:"delivery_vs_estimate_days" json:"delivery_vs_estimate_days"`
	IsDelivered            bool     `ch:"is_delivered" json:"is_delivered"`
}

var EnrichedOrderColumns = []models.ColumnDef{
	models.String("order_id"),
	models.String("customer_id"),
	models.NullableString("customer_unique_id"),
	models.NullableString("customer_city"),
	models.NullableString("customer_state"),
	models.LowCardinality("status"),
	models.Timestamp("purchased_at"),
	models.NullableTimestamp("approved_at"),
	models.NullableTimestamp("delivered_carrier_at"),
	models.NullableTimestamp("delivered_at"),
	models.NullableTimestamp("estimated_at"),
	models.Date("purchase_date"),
	models.Int64("purchase_year"),
	models.Int64("purchase_month"),
	models.LowCardinality("purchase_weekday"),
	models.Int64("item_count"),
	models.Int64("distinct_products"),
	models.Int64("distinct_sellers"),
	models.NullableMoney("total_price"),
	models.NullableMoney("total_freight"),
	models.NullableMoney("total_order_value"),
	models.Int64("payment_count"),
	models.NullableMoney("total_payment"),
	models.StringArray("payment_methods"),
	models.NullableInt64("max_installments"),
	models.NullableInt64("review_score"),
	models.LowCardinality("delivery_status"),
	models.NullableFloat64("delivery_days"),
	models.NullableFloat64("delivery_vs_estimate_days"),
	models.Bool("is_delivered"),
}

func (o EnrichedOrder) Values() []any {
	methods := o.PaymentMethods
	if methods == nil {
		methods = []string{}
	}
	return []any{
		o.OrderID, o.CustomerID, o.CustomerUniqueID, o.CustomerCity, o.CustomerState, o.Status,
		o.PurchasedAt, o.ApprovedAt, o.DeliveredCarrierAt, o.DeliveredAt, o.EstimatedAt,
		o.PurchaseDate, o.PurchaseYear, o.PurchaseMonth, o.PurchaseWeekday,
		o.ItemCount, o.DistinctProducts, o.DistinctSellers, o.TotalPrice, o.TotalFreight, o.TotalOrderValue,
		o.PaymentCount, o.TotalPayment, methods, o.MaxInstallments,
		o.ReviewScore,
		o.DeliveryStatus, o.DeliveryDays, o.DeliveryVsEstimateDays, o.IsDelivered,
	}
}

func (o EnrichedOrder) RowKey() string { return o.OrderID }

// SellerStatusInterval is one SCD Type 2 validity interval of a seller's activity state.
type SellerStatusInterval struct {
	IntervalID string    `ch:"interval_id" json:"interval_id"`
	SellerID   string    `ch:"seller_id" json:"seller_id"`
	Status     string    `ch:"status" json:"status"`
	ValidFrom  time.Time `ch:"valid_from" json:"valid_from"`
	ValidTo    time.Time `ch:"valid_to" json:"valid_to"`
	IsCurrent  bool      `ch:"is_current" json:"is_current"`
	OrderCount int64     `ch:"order_count" json:"order_count"`
}

var SellerStatusIntervalColumns = []models.ColumnDef{
	models.String("interval_id"),
	models.String("seller_id"),
	models.LowCardinality("status"),
	models.Date("valid_from"),
	models.Date("valid_to"),
	models.Bool("is_current"),
	models.Int64("order_count"),
}

func (s SellerStatusInterval) Values() []any {
	return []any{s.IntervalID, s.SellerID, s.Status, s.ValidFrom, s.ValidTo, s.IsCurrent, s.OrderCount}
}

func (s SellerStatusInterval) RowKey() string { return s.IntervalID }

type SellerPerformance struct {
	SellerID          string          `ch:"seller_id" json:"seller_id"`
	City              *string         `ch:"city" json:"city"`
	State             *string         `ch:"state" json:"state"`
	TotalOrders       int64           `ch:"total_orders" json:"total_orders"`
	DeliveredOrders   int64           `ch:"delivered_orders" json:"delivered_orders"`
	CanceledOrders    int64           `ch:"canceled_orders" json:"canceled_orders"`
	ItemsSold         int64           `ch:"items_sold" json:"items_sold"`
	Revenue           decimal.Decimal `ch:"revenue" json:"revenue"`
	FreightTotal      decimal.Decimal `ch:"freight_total" json:"freight_total"`
	AvgItemPrice      *float64        `ch:"avg_item_price" json:"avg_item_price"`
	AvgReviewScore    *float64        `ch:"avg_review_score" json:"avg_review_score"`
	AvgDeliveryDays   *float64        `ch:"avg_delivery_days" json:"avg_delivery_days"`
	LateDeliveries    int64           `ch:"late_deliveries" json:"late_deliveries"`
	OnTimeRate        *float64        `ch:"on_time_rate" json:"on_time_rate"`
	DistinctProducts  int64           `ch:"distinct_products" json:"distinct_products"`
	DistinctCustomers int64           `ch:"distinct_customers" json:"distinct_customers"`
	FirstOrderAt      *time.Time      `ch:"first_order_at" json:"first_order_at"`
	LastOrderAt       *time.Time      `ch:"last_order_at" json:"last_order_at"`
}

var SellerPerformanceColumns = []models.ColumnDef{
	models.String("seller_id"),
	models.NullableString("city"),
	models.NullableString("state"),
	models.Int64("total_orders"),
	models.Int64("delivered_orders"),
	models.Int64("canceled_orders"),
	models.Int64("items_sold"),
	models.Money("revenue"),
	models.Money("freight_total"),
	models.NullableFloat64("avg_item_price"),
	models.NullableFloat64("avg_review_score"),
	models.NullableFloat64("avg_delivery_days"),
	models.Int64("late_deliveries"),
	models.NullableFloat64("on_time_rate"),
	models.Int64("distinct_products"),
	models.Int64("distinct_customers"),
	models.NullableTimestamp("first_order_at"),
	models.NullableTimestamp("last_order_at"),
}

func (s SellerPerformance) Values() []any {
	return []any{
		s.SellerID, s.City, s.State, s.TotalOrders, s.DeliveredOrders, s.CanceledOrders, s.ItemsSold,
		s.Revenue, s.FreightTotal, s.AvgItemPrice, s.AvgReviewScore, s.AvgDeliveryDays,
		s.LateDeliveries, s.OnTimeRate, s.DistinctProducts, s.DistinctCustomers, s.FirstOrderAt, s.LastOrderAt,
	}
}

func (s SellerPerformance) RowKey() string { return s.SellerID }

type ProductPerformance struct {
	ProductID       string          `ch:"product_id" json:"product_id"`
	Category        string          `ch:"category" json:"category"`
	TotalOrders     int64           `ch:"total_orders" json:"total_orders"`
	DeliveredOrders int64           `ch:"delivered_orders" json:"delivered_orders"`
	UnitsSold       int64           `ch:"units_sold" json:"units_sold"`
	Revenue         decimal.Decimal `ch:"revenue" json:"revenue"`
	AvgPrice        *float64        `ch:"avg_price" json:"avg_price"`
	AvgReviewScore  *float64        `ch:"avg_review_score" json:"avg_review_score"`
	DistinctSellers int64           `ch:"distinct_sellers" json:"distinct_sellers"`
	FirstOrderAt    *time.Time      `ch:"first_order_at" json:"first_order_at"`
	LastOrderAt     *time.Time      `ch:"last_order_at" json:"last_order_at"`
}

var ProductPerformanceColumns = []models.ColumnDef{
	models.String("product_id"),
	models.LowCardinality("category"),
	models.Int64("total_orders"),
	models.Int64("delivered_orders"),
	models.Int64("units_sold"),
	models.Money("revenue"),
	models.NullableFloat64("avg_price"),
	models.NullableFloat64("avg_review_score"),
	models.Int64("distinct_sellers"),
	models.NullableTimestamp("first_order_at"),
	models.NullableTimestamp("last_order_at"),
}

func (p ProductPerformance) Values() []any {
	return []any{
		p.ProductID, p.Category, p.TotalOrders, p.DeliveredOrders, p.UnitsSold, p.Revenue,
		p.AvgPrice, p.AvgReviewScore, p.DistinctSellers, p.FirstOrderAt, p.LastOrderAt,
	}
}

func (p ProductPerformance) RowKey() string { return p.ProductID }

// CustomerHistory is keyed by the unique person id, not the per-order customer id.
type CustomerHistory struct {
	CustomerUniqueID       string          `ch:"customer_unique_id" json:"customer_unique_id"`
	TotalOrders            int64           `ch:"total_orders" json:"total_orders"`
	DeliveredOrders        int64           `ch:"delivered_orders" json:"delivered_orders"`
	LifetimeValue          decimal.Decimal `ch:"lifetime_value" json:"lifetime_value"`
	TotalPaid              decimal.Decimal `ch:"total_paid" json:"total_paid"`
	AvgOrderValue          *float64        `ch:"avg_order_value" json:"avg_order_value"`
	AvgReviewScore         *float64        `ch:"avg_review_score" json:"avg_review_score"`
	FirstOrderAt           time.Time       `ch:"first_order_at" json:"first_order_at"`
	LastOrderAt            time.Time       `ch:"last_order_at" json:"last_order_at"`
	IsRepeat               bool            `ch:"is_repeat" json:"is_repeat"`
	PreferredPaymentMethod *string         `ch:"preferred_payment_method" json:"preferred_payment_method"`
	PrimaryState           *string         `ch:"primary_state" json:"primary_state"`
}

var CustomerHistoryColumns = []models.ColumnDef{
	models.String("customer_unique_id"),
	models.Int64("total_orders"),
	models.Int64("delivered_orders"),
	models.Money("lifetime_value"),
	models.Money("total_paid"),
	models.NullableFloat64("avg_order_value"),
	models.NullableFloat64("avg_review_score"),
	models.Timestamp("first_order_at"),
	models.Timestamp("last_order_at"),
	models.Bool("is_repeat"),
	models.NullableString("preferred_payment_method"),
	models.NullableString("primary_state"),
}

func (c CustomerHistory) Values() []any {
	return []any{
		c.CustomerUniqueID, c.TotalOrders, c.DeliveredOrders, c.LifetimeValue, c.TotalPaid,
		c.AvgOrderValue, c.AvgReviewScore, c.FirstOrderAt, c.LastOrderAt, c.IsRepeat,
		c.PreferredPaymentMethod, c.PrimaryState,
	}
}

func (c CustomerHistory) RowKey() string { return c.CustomerUniqueID }
