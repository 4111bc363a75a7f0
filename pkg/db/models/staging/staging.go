// Package staging holds the typed records produced by the normalizer.
package staging

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordermart/ordermart/pkg/db/models"
)

type Customer struct {
	CustomerID       string   `ch:"customer_id" json:"customer_id"`
	CustomerUniqueID string   `ch:"customer_unique_id" json:"customer_unique_id"`
	ZipCodePrefix    string   `ch:"zip_code_prefix" json:"zip_code_prefix"`
	City             string   `ch:"city" json:"city"`
	State            string   `ch:"state" json:"state"`
	Lat              *float64 `ch:"lat" json:"lat"`
	Lng              *float64 `ch:"lng" json:"lng"`
}

var CustomerColumns = []models.ColumnDef{
	models.String("customer_id"),
	models.String("customer_unique_id"),
	models.LowCardinality("zip_code_prefix"),
	models.LowCardinality("city"),
	models.LowCardinality("state"),
	models.NullableFloat64("lat"),
	models.NullableFloat64("lng"),
}

func (c Customer) Values() []any {
	return []any{c.CustomerID, c.CustomerUniqueID, c.ZipCodePrefix, c.City, c.State, c.Lat, c.Lng}
}

func (c Customer) RowKey() string { return c.CustomerID }

type Seller struct {
	SellerID      string   `ch:"seller_id" json:"seller_id"`
	ZipCodePrefix string   `ch:"zip_code_prefix" json:"zip_code_prefix"`
	City          string   `ch:"city" json:"city"`
	State         string   `ch:"state" json:"state"`
	Lat           *float64 `ch:"lat" json:"lat"`
	Lng           *float64 `ch:"lng" json:"lng"`
}

var SellerColumns = []models.ColumnDef{
	models.String("seller_id"),
	models.LowCardinality("zip_code_prefix"),
	models.LowCardinality("city"),
	models.LowCardinality("state"),
	models.NullableFloat64("lat"),
	models.NullableFloat64("lng"),
}

func (s Seller) Values() []any {
	return []any{s.SellerID, s.ZipCodePrefix, s.City, s.State, s.Lat, s.Lng}
}

func (s Seller) RowKey() string { return s.SellerID }

// Product carries the raw category code next to its translated name.
type Product struct {
	ProductID         string   `ch:"product_id" json:"product_id"`
	CategoryCode      *string  `ch:"category_code" json:"category_code"`
	Category          string   `ch:"category" json:"category"`
	NameLength        *int64   `ch:"name_length" json:"name_length"`
	DescriptionLength *int64   `ch:"description_length" json:"description_length"`
	PhotosQty         *int64   `ch:"photos_qty" json:"photos_qty"`
	WeightG           *float64 `ch:"weight_g" json:"weight_g"`
	LengthCm          *float64 `ch:"length_cm" json:"length_cm"`
	HeightCm          *float64 `ch:"height_cm" json:"height_cm"`
	WidthCm           *float64 `ch:"width_cm" json:"width_cm"`
	VolumeCm3         *float64 `ch:"volume_cm3" json:"volume_cm3"`
}

var ProductColumns = []models.ColumnDef{
	models.String("product_id"),
	models.NullableString("category_code"),
	models.LowCardinality("category"),
	models.NullableInt64("name_length"),
	models.NullableInt64("description_length"),
	models.NullableInt64("photos_qty"),
	models.NullableFloat64("weight_g"),
	models.NullableFloat64("length_cm"),
	models.NullableFloat64("height_cm"),
	models.NullableFloat64("width_cm"),
	models.NullableFloat64("volume_cm3"),
}

func (p Product) Values() []any {
	return []any{
		p.ProductID, p.CategoryCode, p.Category, p.NameLength, p.DescriptionLength, p.PhotosQty,
		p.WeightG, p.LengthCm, p.HeightCm, p.WidthCm, p.VolumeCm3,
	}
}

func (p Product) RowKey() string { return p.ProductID }

type Order struct {
	OrderID            string     `ch:"order_id" json:"order_id"`
	CustomerID         string     `ch:"customer_id" json:"customer_id"`
	Status             string     `ch:"status" json:"status"`
	PurchasedAt        time.Time  `ch:"purchased_at" json:"purchased_at"`
	ApprovedAt         *time.Time `ch:"approved_at" json:"approved_at"`
	DeliveredCarrierAt *time.Time `ch:"delivered_carrier_at" json:"delivered_carrier_at"`
	DeliveredAt        *time.Time `ch:"delivered_at" json:"delivered_at"`
	EstimatedAt        *time.Time `ch:"estimated_at" json:"estimated_at"`
}

var OrderColumns = []models.ColumnDef{
	models.String("order_id"),
	models.String("customer_id"),
	models.LowCardinality("status"),
	models.Timestamp("purchased_at"),
	models.NullableTimestamp("approved_at"),
	models.NullableTimestamp("delivered_carrier_at"),
	models.NullableTimestamp("delivered_at"),
	models.NullableTimestamp("estimated_at"),
}

func (o Order) Values() []any {
	return []any{o.OrderID, o.CustomerID, o.Status, o.PurchasedAt, o.ApprovedAt, o.DeliveredCarrierAt, o.DeliveredAt, o.EstimatedAt}
}

func (o Order) RowKey() string { return o.OrderID }

type OrderItem struct {
	OrderID         string          `ch:"order_id" json:"order_id"`
	ItemID          int64           `ch:"item_id" json:"item_id"`
	ProductID       string          `ch:"product_id" json:"product_id"`
	SellerID        string          `ch:"seller_id" json:"seller_id"`
	ShippingLimitAt *time.Time      `ch:"shipping_limit_at" json:"shipping_limit_at"`
	Price           decimal.Decimal `ch:"price" json:"price"`
	Freight         decimal.Decimal `ch:"freight" json:"freight"`
}

var OrderItemColumns = []models.ColumnDef{
	models.String("order_id"),
	models.Int64("item_id"),
	models.String("product_id"),
	models.String("seller_id"),
	models.NullableTimestamp("shipping_limit_at"),
	models.Money("price"),
	models.Money("freight"),
}

func (i OrderItem) Values() []any {
	return []any{i.OrderID, i.ItemID, i.ProductID, i.SellerID, i.ShippingLimitAt, i.Price, i.Freight}
}

type Payment struct {
	OrderID      string          `ch:"order_id" json:"order_id"`
	Sequential   int64           `ch:"sequential" json:"sequential"`
	Method       string          `ch:"method" json:"method"`
	Installments int64           `ch:"installments" json:"installments"`
	Value        decimal.Decimal `ch:"value" json:"value"`
}

var PaymentColumns = []models.ColumnDef{
	models.String("order_id"),
	models.Int64("sequential"),
	models.LowCardinality("method"),
	models.Int64("installments"),
	models.Money("value"),
}

func (p Payment) Values() []any {
	return []any{p.OrderID, p.Sequential, p.Method, p.Installments, p.Value}
}

// Review is the single retained review of an order.
type Review struct {
	OrderID        string     `ch:"order_id" json:"order_id"`
	ReviewID       string     `ch:"review_id" json:"review_id"`
	Score          int64      `ch:"score" json:"score"`
	CommentTitle   *string    `ch:"comment_title" json:"comment_title"`
	CommentMessage *string    `ch:"comment_message" json:"comment_message"`
	CreatedAt      *time.Time `ch:"created_at" json:"created_at"`
	AnsweredAt     *time.Time `ch:"answered_at" json:"answered_at"`
}

var ReviewColumns = []models.ColumnDef{
	models.String("order_id"),
	models.String("review_id"),
	models.Int64("score"),
	models.NullableString("comment_title"),
	models.NullableString("comment_message"),
	models.NullableTimestamp("created_at"),
	models.NullableTimestamp("answered_at"),
}

func (r Review) Values() []any {
	return []any{r.OrderID, r.ReviewID, r.Score, r.CommentTitle, r.CommentMessage, r.CreatedAt, r.AnsweredAt}
}

func (r Review) RowKey() string { return r.OrderID }

// Geolocation is one collapsed record per postal code prefix.
type Geolocation struct {
	ZipCodePrefix string  `ch:"zip_code_prefix" json:"zip_code_prefix"`
	Lat           float64 `ch:"lat" json:"lat"`
	Lng           float64 `ch:"lng" json:"lng"`
	City          string  `ch:"city" json:"city"`
	State         string  `ch:"state" json:"state"`
	Samples       int64   `ch:"samples" json:"samples"`
}

var GeolocationColumns = []models.ColumnDef{
	models.String("zip_code_prefix"),
	models.Float64("lat"),
	models.Float64("lng"),
	models.LowCardinality("city"),
	models.LowCardinality("state"),
	models.Int64("samples"),
}

func (g Geolocation) Values() []any {
	return []any{g.ZipCodePrefix, g.Lat, g.Lng, g.City, g.State, g.Samples}
}

func (g Geolocation) RowKey() string { return g.ZipCodePrefix }

type CategoryTranslation struct {
	CategoryCode string `ch:"category_code" json:"category_code"`
	CategoryName string `ch:"category_name" json:"category_name"`
}

var CategoryTranslationColumns = []models.ColumnDef{
	models.String("category_code"),
	models.String("category_name"),
}

func (c CategoryTranslation) Values() []any {
	return []any{c.CategoryCode, c.CategoryName}
}

func (c CategoryTranslation) RowKey() string { return c.CategoryCode }
