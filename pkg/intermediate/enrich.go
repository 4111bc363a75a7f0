package intermediate

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/staging"
)

// ClassifyDelivery compares calendar dates. An order without a delivery date is
// not_delivered regardless of the estimate; a delivered order without an estimate is late.
func ClassifyDelivery(delivered, estimated *time.Time) string {
	switch {
	case delivered == nil:
		return model.DeliveryNotDelivered
	case estimated != nil && !DayStart(*delivered).After(DayStart(*estimated)):
		return model.DeliveryOnTime
	default:
		return model.DeliveryLate
	}
}

func elapsedDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// orderIndex groups the one-to-many sources by order id for the left joins.
type orderIndex struct {
	items     map[string][]stg.OrderItem
	payments  map[string][]stg.Payment
	reviews   map[string]stg.Review
	customers map[string]stg.Customer
}

func newOrderIndex(ds *staging.Dataset) *orderIndex {
	ix := &orderIndex{
		items:     make(map[string][]stg.OrderItem, len(ds.Orders)),
		payments:  make(map[string][]stg.Payment, len(ds.Orders)),
		reviews:   make(map[string]stg.Review, len(ds.Reviews)),
		customers: make(map[string]stg.Customer, len(ds.Customers)),
	}
	for _, it := range ds.OrderItems {
		ix.items[it.OrderID] = append(ix.items[it.OrderID], it)
	}
	for _, p := range ds.Payments {
		ix.payments[p.OrderID] = append(ix.payments[p.OrderID], p)
	}
	for _, r := range ds.Reviews {
		ix.reviews[r.OrderID] = r
	}
	for _, c := range ds.Customers {
		ix.customers[c.CustomerID] = c
	}
	return ix
}

func (ix *orderIndex) enrich(o stg.Order) model.EnrichedOrder {
	e := model.EnrichedOrder{
		OrderID:            o.OrderID,
		CustomerID:         o.CustomerID,
		Status:             o.Status,
		PurchasedAt:        o.PurchasedAt,
		ApprovedAt:         o.ApprovedAt,
		DeliveredCarrierAt: o.DeliveredCarrierAt,
		DeliveredAt:        o.DeliveredAt,
		EstimatedAt:        o.EstimatedAt,
		PurchaseDate:       DayStart(o.PurchasedAt),
		PurchaseYear:       int64(o.PurchasedAt.Year()),
		PurchaseMonth:      int64(o.PurchasedAt.Month()),
		PurchaseWeekday:    o.PurchasedAt.Weekday().String(),
		IsDelivered:        o.Status == model.OrderStatusDelivered,
		PaymentMethods:     []string{},
	}

	if c, ok := ix.customers[o.CustomerID]; ok {
		e.CustomerUniqueID = &c.CustomerUniqueID
		if c.City != "" {
			e.CustomerCity = &c.City
		}
		if c.State != "" {
			e.CustomerState = &c.State
		}
	}

	if items := ix.items[o.OrderID]; len(items) > 0 {
		products := make(map[string]struct{}, len(items))
		sellers := make(map[string]struct{}, len(items))
		price, freight := decimal.Zero, decimal.Zero
		for _, it := range items {
			products[it.ProductID] = struct{}{}
			sellers[it.SellerID] = struct{}{}
			price = price.Add(it.Price)
			freight = freight.Add(it.Freight)
		}
		total := price.Add(freight)
		e.ItemCount = int64(len(items))
		e.DistinctProducts = int64(len(products))
		e.DistinctSellers = int64(len(sellers))
		e.TotalPrice, e.TotalFreight, e.TotalOrderValue = &price, &freight, &total
	}

	if payments := ix.payments[o.OrderID]; len(payments) > 0 {
		paid := decimal.Zero
		var maxInstallments int64
		for _, p := range payments {
			paid = paid.Add(p.Value)
			maxInstallments = max(maxInstallments, p.Installments)
			if p.Method != "" && !slices.Contains(e.PaymentMethods, p.Method) {
				e.PaymentMethods = append(e.PaymentMethods, p.Method)
			}
		}
		slices.Sort(e.PaymentMethods)
		e.PaymentCount = int64(len(payments))
		e.TotalPayment = &paid
		e.MaxInstallments = &maxInstallments
	}

	if r, ok := ix.reviews[o.OrderID]; ok {
		score := r.Score
		e.ReviewScore = &score
	}

	e.DeliveryStatus = ClassifyDelivery(o.DeliveredAt, o.EstimatedAt)
	if o.DeliveredAt != nil {
		days := elapsedDays(o.PurchasedAt, *o.DeliveredAt)
		e.DeliveryDays = &days
		if o.EstimatedAt != nil {
			vs := elapsedDays(*o.DeliveredAt, *o.EstimatedAt)
			e.DeliveryVsEstimateDays = &vs
		}
	}
	return e
}

// EnrichOrders builds exactly one fact row per order, sorted by order id.
// Items, payments and reviews are left joined: missing ones yield null aggregates.
func EnrichOrders(ds *staging.Dataset) []model.EnrichedOrder {
	ix := newOrderIndex(ds)
	orders := sortedOrders(ds.Orders)
	out := make([]model.EnrichedOrder, len(orders))
	for i, o := range orders {
		out[i] = ix.enrich(o)
	}
	return out
}

func sortedOrders(orders []stg.Order) []stg.Order {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b stg.Order) int { return cmp.Compare(a.OrderID, b.OrderID) })
	return out
}
