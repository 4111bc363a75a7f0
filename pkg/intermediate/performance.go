package intermediate

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/staging"
	"github.com/ordermart/ordermart/pkg/utils"
)

type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	m.sum += v
	m.n++
}

func (m *meanAcc) value() *float64 {
	if m.n == 0 {
		return nil
	}
	return utils.Ratio(m.sum, float64(m.n))
}

type activitySpan struct {
	first, last *time.Time
}

func (s *activitySpan) add(t time.Time) {
	if s.first == nil || t.Before(*s.first) {
		s.first = utils.Ptr(t)
	}
	if s.last == nil || t.After(*s.last) {
		s.last = utils.Ptr(t)
	}
}

type itemLine struct {
	item  stg.OrderItem
	order *model.EnrichedOrder
}

// performanceIndex groups fact rows by every aggregation key. Building it is sequential;
// rows for disjoint keys can then be computed concurrently.
type performanceIndex struct {
	bySeller   map[string][]itemLine
	byProduct  map[string][]itemLine
	byCustomer map[string][]*model.EnrichedOrder
	payments   map[string][]stg.Payment
	sellers    map[string]stg.Seller
	products   map[string]stg.Product
}

func newPerformanceIndex(ds *staging.Dataset, orders []model.EnrichedOrder) *performanceIndex {
	ix := &performanceIndex{
		bySeller:   make(map[string][]itemLine),
		byProduct:  make(map[string][]itemLine),
		byCustomer: make(map[string][]*model.EnrichedOrder),
		payments:   make(map[string][]stg.Payment, len(orders)),
		sellers:    make(map[string]stg.Seller, len(ds.Sellers)),
		products:   make(map[string]stg.Product, len(ds.Products)),
	}

	byID := make(map[string]*model.EnrichedOrder, len(orders))
	for i := range orders {
		o := &orders[i]
		byID[o.OrderID] = o
		if o.CustomerUniqueID != nil {
			ix.byCustomer[*o.CustomerUniqueID] = append(ix.byCustomer[*o.CustomerUniqueID], o)
		}
	}
	for _, it := range ds.OrderItems {
		o, ok := byID[it.OrderID]
		if !ok {
			continue
		}
		line := itemLine{item: it, order: o}
		ix.bySeller[it.SellerID] = append(ix.bySeller[it.SellerID], line)
		ix.byProduct[it.ProductID] = append(ix.byProduct[it.ProductID], line)
	}
	for _, p := range ds.Payments {
		ix.payments[p.OrderID] = append(ix.payments[p.OrderID], p)
	}
	for _, s := range ds.Sellers {
		ix.sellers[s.SellerID] = s
	}
	for _, p := range ds.Products {
		ix.products[p.ProductID] = p
	}
	return ix
}

func sortedKeys[V any](maps ...map[string]V) []string {
	set := make(map[string]struct{})
	for _, m := range maps {
		for k := range m {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (ix *performanceIndex) sellerKeys() []string {
	return sortedKeys(toSet(ix.sellers), toSet(ix.bySeller))
}

func (ix *performanceIndex) productKeys() []string {
	return sortedKeys(toSet(ix.products), toSet(ix.byProduct))
}

func (ix *performanceIndex) customerKeys() []string {
	return sortedKeys(ix.byCustomer)
}

func toSet[V any](m map[string]V) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// distinctOrders returns the orders of lines in first-seen order.
func distinctOrders(lines []itemLine) []*model.EnrichedOrder {
	seen := make(map[string]struct{}, len(lines))
	out := make([]*model.EnrichedOrder, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.order.OrderID]; ok {
			continue
		}
		seen[l.order.OrderID] = struct{}{}
		out = append(out, l.order)
	}
	return out
}

func customerKey(o *model.EnrichedOrder) string {
	if o.CustomerUniqueID != nil {
		return *o.CustomerUniqueID
	}
	return o.CustomerID
}

func (ix *performanceIndex) seller(id string) model.SellerPerformance {
	row := model.SellerPerformance{SellerID: id, Revenue: decimal.Zero, FreightTotal: decimal.Zero}
	if dim, ok := ix.sellers[id]; ok {
		if dim.City != "" {
			row.City = utils.Ptr(dim.City)
		}
		if dim.State != "" {
			row.State = utils.Ptr(dim.State)
		}
	}

	lines := ix.bySeller[id]
	var (
		price            meanAcc
		span             activitySpan
		products         = make(map[string]struct{})
		customers        = make(map[string]struct{})
		review, delivery meanAcc
		onTime           int
	)
	for _, l := range lines {
		products[l.item.ProductID] = struct{}{}
		if l.order.IsDelivered {
			row.ItemsSold++
			row.Revenue = row.Revenue.Add(l.item.Price)
			row.FreightTotal = row.FreightTotal.Add(l.item.Freight)
			price.add(l.item.Price.InexactFloat64())
		}
	}
	for _, o := range distinctOrders(lines) {
		row.TotalOrders++
		customers[customerKey(o)] = struct{}{}
		span.add(o.PurchasedAt)
		if o.Status == model.OrderStatusCanceled {
			row.CanceledOrders++
		}
		if !o.IsDelivered {
			continue
		}
		row.DeliveredOrders++
		if o.ReviewScore != nil {
			review.add(float64(*o.ReviewScore))
		}
		if o.DeliveryDays != nil {
			delivery.add(*o.DeliveryDays)
		}
		switch o.DeliveryStatus {
		case model.DeliveryLate:
			row.LateDeliveries++
		case model.DeliveryOnTime:
			onTime++
		}
	}

	row.AvgItemPrice = price.value()
	row.AvgReviewScore = review.value()
	row.AvgDeliveryDays = delivery.value()
	row.OnTimeRate = utils.Ratio(float64(onTime), float64(onTime)+float64(row.LateDeliveries))
	row.DistinctProducts = int64(len(products))
	row.DistinctCustomers = int64(len(customers))
	row.FirstOrderAt, row.LastOrderAt = span.first, span.last
	return row
}

func (ix *performanceIndex) product(id string) model.ProductPerformance {
	row := model.ProductPerformance{ProductID: id, Category: staging.UnknownCategory, Revenue: decimal.Zero}
	if dim, ok := ix.products[id]; ok && dim.Category != "" {
		row.Category = dim.Category
	}

	lines := ix.byProduct[id]
	var (
		price, review meanAcc
		span          activitySpan
		sellers       = make(map[string]struct{})
	)
	for _, l := range lines {
		sellers[l.item.SellerID] = struct{}{}
		if l.order.IsDelivered {
			row.UnitsSold++
			row.Revenue = row.Revenue.Add(l.item.Price)
			price.add(l.item.Price.InexactFloat64())
		}
	}
	for _, o := range distinctOrders(lines) {
		row.TotalOrders++
		span.add(o.PurchasedAt)
		if !o.IsDelivered {
			continue
		}
		row.DeliveredOrders++
		if o.ReviewScore != nil {
			review.add(float64(*o.ReviewScore))
		}
	}

	row.AvgPrice = price.value()
	row.AvgReviewScore = review.value()
	row.DistinctSellers = int64(len(sellers))
	row.FirstOrderAt, row.LastOrderAt = span.first, span.last
	return row
}

func (ix *performanceIndex) customer(id string) model.CustomerHistory {
	row := model.CustomerHistory{CustomerUniqueID: id, LifetimeValue: decimal.Zero, TotalPaid: decimal.Zero}

	var (
		value, review meanAcc
		span          activitySpan
		methods       = make(map[string]int)
		states        = make(map[string]int)
	)
	for _, o := range ix.byCustomer[id] {
		row.TotalOrders++
		span.add(o.PurchasedAt)
		if o.IsDelivered {
			row.DeliveredOrders++
		}
		if o.TotalOrderValue != nil {
			row.LifetimeValue = row.LifetimeValue.Add(*o.TotalOrderValue)
			value.add(o.TotalOrderValue.InexactFloat64())
		}
		if o.TotalPayment != nil {
			row.TotalPaid = row.TotalPaid.Add(*o.TotalPayment)
		}
		if o.ReviewScore != nil {
			review.add(float64(*o.ReviewScore))
		}
		if o.CustomerState != nil {
			states[*o.CustomerState]++
		}
		for _, p := range ix.payments[o.OrderID] {
			if p.Method != "" {
				methods[p.Method]++
			}
		}
	}

	row.AvgOrderValue = value.value()
	row.AvgReviewScore = review.value()
	if span.first != nil {
		row.FirstOrderAt, row.LastOrderAt = *span.first, *span.last
	}
	row.IsRepeat = row.TotalOrders > 1
	if m, ok := utils.Mode(methods); ok {
		row.PreferredPaymentMethod = &m
	}
	if s, ok := utils.Mode(states); ok {
		row.PrimaryState = &s
	}
	return row
}

// AggregateSellers computes one row per seller in the dimension or in the items, sorted by id.
// Revenue and quality metrics only count delivered orders.
func AggregateSellers(ds *staging.Dataset, orders []model.EnrichedOrder) []model.SellerPerformance {
	ix := newPerformanceIndex(ds, orders)
	return mapKeys(ix.sellerKeys(), ix.seller)
}

// AggregateProducts computes one row per product in the dimension or in the items, sorted by id.
func AggregateProducts(ds *staging.Dataset, orders []model.EnrichedOrder) []model.ProductPerformance {
	ix := newPerformanceIndex(ds, orders)
	return mapKeys(ix.productKeys(), ix.product)
}

// AggregateCustomers computes one row per unique customer, sorted by id. Orders whose
// customer is not in the dimension have no unique id and are skipped.
func AggregateCustomers(ds *staging.Dataset, orders []model.EnrichedOrder) []model.CustomerHistory {
	ix := newPerformanceIndex(ds, orders)
	return mapKeys(ix.customerKeys(), ix.customer)
}

func mapKeys[R any](keys []string, fn func(string) R) []R {
	out := make([]R, len(keys))
	for i, k := range keys {
		out[i] = fn(k)
	}
	return out
}
