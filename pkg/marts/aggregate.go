package marts

import (
	"github.com/shopspring/decimal"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	"github.com/ordermart/ordermart/pkg/utils"
)

// UnknownState groups orders whose customer has no state.
const UnknownState = "unknown"

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	return utils.Ratio(m.sum, float64(m.n))
}

// orderStats accumulates the delivered-order metrics shared by the time and geography views.
type orderStats struct {
	orders    int64
	customers map[string]struct{}
	gmv       decimal.Decimal
	freight   decimal.Decimal
	review    mean
	delivery  mean
	onTime    int
	late      int
}

func newOrderStats() *orderStats {
	return &orderStats{customers: make(map[string]struct{}), gmv: decimal.Zero, freight: decimal.Zero}
}

func (s *orderStats) add(o *model.EnrichedOrder) {
	s.orders++
	if o.CustomerUniqueID != nil {
		s.customers[*o.CustomerUniqueID] = struct{}{}
	} else {
		s.customers[o.CustomerID] = struct{}{}
	}
	if o.TotalOrderValue != nil {
		s.gmv = s.gmv.Add(*o.TotalOrderValue)
	}
	if o.TotalFreight != nil {
		s.freight = s.freight.Add(*o.TotalFreight)
	}
	if o.ReviewScore != nil {
		s.review.add(utils.Ptr(float64(*o.ReviewScore)))
	}
	s.delivery.add(o.DeliveryDays)
	switch o.DeliveryStatus {
	case model.DeliveryOnTime:
		s.onTime++
	case model.DeliveryLate:
		s.late++
	}
}

func (s *orderStats) avgOrderValue() *float64 {
	return utils.Ratio(s.gmv.InexactFloat64(), float64(s.orders))
}

func (s *orderStats) classified() float64 { return float64(s.onTime + s.late) }

func delivered(orders []model.EnrichedOrder) []*model.EnrichedOrder {
	out := make([]*model.EnrichedOrder, 0, len(orders))
	for i := range orders {
		if orders[i].IsDelivered {
			out = append(out, &orders[i])
		}
	}
	return out
}
