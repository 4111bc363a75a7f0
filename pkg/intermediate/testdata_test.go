package intermediate

import (
	"time"

	"github.com/shopspring/decimal"

	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/staging"
)

func ts(s string) time.Time {
	t, err := staging.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *time.Time {
	t := ts(s)
	return &t
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixture covers three months, two sellers with orders and one without.
func fixture() *staging.Dataset {
	return &staging.Dataset{
		Customers: []stg.Customer{
			{CustomerID: "c1", CustomerUniqueID: "u1", City: "Sao Paulo", State: "SP"},
			{CustomerID: "c2", CustomerUniqueID: "u1", City: "Campinas", State: "SP"},
			{CustomerID: "c3", CustomerUniqueID: "u2", City: "Curitiba", State: "PR"},
		},
		Sellers: []stg.Seller{
			{SellerID: "sx", City: "Rio De Janeiro", State: "RJ"},
			{SellerID: "sy", State: "MG"},
			{SellerID: "sz"},
		},
		Products: []stg.Product{
			{ProductID: "p1", Category: "toys"},
			{ProductID: "p2", Category: "garden"},
		},
		Orders: []stg.Order{
			{OrderID: "o3", CustomerID: "c3", Status: "delivered", PurchasedAt: ts("2018-03-10 08:00:00"),
				DeliveredAt: tsp("2018-03-20 08:00:00"), EstimatedAt: tsp("2018-03-15 00:00:00")},
			{OrderID: "o1", CustomerID: "c1", Status: "delivered", PurchasedAt: ts("2018-01-05 12:00:00"),
				DeliveredAt: tsp("2018-01-08 00:00:00"), EstimatedAt: tsp("2018-01-20 00:00:00")},
			{OrderID: "o2", CustomerID: "c2", Status: "canceled", PurchasedAt: ts("2018-02-01 00:00:00")},
			{OrderID: "o4", CustomerID: "c9", Status: "shipped", PurchasedAt: ts("2018-03-11 00:00:00")},
		},
		OrderItems: []stg.OrderItem{
			{OrderID: "o1", ItemID: 1, ProductID: "p1", SellerID: "sx", Price: money("10.00"), Freight: money("2.00")},
			{OrderID: "o1", ItemID: 2, ProductID: "p2", SellerID: "sx", Price: money("15.00"), Freight: money("3.00")},
			{OrderID: "o2", ItemID: 1, ProductID: "p1", SellerID: "sy", Price: money("7.00"), Freight: money("1.00")},
			{OrderID: "o3", ItemID: 1, ProductID: "p1", SellerID: "sx", Price: money("20.00"), Freight: money("4.00")},
			{OrderID: "missing", ItemID: 1, ProductID: "p9", SellerID: "sq", Price: money("1.00"), Freight: money("1.00")},
		},
		Payments: []stg.Payment{
			{OrderID: "o1", Sequential: 1, Method: "credit_card", Installments: 1, Value: money("20.00")},
			{OrderID: "o3", Sequential: 1, Method: "voucher", Installments: 1, Value: money("4.00")},
			{OrderID: "o3", Sequential: 2, Method: "boleto", Installments: 1, Value: money("20.00")},
			{OrderID: "o3", Sequential: 3, Method: "voucher", Installments: 1, Value: money("0.00")},
			{OrderID: "o2", Sequential: 1, Method: "boleto", Installments: 3, Value: money("8.00")},
		},
		Reviews: []stg.Review{
			{OrderID: "o3", ReviewID: "r3", Score: 2},
		},
	}
}
