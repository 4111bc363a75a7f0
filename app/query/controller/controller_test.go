package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ordermart/ordermart/app/query/types"
	"github.com/ordermart/ordermart/pkg/db/entities"
	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/metrics"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func seedStore(t *testing.T) *warehouse.Memory {
	t.Helper()
	ctx := context.Background()
	store := warehouse.NewMemory(zaptest.NewLogger(t))

	require.NoError(t, store.Publish(ctx, entities.LayerStaging, []warehouse.Batch{
		warehouse.NewBatch(entities.OrderItems, []stg.OrderItem{
			{OrderID: "o1", ItemID: 1, ProductID: "p1", SellerID: "s1", Price: decimal.NewFromInt(100), Freight: decimal.NewFromInt(10)},
			{OrderID: "o2", ItemID: 1, ProductID: "p2", SellerID: "s1", Price: decimal.NewFromInt(50), Freight: decimal.NewFromInt(5)},
			{OrderID: "o1", ItemID: 2, ProductID: "p2", SellerID: "s2", Price: decimal.NewFromInt(30), Freight: decimal.NewFromInt(3)},
		}),
		warehouse.NewBatch(entities.Payments, []stg.Payment{
			{OrderID: "o1", Sequential: 1, Method: "credit_card", Installments: 1, Value: decimal.NewFromInt(143)},
		}),
		warehouse.NewBatch(entities.Reviews, []stg.Review{}),
	}))

	purchased := time.Date(2018, 1, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Publish(ctx, entities.LayerIntermediate, []warehouse.Batch{
		warehouse.NewBatch(entities.EnrichedOrders, []model.EnrichedOrder{
			{OrderID: "o1", CustomerID: "c1", Status: model.OrderStatusDelivered, PurchasedAt: purchased},
			{OrderID: "o2", CustomerID: "c2", Status: model.OrderStatusDelivered, PurchasedAt: purchased},
		}),
		warehouse.NewBatch(entities.SellerStatusHistory, []model.SellerStatusInterval{
			{IntervalID: "a", SellerID: "s1", Status: model.StatusActive, ValidFrom: month(2018, 1), ValidTo: month(2018, 3)},
			{IntervalID: "b", SellerID: "s1", Status: model.StatusInactive, ValidFrom: month(2018, 3), ValidTo: time.Date(2299, 12, 31, 0, 0, 0, 0, time.UTC), IsCurrent: true},
			{IntervalID: "c", SellerID: "s2", Status: model.StatusActive, ValidFrom: month(2018, 1), ValidTo: time.Date(2299, 12, 31, 0, 0, 0, 0, time.UTC), IsCurrent: true},
		}),
	}))

	require.NoError(t, store.Publish(ctx, entities.LayerMarts, []warehouse.Batch{
		warehouse.NewBatch(entities.MonthlyRevenue, []mart.MonthlyRevenue{
			{Month: month(2018, 1), Orders: 2, GMV: decimal.NewFromInt(180)},
			{Month: month(2018, 2), Orders: 0, GMV: decimal.Zero},
			{Month: month(2018, 3), Orders: 1, GMV: decimal.NewFromInt(80)},
		}),
		warehouse.NewBatch(entities.SellerScorecard, []mart.SellerScorecard{
			{Rank: 1, SellerID: "s1", Orders: 2, Revenue: decimal.NewFromInt(150), Tier: "new"},
		}),
	}))
	return store
}

func setupTestController(t *testing.T, store warehouse.Reader) (*Controller, http.Handler) {
	t.Helper()
	app := &types.App{
		Cache:   types.NewCache(store),
		Metrics: metrics.New("test"),
		Logger:  zaptest.NewLogger(t),
	}
	c := NewController(app)
	router, err := c.NewRouter()
	require.NoError(t, err)
	return c, WithCORS(router)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHandleHealth(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	rec := get(t, h, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
}

func TestHandleEntities(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	rec := get(t, h, "/entities")
	require.Equal(t, http.StatusOK, rec.Code)

	infos := decode[[]entityInfo](t, rec)
	require.Len(t, infos, len(entities.All()))
	assert.Equal(t, "stg_customers", infos[0].Name)
	assert.Equal(t, "customers", infos[0].Alias)
	assert.Equal(t, entities.LayerStaging, infos[0].Layer)
	assert.Equal(t, []string{"customer_id"}, infos[0].Key)
	assert.NotEmpty(t, infos[0].Columns)
}

func TestHandleEntityRows(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	t.Run("by table name", func(t *testing.T) {
		rec := get(t, h, "/entities/int_enriched_orders")
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[pageResponse[model.EnrichedOrder]](t, rec)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, defaultLimit, page.Limit)
		assert.Len(t, page.Data, 2)
	})

	t.Run("by alias with pagination", func(t *testing.T) {
		rec := get(t, h, "/entities/order_items?limit=1&offset=1")
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[pageResponse[stg.OrderItem]](t, rec)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "o2", page.Data[0].OrderID)
	})

	t.Run("offset past the end", func(t *testing.T) {
		rec := get(t, h, "/entities/order_items?offset=10")
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[pageResponse[stg.OrderItem]](t, rec)
		assert.Empty(t, page.Data)
		assert.Equal(t, 3, page.Total)
	})

	t.Run("invalid limit", func(t *testing.T) {
		rec := get(t, h, "/entities/order_items?limit=zero")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown entity", func(t *testing.T) {
		rec := get(t, h, "/entities/blocks")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("not yet published", func(t *testing.T) {
		rec := get(t, h, "/entities/customers")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "has not been published yet")
	})
}

func TestHandleEntityRow(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	rec := get(t, h, "/entities/enriched_orders/o2")
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[model.EnrichedOrder](t, rec)
	assert.Equal(t, "c2", order.CustomerID)

	rec = get(t, h, "/entities/enriched_orders/o9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMart(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	rec := get(t, h, "/marts/monthly_revenue")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[pageResponse[mart.MonthlyRevenue]](t, rec)
	require.Len(t, page.Data, 3)
	assert.True(t, page.Data[1].GMV.IsZero())

	rec = get(t, h, "/marts/seller_scorecard/s1")
	require.Equal(t, http.StatusOK, rec.Code)
	card := decode[mart.SellerScorecard](t, rec)
	assert.Equal(t, "new", card.Tier)

	rec = get(t, h, "/marts/monthly_revenue/2018-03")
	require.Equal(t, http.StatusOK, rec.Code)

	// only reporting views are served under /marts
	rec = get(t, h, "/marts/enriched_orders")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleOrder(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	rec := get(t, h, "/orders/o1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Order    model.EnrichedOrder `json:"order"`
		Items    []stg.OrderItem     `json:"items"`
		Payments []stg.Payment       `json:"payments"`
		Review   *stg.Review         `json:"review"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "o1", body.Order.OrderID)
	assert.Len(t, body.Items, 2)
	require.Len(t, body.Payments, 1)
	assert.Equal(t, "credit_card", body.Payments[0].Method)
	assert.Nil(t, body.Review)

	rec = get(t, h, "/orders/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSellerHistory(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	rec := get(t, h, "/sellers/s1/history")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]model.SellerStatusInterval](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, model.StatusActive, history[0].Status)
	assert.True(t, history[1].IsCurrent)

	rec = get(t, h, "/sellers/s9/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRunsWithoutRedis(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	rec := get(t, h, "/runs")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCacheInvalidation(t *testing.T) {
	store := seedStore(t)
	c, h := setupTestController(t, store)

	rec := get(t, h, "/marts/seller_scorecard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[pageResponse[mart.SellerScorecard]](t, rec).Total)

	require.NoError(t, store.Publish(context.Background(), entities.LayerMarts, []warehouse.Batch{
		warehouse.NewBatch(entities.SellerScorecard, []mart.SellerScorecard{
			{Rank: 1, SellerID: "s1", Tier: "gold"},
			{Rank: 2, SellerID: "s2", Tier: "silver"},
		}),
	}))

	// still served from cache until the layer is invalidated
	rec = get(t, h, "/marts/seller_scorecard")
	assert.Equal(t, 1, decode[pageResponse[mart.SellerScorecard]](t, rec).Total)

	c.App.Cache.Invalidate(entities.LayerMarts)
	rec = get(t, h, "/marts/seller_scorecard")
	assert.Equal(t, 2, decode[pageResponse[mart.SellerScorecard]](t, rec).Total)
}

func TestWithCORS(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := setupTestController(t, seedStore(t))

	get(t, h, "/marts/monthly_revenue")
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_query_requests_total{code="2xx",route="/marts/{view}"} 1`), rec.Body.String())
}
