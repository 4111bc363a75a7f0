package activity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap/zaptest"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/entities"
	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/metrics"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/redis"
	"github.com/ordermart/ordermart/pkg/source"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []redis.RefreshEvent
	runs   []redis.RunRecord
}

func (n *recordingNotifier) LayerPublished(_ context.Context, e redis.RefreshEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) RunFinished(_ context.Context, r redis.RunRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.runs = append(n.runs, r)
}

type staticLoader struct{ batch source.RawBatch }

func (l staticLoader) Load(context.Context) (source.RawBatch, error) { return l.batch, nil }

func newTestContext(t *testing.T) (*Context, *warehouse.Memory, *recordingNotifier) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := warehouse.NewMemory(logger)
	notifier := &recordingNotifier{}
	ac := &Context{
		Logger:      logger,
		Loader:      source.DirLoader{Dir: "../testdata", Opts: source.Options{Logger: logger}},
		Store:       store,
		Rules:       config.DefaultRules(),
		Notifier:    notifier,
		Metrics:     metrics.New("test"),
		Parallelism: 4,
	}
	t.Cleanup(ac.Close)
	return ac, store, notifier
}

func TestStageRaw(t *testing.T) {
	ac, store, notifier := newTestContext(t)
	ctx := context.Background()

	out, err := ac.StageRaw(ctx, types.StageRawInput{RunID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 0, out.RecordErrors)
	assert.Equal(t, 3, out.Rows[entities.Customers.String()])
	assert.Equal(t, 4, out.Rows[entities.Orders.String()])
	assert.Equal(t, 5, out.Rows[entities.OrderItems.String()])
	assert.Equal(t, 2, out.Rows[entities.Geolocation.String()])

	ds, err := LoadDataset(ctx, store)
	require.NoError(t, err)
	assert.Len(t, ds.Reviews, 3)
	assert.Equal(t, "toys", ds.Products[0].Category)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "staging", notifier.events[0].Layer)
	assert.Equal(t, "r1", notifier.events[0].RunID)
}

func TestStageRawMissingPrimaryKeyIsNonRetryable(t *testing.T) {
	ac, store, notifier := newTestContext(t)
	ac.Loader = staticLoader{batch: source.RawBatch{
		source.Orders: {
			{Line: 2, Fields: map[string]string{"order_id": "", "order_purchase_timestamp": "2018-01-05 10:00:00"}},
		},
	}}

	_, err := ac.StageRaw(context.Background(), types.StageRawInput{RunID: "r1"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrTypeStagingFailed, appErr.Type())
	assert.True(t, appErr.NonRetryable())

	assert.Empty(t, store.Published())
	assert.Empty(t, notifier.events)
}

func TestStageRawReportsRecordErrors(t *testing.T) {
	ac, _, _ := newTestContext(t)
	ac.Loader = staticLoader{batch: source.RawBatch{
		source.Orders: {
			{Line: 2, Fields: map[string]string{"order_id": "o1", "customer_id": "c1", "order_status": "delivered", "order_purchase_timestamp": "2018-01-05 10:00:00"}},
			{Line: 3, Fields: map[string]string{"order_id": "o2", "customer_id": "c1", "order_status": "delivered", "order_purchase_timestamp": "soon"}},
		},
	}}

	out, err := ac.StageRaw(context.Background(), types.StageRawInput{RunID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.RecordErrors)
	assert.Equal(t, 1, out.ErrorsBySource[string(source.Orders)])
	assert.Equal(t, 1, out.Rows[entities.Orders.String()])
}

func TestLayersInOrder(t *testing.T) {
	ac, store, notifier := newTestContext(t)
	ctx := context.Background()

	_, err := ac.StageRaw(ctx, types.StageRawInput{RunID: "r1"})
	require.NoError(t, err)

	intOut, err := ac.BuildIntermediate(ctx, types.BuildLayerInput{RunID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 4, intOut.Rows[entities.EnrichedOrders.String()])
	assert.Equal(t, 4, intOut.Rows[entities.SellerStatusHistory.String()])
	assert.Equal(t, 2, intOut.Rows[entities.SellerPerformance.String()])
	assert.Equal(t, 2, intOut.Rows[entities.CustomerHistory.String()])

	martOut, err := ac.BuildMarts(ctx, types.BuildLayerInput{RunID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 3, martOut.Rows[entities.MonthlyRevenue.String()])
	assert.Equal(t, 2, martOut.Rows[entities.StatePerformance.String()])
	assert.Equal(t, 0, martOut.Rows[entities.CategoryAnalysis.String()])
	assert.Equal(t, 2, martOut.Rows[entities.SellerScorecard.String()])
	assert.Equal(t, 2, martOut.Rows[entities.CustomerSegments.String()])

	monthly, err := warehouse.Load[mart.MonthlyRevenue](ctx, store, entities.MonthlyRevenue)
	require.NoError(t, err)
	total := decimal.Zero
	for _, m := range monthly {
		total = total.Add(m.GMV)
	}
	assert.True(t, decimal.RequireFromString("286").Equal(total), total.String())

	orders, err := warehouse.Load[model.EnrichedOrder](ctx, store, entities.EnrichedOrders)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryLate, orders[1].DeliveryStatus)

	layers := make([]string, len(notifier.events))
	for i, e := range notifier.events {
		layers[i] = e.Layer
	}
	assert.Equal(t, []string{"staging", "intermediate", "marts"}, layers)
}

func TestBuildIntermediateNeedsStaging(t *testing.T) {
	ac, _, _ := newTestContext(t)
	_, err := ac.BuildIntermediate(context.Background(), types.BuildLayerInput{RunID: "r1"})
	require.ErrorIs(t, err, warehouse.ErrNotPublished)
}

func TestRefreshMart(t *testing.T) {
	ac, store, _ := newTestContext(t)
	ctx := context.Background()
	_, err := ac.StageRaw(ctx, types.StageRawInput{RunID: "r1"})
	require.NoError(t, err)
	_, err = ac.BuildIntermediate(ctx, types.BuildLayerInput{RunID: "r1"})
	require.NoError(t, err)

	anchor := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)
	out, err := ac.RefreshMart(ctx, types.RefreshMartInput{RunID: "r2", View: "customer_segments", Anchor: &anchor})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{entities.CustomerSegments.String(): 2}, out.Rows)

	segments, err := warehouse.Load[mart.CustomerSegment](ctx, store, entities.CustomerSegments)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	// u2 last ordered at 2018-03-10 08:00, 82 days 16 hours before the anchor
	assert.Equal(t, "u2", segments[1].CustomerUniqueID)
	assert.EqualValues(t, 82, segments[1].RecencyDays)

	// only the refreshed view is published
	_, err = warehouse.Load[mart.MonthlyRevenue](ctx, store, entities.MonthlyRevenue)
	require.ErrorIs(t, err, warehouse.ErrNotPublished)
}

func TestRefreshMartRejectsOtherEntities(t *testing.T) {
	ac, _, _ := newTestContext(t)
	for _, view := range []string{"enriched_orders", "nope"} {
		_, err := ac.RefreshMart(context.Background(), types.RefreshMartInput{View: view})
		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr, view)
		assert.Equal(t, types.ErrTypeInvalidInput, appErr.Type())
	}
}

func TestRecordRun(t *testing.T) {
	ac, _, notifier := newTestContext(t)
	start := time.Date(2018, 9, 3, 5, 0, 0, 0, time.UTC)
	err := ac.RecordRun(context.Background(), types.RecordRunInput{
		RunID:      "r1",
		Status:     types.RunFailed,
		Error:      types.ErrTypeMartsFailed,
		StartedAt:  start,
		FinishedAt: start.Add(time.Minute),
	})
	require.NoError(t, err)
	require.Len(t, notifier.runs, 1)
	assert.Equal(t, redis.RunRecord{
		RunID:      "r1",
		Status:     types.RunFailed,
		Error:      types.ErrTypeMartsFailed,
		StartedAt:  "2018-09-03T05:00:00Z",
		FinishedAt: "2018-09-03T05:01:00Z",
	}, notifier.runs[0])
}

func TestNilNotifierAndMetrics(t *testing.T) {
	ac, _, _ := newTestContext(t)
	ac.Notifier = nil
	ac.Metrics = nil
	_, err := ac.StageRaw(context.Background(), types.StageRawInput{RunID: "r1"})
	require.NoError(t, err)
	require.NoError(t, ac.RecordRun(context.Background(), types.RecordRunInput{RunID: "r1", Status: types.RunSucceeded}))
}

func TestLoadErrorsAreRetryable(t *testing.T) {
	ac, _, _ := newTestContext(t)
	ac.Loader = failingLoader{}
	_, err := ac.StageRaw(context.Background(), types.StageRawInput{RunID: "r1"})
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	assert.False(t, errors.As(err, &appErr))
}

type failingLoader struct{}

func (failingLoader) Load(context.Context) (source.RawBatch, error) {
	return nil, errors.New("disk unavailable")
}
