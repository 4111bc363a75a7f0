package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap/zaptest"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/entities"
	mart "github.com/ordermart/ordermart/pkg/db/models/marts"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/pipeline/activity"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/redis"
	"github.com/ordermart/ordermart/pkg/source"
)

type runRecorder struct {
	runs []redis.RunRecord
}

func (r *runRecorder) LayerPublished(context.Context, redis.RefreshEvent) {}

func (r *runRecorder) RunFinished(_ context.Context, run redis.RunRecord) {
	r.runs = append(r.runs, run)
}

// flakyStore fails publishes of one layer.
type flakyStore struct {
	*warehouse.Memory
	failLayer entities.Layer
}

func (s *flakyStore) Publish(ctx context.Context, layer entities.Layer, batches []warehouse.Batch) error {
	if layer == s.failLayer {
		return errors.New("store unavailable")
	}
	return s.Memory.Publish(ctx, layer, batches)
}

type fixture struct {
	env      *testsuite.TestWorkflowEnvironment
	wc       *Context
	store    *flakyStore
	recorder *runRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	suite := testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()
	logger := zaptest.NewLogger(t)

	store := &flakyStore{Memory: warehouse.NewMemory(logger)}
	recorder := &runRecorder{}
	ac := &activity.Context{
		Logger:      logger,
		Loader:      source.DirLoader{Dir: "../testdata"},
		Store:       store,
		Rules:       config.DefaultRules(),
		Notifier:    recorder,
		Parallelism: 4,
	}
	t.Cleanup(ac.Close)

	wc := &Context{ActivityContext: ac, Config: Config{LayerTimeout: time.Minute, MaxAttempts: 2}}

	env.RegisterWorkflow(wc.PipelineWorkflow)
	env.RegisterWorkflow(wc.RefreshMartWorkflow)
	env.RegisterActivity(ac.StageRaw)
	env.RegisterActivity(ac.BuildIntermediate)
	env.RegisterActivity(ac.BuildMarts)
	env.RegisterActivity(ac.RefreshMart)
	env.RegisterActivity(ac.RecordRun)

	return &fixture{env: env, wc: wc, store: store, recorder: recorder}
}

func TestPipelineWorkflowHappyPath(t *testing.T) {
	f := newFixture(t)
	anchor := time.Date(2018, 4, 1, 0, 0, 0, 0, time.UTC)

	f.env.ExecuteWorkflow(f.wc.PipelineWorkflow, types.PipelineInput{RunID: "run-1", Anchor: &anchor})

	require.True(t, f.env.IsWorkflowCompleted())
	require.NoError(t, f.env.GetWorkflowError())

	var out types.PipelineOutput
	require.NoError(t, f.env.GetWorkflowResult(&out))
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, 4, out.Rows[entities.EnrichedOrders.String()])
	assert.Equal(t, 3, out.Rows[entities.MonthlyRevenue.String()])
	assert.Len(t, out.Rows, len(entities.All()))

	assert.Len(t, f.store.Published(), len(entities.All()))

	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, types.RunSucceeded, f.recorder.runs[0].Status)
}

func TestPipelineWorkflowStagingFailure(t *testing.T) {
	f := newFixture(t)
	f.wc.ActivityContext.Loader = missingKeyLoader{}

	f.env.ExecuteWorkflow(f.wc.PipelineWorkflow, types.PipelineInput{RunID: "run-2"})

	require.True(t, f.env.IsWorkflowCompleted())
	err := f.env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrTypeStagingFailed, appErr.Type())

	assert.Empty(t, f.store.Published())
	require.Len(t, f.recorder.runs, 1)
	assert.Equal(t, types.RunFailed, f.recorder.runs[0].Status)
	assert.Equal(t, types.ErrTypeStagingFailed, f.recorder.runs[0].Error)
}

func TestPipelineWorkflowKeepsPreviousMartsOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A previous run published every layer.
	previous := []mart.MonthlyRevenue{{Month: time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)}}
	require.NoError(t, f.store.Memory.Publish(ctx, entities.LayerMarts, []warehouse.Batch{
		warehouse.NewBatch(entities.MonthlyRevenue, previous),
	}))
	f.store.failLayer = entities.LayerIntermediate

	f.env.ExecuteWorkflow(f.wc.PipelineWorkflow, types.PipelineInput{RunID: "run-3"})

	err := f.env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrTypeIntermediateFailed, appErr.Type())

	monthly, err := warehouse.Load[mart.MonthlyRevenue](ctx, f.store, entities.MonthlyRevenue)
	require.NoError(t, err)
	assert.Equal(t, previous, monthly)

	// staging was published before the failure
	_, err = warehouse.Load[mart.SellerScorecard](ctx, f.store, entities.SellerScorecard)
	require.ErrorIs(t, err, warehouse.ErrNotPublished)
	assert.Contains(t, f.store.Published(), entities.Orders)
}

func TestRefreshMartWorkflow(t *testing.T) {
	f := newFixture(t)
	f.env.ExecuteWorkflow(f.wc.PipelineWorkflow, types.PipelineInput{RunID: "run-4"})
	require.NoError(t, f.env.GetWorkflowError())

	refresh := newFixture(t)
	refresh.wc.ActivityContext.Store = f.store
	refresh.env.ExecuteWorkflow(refresh.wc.RefreshMartWorkflow, types.RefreshMartInput{View: "seller_scorecard"})
	require.NoError(t, refresh.env.GetWorkflowError())

	var out types.LayerOutput
	require.NoError(t, refresh.env.GetWorkflowResult(&out))
	assert.Equal(t, map[string]int{entities.SellerScorecard.String(): 2}, out.Rows)
}

func TestRefreshMartWorkflowInvalidView(t *testing.T) {
	f := newFixture(t)
	f.env.ExecuteWorkflow(f.wc.RefreshMartWorkflow, types.RefreshMartInput{View: "enriched_orders"})

	err := f.env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrTypeMartsFailed, appErr.Type())
}

type missingKeyLoader struct{}

func (missingKeyLoader) Load(context.Context) (source.RawBatch, error) {
	return source.RawBatch{
		source.Customers: {{Line: 2, Fields: map[string]string{"customer_unique_id": "u1"}}},
	}, nil
}
