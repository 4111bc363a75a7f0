package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap/zaptest"

	"github.com/ordermart/ordermart/pkg/config"
	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
	"github.com/ordermart/ordermart/pkg/pipeline/activity"
	"github.com/ordermart/ordermart/pkg/pipeline/types"
	"github.com/ordermart/ordermart/pkg/source"
	"github.com/ordermart/ordermart/pkg/staging"
)

func newRunner(t *testing.T, loader source.Loader) (*Runner, *warehouse.Memory) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := warehouse.NewMemory(logger)
	ac := &activity.Context{
		Logger:      logger,
		Loader:      loader,
		Store:       store,
		Rules:       config.DefaultRules(),
		Parallelism: 2,
	}
	t.Cleanup(ac.Close)
	return NewRunner(logger, ac), store
}

func TestRunnerRun(t *testing.T) {
	r, store := newRunner(t, source.DirLoader{Dir: "testdata"})

	out, err := r.Run(context.Background(), types.PipelineInput{RunID: "local"})
	require.NoError(t, err)
	assert.Equal(t, "local", out.RunID)
	assert.Len(t, out.Rows, len(entities.All()))
	assert.Equal(t, entities.All(), store.Published())
}

func TestRunnerGeneratesRunID(t *testing.T) {
	r, _ := newRunner(t, source.DirLoader{Dir: "testdata"})
	out, err := r.Run(context.Background(), types.PipelineInput{})
	require.NoError(t, err)
	assert.Len(t, out.RunID, len("20060102T150405Z"))
}

type brokenKeyLoader struct{}

func (brokenKeyLoader) Load(context.Context) (source.RawBatch, error) {
	return source.RawBatch{
		source.Sellers: {{Line: 5, Fields: map[string]string{"seller_city": "curitiba"}}},
	}, nil
}

func TestRunnerStagingFailure(t *testing.T) {
	r, store := newRunner(t, brokenKeyLoader{})

	_, err := r.Run(context.Background(), types.PipelineInput{RunID: "local"})
	require.Error(t, err)
	assert.Equal(t, types.ErrTypeStagingFailed, ErrorType(err))
	assert.ErrorIs(t, err, staging.ErrMissingPrimaryKey)

	var re *staging.RecordError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 5, re.Line)
	assert.Empty(t, store.Published())
}

func TestRunnerCanceled(t *testing.T) {
	r, store := newRunner(t, source.DirLoader{Dir: "testdata"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, types.PipelineInput{RunID: "local"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.Published())
}

func TestRunnerRefresh(t *testing.T) {
	r, _ := newRunner(t, source.DirLoader{Dir: "testdata"})
	_, err := r.Refresh(context.Background(), types.RefreshMartInput{View: "monthly_revenue"})
	require.Error(t, err)
	assert.Equal(t, types.ErrTypeMartsFailed, ErrorType(err))
	assert.ErrorIs(t, err, warehouse.ErrNotPublished)

	_, err = r.Run(context.Background(), types.PipelineInput{RunID: "local"})
	require.NoError(t, err)
	out, err := r.Refresh(context.Background(), types.RefreshMartInput{View: "monthly_revenue"})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Rows[entities.MonthlyRevenue.String()])
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "", ErrorType(errors.New("plain")))
	assert.Equal(t, "x", ErrorType(temporal.NewApplicationError("m", "x")))
	assert.Equal(t, types.ErrTypeMartsFailed, ErrorType(&LayerError{Type: types.ErrTypeMartsFailed, Err: errors.New("boom")}))
}
