package workers

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelism(t *testing.T) {
	assert.Equal(t, 7, Parallelism(7))
	assert.Equal(t, 512, Parallelism(10_000))

	expected := runtime.NumCPU() * 4
	if expected > 512 {
		expected = 512
	}
	assert.Equal(t, expected, Parallelism(0))
}

func TestQueueSize(t *testing.T) {
	assert.Equal(t, 1024, QueueSize(1, 1))
	assert.Equal(t, 4096, QueueSize(256, 16))
	assert.Equal(t, 262144, QueueSize(512, 1024))
	assert.Equal(t, 1024, QueueSize(0, 0))
}

func TestChunks(t *testing.T) {
	assert.Nil(t, Chunks(0, 4))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, Chunks(2, 8))
	assert.Equal(t, [][2]int{{0, 4}, {4, 7}, {7, 10}}, Chunks(10, 3))
	assert.Equal(t, [][2]int{{0, 5}}, Chunks(5, 0))
}

func TestRun(t *testing.T) {
	pool := NewPool(4)
	defer pool.StopAndWait()

	var n atomic.Int64
	tasks := make([]func(context.Context) error, 20)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n.Add(1)
			return nil
		}
	}
	require.NoError(t, Run(context.Background(), pool, tasks...))
	assert.EqualValues(t, 20, n.Load())
}

func TestRunReturnsFirstError(t *testing.T) {
	pool := NewPool(2)
	defer pool.StopAndWait()

	errA := errors.New("a")
	errB := errors.New("b")
	err := Run(context.Background(), pool,
		func(context.Context) error { return nil },
		func(context.Context) error { return errA },
		func(context.Context) error { return errB },
	)
	assert.ErrorIs(t, err, errA)
}

func TestRunCanceled(t *testing.T) {
	pool := NewPool(2)
	defer pool.StopAndWait()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, pool, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapChunksPreservesOrder(t *testing.T) {
	pool := NewPool(8)
	defer pool.StopAndWait()

	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}
	out, err := MapChunks(context.Background(), pool, items, 7, func(_ context.Context, chunk []int) ([]int, error) {
		res := make([]int, len(chunk))
		for i, v := range chunk {
			res[i] = v * 2
		}
		return res, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 1000)
	for i, v := range out {
		assert.Equal(t, i*2, v)
	}
}
