package marts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ordermart/ordermart/pkg/utils"
)

func metrics(values ...float64) []Metric {
	out := make([]Metric, len(values))
	for i, v := range values {
		out[i] = Metric{Key: fmt.Sprintf("k%02d", i), Value: utils.Ptr(v)}
	}
	return out
}

func TestPercentRank(t *testing.T) {
	got := PercentRank(metrics(10, 30, 20, 20, 40), Ascending)
	assert.InDelta(t, 0.0, got["k00"], 1e-12)
	assert.InDelta(t, 0.25, got["k02"], 1e-12)
	assert.InDelta(t, 0.25, got["k03"], 1e-12)
	assert.InDelta(t, 0.75, got["k01"], 1e-12)
	assert.InDelta(t, 1.0, got["k04"], 1e-12)
}

func TestPercentRankDescending(t *testing.T) {
	got := PercentRank(metrics(1, 5, 3), Descending)
	assert.InDelta(t, 1.0, got["k00"], 1e-12)
	assert.InDelta(t, 0.0, got["k01"], 1e-12)
	assert.InDelta(t, 0.5, got["k02"], 1e-12)
}

func TestPercentRankNullsAndSingleton(t *testing.T) {
	population := []Metric{{Key: "a", Value: utils.Ptr(3.0)}, {Key: "b"}}
	got := PercentRank(population, Ascending)
	require.Len(t, got, 1)
	assert.Zero(t, got["a"])
	assert.NotContains(t, got, "b")

	assert.Empty(t, PercentRank(nil, Ascending))
}

func TestNTileEqualPopulation(t *testing.T) {
	for _, n := range []int{1, 4, 5, 7, 23, 100} {
		values := make([]float64, n)
		for i := range values {
			values[i] = float64(i % 3)
		}
		got := NTile(metrics(values...), 5, Ascending)
		require.Len(t, got, n)

		sizes := map[int]int{}
		for _, b := range got {
			assert.GreaterOrEqual(t, b, 1)
			assert.LessOrEqual(t, b, 5)
			sizes[b]++
		}
		lo, hi := n, 0
		for b := 1; b <= min(n, 5); b++ {
			lo = min(lo, sizes[b])
			hi = max(hi, sizes[b])
		}
		assert.LessOrEqual(t, hi-lo, 1, "n=%d", n)
	}
}

func TestNTileRemainderGoesToLowerBuckets(t *testing.T) {
	got := NTile(metrics(1, 2, 3, 4, 5, 6, 7), 5, Ascending)
	assert.Equal(t, map[string]int{"k00": 1, "k01": 1, "k02": 2, "k03": 2, "k04": 3, "k05": 4, "k06": 5}, got)
}

func TestNTileDescendingPutsSmallestLast(t *testing.T) {
	got := NTile(metrics(0, 100, 50, 10, 300), 5, Descending)
	assert.Equal(t, 5, got["k00"])
	assert.Equal(t, 1, got["k04"])
}

func TestNTileTiesByKey(t *testing.T) {
	population := []Metric{{Key: "b", Value: utils.Ptr(1.0)}, {Key: "a", Value: utils.Ptr(1.0)}}
	got := NTile(population, 2, Ascending)
	assert.Equal(t, 1, got["a"])
	assert.Equal(t, 2, got["b"])
}
