package intermediate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
)

func month(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

func bySeller(rows []model.SellerStatusInterval) map[string][]model.SellerStatusInterval {
	out := map[string][]model.SellerStatusInterval{}
	for _, r := range rows {
		out[r.SellerID] = append(out[r.SellerID], r)
	}
	return out
}

func TestSellerIntervalsActiveGapActive(t *testing.T) {
	window := []time.Time{month(2018, 1), month(2018, 2), month(2018, 3)}
	got := SellerIntervals("x", window, map[time.Time]int64{month(2018, 1): 2, month(2018, 3): 1})

	require.Len(t, got, 3)
	assert.Equal(t, model.StatusActive, got[0].Status)
	assert.Equal(t, month(2018, 1), got[0].ValidFrom)
	assert.Equal(t, time.Date(2018, 1, 31, 0, 0, 0, 0, time.UTC), got[0].ValidTo)
	assert.EqualValues(t, 2, got[0].OrderCount)
	assert.False(t, got[0].IsCurrent)

	assert.Equal(t, model.StatusInactive, got[1].Status)
	assert.Equal(t, month(2018, 2), got[1].ValidFrom)
	assert.Equal(t, time.Date(2018, 2, 28, 0, 0, 0, 0, time.UTC), got[1].ValidTo)
	assert.Zero(t, got[1].OrderCount)

	assert.Equal(t, model.StatusActive, got[2].Status)
	assert.Equal(t, month(2018, 3), got[2].ValidFrom)
	assert.Equal(t, OpenEnded, got[2].ValidTo)
	assert.True(t, got[2].IsCurrent)
}

func TestSellerIntervalsNoChange(t *testing.T) {
	window := []time.Time{month(2018, 1), month(2018, 2)}
	got := SellerIntervals("x", window, map[time.Time]int64{month(2018, 1): 1, month(2018, 2): 5})
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusActive, got[0].Status)
	assert.EqualValues(t, 1, got[0].OrderCount)
	assert.True(t, got[0].IsCurrent)
}

func TestBuildSellerHistory(t *testing.T) {
	ds := fixture()
	orders := EnrichOrders(ds)
	rows := BuildSellerHistory(ds.Sellers, ds.OrderItems, orders)
	groups := bySeller(rows)

	require.Len(t, groups, 3)
	assert.NotContains(t, groups, "sq")

	assert.Equal(t, []string{model.StatusActive, model.StatusInactive, model.StatusActive}, statuses(groups["sx"]))
	assert.Equal(t, []string{model.StatusInactive, model.StatusActive, model.StatusInactive}, statuses(groups["sy"]))

	sz := groups["sz"]
	require.Len(t, sz, 1)
	assert.Equal(t, model.StatusInactive, sz[0].Status)
	assert.Equal(t, month(2018, 1), sz[0].ValidFrom)
	assert.Equal(t, OpenEnded, sz[0].ValidTo)
	assert.True(t, sz[0].IsCurrent)

	for seller, intervals := range groups {
		current := 0
		for i, iv := range intervals {
			if iv.IsCurrent {
				current++
				assert.Equal(t, OpenEnded, iv.ValidTo, seller)
			}
			if i > 0 {
				assert.Equal(t, intervals[i-1].ValidTo.AddDate(0, 0, 1), iv.ValidFrom, seller)
				assert.True(t, iv.ValidFrom.After(intervals[i-1].ValidFrom), seller)
			}
			assert.Equal(t, IntervalID(seller, iv.ValidFrom), iv.IntervalID)
		}
		assert.Equal(t, 1, current, seller)
	}
}

func TestBuildSellerHistoryEmptyWindow(t *testing.T) {
	ds := fixture()
	assert.Empty(t, BuildSellerHistory(ds.Sellers, ds.OrderItems, nil))
}

func TestObservationWindowSkipsEmptyMonths(t *testing.T) {
	orders := []model.EnrichedOrder{
		{OrderID: "a", PurchasedAt: ts("2018-05-02 00:00:00")},
		{OrderID: "b", PurchasedAt: ts("2018-01-31 23:59:59")},
		{OrderID: "c", PurchasedAt: ts("2018-01-01 00:00:00")},
	}
	assert.Equal(t, []time.Time{month(2018, 1), month(2018, 5)}, ObservationWindow(orders))
}

func TestIntervalIDStable(t *testing.T) {
	a := IntervalID("s1", month(2018, 1))
	assert.Equal(t, a, IntervalID("s1", month(2018, 1)))
	assert.NotEqual(t, a, IntervalID("s1", month(2018, 2)))
	assert.NotEqual(t, a, IntervalID("s2", month(2018, 1)))
}

func statuses(rows []model.SellerStatusInterval) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Status
	}
	return out
}
