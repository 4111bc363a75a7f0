package intermediate

import (
	"slices"
	"time"

	"github.com/google/uuid"

	model "github.com/ordermart/ordermart/pkg/db/models/intermediate"
	stg "github.com/ordermart/ordermart/pkg/db/models/staging"
)

var intervalNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ordermart/seller_status_history"))

// IntervalID is the surrogate key of a (seller, valid_from) interval. It is stable across runs.
func IntervalID(sellerID string, validFrom time.Time) string {
	return uuid.NewSHA1(intervalNamespace, []byte(sellerID+"|"+validFrom.Format(time.DateOnly))).String()
}

// ObservationWindow returns every calendar month that has at least one order, ascending.
// The window is shared by all sellers.
func ObservationWindow(orders []model.EnrichedOrder) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, o := range orders {
		seen[MonthStart(o.PurchasedAt)] = struct{}{}
	}
	window := make([]time.Time, 0, len(seen))
	for m := range seen {
		window = append(window, m)
	}
	slices.SortFunc(window, func(a, b time.Time) int { return a.Compare(b) })
	return window
}

// SellerActivity counts distinct orders per seller and purchase month, linking
// items to orders. Items whose order is unknown are ignored.
type SellerActivity map[string]map[time.Time]int64

func NewSellerActivity(orders []model.EnrichedOrder, items []stg.OrderItem) SellerActivity {
	months := make(map[string]time.Time, len(orders))
	for _, o := range orders {
		months[o.OrderID] = MonthStart(o.PurchasedAt)
	}

	type pair struct{ seller, order string }
	seen := make(map[pair]struct{}, len(items))
	activity := make(SellerActivity)
	for _, it := range items {
		month, ok := months[it.OrderID]
		if !ok {
			continue
		}
		p := pair{it.SellerID, it.OrderID}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if activity[it.SellerID] == nil {
			activity[it.SellerID] = make(map[time.Time]int64)
		}
		activity[it.SellerID][month]++
	}
	return activity
}

// Sellers returns the union of dimension sellers and sellers with activity, sorted.
func (a SellerActivity) Sellers(dimension []stg.Seller) []string {
	ids := make(map[string]struct{}, len(dimension)+len(a))
	for _, s := range dimension {
		ids[s.SellerID] = struct{}{}
	}
	for id := range a {
		ids[id] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// SellerIntervals walks the window in order and emits a change point on the first month
// and whenever the state differs from the previous month. Each change point opens an
// interval that ends the day before the next one; the last is current and open ended.
func SellerIntervals(sellerID string, window []time.Time, counts map[time.Time]int64) []model.SellerStatusInterval {
	var out []model.SellerStatusInterval
	prev := ""
	for i, month := range window {
		n := counts[month]
		state := model.StatusInactive
		if n > 0 {
			state = model.StatusActive
		}
		if i == 0 || state != prev {
			if len(out) > 0 {
				out[len(out)-1].ValidTo = month.AddDate(0, 0, -1)
			}
			out = append(out, model.SellerStatusInterval{
				IntervalID: IntervalID(sellerID, month),
				SellerID:   sellerID,
				Status:     state,
				ValidFrom:  month,
				ValidTo:    OpenEnded,
				OrderCount: n,
			})
		}
		prev = state
	}
	if len(out) > 0 {
		out[len(out)-1].IsCurrent = true
	}
	return out
}

// BuildSellerHistory derives the status intervals of every seller, ordered by seller and valid_from.
// An empty order set has no window and yields no intervals.
func BuildSellerHistory(sellers []stg.Seller, items []stg.OrderItem, orders []model.EnrichedOrder) []model.SellerStatusInterval {
	window := ObservationWindow(orders)
	activity := NewSellerActivity(orders, items)
	var out []model.SellerStatusInterval
	for _, id := range activity.Sellers(sellers) {
		out = append(out, SellerIntervals(id, window, activity[id])...)
	}
	return out
}
