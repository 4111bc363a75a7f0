package staging

import (
	"sort"

	models "github.com/ordermart/ordermart/pkg/db/models/staging"
)

// DedupeReviews keeps one review per order: the one with the latest creation timestamp.
// A missing timestamp is older than any present one. Among equal timestamps the
// earliest record in input order wins. The result is sorted by order id.
func DedupeReviews(reviews []models.Review) []models.Review {
	best := make(map[string]int, len(reviews))
	for i, r := range reviews {
		j, ok := best[r.OrderID]
		if !ok || newer(r, reviews[j]) {
			best[r.OrderID] = i
		}
	}

	out := make([]models.Review, 0, len(best))
	for _, i := range best {
		out = append(out, reviews[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

func newer(a, b models.Review) bool {
	switch {
	case a.CreatedAt == nil:
		return false
	case b.CreatedAt == nil:
		return true
	default:
		return a.CreatedAt.After(*b.CreatedAt)
	}
}
