package marts

import (
	"cmp"
	"slices"
)

// Metric is one keyed value of a population. A nil Value takes no part in ranking.
type Metric struct {
	Key   string
	Value *float64
}

// Order is the direction a population is ranked in.
type Order int

const (
	Ascending Order = iota
	Descending
)

func (o Order) compare(a, b float64) int {
	if o == Descending {
		return cmp.Compare(b, a)
	}
	return cmp.Compare(a, b)
}

// PercentRank computes (rank-1)/(n-1) over the non-null members, where rank is the
// 1-based position of the first member with an equal value. A population of one ranks 0.
// Keys with a nil value are absent from the result.
func PercentRank(population []Metric, order Order) map[string]float64 {
	ranked := make([]Metric, 0, len(population))
	for _, m := range population {
		if m.Value != nil {
			ranked = append(ranked, m)
		}
	}
	slices.SortStableFunc(ranked, func(a, b Metric) int { return order.compare(*a.Value, *b.Value) })

	out := make(map[string]float64, len(ranked))
	n := len(ranked)
	rank := 1
	for i, m := range ranked {
		if i > 0 && *m.Value != *ranked[i-1].Value {
			rank = i + 1
		}
		if n == 1 {
			out[m.Key] = 0
			continue
		}
		out[m.Key] = float64(rank-1) / float64(n-1)
	}
	return out
}

// NTile splits the population into buckets of equal size, numbered 1..buckets in rank order.
// Sizes differ by at most one; the lower buckets take the remainder. Equal values are
// ordered by key so the assignment is deterministic. Nil values are ranked as zero.
func NTile(population []Metric, buckets int, order Order) map[string]int {
	ranked := slices.Clone(population)
	value := func(m Metric) float64 {
		if m.Value == nil {
			return 0
		}
		return *m.Value
	}
	slices.SortFunc(ranked, func(a, b Metric) int {
		if c := order.compare(value(a), value(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	out := make(map[string]int, len(ranked))
	if buckets < 1 || len(ranked) == 0 {
		return out
	}
	size, extra := len(ranked)/buckets, len(ranked)%buckets
	i := 0
	for b := 1; b <= buckets && i < len(ranked); b++ {
		n := size
		if b <= extra {
			n++
		}
		for j := 0; j < n; j++ {
			out[ranked[i].Key] = b
			i++
		}
	}
	return out
}
