package utils

import (
	"cmp"
	"slices"
)

// Mode returns the most frequent key in counts. Ties go to the smallest key so
// the result does not depend on map iteration order.
func Mode[K cmp.Ordered](counts map[K]int) (K, bool) {
	var (
		best  K
		bestN int
		found bool
	)
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if n := counts[k]; n > bestN {
			best, bestN, found = k, n, true
		}
	}
	return best, found
}

// SafeDiv divides num by den. A nil or zero denominator yields nil.
func SafeDiv(num float64, den *float64) *float64 {
	if den == nil || *den == 0 {
		return nil
	}
	v := num / *den
	return &v
}

// Ratio is SafeDiv for plain operands.
func Ratio(num, den float64) *float64 {
	return SafeDiv(num, &den)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
