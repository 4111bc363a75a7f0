package intermediate

import (
	"iter"
	"time"
)

// OpenEnded is the valid_to of a current interval. It is the last day a ClickHouse Date32 can hold.
var OpenEnded = time.Date(2299, time.December, 31, 0, 0, 0, 0, time.UTC)

// DayStart truncates t to midnight UTC.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthStart truncates t to the first day of its month, UTC.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Months yields the first day of every month from from's month to to's month, inclusive.
// The sequence is finite and can be ranged over any number of times.
func Months(from, to time.Time) iter.Seq[time.Time] {
	start, end := MonthStart(from), MonthStart(to)
	return func(yield func(time.Time) bool) {
		for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
			if !yield(m) {
				return
			}
		}
	}
}

