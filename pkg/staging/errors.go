package staging

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ordermart/ordermart/pkg/source"
)

var (
	// ErrMissingPrimaryKey aborts the batch: the record cannot be identified.
	ErrMissingPrimaryKey = errors.New("missing primary key")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrOutOfRange        = errors.New("value out of range")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrMissingField      = errors.New("missing required field")
)

// RecordError describes one malformed input record.
type RecordError struct {
	Source source.Source
	Line   int
	Field  string
	Value  string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d: field %s=%q: %v", e.Source, e.Line, e.Field, e.Value, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

var kinds = []struct {
	err  error
	name string
}{
	{ErrMissingPrimaryKey, "missing_primary_key"},
	{ErrInvalidTimestamp, "invalid_timestamp"},
	{ErrInvalidNumber, "invalid_number"},
	{ErrOutOfRange, "out_of_range"},
	{ErrDuplicateKey, "duplicate_key"},
	{ErrMissingField, "missing_field"},
}

// Kind returns a stable label for the error class, used in metrics.
func (e *RecordError) Kind() string {
	for _, k := range kinds {
		if errors.Is(e.Err, k.err) {
			return k.name
		}
	}
	return "other"
}

// Report collects the per-record problems of one normalization run.
type Report struct {
	Errors   []*RecordError
	Accepted map[source.Source]int
	Dropped  map[source.Source]int
}

func newReport() *Report {
	return &Report{
		Accepted: make(map[source.Source]int),
		Dropped:  make(map[source.Source]int),
	}
}

func (r *Report) add(err *RecordError) {
	r.Errors = append(r.Errors, err)
}

// BySource counts errors per source, sorted by source name.
func (r *Report) BySource() map[source.Source]int {
	out := make(map[source.Source]int)
	for _, e := range r.Errors {
		out[e.Source]++
	}
	return out
}

// Sources returns the sources that reported at least one error, sorted.
func (r *Report) Sources() []source.Source {
	counts := r.BySource()
	out := make([]source.Source, 0, len(counts))
	for s := range counts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
