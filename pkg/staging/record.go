package staging

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ordermart/ordermart/pkg/source"
)

// rowReader reads typed fields from one raw record. Problems with required fields
// mark the row dropped; problems with optional fields null the value. Both are reported.
type rowReader struct {
	src     source.Source
	rec     source.RawRecord
	report  *Report
	dropped bool
}

func (r *rowReader) fail(field, value string, err error) *RecordError {
	re := &RecordError{Source: r.src, Line: r.rec.Line, Field: field, Value: value, Err: err}
	r.report.add(re)
	return re
}

func (r *rowReader) drop(field, value string, err error) {
	r.fail(field, value, err)
	r.dropped = true
}

// key returns a primary key component. A missing key is fatal for the batch.
func (r *rowReader) key(field string) (string, error) {
	v, ok := r.rec.Get(field)
	if !ok {
		return "", r.fail(field, "", ErrMissingPrimaryKey)
	}
	return v, nil
}

func (r *rowReader) intKey(field string) (int64, error) {
	v, ok := r.rec.Get(field)
	if !ok {
		return 0, r.fail(field, "", ErrMissingPrimaryKey)
	}
	n, err := ParseInt(v)
	if err != nil {
		return 0, r.fail(field, v, fmt.Errorf("%w: %v", ErrMissingPrimaryKey, err))
	}
	return n, nil
}

func (r *rowReader) str(field string) string {
	v, _ := r.rec.Get(field)
	return v
}

func (r *rowReader) optStr(field string) *string {
	v, ok := r.rec.Get(field)
	if !ok {
		return nil
	}
	return &v
}

func (r *rowReader) reqTime(field string) time.Time {
	v, ok := r.rec.Get(field)
	if !ok {
		r.drop(field, "", ErrMissingField)
		return time.Time{}
	}
	t, err := ParseTimestamp(v)
	if err != nil {
		r.drop(field, v, err)
	}
	return t
}

func (r *rowReader) optTime(field string) *time.Time {
	v, ok := r.rec.Get(field)
	if !ok {
		return nil
	}
	t, err := ParseTimestamp(v)
	if err != nil {
		r.fail(field, v, err)
		return nil
	}
	return &t
}

func (r *rowReader) money(field string) decimal.Decimal {
	v, ok := r.rec.Get(field)
	if !ok {
		r.drop(field, "", ErrMissingField)
		return decimal.Zero
	}
	d, err := ParseMoney(v)
	if err != nil {
		r.drop(field, v, err)
	}
	return d
}

func (r *rowReader) reqInt(field string) int64 {
	v, ok := r.rec.Get(field)
	if !ok {
		r.drop(field, "", ErrMissingField)
		return 0
	}
	n, err := ParseInt(v)
	if err != nil {
		r.drop(field, v, err)
	}
	return n
}

func (r *rowReader) optInt(field string) *int64 {
	v, ok := r.rec.Get(field)
	if !ok {
		return nil
	}
	n, err := ParseInt(v)
	if err != nil {
		r.fail(field, v, err)
		return nil
	}
	return &n
}

func (r *rowReader) reqFloat(field string) float64 {
	v, ok := r.rec.Get(field)
	if !ok {
		r.drop(field, "", ErrMissingField)
		return 0
	}
	f, err := ParseFloat(v)
	if err != nil {
		r.drop(field, v, err)
	}
	return f
}

func (r *rowReader) optFloat(field string) *float64 {
	v, ok := r.rec.Get(field)
	if !ok {
		return nil
	}
	f, err := ParseFloat(v)
	if err != nil {
		r.fail(field, v, err)
		return nil
	}
	return &f
}

// keySet tracks primary keys already accepted for a source.
type keySet map[string]struct{}

// first reports whether key is new; duplicates are reported and should be skipped.
func (k keySet) first(r *rowReader, key string) bool {
	if _, dup := k[key]; dup {
		r.drop("", key, fmt.Errorf("%w %q", ErrDuplicateKey, key))
		return false
	}
	k[key] = struct{}{}
	return true
}
