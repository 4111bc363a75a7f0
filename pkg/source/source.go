// Package source reads the raw delimited input files into untyped records.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Source names one raw record stream.
type Source string

const (
	Customers           Source = "customers"
	Orders              Source = "orders"
	OrderItems          Source = "order_items"
	Payments            Source = "order_payments"
	Reviews             Source = "order_reviews"
	Products            Source = "products"
	Sellers             Source = "sellers"
	Geolocation         Source = "geolocation"
	CategoryTranslation Source = "category_translation"
)

var fileNames = map[Source]string{
	Customers:           "olist_customers_dataset.csv",
	Orders:              "olist_orders_dataset.csv",
	OrderItems:          "olist_order_items_dataset.csv",
	Payments:            "olist_order_payments_dataset.csv",
	Reviews:             "olist_order_reviews_dataset.csv",
	Products:            "olist_products_dataset.csv",
	Sellers:             "olist_sellers_dataset.csv",
	Geolocation:         "olist_geolocation_dataset.csv",
	CategoryTranslation: "product_category_name_translation.csv",
}

// All returns every source in load order.
func All() []Source {
	return []Source{Customers, Orders, OrderItems, Payments, Reviews, Products, Sellers, Geolocation, CategoryTranslation}
}

// FileName returns the expected file name of the stream.
func (s Source) FileName() string { return fileNames[s] }

// RawRecord is one input row. Line is the 1-based line number in the file (the header is line 1).
type RawRecord struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed field value and whether it is non-empty.
func (r RawRecord) Get(field string) (string, bool) {
	v := strings.TrimSpace(r.Fields[field])
	return v, v != ""
}

// RawBatch holds every stream of one run.
type RawBatch map[Source][]RawRecord

// Options configures Load.
type Options struct {
	Delimiter rune
	Logger    *zap.Logger
}

// Loader produces the raw batch for a run.
type Loader interface {
	Load(ctx context.Context) (RawBatch, error)
}

// DirLoader loads the nine files from a directory.
type DirLoader struct {
	Dir  string
	Opts Options
}

func (d DirLoader) Load(ctx context.Context) (RawBatch, error) {
	return Load(ctx, d.Dir, d.Opts)
}

// Load reads every stream from dir. A missing file yields an empty stream.
func Load(ctx context.Context, dir string, opts Options) (RawBatch, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	batch := make(RawBatch, len(fileNames))
	for _, src := range All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, src.FileName())
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Source file missing, stream will be empty", zap.String("source", string(src)), zap.String("path", path))
			batch[src] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}

		records, readErr := Read(f, opts.Delimiter)
		_ = f.Close()
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
		batch[src] = records
		logger.Debug("Loaded source", zap.String("source", string(src)), zap.Int("records", len(records)))
	}
	return batch, nil
}

// Read parses a delimited stream with a header row.
func Read(r io.Reader, delimiter rune) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var out []RawRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				fields[name] = row[i]
			}
		}
		out = append(out, RawRecord{Line: line, Fields: fields})
	}
	return out, nil
}
