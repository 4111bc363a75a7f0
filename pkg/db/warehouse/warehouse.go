// Package warehouse publishes layer outputs and reads them back.
//
// A layer is published as a unit: readers observe either every entity of the previous
// publish or every entity of the new one, never a mix.
package warehouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/models"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrNotPublished  = errors.New("entity has not been published")
)

// Batch is the full content of one entity.
type Batch struct {
	Entity  entities.Entity
	Columns []models.ColumnDef
	// Rows holds the column values of each record, in Columns order.
	Rows [][]any
	// Data is the typed slice the batch was built from.
	Data any
}

// NewBatch builds the batch of entity e from typed rows.
func NewBatch[T models.Row](e entities.Entity, rows []T) Batch {
	if rows == nil {
		rows = []T{}
	}
	values := make([][]any, len(rows))
	for i, r := range rows {
		values[i] = r.Values()
	}
	return Batch{Entity: e, Columns: Columns(e), Rows: values, Data: rows}
}

func (b Batch) Len() int { return len(b.Rows) }

// Publisher replaces every entity of a layer at once.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, layer entities.Layer, batches []Batch) error
}

// Reader loads published entities. dest must be a pointer to a slice of the entity's row type.
type Reader interface {
	Select(ctx context.Context, e entities.Entity, dest any) error
}

type Store interface {
	Publisher
	Reader
}

// Load returns the published rows of e.
func Load[T models.Row](ctx context.Context, r Reader, e entities.Entity) ([]T, error) {
	var out []T
	if err := r.Select(ctx, e, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkLayer rejects batches that do not belong to layer.
func checkLayer(layer entities.Layer, batches []Batch) error {
	seen := make(map[entities.Entity]struct{}, len(batches))
	for _, b := range batches {
		if !b.Entity.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownEntity, b.Entity)
		}
		if b.Entity.Layer() != layer {
			return fmt.Errorf("%s belongs to layer %s, not %s", b.Entity, b.Entity.Layer(), layer)
		}
		if _, dup := seen[b.Entity]; dup {
			return fmt.Errorf("%s published twice in one layer", b.Entity)
		}
		seen[b.Entity] = struct{}{}
	}
	return nil
}

// Count returns the number of rows per entity, for logs and metrics.
func Count(batches []Batch) map[entities.Entity]int {
	out := make(map[entities.Entity]int, len(batches))
	for _, b := range batches {
		out[b.Entity] = b.Len()
	}
	return out
}
