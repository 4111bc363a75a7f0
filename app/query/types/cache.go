package types

import (
	"context"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/ordermart/ordermart/pkg/db/entities"
	"github.com/ordermart/ordermart/pkg/db/models"
	"github.com/ordermart/ordermart/pkg/db/warehouse"
)

type cached struct {
	rows  []models.Row
	byKey map[string]models.Row
}

// Cache keeps the rows of each entity until its layer is republished.
type Cache struct {
	reader  warehouse.Reader
	entries *xsync.Map[entities.Entity, *cached]
}

func NewCache(reader warehouse.Reader) *Cache {
	return &Cache{reader: reader, entries: xsync.NewMap[entities.Entity, *cached]()}
}

func (c *Cache) load(ctx context.Context, e entities.Entity) (*cached, error) {
	if entry, ok := c.entries.Load(e); ok {
		return entry, nil
	}
	rows, err := warehouse.Rows(ctx, c.reader, e)
	if err != nil {
		return nil, err
	}
	entry := &cached{rows: rows, byKey: make(map[string]models.Row, len(rows))}
	for _, r := range rows {
		if k, ok := r.(models.Keyed); ok {
			entry.byKey[k.RowKey()] = r
		}
	}
	c.entries.Store(e, entry)
	return entry, nil
}

// Rows returns every row of e.
func (c *Cache) Rows(ctx context.Context, e entities.Entity) ([]models.Row, error) {
	entry, err := c.load(ctx, e)
	if err != nil {
		return nil, err
	}
	return entry.rows, nil
}

// Get returns the row of e with the given key.
func (c *Cache) Get(ctx context.Context, e entities.Entity, key string) (models.Row, bool, error) {
	entry, err := c.load(ctx, e)
	if err != nil {
		return nil, false, err
	}
	row, ok := entry.byKey[key]
	return row, ok, nil
}

// Invalidate drops every cached entity of layer.
func (c *Cache) Invalidate(layer entities.Layer) {
	for _, e := range entities.ByLayer(layer) {
		c.entries.Delete(e)
	}
}

// Len returns the number of cached entities.
func (c *Cache) Len() int {
	return c.entries.Size()
}
