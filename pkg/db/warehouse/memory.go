package warehouse

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ordermart/ordermart/pkg/db/entities"
)

type snapshot map[entities.Entity]Batch

// Memory keeps every published entity in process. Readers always see one immutable snapshot.
type Memory struct {
	Logger *zap.Logger

	current atomic.Pointer[snapshot]
	// serializes writers; readers never take it
	mu sync.Mutex
}

func NewMemory(logger *zap.Logger) *Memory {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Memory{Logger: logger}
	m.current.Store(&snapshot{})
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Publish(ctx context.Context, layer entities.Layer, batches []Batch) error {
	if err := checkLayer(layer, batches); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := maps.Clone(*m.current.Load())
	for _, b := range batches {
		next[b.Entity] = b
	}
	m.current.Store(&next)

	m.Logger.Debug("Layer published", zap.String("layer", string(layer)), zap.Int("entities", len(batches)))
	return nil
}

func (m *Memory) Select(ctx context.Context, e entities.Entity, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, e)
	}
	b, ok := (*m.current.Load())[e]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPublished, e)
	}

	out := reflect.ValueOf(dest)
	if out.Kind() != reflect.Pointer || out.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("select %s: dest must be a pointer to a slice, got %T", e, dest)
	}
	src := reflect.ValueOf(b.Data)
	if src.Type() != out.Elem().Type() {
		return fmt.Errorf("select %s: dest is %s, rows are %s", e, out.Elem().Type(), src.Type())
	}

	// Copy so callers cannot mutate the published snapshot.
	cp := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	reflect.Copy(cp, src)
	out.Elem().Set(cp)
	return nil
}

// Published returns the entities present in the current snapshot.
func (m *Memory) Published() []entities.Entity {
	snap := *m.current.Load()
	var out []entities.Entity
	for _, e := range entities.All() {
		if _, ok := snap[e]; ok {
			out = append(out, e)
		}
	}
	return out
}
