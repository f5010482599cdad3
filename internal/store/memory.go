package store

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Query results come back in insertion order.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	now         func() time.Time

	// NewID generates document ids; tests may replace it.
	NewID func() string
}

type memCollection struct {
	order []string
	docs  map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*memCollection),
		now:         func() time.Time { return time.Now().UTC() },
		NewID:       uuid.NewString,
	}
}

// SetClock replaces the time source used for server timestamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]map[string]any)}
		m.collections[name] = c
	}
	return c
}

func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil, nil
	}
	var res []Document
	for _, id := range c.order {
		data := c.docs[id]
		if !matches(data, q.Filters) {
			continue
		}
		res = append(res, Document{ID: id, Data: copyData(data)})
		if q.Limit > 0 && len(res) == q.Limit {
			break
		}
	}
	return res, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return Document{}, ErrNotFound
	}
	data, ok := c.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: copyData(data)}, nil
}

func (m *Memory) Add(ctx context.Context, collection string, data map[string]any) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(collection, data), nil
}

func (m *Memory) AddUnique(ctx context.Context, collection, field string, data map[string]any) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collections[collection]; ok {
		want := []Filter{{Field: field, Value: data[field]}}
		for _, existing := range c.docs {
			if matches(existing, want) {
				return Document{}, ErrConflict
			}
		}
	}
	return m.insert(collection, data), nil
}

func (m *Memory) insert(collection string, data map[string]any) Document {
	c := m.collection(collection)
	id := m.NewID()
	c.docs[id] = resolve(data, m.now())
	c.order = append(c.order, id)
	return Document{ID: id, Data: copyData(c.docs[id])}
}

func (m *Memory) Update(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return Document{}, ErrNotFound
	}
	existing, ok := c.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	for k, v := range resolve(data, m.now()) {
		existing[k] = v
	}
	return Document{ID: id, Data: copyData(existing)}, nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error { return nil }

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
