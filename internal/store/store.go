// Package store is a small document-store abstraction: schemaless documents
// addressed by collection and id, queried by field equality.
//
// Backends: in-memory (tests and local runs), PostgreSQL JSONB, SQLite JSON1
// and Cloud Firestore. Update and Delete only succeed on existing documents,
// and AddUnique inserts only when no document shares the given field value;
// each backend performs those checks atomically.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
)

// Document is a stored record. Data never contains the id.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter matches documents whose Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Query selects documents in a collection. Zero Limit means no limit.
type Query struct {
	Filters []Filter
	Limit   int
}

// Where returns q with an additional equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

type Store interface {
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Add(ctx context.Context, collection string, data map[string]any) (Document, error)
	// AddUnique adds data unless a document with the same value for field
	// exists, in which case it returns ErrConflict.
	AddUnique(ctx context.Context, collection, field string, data map[string]any) (Document, error)
	// Update merges data into an existing document and returns the result.
	Update(ctx context.Context, collection, id string, data map[string]any) (Document, error)
	Delete(ctx context.Context, collection, id string) error
	Ping(ctx context.Context) error
	Close() error
}

type serverTimestamp struct{}

// ServerTimestamp is replaced by the store's current time when written.
var ServerTimestamp any = serverTimestamp{}

// resolve copies data, replacing ServerTimestamp with now.
func resolve(data map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		if _, ok := v.(serverTimestamp); ok {
			v = now
		}
		out[k] = v
	}
	return out
}

// encode resolves timestamps and marshals data for the SQL backends.
func encode(data map[string]any, now time.Time) ([]byte, error) {
	b, err := json.Marshal(resolve(data, now))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decode(b []byte) (map[string]any, error) {
	data := map[string]any{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return data, nil
}

func filterDoc(filters []Filter) map[string]any {
	doc := make(map[string]any, len(filters))
	for _, f := range filters {
		doc[f.Field] = f.Value
	}
	return doc
}
