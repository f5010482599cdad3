package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);`

// SQLite keeps documents as JSON text and filters with json_extract.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite creates the documents table if needed.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

type sqlQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLite) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	return s.query(ctx, s.db, collection, q)
}

func (s *SQLite) query(ctx context.Context, db sqlQuerier, collection string, q Query) ([]Document, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, data FROM documents WHERE collection = ?`)
	args := []any{collection}
	for _, f := range q.Filters {
		b.WriteString(` AND json_extract(data, ?) = ?`)
		args = append(args, jsonPath(f.Field), sqliteValue(f.Value))
	}
	b.WriteString(` ORDER BY rowid`)
	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var res []Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		res = append(res, Document{ID: id, Data: data})
	}
	return res, rows.Err()
}

func (s *SQLite) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	data, err := decode([]byte(raw))
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

func (s *SQLite) Add(ctx context.Context, collection string, data map[string]any) (Document, error) {
	return s.insert(ctx, s.db, collection, data)
}

func (s *SQLite) AddUnique(ctx context.Context, collection, field string, data map[string]any) (Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.query(ctx, tx, collection, Query{Filters: []Filter{{Field: field, Value: data[field]}}, Limit: 1})
	if err != nil {
		return Document{}, err
	}
	if len(existing) > 0 {
		return Document{}, ErrConflict
	}

	doc, err := s.insert(ctx, tx, collection, data)
	if err != nil {
		return Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

func (s *SQLite) insert(ctx context.Context, db sqlQuerier, collection string, data map[string]any) (Document, error) {
	b, err := encode(data, s.now())
	if err != nil {
		return Document{}, err
	}

	id := uuid.NewString()
	var raw string
	if err := db.QueryRowContext(ctx,
		`INSERT INTO documents (collection, id, data) VALUES (?, ?, json(?)) RETURNING data`,
		collection, id, string(b),
	).Scan(&raw); err != nil {
		return Document{}, fmt.Errorf("insert %s: %w", collection, err)
	}
	stored, err := decode([]byte(raw))
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: stored}, nil
}

func (s *SQLite) Update(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	b, err := encode(data, s.now())
	if err != nil {
		return Document{}, err
	}

	var raw string
	err = s.db.QueryRowContext(ctx,
		`UPDATE documents SET data = json_patch(data, ?) WHERE collection = ? AND id = ? RETURNING data`,
		string(b), collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	stored, err := decode([]byte(raw))
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: stored}, nil
}

func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

// sqliteValue maps a filter value onto what json_extract returns for it.
func sqliteValue(v any) any {
	switch v := v.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return v
}
