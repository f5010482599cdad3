package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps documents as JSONB rows in the documents table created by
// internal/migrations.
type Postgres struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (p *Postgres) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	sql := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}
	if len(q.Filters) > 0 {
		b, err := encode(filterDoc(q.Filters), p.now())
		if err != nil {
			return nil, err
		}
		args = append(args, string(b))
		sql += ` AND data @> $2::jsonb`
	}
	sql += ` ORDER BY created_at, id`
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var res []Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		data, err := decode(raw)
		if err != nil {
			return nil, err
		}
		res = append(res, Document{ID: id, Data: data})
	}
	return res, rows.Err()
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	var raw []byte
	err := p.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	data, err := decode(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: data}, nil
}

func (p *Postgres) Add(ctx context.Context, collection string, data map[string]any) (Document, error) {
	return p.insert(ctx, p.db, collection, data)
}

func (p *Postgres) AddUnique(ctx context.Context, collection, field string, data map[string]any) (Document, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	key, err := encode(map[string]any{field: data[field]}, p.now())
	if err != nil {
		return Document{}, err
	}

	// Serializes writers of the same value without a schema-level constraint.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, collection+":"+string(key)); err != nil {
		return Document{}, fmt.Errorf("lock %s: %w", collection, err)
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM documents WHERE collection = $1 AND data @> $2::jsonb)`,
		collection, string(key),
	).Scan(&exists); err != nil {
		return Document{}, fmt.Errorf("check %s: %w", collection, err)
	}
	if exists {
		return Document{}, ErrConflict
	}

	doc, err := p.insert(ctx, tx, collection, data)
	if err != nil {
		return Document{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Document{}, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *Postgres) insert(ctx context.Context, q rowQuerier, collection string, data map[string]any) (Document, error) {
	b, err := encode(data, p.now())
	if err != nil {
		return Document{}, err
	}

	id := uuid.NewString()
	var raw []byte
	if err := q.QueryRow(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb) RETURNING data`,
		collection, id, string(b),
	).Scan(&raw); err != nil {
		return Document{}, fmt.Errorf("insert %s: %w", collection, err)
	}
	stored, err := decode(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: stored}, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, data map[string]any) (Document, error) {
	b, err := encode(data, p.now())
	if err != nil {
		return Document{}, err
	}

	var raw []byte
	err = p.db.QueryRow(ctx,
		`UPDATE documents SET data = data || $3::jsonb WHERE collection = $1 AND id = $2 RETURNING data`,
		collection, id, string(b),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	stored, err := decode(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Data: stored}, nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
