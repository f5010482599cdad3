// Package migrations holds the PostgreSQL schema for the document store.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed *.sql
var files embed.FS

// Names lists the migration files in apply order.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the SQL of one migration file.
func Read(name string) (string, error) {
	b, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read migration %s: %w", name, err)
	}
	return string(b), nil
}

// Apply runs every migration through exec in order. Migrations are written to
// be re-runnable.
func Apply(ctx context.Context, exec func(ctx context.Context, sql string) error) error {
	names, err := Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		sql, err := Read(name)
		if err != nil {
			return err
		}
		if err := exec(ctx, sql); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}
