package store

import (
	"context"
	"fmt"

	"task_tracker/internal/db"

	"google.golang.org/api/option"
)

const (
	DriverMemory    = "memory"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverFirestore = "firestore"
)

// Options selects and configures a backend.
type Options struct {
	Driver             string
	DatabaseURL        string
	SQLitePath         string
	FirestoreProjectID string
	CredentialsFile    string
}

// Open connects the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverPostgres:
		pool, err := db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool), nil
	case DriverSQLite:
		conn, err := db.OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLite(ctx, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		return s, nil
	case DriverFirestore:
		var clientOpts []option.ClientOption
		if opts.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
		}
		return NewFirestore(ctx, opts.FirestoreProjectID, clientOpts...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
