package database

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Options selects and configures a KVStore backend.
type Options struct {
	Backend string

	SQLitePath string

	PostgresURL string

	FirestoreProject     string
	FirestoreCredentials string
	FirestoreCollection  string
}

// Open returns the KVStore named by opts.Backend.
func Open(ctx context.Context, opts Options) (KVStore, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		db, err := InitDB(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLiteKV(db), nil
	case BackendPostgres:
		if opts.PostgresURL == "" {
			return nil, fmt.Errorf("postgres store requires a database url")
		}
		return NewPgKV(ctx, opts.PostgresURL)
	case BackendFirestore:
		return NewFirestoreKV(ctx, opts.FirestoreProject, opts.FirestoreCredentials, opts.FirestoreCollection)
	case BackendMemory:
		return NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}
