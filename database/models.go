package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KVStore.Get when the key has no value.
var ErrNotFound = errors.New("key not found")

// KVStore is a durable string-keyed store. Set overwrites unconditionally.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

const kvTableSchema = `CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
