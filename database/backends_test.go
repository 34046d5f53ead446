package database_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/CrowderSoup/taskboard/database"
	"github.com/google/uuid"
)

// exerciseKV checks the behaviour every backend shares: a missing key,
// overwrite on Set, and reads of the latest value.
func exerciseKV(t *testing.T, kv database.KVStore, key string) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, key); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("Get on a fresh key: expected ErrNotFound, got %v", err)
	}
	if err := kv.Set(ctx, key, "[]"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := kv.Set(ctx, key, `[{"id":"task-1"}]`); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, err := kv.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != `[{"id":"task-1"}]` {
		t.Errorf("expected the last write, got %q", got)
	}
}

func TestBackends(t *testing.T) {
	tests := []struct {
		name string
		opts func(t *testing.T) (database.Options, bool)
	}{
		{"memory", func(t *testing.T) (database.Options, bool) {
			return database.Options{Backend: database.BackendMemory}, true
		}},
		{"sqlite", func(t *testing.T) (database.Options, bool) {
			return database.Options{
				Backend:    database.BackendSQLite,
				SQLitePath: filepath.Join(t.TempDir(), "kv.db"),
			}, true
		}},
		{"postgres", func(t *testing.T) (database.Options, bool) {
			url := os.Getenv("TASKBOARD_TEST_DATABASE_URL")
			return database.Options{Backend: database.BackendPostgres, PostgresURL: url}, url != ""
		}},
		{"firestore", func(t *testing.T) (database.Options, bool) {
			project := os.Getenv("TASKBOARD_TEST_FIRESTORE_PROJECT")
			ok := project != "" && os.Getenv("FIRESTORE_EMULATOR_HOST") != ""
			return database.Options{
				Backend:             database.BackendFirestore,
				FirestoreProject:    project,
				FirestoreCollection: "kv_test",
			}, ok
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, ok := tt.opts(t)
			if !ok {
				t.Skipf("%s backend not configured", tt.name)
			}
			kv, err := database.Open(context.Background(), opts)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			defer kv.Close()

			// Shared servers keep data between runs.
			exerciseKV(t, kv, "tasks-"+uuid.NewString())
		})
	}
}

func TestOpenPostgresBadURL(t *testing.T) {
	_, err := database.Open(context.Background(), database.Options{
		Backend:     database.BackendPostgres,
		PostgresURL: "postgres://taskboard@localhost:notaport/taskboard",
	})
	if err == nil {
		t.Error("expected an error for an unparseable postgres url")
	}
}
