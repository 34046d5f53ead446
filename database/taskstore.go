package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/CrowderSoup/taskboard/board"
)

// TasksKey is the key the task record set is stored under.
const TasksKey = "tasks"

// TaskStore persists the board's record set as a JSON array under one key.
type TaskStore struct {
	kv     KVStore
	key    string
	logger *log.Logger
}

// NewTaskStore creates a TaskStore writing to TasksKey in kv.
func NewTaskStore(kv KVStore, logger *log.Logger) *TaskStore {
	if logger == nil {
		logger = log.Default()
	}
	return &TaskStore{kv: kv, key: TasksKey, logger: logger}
}

// Load returns the persisted records. A missing key, a read failure, or a
// value that is not a JSON array of records all yield an empty slice.
func (s *TaskStore) Load(ctx context.Context) []board.Record {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		return []board.Record{}
	}
	if err != nil {
		s.logger.Printf("Error reading tasks: %v", err)
		return []board.Record{}
	}

	var records []board.Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Printf("Ignoring malformed tasks data: %v", err)
		return []board.Record{}
	}
	if records == nil {
		return []board.Record{}
	}
	return records
}

// Save overwrites the persisted records with records.
func (s *TaskStore) Save(ctx context.Context, records []board.Record) error {
	if records == nil {
		records = []board.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to write tasks: %w", err)
	}
	return nil
}
