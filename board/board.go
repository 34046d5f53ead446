package board

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMissingField is returned by Create when the text or datetime is empty.
	ErrMissingField = errors.New("task text and datetime are required")

	// ErrTaskNotFound is returned when no task has the given id.
	ErrTaskNotFound = errors.New("task not found")

	// ErrUnknownColumn is returned when a move names a column that does not exist.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNotEditing is returned by SubmitEdit when no edit session is open.
	ErrNotEditing = errors.New("no task is being edited")

	// ErrSave wraps store failures. The board change it follows has been applied.
	ErrSave = errors.New("save tasks")
)

// Store persists the board's record set.
type Store interface {
	// Load returns the persisted records, or none if there is nothing usable.
	Load(ctx context.Context) []Record

	// Save replaces the persisted records with records.
	Save(ctx context.Context, records []Record) error
}

// NewID returns a fresh task id.
func NewID() string {
	return "task-" + uuid.Must(uuid.NewV7()).String()
}

// Option configures a Board.
type Option func(*Board)

// WithClock sets the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithLocation sets the zone task datetimes are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(b *Board) { b.loc = loc }
}

// WithIDGenerator replaces NewID.
func WithIDGenerator(gen func() string) Option {
	return func(b *Board) { b.newID = gen }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// Board is the in-memory kanban board. Every accepted change is followed by a
// save of the whole board, so the store always holds Project of the board.
//
// A Board is not safe for concurrent use; it must be owned by one goroutine.
type Board struct {
	store   Store
	columns map[Column][]*Task
	byID    map[string]*Task
	editing EditSession

	bulkDelete bool

	now    func() time.Time
	loc    *time.Location
	newID  func() string
	logger *log.Logger
}

// New creates an empty board backed by store.
func New(store Store, opts ...Option) *Board {
	b := &Board{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		newID:  NewID,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.reset()
	return b
}

func (b *Board) reset() {
	b.columns = make(map[Column][]*Task, len(Columns))
	b.byID = make(map[string]*Task)
	b.editing = EditSession{}
	b.bulkDelete = false
}

// Load replaces the board with the persisted records. Records with an unknown
// column or a duplicate id are left out and records without an id get one;
// if anything was repaired the board is saved back.
func (b *Board) Load(ctx context.Context) error {
	b.reset()
	repaired := false
	for _, r := range b.store.Load(ctx) {
		if !r.Column.Valid() {
			b.logger.Printf("Skipping task %q: unknown column %q", r.ID, r.Column)
			repaired = true
			continue
		}
		if r.ID == "" {
			r.ID = b.newID()
			repaired = true
		}
		if _, exists := b.byID[r.ID]; exists {
			b.logger.Printf("Skipping task %q: duplicate id", r.ID)
			repaired = true
			continue
		}
		priority := ParsePriority(string(r.Priority))
		if priority != r.Priority {
			repaired = true
		}
		b.insert(&Task{
			ID:        r.ID,
			Text:      r.Text,
			Datetime:  r.Datetime,
			Priority:  priority,
			Completed: r.Completed,
			Column:    r.Column,
		})
	}
	b.RecomputeCountdowns(b.now())
	if repaired {
		return b.save(ctx)
	}
	return nil
}

// Create adds a task to the end of the To Do column.
func (b *Board) Create(ctx context.Context, text, datetime, priority string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" || datetime == "" {
		return Task{}, ErrMissingField
	}
	t := &Task{
		ID:       b.newID(),
		Text:     text,
		Datetime: datetime,
		Priority: ParsePriority(priority),
		Column:   ColumnTodo,
	}
	b.insert(t)
	err := b.commit(ctx)
	return *t, err
}

// ToggleComplete flips the completed flag. The column is not touched.
func (b *Board) ToggleComplete(ctx context.Context, id string) error {
	t, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t.Completed = !t.Completed
	return b.commit(ctx)
}

// SetCompleted sets the completed flag, as the task checkbox does.
func (b *Board) SetCompleted(ctx context.Context, id string, completed bool) error {
	t, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t.Completed = completed
	return b.commit(ctx)
}

// Move puts the task at the end of target. Moving a task to the column it
// is already in changes nothing.
func (b *Board) Move(ctx context.Context, id string, target Column) error {
	t, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if !target.Valid() {
		b.logger.Printf("Dropping move of task %s: unknown column %q", id, target)
		return fmt.Errorf("%w: %q", ErrUnknownColumn, target)
	}
	b.relocate(t, target)
	return b.commit(ctx)
}

// Edit replaces the task's text, datetime and priority and relocates it to
// in.Column. A column that does not resolve is ignored and logged.
func (b *Board) Edit(ctx context.Context, id string, in EditInput) error {
	t, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	t.Text = in.Text
	t.Datetime = in.Datetime
	t.Priority = ParsePriority(in.Priority)
	if in.Column != "" {
		if col, ok := ParseColumn(in.Column); ok {
			b.relocate(t, col)
		} else {
			b.logger.Printf("Keeping task %s in %s: unknown column %q", id, t.Column, in.Column)
		}
	}
	return b.commit(ctx)
}

// BeginEdit opens an edit session for the task and returns its current values.
func (b *Board) BeginEdit(id string) (EditForm, error) {
	t, ok := b.byID[id]
	if !ok {
		return EditForm{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	b.editing = Editing(id)
	return EditForm{
		ID:       t.ID,
		Text:     t.Text,
		Datetime: t.Datetime,
		Priority: t.Priority,
		Column:   t.Column,
	}, nil
}

// SubmitEdit applies in to the task of the open edit session and closes it.
func (b *Board) SubmitEdit(ctx context.Context, in EditInput) error {
	id, ok := b.editing.TaskID()
	if !ok {
		return ErrNotEditing
	}
	b.editing = EditSession{}
	return b.Edit(ctx, id, in)
}

// CancelEdit closes the edit session without changes.
func (b *Board) CancelEdit() {
	b.editing = EditSession{}
}

// EditSession returns the current edit session.
func (b *Board) EditSession() EditSession {
	return b.editing
}

// Delete removes the task.
func (b *Board) Delete(ctx context.Context, id string) error {
	t, ok := b.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	b.remove(t)
	return b.commit(ctx)
}

// DeleteAllChecked removes every completed task and returns how many went.
func (b *Board) DeleteAllChecked(ctx context.Context) (int, error) {
	var checked []*Task
	for _, col := range Columns {
		for _, t := range b.columns[col] {
			if t.Completed {
				checked = append(checked, t)
			}
		}
	}
	for _, t := range checked {
		b.remove(t)
	}
	return len(checked), b.commit(ctx)
}

// RecomputeCountdowns refreshes every countdown label against now. It only
// touches derived state and may be called at any time.
func (b *Board) RecomputeCountdowns(now time.Time) {
	for _, col := range Columns {
		for _, t := range b.columns[col] {
			t.Countdown = countdownFor(t.Datetime, now, b.loc)
		}
	}
	b.refreshBulkDelete()
}

// BulkDeleteEnabled reports whether at least one task is completed.
func (b *Board) BulkDeleteEnabled() bool {
	return b.bulkDelete
}

// Task returns a copy of the task with the given id.
func (b *Board) Task(id string) (Task, bool) {
	t, ok := b.byID[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Tasks returns copies of the tasks in col, in display order.
func (b *Board) Tasks(col Column) []Task {
	tasks := make([]Task, 0, len(b.columns[col]))
	for _, t := range b.columns[col] {
		tasks = append(tasks, *t)
	}
	return tasks
}

// Len returns the number of tasks on the board.
func (b *Board) Len() int {
	return len(b.byID)
}

// Records returns the projection of the board.
func (b *Board) Records() []Record {
	return Project(b.columns)
}

func (b *Board) insert(t *Task) {
	b.columns[t.Column] = append(b.columns[t.Column], t)
	b.byID[t.ID] = t
}

func (b *Board) relocate(t *Task, target Column) {
	if t.Column == target {
		return
	}
	b.detach(t)
	t.Column = target
	b.columns[target] = append(b.columns[target], t)
}

func (b *Board) remove(t *Task) {
	b.detach(t)
	delete(b.byID, t.ID)
	if id, ok := b.editing.TaskID(); ok && id == t.ID {
		b.editing = EditSession{}
	}
}

func (b *Board) detach(t *Task) {
	tasks := b.columns[t.Column]
	for i, other := range tasks {
		if other == t {
			b.columns[t.Column] = append(tasks[:i:i], tasks[i+1:]...)
			return
		}
	}
}

func (b *Board) refreshBulkDelete() {
	b.bulkDelete = false
	for _, t := range b.byID {
		if t.Completed {
			b.bulkDelete = true
			return
		}
	}
}

func (b *Board) commit(ctx context.Context) error {
	b.RecomputeCountdowns(b.now())
	return b.save(ctx)
}

func (b *Board) save(ctx context.Context) error {
	if err := b.store.Save(ctx, b.Records()); err != nil {
		b.logger.Printf("Error saving tasks: %v", err)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	return nil
}
