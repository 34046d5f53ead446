// Package board holds the kanban board state and the rules that keep it in
// step with its persisted record set.
package board

import "strings"

// Column identifies one of the three kanban lanes. The values are the list
// identifiers stored in the persisted record set.
type Column string

const (
	ColumnTodo       Column = "todo-list"
	ColumnInProgress Column = "in-progress-list"
	ColumnDone       Column = "done-list"
)

// Columns lists the lanes in board order.
var Columns = []Column{ColumnTodo, ColumnInProgress, ColumnDone}

// Title returns the heading shown above the column.
func (c Column) Title() string {
	switch c {
	case ColumnTodo:
		return "To Do"
	case ColumnInProgress:
		return "In Progress"
	case ColumnDone:
		return "Done"
	}
	return string(c)
}

// Valid reports whether c names a known column.
func (c Column) Valid() bool {
	return c.index() >= 0
}

func (c Column) index() int {
	for i, col := range Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// ParseColumn resolves a column from its stored value or a short alias
// ("todo", "in-progress", "done"). The second result is false when nothing
// matches.
func ParseColumn(s string) (Column, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "todo", "to-do", string(ColumnTodo):
		return ColumnTodo, true
	case "in-progress", "inprogress", "progress", string(ColumnInProgress):
		return ColumnInProgress, true
	case "done", string(ColumnDone):
		return ColumnDone, true
	}
	return "", false
}

// Priority is the urgency tier of a task. A task always has exactly one.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority maps free text onto a priority. Anything that is not Low or
// Medium is High.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow
	case "medium":
		return PriorityMedium
	}
	return PriorityHigh
}

// Record is the persisted form of a task.
type Record struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Datetime  string   `json:"datetime"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`
	Column    Column   `json:"column"`
}

// UnnamedTask is displayed in place of an empty task title.
const UnnamedTask = "Unnamed Task"

// Task is a task as it currently sits on the board.
type Task struct {
	ID        string
	Text      string
	Datetime  string
	Priority  Priority
	Completed bool
	Column    Column

	// Countdown is derived from Datetime and never persisted.
	Countdown Countdown
}

// DisplayText returns the title, or UnnamedTask when it is empty.
func (t *Task) DisplayText() string {
	if t.Text == "" {
		return UnnamedTask
	}
	return t.Text
}

func (t *Task) record() Record {
	return Record{
		ID:        t.ID,
		Text:      t.Text,
		Datetime:  t.Datetime,
		Priority:  t.Priority,
		Completed: t.Completed,
		Column:    t.Column,
	}
}
