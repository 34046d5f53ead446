package board

// TaskView is a task as the presentation layer shows it.
type TaskView struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Datetime  string   `json:"datetime"`
	Priority  Priority `json:"priority"`
	Completed bool     `json:"completed"`
	Column    Column   `json:"column"`
	Countdown string   `json:"countdown"`
	Expired   bool     `json:"expired"`
}

// ColumnView is one column with its tasks in display order.
type ColumnView struct {
	ID    Column     `json:"id"`
	Title string     `json:"title"`
	Tasks []TaskView `json:"tasks"`
}

// View is a snapshot of everything the presentation layer renders.
type View struct {
	Columns           []ColumnView `json:"columns"`
	BulkDeleteEnabled bool         `json:"bulkDeleteEnabled"`
	Editing           string       `json:"editing,omitempty"`
}

// View returns a snapshot of the board. It shares no memory with the board.
func (b *Board) View() View {
	v := View{
		Columns:           make([]ColumnView, 0, len(Columns)),
		BulkDeleteEnabled: b.bulkDelete,
	}
	v.Editing, _ = b.editing.TaskID()
	for _, col := range Columns {
		cv := ColumnView{ID: col, Title: col.Title(), Tasks: make([]TaskView, 0, len(b.columns[col]))}
		for _, t := range b.columns[col] {
			cv.Tasks = append(cv.Tasks, TaskView{
				ID:        t.ID,
				Text:      t.DisplayText(),
				Datetime:  t.Datetime,
				Priority:  t.Priority,
				Completed: t.Completed,
				Column:    t.Column,
				Countdown: t.Countdown.String(),
				Expired:   t.Countdown.Expired,
			})
		}
		v.Columns = append(v.Columns, cv)
	}
	return v
}
