package board

// EditSession records which task, if any, the edit form is open for. The zero
// value means no edit is in progress.
type EditSession struct {
	id string
}

// Editing returns a session for the task with the given id.
func Editing(id string) EditSession {
	return EditSession{id: id}
}

// TaskID returns the task under edit and whether a session is open.
func (s EditSession) TaskID() (string, bool) {
	return s.id, s.id != ""
}

// EditInput carries the values submitted by the edit form. An empty Column
// leaves the task where it is.
type EditInput struct {
	Text     string `json:"text"`
	Datetime string `json:"datetime"`
	Priority string `json:"priority"`
	Column   string `json:"column"`
}

// EditForm is what the edit form is pre-filled with.
type EditForm struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Datetime string   `json:"datetime"`
	Priority Priority `json:"priority"`
	Column   Column   `json:"column"`
}
