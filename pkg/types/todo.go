package types

// TodoInfo is a single entry in a session's to-do list, persisted by the
// todo_read/todo_write tools.
type TodoInfo struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`             // pending | in_progress | completed
	Priority string `json:"priority,omitempty"` // high | medium | low
}
