package event

import "github.com/forgecode-ai/agent/pkg/types"

// SessionCreatedData is the payload for session.created events.
type SessionCreatedData struct {
	Info *types.Session `json:"info"`
}

// SessionUpdatedData is the payload for session.updated events.
type SessionUpdatedData struct {
	Info *types.Session `json:"info"`
}

// SessionDeletedData is the payload for session.deleted events.
type SessionDeletedData struct {
	ID string `json:"id"`
}

// MessageCreatedData is the payload for message.created events.
type MessageCreatedData struct {
	Message *types.Message `json:"message"`
}

// MessageUpdatedData is the payload for message.updated events.
type MessageUpdatedData struct {
	Message *types.Message `json:"message"`
}

// PartUpdatedData is the payload for part.updated events, used to stream
// incremental tool-state/text updates to observers.
type PartUpdatedData struct {
	SessionID string      `json:"sessionID"`
	MessageID string      `json:"messageID"`
	Part      types.Part  `json:"part"`
	Delta     string      `json:"delta,omitempty"`
}

// FileEditedData is the payload for file.edited events.
type FileEditedData struct {
	File string `json:"file"`
}

// TodoUpdatedData is the payload for todo.updated events.
type TodoUpdatedData struct {
	SessionID string     `json:"sessionID"`
	Todos     []TodoItem `json:"todos"`
}

// TodoItem is a single entry in a session's to-do list.
type TodoItem struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"` // "pending" | "in_progress" | "completed"
	Priority string `json:"priority,omitempty"`
}
