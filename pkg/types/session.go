package types

// Session is a persisted, resumable conversation.
type Session struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	Created      int64  `json:"created"`
	Updated      int64  `json:"updated"`
	MessageCount int    `json:"messageCount"`
	Mode         string `json:"mode"`
}

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one append-only entry in a session's ordered history.
type Message struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionID"`
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	Timestamp int64          `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// ToolCallID and ToolName are set when Role == RoleTool, so the
	// message can be threaded back to the ToolPart that requested it.
	ToolCallID string `json:"toolCallID,omitempty"`
	ToolName   string `json:"toolName,omitempty"`
}

// Text returns the concatenation of all text parts in the message.
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == PartText {
			out += p.Text
		}
	}
	return out
}
