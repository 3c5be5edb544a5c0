package types

// PartType discriminates the Part tagged union.
type PartType string

const (
	PartText PartType = "text"
	PartTool PartType = "tool"
)

// ToolState is the lifecycle of a tool invocation recorded in a ToolPart.
type ToolState string

const (
	ToolPending   ToolState = "pending"
	ToolRunning   ToolState = "running"
	ToolCompleted ToolState = "completed"
	ToolError     ToolState = "error"
)

// Part is a component of a message. Exactly one of the Text/Tool shaped
// fields is meaningful, selected by Type.
type Part struct {
	Type      PartType       `json:"type"`
	Timestamp int64          `json:"timestamp"`

	// Text part fields.
	Text string `json:"text,omitempty"`

	// Tool part fields.
	Tool     string         `json:"tool,omitempty"`
	CallID   string         `json:"callID,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	State    ToolState      `json:"state,omitempty"`
	Title    string         `json:"title,omitempty"`
	Output   string         `json:"output,omitempty"`
	ToolMeta map[string]any `json:"metadata,omitempty"`
}

// NewTextPart builds a text Part.
func NewTextPart(text string, ts int64) Part {
	return Part{Type: PartText, Text: text, Timestamp: ts}
}

// NewToolPart builds a pending tool-call Part.
func NewToolPart(callID, tool string, args map[string]any, ts int64) Part {
	return Part{
		Type:      PartTool,
		Tool:      tool,
		CallID:    callID,
		Args:      args,
		State:     ToolPending,
		Timestamp: ts,
	}
}
