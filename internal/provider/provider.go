// Package provider abstracts LLM backends behind a flat request/response
// contract: a ChatRequest goes in, either a single ChatResponse or a
// sequence of ProviderChunk values comes out. Implementations wrap the
// vendor SDK (go-openai, anthropic-sdk-go) directly; the device-flow
// coding-assistant provider reuses go-openai with its own HTTP transport.
// There is no intermediate graph/schema abstraction to keep in sync.
package provider

import (
	"context"
	"encoding/json"

	"github.com/forgecode-ai/agent/pkg/types"
)

// Message is one entry of the request's conversation history.
type Message struct {
	Role      types.Role `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// ToolCallID identifies which prior tool call this message answers,
	// set only when Role == types.RoleTool.
	ToolCallID string `json:"toolCallID,omitempty"`
}

// ToolCall is a structured function invocation, either one the model
// emitted (in a response) or one being replayed back into history.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Arguments is the JSON-encoded argument object.
	Arguments string `json:"arguments"`
}

// ToolSchema packages one tool's function-calling declaration.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatRequest is the flat, provider-agnostic request shape.
type ChatRequest struct {
	Model       string       `json:"model"`
	Messages    []Message    `json:"messages"`
	Tools       []ToolSchema `json:"tools,omitempty"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"maxTokens,omitempty"`
	Stream      bool         `json:"stream"`
}

// ChatResponse is the non-streaming response shape.
type ChatResponse struct {
	Content      string       `json:"content"`
	ToolCalls    []ToolCall   `json:"toolCalls,omitempty"`
	Usage        *types.Usage `json:"usage,omitempty"`
	FinishReason string       `json:"finishReason,omitempty"`
}

// ChunkKind discriminates the ProviderChunk tagged union.
type ChunkKind string

const (
	ChunkContent   ChunkKind = "content"
	ChunkToolCalls ChunkKind = "tool_calls"
	ChunkComplete  ChunkKind = "complete"
	ChunkError     ChunkKind = "error"
)

// ProviderChunk is one event of a streaming chat completion. Exactly one
// terminal ChunkComplete or ChunkError is emitted per stream.
type ProviderChunk struct {
	Kind      ChunkKind
	Delta     string
	ToolCalls []ToolCall
	Usage     *types.Usage
	Err       error
}

// ChunkStream is a pull-based iterator over a streaming completion.
// Recv returns (nil, io.EOF)-equivalent behavior via a false ok once the
// terminal chunk has been delivered.
type ChunkStream interface {
	// Recv blocks for the next chunk. ok is false once the stream is
	// exhausted (the terminal chunk has already been returned).
	Recv() (chunk ProviderChunk, ok bool)
	Close()
}

// Provider is an LLM backend. Implementations need not support streaming;
// the orchestrator falls back to Chat and slices the response content
// into ~20-character content chunks when ChatStreaming reports
// supported == false.
type Provider interface {
	// ID is the stable short identifier ("openai", "anthropic", "copilot", ...).
	ID() string

	// Info describes the provider and its models for discovery.
	Info() types.ProviderDescriptor

	// IsAuthenticated performs a cheap probe of current credentials.
	IsAuthenticated(ctx context.Context) bool

	// Chat performs a single non-streaming completion.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ChatStreaming performs a streaming completion. supported is false
	// when this provider has no streaming transport.
	ChatStreaming(ctx context.Context, req ChatRequest) (stream ChunkStream, supported bool, err error)
}
