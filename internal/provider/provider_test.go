package provider

import (
	"encoding/json"
	"testing"
)

func TestMessage_JSONRoundTrip(t *testing.T) {
	msg := Message{
		Role:    "assistant",
		Content: "hi there",
		ToolCalls: []ToolCall{
			{ID: "call-1", Name: "read", Arguments: `{"path":"a.go"}`},
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded.Role != msg.Role || decoded.Content != msg.Content {
		t.Errorf("decoded message = %+v, want %+v", decoded, msg)
	}
	if len(decoded.ToolCalls) != 1 || decoded.ToolCalls[0].Name != "read" {
		t.Errorf("decoded tool calls = %+v", decoded.ToolCalls)
	}
}

func TestChatRequest_ToolsOmittedWhenEmpty(t *testing.T) {
	req := ChatRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := raw["tools"]; ok {
		t.Error("Expected 'tools' to be omitted when empty")
	}
}

func TestChunkKind_Values(t *testing.T) {
	kinds := []ChunkKind{ChunkContent, ChunkToolCalls, ChunkComplete, ChunkError}
	seen := make(map[ChunkKind]bool)
	for _, k := range kinds {
		if seen[k] {
			t.Errorf("duplicate ChunkKind value: %v", k)
		}
		seen[k] = true
	}
}
