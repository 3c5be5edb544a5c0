package provider

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"

	"github.com/forgecode-ai/agent/internal/errkind"
	"github.com/forgecode-ai/agent/pkg/types"
)

func TestNewAnthropicProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	if err == nil {
		t.Fatal("Expected error when API key is missing")
	}
	if !errkind.Is(err, errkind.AuthMissing) {
		t.Errorf("Expected AuthMissing error kind, got %v", err)
	}
}

func TestNewAnthropicProvider_DefaultID(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}
	if p.ID() != "anthropic" {
		t.Errorf("Expected default ID 'anthropic', got %q", p.ID())
	}
}

func TestNewAnthropicProvider_CustomID(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{ID: "claude", APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}
	if p.ID() != "claude" {
		t.Errorf("Expected custom ID 'claude', got %q", p.ID())
	}
}

func TestAnthropicProvider_Info(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	info := p.Info()
	if info.Name != "Anthropic" {
		t.Errorf("Expected Name 'Anthropic', got %q", info.Name)
	}
	if !info.RequiresAuth {
		t.Error("Expected RequiresAuth to be true")
	}
	if len(info.Models) == 0 {
		t.Error("Expected at least one model")
	}

	found := false
	for _, m := range info.Models {
		if m.ID == "claude-sonnet-4-20250514" {
			found = true
			if !m.SupportsTools || !m.SupportsStreaming {
				t.Error("claude-sonnet-4 should support tools and streaming")
			}
		}
	}
	if !found {
		t.Error("Expected claude-sonnet-4-20250514 in model list")
	}
}

func TestAnthropicProvider_BuildParams(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	req := ChatRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []Message{
			{Role: types.RoleSystem, Content: "You are a helpful assistant."},
			{Role: types.RoleUser, Content: "Hello"},
			{Role: types.RoleAssistant, Content: "Hi there"},
		},
		MaxTokens: 512,
	}

	params, err := p.buildParams(req)
	if err != nil {
		t.Fatalf("buildParams failed: %v", err)
	}
	if len(params.System) != 1 {
		t.Errorf("Expected 1 system block, got %d", len(params.System))
	}
	if len(params.Messages) != 2 {
		t.Errorf("Expected 2 non-system messages, got %d", len(params.Messages))
	}
	if params.MaxTokens != 512 {
		t.Errorf("Expected MaxTokens 512, got %d", params.MaxTokens)
	}
}

func TestAnthropicProvider_BuildParams_DefaultMaxTokens(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	req := ChatRequest{Model: "claude-sonnet-4-20250514", Messages: []Message{{Role: types.RoleUser, Content: "hi"}}}
	params, err := p.buildParams(req)
	if err != nil {
		t.Fatalf("buildParams failed: %v", err)
	}
	if params.MaxTokens != 4096 {
		t.Errorf("Expected default MaxTokens 4096, got %d", params.MaxTokens)
	}
}

func TestAnthropicProvider_BuildParams_InvalidToolArguments(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	req := ChatRequest{
		Model: "claude-sonnet-4-20250514",
		Messages: []Message{
			{
				Role:      types.RoleAssistant,
				ToolCalls: []ToolCall{{ID: "call-1", Name: "read", Arguments: "not json"}},
			},
		},
	}

	if _, err := p.buildParams(req); err == nil {
		t.Error("Expected error for malformed tool call arguments")
	} else if !errkind.Is(err, errkind.ToolInvalidArgs) {
		t.Errorf("Expected ToolInvalidArgs error kind, got %v", err)
	}
}

// TestAnthropicProvider_LiveChat exercises a real API call when
// ANTHROPIC_API_KEY is configured in the environment or a ../../.env file;
// it is skipped otherwise.
func TestAnthropicProvider_LiveChat(t *testing.T) {
	_ = godotenv.Load("../../.env")

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		t.Skip("ANTHROPIC_API_KEY not set, skipping live integration test")
	}

	modelID := os.Getenv("ANTHROPIC_MODEL_ID")
	if modelID == "" {
		modelID = "claude-3-5-haiku-20241022"
	}

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: apiKey})
	if err != nil {
		t.Fatalf("NewAnthropicProvider failed: %v", err)
	}

	resp, err := p.Chat(context.Background(), ChatRequest{
		Model:     modelID,
		Messages:  []Message{{Role: types.RoleUser, Content: "Say 'Hello, World!' and nothing else."}},
		MaxTokens: 50,
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content == "" {
		t.Error("Expected non-empty response content")
	}
}
