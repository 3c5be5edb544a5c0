package tool

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLSPHoverTool_Execute(t *testing.T) {
	tool := NewLSPHoverTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"position": "main.go:10:5"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.Output, "No hover information available") {
		t.Errorf("Output should indicate unavailable hover, got: %s", result.Output)
	}
	if result.Metadata["file"] != "main.go" {
		t.Errorf("Expected file 'main.go', got %v", result.Metadata["file"])
	}
	if result.Metadata["line"] != "10" {
		t.Errorf("Expected line '10', got %v", result.Metadata["line"])
	}
	if result.Metadata["column"] != "5" {
		t.Errorf("Expected column '5', got %v", result.Metadata["column"])
	}
	if result.Metadata["status"] != "unavailable" {
		t.Errorf("Expected status 'unavailable', got %v", result.Metadata["status"])
	}
}

func TestLSPHoverTool_MarkdownFormat(t *testing.T) {
	tool := NewLSPHoverTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"position": "main.go:1:1", "format": "markdown"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.Output, "`main.go:1:1`") {
		t.Errorf("Markdown output should contain a code span, got: %s", result.Output)
	}
}

func TestLSPHoverTool_InvalidPosition(t *testing.T) {
	tool := NewLSPHoverTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	cases := []string{"main.go", "main.go:10", "main.go:a:b", ""}
	for _, pos := range cases {
		input, _ := json.Marshal(LSPHoverInput{Position: pos})
		_, err := tool.Execute(ctx, json.RawMessage(input), toolCtx)
		if err == nil {
			t.Errorf("Expected error for invalid position %q", pos)
		}
	}
}

func TestLSPHoverTool_Properties(t *testing.T) {
	tool := NewLSPHoverTool("/tmp")

	if tool.ID() != "lsp_hover" {
		t.Errorf("Expected ID 'lsp_hover', got %q", tool.ID())
	}

	desc := tool.Description()
	if !strings.Contains(desc, "hover") {
		t.Error("Description should mention 'hover'")
	}

	params := tool.Parameters()
	var schema map[string]any
	if err := json.Unmarshal(params, &schema); err != nil {
		t.Errorf("Parameters should be valid JSON: %v", err)
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Error("Schema should have properties")
	}
	if _, ok := props["position"]; !ok {
		t.Error("Schema should have position property")
	}
}

func TestLSPHoverTool_InvalidInput(t *testing.T) {
	tool := NewLSPHoverTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{invalid json}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err == nil {
		t.Error("Expected error for invalid JSON input")
	}
}
