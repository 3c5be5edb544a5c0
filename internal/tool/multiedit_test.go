package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMultiEditTool_Execute(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "multi.txt")
	if err := os.WriteFile(testFile, []byte("Hello World\nFoo Bar\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	tool := NewMultiEditTool(tmpDir)
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{
		"filePath": "` + testFile + `",
		"edits": [
			{"oldString": "World", "newString": "Go"},
			{"oldString": "Foo Bar", "newString": "Baz Qux"}
		]
	}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Metadata["applied"] != 2 {
		t.Errorf("Expected 2 applied edits, got %v", result.Metadata["applied"])
	}

	data, _ := os.ReadFile(testFile)
	if string(data) != "Hello Go\nBaz Qux\n" {
		t.Errorf("File content = %q, want 'Hello Go\\nBaz Qux\\n'", string(data))
	}
}

func TestMultiEditTool_CreatesFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "new.txt")

	tool := NewMultiEditTool(tmpDir)
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{
		"filePath": "` + testFile + `",
		"edits": [
			{"oldString": "", "newString": "Created content"}
		]
	}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("File should have been created: %v", err)
	}
	if string(data) != "Created content" {
		t.Errorf("File content = %q, want 'Created content'", string(data))
	}
}

func TestMultiEditTool_PartialSuccess(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "partial.txt")
	if err := os.WriteFile(testFile, []byte("Hello World"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	tool := NewMultiEditTool(tmpDir)
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{
		"filePath": "` + testFile + `",
		"edits": [
			{"oldString": "World", "newString": "Go"},
			{"oldString": "NotFound", "newString": "Anything"}
		]
	}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute should not fail on partial success: %v", err)
	}

	if result.Metadata["applied"] != 1 {
		t.Errorf("Expected 1 applied edit, got %v", result.Metadata["applied"])
	}
	if result.Metadata["requested"] != 2 {
		t.Errorf("Expected 2 requested edits, got %v", result.Metadata["requested"])
	}

	// The first edit's effect should still have been written.
	data, _ := os.ReadFile(testFile)
	if string(data) != "Hello Go" {
		t.Errorf("File content = %q, want 'Hello Go'", string(data))
	}
}

func TestMultiEditTool_AllFail(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "allfail.txt")
	if err := os.WriteFile(testFile, []byte("Hello World"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	tool := NewMultiEditTool(tmpDir)
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{
		"filePath": "` + testFile + `",
		"edits": [
			{"oldString": "NotFound", "newString": "Anything"}
		]
	}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err == nil {
		t.Error("Expected error when every edit fails")
	}
}

func TestMultiEditTool_EmptyEdits(t *testing.T) {
	tool := NewMultiEditTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"filePath": "/tmp/x.txt", "edits": []}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err == nil {
		t.Error("Expected error for empty edits array")
	}
}

func TestMultiEditTool_Properties(t *testing.T) {
	tool := NewMultiEditTool("/tmp")

	if tool.ID() != "multiedit" {
		t.Errorf("Expected ID 'multiedit', got %q", tool.ID())
	}

	desc := tool.Description()
	if !strings.Contains(desc, "sequence") {
		t.Error("Description should mention 'sequence'")
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
	if _, ok := props["filePath"]; !ok {
		t.Error("Schema should have filePath property")
	}
	if _, ok := props["edits"]; !ok {
		t.Error("Schema should have edits property")
	}
}

func TestMultiEditTool_InvalidInput(t *testing.T) {
	tool := NewMultiEditTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{invalid json}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err == nil {
		t.Error("Expected error for invalid JSON input")
	}
}

func TestMultiEditTool_FileNotFound(t *testing.T) {
	tool := NewMultiEditTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{
		"filePath": "/nonexistent/file.txt",
		"edits": [{"oldString": "a", "newString": "b"}]
	}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err == nil {
		t.Error("Expected error for nonexistent file with non-empty oldString")
	}
}
