package tool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestBashTool_Execute(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "echo 'Hello from Bash'", "description": "Print hello"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.Output, "Hello from Bash") {
		t.Errorf("Output should contain 'Hello from Bash', got %q", result.Output)
	}
}

func TestBashTool_ExitCode(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "exit 1", "description": "Exit with error"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute should not error on a non-zero exit: %v", err)
	}

	if result.Metadata["exit"] != 1 {
		t.Errorf("Expected exit code 1, got %v", result.Metadata["exit"])
	}
}

func TestBashTool_SeparatesStdoutStderr(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "echo out; echo err 1>&2", "description": "mixed streams"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.Output, "out") || !strings.Contains(result.Output, "err") {
		t.Errorf("Output should contain both streams, got %q", result.Output)
	}
}

func TestBashTool_WithTimeout(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "echo 'quick'", "timeout": 5000, "description": "Quick echo"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.Output, "quick") {
		t.Error("Output should contain 'quick'")
	}
}

func TestBashTool_TimeoutExceeded(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "sleep 5", "timeout": 100, "description": "Sleeps too long"}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err == nil {
		t.Error("Expected a timeout error")
	}
}

func TestBashTool_Properties(t *testing.T) {
	tool := NewBashTool("/tmp")

	if tool.ID() != "bash" {
		t.Errorf("Expected ID 'bash', got %q", tool.ID())
	}

	desc := tool.Description()
	if !strings.Contains(desc, "command") {
		t.Error("Description should mention 'command'")
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
	for _, name := range []string{"command", "timeout", "description"} {
		if _, ok := props[name]; !ok {
			t.Errorf("Schema should have %q property", name)
		}
	}
}

func TestBashTool_InvalidInput(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{invalid json}`)
	_, err := tool.Execute(ctx, input, toolCtx)
	if err == nil {
		t.Error("Expected error for invalid JSON input")
	}
}

func TestBashTool_WorkDirFromContext(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	os.WriteFile(testFile, []byte("content"), 0644)

	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()
	toolCtx.WorkDir = tmpDir

	input := json.RawMessage(`{"command": "ls", "description": "List files"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.Output, "test.txt") {
		t.Error("Output should contain 'test.txt' from the working directory")
	}
}

func TestBashTool_DescriptionMetadata(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "echo test", "description": "Test echo command"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Title != "Test echo command" {
		t.Errorf("Expected title 'Test echo command', got %q", result.Title)
	}
	if result.Metadata["description"] != "Test echo command" {
		t.Errorf("Expected description in metadata, got %v", result.Metadata["description"])
	}
}

func TestBashTool_DefaultDescription(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "echo test"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Title == "" {
		t.Error("Title should not be empty")
	}
}

func TestBashTool_MaxTimeout(t *testing.T) {
	tool := NewBashTool("/tmp")
	ctx := context.Background()
	toolCtx := testContext()

	input := json.RawMessage(`{"command": "echo 'test'", "timeout": 999999999, "description": "Test max timeout"}`)
	result, err := tool.Execute(ctx, input, toolCtx)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !strings.Contains(result.Output, "test") {
		t.Error("Output should contain 'test'")
	}
}

func TestPrimaryCommand(t *testing.T) {
	cases := map[string]string{
		"echo hi":          "echo",
		"ls -la /tmp":      "ls",
		"git status":       "git",
		"":                 "",
		"  ":                "",
	}
	for command, want := range cases {
		if got := primaryCommand(command); got != want {
			t.Errorf("primaryCommand(%q) = %q, want %q", command, got, want)
		}
	}
}

func TestDetectShell(t *testing.T) {
	shell := detectShell()

	if shell == "" {
		t.Error("detectShell should return a non-empty string")
	}

	if runtime.GOOS == "darwin" && os.Getenv("SHELL") == "" {
		if shell != "/bin/zsh" {
			t.Errorf("Expected /bin/zsh on macOS, got %q", shell)
		}
	}
}
