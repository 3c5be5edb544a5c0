package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
)

const lspHoverDescription = `Returns hover info (type signature, doc comment) at a file:line:col position.

Usage:
- Pass position as "path/to/file.go:line:col" (1-based)
- This build has no language server attached, so hover always reports that
  no information is available; the tool exists so a future LSP client can
  serve real hover info without a contract change`

var lspPositionPattern = regexp.MustCompile(`^(.+):(\d+):(\d+)$`)

// LSPHoverTool implements the lsp_hover tool.
type LSPHoverTool struct {
	workDir string
}

// LSPHoverInput represents the input for the lsp_hover tool.
type LSPHoverInput struct {
	Position string `json:"position"`
	Format   string `json:"format,omitempty"` // "plain" (default) or "markdown"
}

// NewLSPHoverTool creates a new lsp_hover tool.
func NewLSPHoverTool(workDir string) *LSPHoverTool {
	return &LSPHoverTool{workDir: workDir}
}

func (t *LSPHoverTool) ID() string          { return "lsp_hover" }
func (t *LSPHoverTool) Description() string { return lspHoverDescription }

func (t *LSPHoverTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"position": {
				"type": "string",
				"description": "file:line:col, 1-based"
			},
			"format": {
				"type": "string",
				"enum": ["plain", "markdown"],
				"description": "Output format (default: plain)"
			}
		},
		"required": ["position"]
	}`)
}

func (t *LSPHoverTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params LSPHoverInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	m := lspPositionPattern.FindStringSubmatch(params.Position)
	if m == nil {
		return nil, fmt.Errorf("position must be formatted as file:line:col")
	}
	file, line, col := m[1], m[2], m[3]

	output := fmt.Sprintf("No hover information available for %s:%s:%s (no language server attached)", file, line, col)
	if params.Format == "markdown" {
		output = fmt.Sprintf("_No hover information available for `%s:%s:%s` (no language server attached)_", file, line, col)
	}

	return &Result{
		Title:  fmt.Sprintf("Hover at %s:%s:%s", file, line, col),
		Output: output,
		Metadata: map[string]any{
			"file":   file,
			"line":   line,
			"column": col,
			"status": "unavailable",
		},
	}, nil
}
