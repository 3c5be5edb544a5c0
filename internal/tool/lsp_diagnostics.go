package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const lspDiagnosticsDescription = `Returns cached language-server diagnostics.

Usage:
- With no file_path, returns diagnostics for every file currently tracked
- With file_path, filters to that file only
- This build has no language server attached, so the cache is always empty;
  the tool exists so a future LSP client can publish into it without a
  contract change`

// Diagnostic is a single language-server diagnostic, cached by path.
type Diagnostic struct {
	Severity string `json:"severity"` // error, warning, info, hint
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
	Source   string `json:"source,omitempty"`
}

// diagnosticsCache holds the last diagnostics reported per file. Nothing in
// this build populates it yet; it exists so a future LSP client integration
// has somewhere to publish without changing the tool's contract.
type diagnosticsCache struct {
	mu    sync.RWMutex
	byFile map[string][]Diagnostic
}

func newDiagnosticsCache() *diagnosticsCache {
	return &diagnosticsCache{byFile: make(map[string][]Diagnostic)}
}

func (c *diagnosticsCache) set(file string, diags []Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFile[file] = diags
}

func (c *diagnosticsCache) get(file string) ([]Diagnostic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byFile[file]
	return d, ok
}

func (c *diagnosticsCache) all() map[string][]Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string][]Diagnostic, len(c.byFile))
	for k, v := range c.byFile {
		out[k] = v
	}
	return out
}

// LSPDiagnosticsTool implements the lsp_diagnostics tool.
type LSPDiagnosticsTool struct {
	workDir string
	cache   *diagnosticsCache
}

// LSPDiagnosticsInput represents the input for the lsp_diagnostics tool.
type LSPDiagnosticsInput struct {
	FilePath string `json:"file_path,omitempty"`
}

// NewLSPDiagnosticsTool creates a new lsp_diagnostics tool.
func NewLSPDiagnosticsTool(workDir string) *LSPDiagnosticsTool {
	return &LSPDiagnosticsTool{workDir: workDir, cache: newDiagnosticsCache()}
}

func (t *LSPDiagnosticsTool) ID() string          { return "lsp_diagnostics" }
func (t *LSPDiagnosticsTool) Description() string { return lspDiagnosticsDescription }

func (t *LSPDiagnosticsTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"file_path": {
				"type": "string",
				"description": "Restrict diagnostics to this file"
			}
		}
	}`)
}

func (t *LSPDiagnosticsTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params LSPDiagnosticsInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if params.FilePath != "" {
		diags, _ := t.cache.get(params.FilePath)
		return t.format(map[string][]Diagnostic{params.FilePath: diags}, params.FilePath)
	}
	return t.format(t.cache.all(), "")
}

func (t *LSPDiagnosticsTool) format(byFile map[string][]Diagnostic, filter string) (*Result, error) {
	files := make([]string, 0, len(byFile))
	total := 0
	for f, diags := range byFile {
		files = append(files, f)
		total += len(diags)
	}
	sort.Strings(files)

	if total == 0 {
		msg := "No diagnostics"
		if filter != "" {
			msg = fmt.Sprintf("No diagnostics for %s", filter)
		}
		return &Result{
			Title:    "Diagnostics",
			Output:   msg,
			Metadata: map[string]any{"count": 0},
		}, nil
	}

	var sb strings.Builder
	for _, f := range files {
		diags := byFile[f]
		if len(diags) == 0 {
			continue
		}
		sb.WriteString(f)
		sb.WriteString(":\n")
		for _, d := range diags {
			sb.WriteString(fmt.Sprintf("  %s %d:%d %s\n", strings.ToUpper(d.Severity), d.Line, d.Column, d.Message))
		}
	}

	return &Result{
		Title:  fmt.Sprintf("%d diagnostics", total),
		Output: sb.String(),
		Metadata: map[string]any{
			"count": total,
			"files": files,
		},
	}, nil
}
