package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgecode-ai/agent/internal/event"
)

const multieditDescription = `Applies a sequence of edit operations to a single file.

Usage:
- Each edit is applied to the output of the previous one, in order
- An edit with an empty oldString creates the file (only valid as the first edit)
- Edits are not all-or-nothing: a failing edit stops the sequence there and the
  result reports how many of the requested edits actually applied`

// MultiEditTool implements sequential multi-edit on a single file.
type MultiEditTool struct {
	workDir string
}

// MultiEditInput represents the input for the multiedit tool.
type MultiEditInput struct {
	FilePath string      `json:"filePath"`
	Edits    []EditInput `json:"edits"`
}

// NewMultiEditTool creates a new multiedit tool.
func NewMultiEditTool(workDir string) *MultiEditTool {
	return &MultiEditTool{workDir: workDir}
}

func (t *MultiEditTool) ID() string          { return "multiedit" }
func (t *MultiEditTool) Description() string { return multieditDescription }

func (t *MultiEditTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filePath": {
				"type": "string",
				"description": "The absolute path to the file to edit"
			},
			"edits": {
				"type": "array",
				"description": "Edits to apply in order, each using the same shape as the edit tool",
				"items": {
					"type": "object",
					"properties": {
						"oldString": {"type": "string"},
						"newString": {"type": "string"},
						"replaceAll": {"type": "boolean"}
					},
					"required": ["oldString", "newString"]
				},
				"minItems": 1
			}
		},
		"required": ["filePath", "edits"]
	}`)
}

// multieditStepResult records the outcome of a single edit within the sequence.
type multieditStepResult struct {
	Index     int    `json:"index"`
	Applied   bool   `json:"applied"`
	Strategy  string `json:"strategy,omitempty"`
	Error     string `json:"error,omitempty"`
	Additions int    `json:"additions,omitempty"`
	Deletions int    `json:"deletions,omitempty"`
}

func (t *MultiEditTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params MultiEditInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if len(params.Edits) == 0 {
		return nil, fmt.Errorf("edits array must contain at least one edit")
	}

	var original string
	text := ""
	existed := false
	if content, err := os.ReadFile(params.FilePath); err == nil {
		text = string(content)
		original = text
		existed = true
	} else if params.Edits[0].OldString != "" {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	steps := make([]multieditStepResult, 0, len(params.Edits))
	applied := 0
	var lastErr error

	for i, e := range params.Edits {
		if e.OldString == "" {
			if existed || i != 0 {
				lastErr = fmt.Errorf("edit %d: empty old_string is only valid for creating a new file as the first edit", i)
				steps = append(steps, multieditStepResult{Index: i, Applied: false, Error: lastErr.Error()})
				break
			}
			text = e.NewString
			existed = true
			steps = append(steps, multieditStepResult{Index: i, Applied: true, Strategy: "create"})
			applied++
			continue
		}

		newText, _, strategy, err := applyEdit(text, e.OldString, e.NewString, e.ReplaceAll)
		if err != nil {
			lastErr = fmt.Errorf("edit %d: %w", i, err)
			steps = append(steps, multieditStepResult{Index: i, Applied: false, Error: err.Error()})
			break
		}
		text = newText
		steps = append(steps, multieditStepResult{Index: i, Applied: true, Strategy: string(strategy)})
		applied++
	}

	if applied == 0 {
		return nil, lastErr
	}

	if dir := filepath.Dir(params.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create parent directories: %w", err)
		}
	}
	if err := os.WriteFile(params.FilePath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	diffText, additions, deletions := buildDiffMetadata(params.FilePath, original, text, t.workDir)

	if toolCtx != nil && toolCtx.SessionID != "" {
		event.Publish(event.Event{
			Type: event.FileEdited,
			Data: event.FileEditedData{File: params.FilePath},
		})
	}

	title := fmt.Sprintf("Applied %d/%d edits to %s", applied, len(params.Edits), filepath.Base(params.FilePath))
	output := fmt.Sprintf("Applied %d of %d requested edits", applied, len(params.Edits))
	if lastErr != nil {
		output = fmt.Sprintf("%s; stopped early: %v", output, lastErr)
	}

	return &Result{
		Title:  title,
		Output: output,
		Metadata: map[string]any{
			"file":      params.FilePath,
			"applied":   applied,
			"requested": len(params.Edits),
			"steps":     steps,
			"diff":      diffText,
			"additions": additions,
			"deletions": deletions,
		},
	}, nil
}
