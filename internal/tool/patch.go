package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/forgecode-ai/agent/internal/event"
)

const patchDescription = `Applies a diff to a file.

Usage:
- Expects go-diff (diff-match-patch) patch text, the format of the edit tool's
  own diff metadata: "@@" hunks whose " "/"-"/"+" lines are %-escaped text runs
  (newlines written as %0A), with optional "--- "/"+++ " file header lines
  before the first "@@" hunk
- Plain "diff -u" output is not parsed line by line: each of its lines is read
  as a text run without its newline, so multi-line hunks do not match the file
- Pass reverse=true to undo a diff that was previously applied
- A hunk that no longer matches the file's current content is reported in
  metadata rather than silently dropped; partially-applied patches are allowed`

// PatchTool implements go-diff patch application.
type PatchTool struct {
	workDir string
}

// PatchInput represents the input for the patch tool.
type PatchInput struct {
	FilePath string `json:"filePath"`
	Diff     string `json:"diff"`
	Reverse  bool   `json:"reverse,omitempty"`
}

// NewPatchTool creates a new patch tool.
func NewPatchTool(workDir string) *PatchTool {
	return &PatchTool{workDir: workDir}
}

func (t *PatchTool) ID() string          { return "patch" }
func (t *PatchTool) Description() string { return patchDescription }

func (t *PatchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filePath": {
				"type": "string",
				"description": "The absolute path to the file to patch"
			},
			"diff": {
				"type": "string",
				"description": "go-diff patch text to apply to the file (see the tool description)"
			},
			"reverse": {
				"type": "boolean",
				"description": "Apply the diff in reverse, undoing it (default: false)"
			}
		},
		"required": ["filePath", "diff"]
	}`)
}

func (t *PatchTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params PatchInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	content, err := os.ReadFile(params.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	original := string(content)

	dmp := diffmatchpatch.New()
	patches, err := dmp.PatchFromText(stripDiffFileHeaders(params.Diff))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	if len(patches) == 0 {
		return nil, fmt.Errorf("diff contains no hunks")
	}

	if params.Reverse {
		patches = reversePatches(patches)
	}

	newText, applied := dmp.PatchApply(patches, original)

	appliedCount := 0
	for _, ok := range applied {
		if ok {
			appliedCount++
		}
	}
	if appliedCount == 0 {
		return nil, fmt.Errorf("no hunks applied; the file's content may not match the diff's context")
	}

	if err := os.WriteFile(params.FilePath, []byte(newText), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	diffText, additions, deletions := buildDiffMetadata(params.FilePath, original, newText, t.workDir)

	if toolCtx != nil && toolCtx.SessionID != "" {
		event.Publish(event.Event{
			Type: event.FileEdited,
			Data: event.FileEditedData{File: params.FilePath},
		})
	}

	verb := "Patched"
	if params.Reverse {
		verb = "Reverse-patched"
	}

	return &Result{
		Title:  fmt.Sprintf("%s %s", verb, filepath.Base(params.FilePath)),
		Output: fmt.Sprintf("Applied %d/%d hunks", appliedCount, len(applied)),
		Metadata: map[string]any{
			"file":         params.FilePath,
			"hunksApplied": appliedCount,
			"hunksTotal":   len(applied),
			"reverse":      params.Reverse,
			"diff":         diffText,
			"additions":    additions,
			"deletions":    deletions,
		},
	}, nil
}

// stripDiffFileHeaders removes leading "--- "/"+++ " file header lines so the
// remaining text is pure diffmatchpatch patch text starting at the first
// "@@" hunk header.
func stripDiffFileHeaders(diff string) string {
	lines := strings.Split(diff, "\n")
	start := 0
	for start < len(lines) && !strings.HasPrefix(lines[start], "@@") {
		start++
	}
	if start >= len(lines) {
		return diff
	}
	return strings.Join(lines[start:], "\n")
}

// reversePatches swaps each patch's insert/delete diffs and its before/after
// offsets and lengths, turning a forward patch set into one that undoes it.
func reversePatches(patches []diffmatchpatch.Patch) []diffmatchpatch.Patch {
	out := make([]diffmatchpatch.Patch, len(patches))
	for i, p := range patches {
		rp := p
		rp.Start1, rp.Start2 = p.Start2, p.Start1
		rp.Length1, rp.Length2 = p.Length2, p.Length1
		diffs := make([]diffmatchpatch.Diff, len(p.Diffs))
		for j, d := range p.Diffs {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				d.Type = diffmatchpatch.DiffDelete
			case diffmatchpatch.DiffDelete:
				d.Type = diffmatchpatch.DiffInsert
			}
			diffs[j] = d
		}
		rp.Diffs = diffs
		out[i] = rp
	}
	return out
}
