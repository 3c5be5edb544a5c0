package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/forgecode-ai/agent/internal/event"
)

const editDescription = `Performs string replacements in files.

Usage:
- The filePath parameter must be an absolute path
- The oldString must exist in the file; an empty oldString creates a new file with newString as its content
- The newString will replace oldString
- Use replaceAll to replace all occurrences
- The edit will FAIL if oldString is not unique (unless using replaceAll)
- oldString and newString must differ`

// EditTool implements file editing.
type EditTool struct {
	workDir string
}

// EditInput represents the input for the edit tool.
type EditInput struct {
	FilePath   string `json:"filePath"`
	OldString  string `json:"oldString"`
	NewString  string `json:"newString"`
	ReplaceAll bool   `json:"replaceAll,omitempty"`
}

// NewEditTool creates a new edit tool.
func NewEditTool(workDir string) *EditTool {
	return &EditTool{workDir: workDir}
}

func (t *EditTool) ID() string          { return "edit" }
func (t *EditTool) Description() string { return editDescription }

func (t *EditTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filePath": {
				"type": "string",
				"description": "The absolute path to the file to edit"
			},
			"oldString": {
				"type": "string",
				"description": "The text to replace; leave empty to create a new file"
			},
			"newString": {
				"type": "string",
				"description": "The text to replace it with"
			},
			"replaceAll": {
				"type": "boolean",
				"description": "Replace all occurrences (default: false)"
			}
		},
		"required": ["filePath", "oldString", "newString"]
	}`)
}

func (t *EditTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params EditInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if params.OldString == "" {
		return t.createFile(params, toolCtx)
	}

	if params.OldString == params.NewString {
		return nil, fmt.Errorf("old_string and new_string must be different")
	}

	content, err := os.ReadFile(params.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	text := string(content)

	newText, count, strategy, err := applyEdit(text, params.OldString, params.NewString, params.ReplaceAll)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(params.FilePath, []byte(newText), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	diffText, additions, deletions := buildDiffMetadata(params.FilePath, text, newText, t.workDir)

	if toolCtx != nil && toolCtx.SessionID != "" {
		event.Publish(event.Event{
			Type: event.FileEdited,
			Data: event.FileEditedData{File: params.FilePath},
		})
	}

	title := fmt.Sprintf("Edited %s", filepath.Base(params.FilePath))
	if strategy != matchExact {
		title = fmt.Sprintf("%s (%s)", title, strategy)
	}

	return &Result{
		Title:  title,
		Output: fmt.Sprintf("Replaced %d occurrence(s)", count),
		Metadata: map[string]any{
			"file":         params.FilePath,
			"replacements": count,
			"strategy":     string(strategy),
			"diff":         diffText,
			"additions":    additions,
			"deletions":    deletions,
		},
	}, nil
}

func (t *EditTool) createFile(params EditInput, toolCtx *Context) (*Result, error) {
	if _, err := os.Stat(params.FilePath); err == nil {
		return nil, fmt.Errorf("file already exists: %s", params.FilePath)
	}

	if dir := filepath.Dir(params.FilePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create parent directories: %w", err)
		}
	}

	if err := os.WriteFile(params.FilePath, []byte(params.NewString), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	if toolCtx != nil && toolCtx.SessionID != "" {
		event.Publish(event.Event{
			Type: event.FileEdited,
			Data: event.FileEditedData{File: params.FilePath},
		})
	}

	return &Result{
		Title:  fmt.Sprintf("Created %s", filepath.Base(params.FilePath)),
		Output: fmt.Sprintf("Created file with %d bytes", len(params.NewString)),
		Metadata: map[string]any{
			"file":    params.FilePath,
			"created": true,
		},
	}, nil
}

// matchStrategy names one of the ordered strategies edit tries to locate
// old_string within a file's content.
type matchStrategy string

const (
	matchExact            matchStrategy = "exact"
	matchLineTrimmed      matchStrategy = "line-trimmed"
	matchWhitespaceNormal matchStrategy = "whitespace-normalized"
	matchIndentFlexible   matchStrategy = "indentation-flexible"
	matchFuzzy            matchStrategy = "fuzzy"
)

// applyEdit tries, in order, exact substring match, then three line-based
// relaxed matches, then (as an enrichment beyond the named strategies) a
// whole-block fuzzy match, returning the edited text, the number of
// replacements made and which strategy succeeded.
func applyEdit(text, oldString, newString string, replaceAll bool) (string, int, matchStrategy, error) {
	if count := strings.Count(text, oldString); count > 0 {
		if !replaceAll && count > 1 {
			return "", 0, "", fmt.Errorf("old_string appears %d times in file; use replace_all or provide more context", count)
		}
		if replaceAll {
			return strings.ReplaceAll(text, oldString, newString), count, matchExact, nil
		}
		return strings.Replace(text, oldString, newString, 1), 1, matchExact, nil
	}

	lines := strings.Split(text, "\n")
	oldLines := strings.Split(oldString, "\n")

	for _, strat := range []struct {
		name      matchStrategy
		transform func([]string) []string
	}{
		{matchLineTrimmed, trimLines},
		{matchWhitespaceNormal, normalizeWhitespaceLines},
		{matchIndentFlexible, stripCommonIndent},
	} {
		starts := findLineWindows(lines, oldLines, strat.transform)
		if len(starts) == 0 {
			continue
		}
		if !replaceAll && len(starts) > 1 {
			return "", 0, "", fmt.Errorf("old_string matches %d locations (%s); use replace_all or provide more context", len(starts), strat.name)
		}
		if !replaceAll {
			starts = starts[:1]
		}
		newLines := spliceAll(lines, starts, len(oldLines), newString)
		return strings.Join(newLines, "\n"), len(starts), strat.name, nil
	}

	if match, sim := findBestBlock(text, oldString); match != "" && sim >= 0.7 {
		return strings.Replace(text, match, newString, 1), 1, matchFuzzy, nil
	}

	return "", 0, "", fmt.Errorf("old_string not found in file; the content may have changed or the string doesn't exist")
}

func trimLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

func normalizeWhitespaceLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.Join(strings.Fields(l), " ")
	}
	return out
}

func stripCommonIndent(lines []string) []string {
	minIndent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := len(l) - len(strings.TrimLeft(l, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return lines
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= minIndent {
			out[i] = l[minIndent:]
		} else {
			out[i] = strings.TrimLeft(l, " \t")
		}
	}
	return out
}

// findLineWindows returns the starting line indices of every window in
// lines whose transform equals the transform of oldLines.
func findLineWindows(lines, oldLines []string, transform func([]string) []string) []int {
	n := len(oldLines)
	if n == 0 || n > len(lines) {
		return nil
	}

	want := transform(append([]string{}, oldLines...))

	var starts []int
	for i := 0; i+n <= len(lines); i++ {
		window := transform(append([]string{}, lines[i:i+n]...))
		if equalStrings(window, want) {
			starts = append(starts, i)
		}
	}
	return starts
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// spliceAll replaces each window of length n starting at each index in
// starts with replacement's lines, processing back-to-front so earlier
// splices don't shift later indices.
func spliceAll(lines []string, starts []int, n int, replacement string) []string {
	replacementLines := strings.Split(replacement, "\n")
	out := append([]string{}, lines...)
	for i := len(starts) - 1; i >= 0; i-- {
		start := starts[i]
		tail := append([]string{}, out[start+n:]...)
		out = append(out[:start], replacementLines...)
		out = append(out, tail...)
	}
	return out
}

// findBestBlock finds the contiguous line-block most similar to target,
// using normalized Levenshtein distance over the whole block.
func findBestBlock(text, target string) (string, float64) {
	lines := strings.Split(text, "\n")
	targetLines := strings.Split(target, "\n")
	n := len(targetLines)
	if n == 0 || n > len(lines) {
		return "", 0
	}

	bestMatch := ""
	bestSimilarity := 0.0
	for i := 0; i+n <= len(lines); i++ {
		block := strings.Join(lines[i:i+n], "\n")
		sim := similarity(block, target)
		if sim > bestSimilarity {
			bestSimilarity = sim
			bestMatch = block
		}
	}
	return bestMatch, bestSimilarity
}

// similarity calculates normalized Levenshtein similarity.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	if len(a) > 10000 || len(b) > 10000 {
		maxLen := max(len(a), len(b))
		minLen := min(len(a), len(b))
		return float64(minLen) / float64(maxLen)
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := max(len(a), len(b))
	return 1.0 - float64(dist)/float64(maxLen)
}
