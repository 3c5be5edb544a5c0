package tool

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const grepDescription = `A content search tool using regular expressions.

Usage:
- Supports full regex syntax (e.g., "log.*Error", "function\\s+\\w+") or literal matching
- Case-insensitive by default (caseSensitive=true matches case exactly); optional file glob filtering
- Optional 0-10 lines of surrounding context
- Skips binary files and files over 1 MiB
- Returns at most 1000 matches, grouped by file with line numbers`

const (
	maxGrepResults  = 1000
	maxGrepFileSize = 1 << 20 // 1 MiB
	maxGrepContext  = 10
)

// GrepTool implements content search.
type GrepTool struct {
	workDir string
}

// GrepInput represents the input for the grep tool.
type GrepInput struct {
	Pattern       string `json:"pattern"`
	Path          string `json:"path,omitempty"`
	Include       string `json:"include,omitempty"` // glob of files to include (e.g., "*.js")
	CaseSensitive bool   `json:"caseSensitive,omitempty"`
	Literal       bool   `json:"literal,omitempty"` // treat pattern as a literal string, not a regex
	Context       int    `json:"context,omitempty"` // lines of context before/after, 0-10
}

// NewGrepTool creates a new grep tool.
func NewGrepTool(workDir string) *GrepTool {
	return &GrepTool{workDir: workDir}
}

func (t *GrepTool) ID() string          { return "grep" }
func (t *GrepTool) Description() string { return grepDescription }

func (t *GrepTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {
				"type": "string",
				"description": "The pattern to search for in file contents"
			},
			"path": {
				"type": "string",
				"description": "The directory to search in. Defaults to the current working directory."
			},
			"include": {
				"type": "string",
				"description": "File glob to include in the search (e.g. \"*.js\", \"*.{ts,tsx}\")"
			},
			"caseSensitive": {
				"type": "boolean",
				"description": "Case-sensitive search (default: false)"
			},
			"literal": {
				"type": "boolean",
				"description": "Treat pattern as a literal string instead of a regex (default: false)"
			},
			"context": {
				"type": "integer",
				"description": "Lines of context before/after each match (0-10)"
			}
		},
		"required": ["pattern"]
	}`)
}

// GrepMatch represents a search match.
type GrepMatch struct {
	File    string   `json:"file"`
	Line    int      `json:"line"`
	Content string   `json:"content"`
	Before  []string `json:"before,omitempty"`
	After   []string `json:"after,omitempty"`
}

func (t *GrepTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GrepInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	pattern := params.Pattern
	if params.Literal {
		pattern = regexp.QuoteMeta(pattern)
	}
	if !params.CaseSensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}

	contextLines := params.Context
	if contextLines < 0 {
		contextLines = 0
	}
	if contextLines > maxGrepContext {
		contextLines = maxGrepContext
	}

	searchPath := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		searchPath = toolCtx.WorkDir
	}
	if params.Path != "" {
		if filepath.IsAbs(params.Path) {
			searchPath = params.Path
		} else {
			searchPath = filepath.Join(searchPath, params.Path)
		}
	}

	var matches []GrepMatch
	truncated := false

	walkErr := filepath.WalkDir(searchPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if truncated {
			return fs.SkipAll
		}
		if d.IsDir() {
			if ShouldIgnore(d.Name(), true, DefaultIgnorePatterns) && path != searchPath {
				return fs.SkipDir
			}
			return nil
		}
		if ShouldIgnore(d.Name(), false, DefaultIgnorePatterns) {
			return nil
		}
		if params.Include != "" {
			if ok, _ := filepath.Match(params.Include, d.Name()); !ok {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxGrepFileSize {
			return nil
		}
		if isBinaryFile(path) {
			return nil
		}

		fileMatches, err := grepFile(path, re, contextLines, maxGrepResults-len(matches))
		if err != nil {
			return nil
		}
		matches = append(matches, fileMatches...)
		if len(matches) >= maxGrepResults {
			truncated = true
		}
		return nil
	})
	if walkErr != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(matches) == 0 {
		return &Result{
			Title:  "Search results",
			Output: "No matches found",
			Metadata: map[string]any{
				"pattern": params.Pattern,
				"count":   0,
			},
		}, nil
	}

	var sb strings.Builder
	currentFile := ""
	for _, m := range matches {
		if m.File != currentFile {
			if currentFile != "" {
				sb.WriteString("\n")
			}
			sb.WriteString(m.File)
			sb.WriteString(":\n")
			currentFile = m.File
		}
		for i, l := range m.Before {
			sb.WriteString(fmt.Sprintf("  %d- %s\n", m.Line-len(m.Before)+i, l))
		}
		sb.WriteString(fmt.Sprintf("  %d: %s\n", m.Line, m.Content))
		for i, l := range m.After {
			sb.WriteString(fmt.Sprintf("  %d+ %s\n", m.Line+i+1, l))
		}
	}

	if truncated {
		sb.WriteString(fmt.Sprintf("\n(showing first %d matches; more exist)\n", maxGrepResults))
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d matches", len(matches)),
		Output: sb.String(),
		Metadata: map[string]any{
			"pattern":   params.Pattern,
			"count":     len(matches),
			"truncated": truncated,
		},
	}, nil
}

// grepFile scans a single file for matches, returning at most limit of them
// with contextLines of surrounding lines attached.
func grepFile(path string, re *regexp.Regexp, contextLines, limit int) ([]GrepMatch, error) {
	if limit <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	var matches []GrepMatch
	for i, line := range lines {
		if len(matches) >= limit {
			break
		}
		if !re.MatchString(line) {
			continue
		}

		m := GrepMatch{File: path, Line: i + 1, Content: line}
		if contextLines > 0 {
			start := i - contextLines
			if start < 0 {
				start = 0
			}
			m.Before = append([]string{}, lines[start:i]...)

			end := i + 1 + contextLines
			if end > len(lines) {
				end = len(lines)
			}
			m.After = append([]string{}, lines[i+1:end]...)
		}
		matches = append(matches, m)
	}

	return matches, nil
}
