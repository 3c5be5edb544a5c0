package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const globDescription = `Fast file pattern matching tool that works with any codebase size.

Usage:
- Supports glob patterns like "**/*.js" or "src/**/*.ts"
- Returns matching file paths sorted by modification time, most recent first
- Use this tool when you need to find files by name patterns`

const maxGlobFiles = 100

// GlobTool implements file pattern matching.
type GlobTool struct {
	workDir string
}

// GlobInput represents the input for the glob tool.
type GlobInput struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path,omitempty"`
}

// NewGlobTool creates a new glob tool.
func NewGlobTool(workDir string) *GlobTool {
	return &GlobTool{workDir: workDir}
}

func (t *GlobTool) ID() string          { return "glob" }
func (t *GlobTool) Description() string { return globDescription }

func (t *GlobTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"pattern": {
				"type": "string",
				"description": "The glob pattern to match files against"
			},
			"path": {
				"type": "string",
				"description": "Directory to search in (default: current directory)"
			}
		},
		"required": ["pattern"]
	}`)
}

// pathHasIgnoredComponent reports whether any directory segment of path
// matches the default nuisance-directory ignore patterns (node_modules,
// .git, build artifacts, caches, and the like).
func pathHasIgnoredComponent(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if ShouldIgnore(part, true, DefaultIgnorePatterns) {
			return true
		}
	}
	return false
}

type globMatch struct {
	path    string
	modTime int64
}

func (t *GlobTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params GlobInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	searchDir := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		searchDir = toolCtx.WorkDir
	}
	if params.Path != "" {
		if filepath.IsAbs(params.Path) {
			searchDir = params.Path
		} else {
			searchDir = filepath.Join(searchDir, params.Path)
		}
	}

	fsys := os.DirFS(searchDir)

	var matches []globMatch
	err := doublestar.GlobWalk(fsys, params.Pattern, func(path string, d fs.DirEntry) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if pathHasIgnoredComponent(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		matches = append(matches, globMatch{path: filepath.Join(searchDir, path), modTime: info.ModTime().UnixNano()})
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime > matches[j].modTime })

	truncated := false
	if len(matches) > maxGlobFiles {
		matches = matches[:maxGlobFiles]
		truncated = true
	}

	if len(matches) == 0 {
		return &Result{
			Title:  "Glob search",
			Output: "No files matched the pattern",
			Metadata: map[string]any{
				"pattern": params.Pattern,
				"count":   0,
			},
		}, nil
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = m.path
	}

	outputStr := strings.Join(paths, "\n")
	if truncated {
		outputStr += fmt.Sprintf("\n\n(Showing %d most recently modified matches; more were found)", maxGlobFiles)
	}

	return &Result{
		Title:  fmt.Sprintf("Found %d files", len(paths)),
		Output: outputStr,
		Metadata: map[string]any{
			"pattern":   params.Pattern,
			"count":     len(paths),
			"truncated": truncated,
		},
	}, nil
}
