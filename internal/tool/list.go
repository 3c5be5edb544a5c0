package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const listDescription = `Lists files and directories as an indented tree, rooted at a given path.

Usage:
- Returns an indented tree of file and directory names
- Skips nuisance directories (node_modules, .git, build artifacts, caches)
- Caps output at 100 entries, flagging truncation`

const maxListEntries = 100

// ListTool implements directory listing.
type ListTool struct {
	workDir string
}

// ListInput represents the input for the list tool.
type ListInput struct {
	Path   string   `json:"path,omitempty"`
	Ignore []string `json:"ignore,omitempty"`
}

// DefaultIgnorePatterns is the nuisance-directory set skipped by the list
// tool and, for consistency, the System Prompt Assembler's project tree.
var DefaultIgnorePatterns = []string{
	"node_modules/",
	"__pycache__/",
	".git/",
	"dist/",
	"build/",
	"target/",
	"vendor/",
	"bin/",
	"obj/",
	".idea/",
	".vscode/",
	".zig-cache/",
	"zig-out",
	".coverage",
	"coverage/",
	"tmp/",
	"temp/",
	".cache/",
	"cache/",
	"logs/",
	".venv/",
	"venv/",
	"env/",
}

// NewListTool creates a new list tool.
func NewListTool(workDir string) *ListTool {
	return &ListTool{workDir: workDir}
}

func (t *ListTool) ID() string          { return "list" }
func (t *ListTool) Description() string { return listDescription }

func (t *ListTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"path": {
				"type": "string",
				"description": "The directory to list; a relative path is resolved against the working directory (default: the working directory)"
			},
			"ignore": {
				"type": "array",
				"items": {"type": "string"},
				"description": "List of glob patterns to ignore"
			}
		}
	}`)
}

type treeEntry struct {
	name  string
	isDir bool
}

func (t *ListTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params ListInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	listPath := t.workDir
	if toolCtx != nil && toolCtx.WorkDir != "" {
		listPath = toolCtx.WorkDir
	}
	if params.Path != "" {
		if filepath.IsAbs(params.Path) {
			listPath = params.Path
		} else {
			listPath = filepath.Join(listPath, params.Path)
		}
	}

	ignorePatterns := append([]string{}, DefaultIgnorePatterns...)
	ignorePatterns = append(ignorePatterns, params.Ignore...)

	var sb strings.Builder
	sb.WriteString(listPath)
	sb.WriteString("/\n")

	count := 0
	truncated := false
	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if truncated {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		filtered := make([]treeEntry, 0, len(entries))
		for _, e := range entries {
			if ShouldIgnore(e.Name(), e.IsDir(), ignorePatterns) {
				continue
			}
			filtered = append(filtered, treeEntry{name: e.Name(), isDir: e.IsDir()})
		}
		sort.Slice(filtered, func(i, j int) bool {
			if filtered[i].isDir != filtered[j].isDir {
				return filtered[i].isDir
			}
			return filtered[i].name < filtered[j].name
		})

		for _, e := range filtered {
			if count >= maxListEntries {
				truncated = true
				return nil
			}
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString(e.name)
			if e.isDir {
				sb.WriteString("/")
			}
			sb.WriteString("\n")
			count++

			if e.isDir {
				if err := walk(filepath.Join(dir, e.name), depth+1); err != nil {
					continue
				}
			}
		}
		return nil
	}

	if err := walk(listPath, 1); err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if truncated {
		sb.WriteString(fmt.Sprintf("\n(truncated at %d entries)\n", maxListEntries))
	}

	return &Result{
		Title:  fmt.Sprintf("Listed %d items", count),
		Output: sb.String(),
		Metadata: map[string]any{
			"path":      listPath,
			"count":     count,
			"truncated": truncated,
		},
	}, nil
}

// ShouldIgnore reports whether a file/directory name matches one of
// patterns, reused by the list/glob/grep tools and the System Prompt
// Assembler's project tree so they skip the same nuisance directories.
func ShouldIgnore(name string, isDir bool, patterns []string) bool {
	checkName := name
	if isDir {
		checkName = name + "/"
	}

	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "/") {
			if isDir && (name+"/" == pattern || name == strings.TrimSuffix(pattern, "/")) {
				return true
			}
		} else {
			if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			if isDir {
				if matched, _ := filepath.Match(pattern, checkName); matched {
					return true
				}
			}
		}
	}
	return false
}
