package session

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/forgecode-ai/agent/internal/config"
	"github.com/forgecode-ai/agent/internal/project"
	"github.com/forgecode-ai/agent/internal/tool"
	"github.com/forgecode-ai/agent/pkg/types"
)

const (
	// treeMaxDepth caps the project tree's recursion depth.
	treeMaxDepth = 3
	// treeMaxLines caps the project tree's total emitted lines.
	treeMaxLines = 200
	// maxSystemMessages is the entry count the assembled list is
	// compressed down to, so providers that cache the first two system
	// messages (Anthropic's prompt caching) see a stable prefix.
	maxSystemMessages = 2
)

var gptFamilyPreamble = `You are a careful coding assistant. Follow existing conventions in the
repository, read a file before editing it, and keep changes narrowly
scoped to what was asked.`

var geminiFamilyPreamble = `You are a careful coding assistant. Examine the existing code structure
before making changes, prefer minimal diffs, and preserve the project's
conventions.`

var anthropicFamilyPreamble = `You are Claude, a careful coding assistant with access to tools that
read, write, and execute commands in the user's workspace. Be direct:
take the action the user asked for rather than describing it.`

// modelFamilyPreamble selects exactly one of the three bundled preambles
// by substring of modelID.
func modelFamilyPreamble(modelID string) string {
	lower := strings.ToLower(modelID)
	switch {
	case strings.Contains(lower, "gpt"), strings.Contains(lower, "o1"), strings.Contains(lower, "o3"):
		return gptFamilyPreamble
	case strings.Contains(lower, "gemini"):
		return geminiFamilyPreamble
	default:
		return anthropicFamilyPreamble
	}
}

// AssembleSystemMessages builds the ordered system message list for a turn
// (C8), per §4.6: model-family preamble, environment block, custom
// instruction files, then the mode's own system prompt — compressed to at
// most two entries so request-caching providers see a stable prefix.
func AssembleSystemMessages(modelID string, m *types.Mode, cwd string, cfg *types.Config) []string {
	var entries []string

	entries = append(entries, modelFamilyPreamble(modelID))
	entries = append(entries, environmentBlock(cwd))
	entries = append(entries, customInstructionFiles(cwd, cfg)...)

	if m != nil && m.SystemPrompt != "" {
		entries = append(entries, m.SystemPrompt)
	}

	return compress(entries)
}

// compress collapses entries to at most two: the first is left unchanged,
// the second becomes the blank-line-joined concatenation of the rest.
func compress(entries []string) []string {
	if len(entries) <= maxSystemMessages {
		return entries
	}
	return []string{entries[0], strings.Join(entries[1:], "\n\n")}
}

func environmentBlock(cwd string) string {
	var b strings.Builder

	proj, err := project.FromDirectory(cwd)

	fmt.Fprintf(&b, "Working directory: %s\n", cwd)
	fmt.Fprintf(&b, "Is git repo: %t\n", err == nil && proj.VCS != nil)
	if err == nil && proj.VCS != nil {
		fmt.Fprintf(&b, "Git worktree: %s\n", proj.Worktree)
	}
	fmt.Fprintf(&b, "Platform: %s\n", runtime.GOOS)
	fmt.Fprintf(&b, "Today's date: %s\n", time.Now().Format("2006-01-02"))
	b.WriteString("\nProject structure:\n")
	b.WriteString(projectTree(cwd))

	return b.String()
}

// projectTree renders a depth-capped, line-capped directory tree rooted at
// dir, ignoring dotfiles and the list tool's nuisance-directory set.
func projectTree(dir string) string {
	var b strings.Builder
	lines := 0
	truncated := false

	var walk func(path string, depth int)
	walk = func(path string, depth int) {
		if truncated || depth > treeMaxDepth {
			return
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return
		}

		type ent struct {
			name  string
			isDir bool
		}
		filtered := make([]ent, 0, len(entries))
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if tool.ShouldIgnore(e.Name(), e.IsDir(), tool.DefaultIgnorePatterns) {
				continue
			}
			filtered = append(filtered, ent{name: e.Name(), isDir: e.IsDir()})
		}
		sort.Slice(filtered, func(i, j int) bool {
			if filtered[i].isDir != filtered[j].isDir {
				return filtered[i].isDir
			}
			return filtered[i].name < filtered[j].name
		})

		for _, e := range filtered {
			if lines >= treeMaxLines {
				truncated = true
				return
			}
			b.WriteString(strings.Repeat("  ", depth-1))
			b.WriteString(e.name)
			if e.isDir {
				b.WriteString("/")
			}
			b.WriteString("\n")
			lines++

			if e.isDir {
				walk(filepath.Join(path, e.name), depth+1)
			}
		}
	}

	walk(dir, 1)
	if truncated {
		b.WriteString(fmt.Sprintf("(truncated at %d lines)\n", treeMaxLines))
	}
	return b.String()
}

// customInstructionNames are searched for by walking up from cwd toward
// the filesystem root; the first match of each name contributes an entry.
var customInstructionNames = []string{"AGENTS.md", "CLAUDE.md", "CONTEXT.md"}

func customInstructionFiles(cwd string, cfg *types.Config) []string {
	var files []string

	for _, name := range customInstructionNames {
		if content := findUpward(cwd, name); content != "" {
			files = append(files, content)
		}
	}

	if content := readNonEmpty(filepath.Join(config.GetPaths().Config, "AGENTS.md")); content != "" {
		files = append(files, content)
	}

	if home, err := os.UserHomeDir(); err == nil {
		if content := readNonEmpty(filepath.Join(home, ".claude", "CLAUDE.md")); content != "" {
			files = append(files, content)
		}
	}

	if cfg != nil {
		for _, path := range cfg.Instructions {
			if content := readNonEmpty(path); content != "" {
				files = append(files, content)
			}
		}
	}

	return files
}

// findUpward walks from dir toward the filesystem root looking for name,
// returning the contents of the first match.
func findUpward(dir, name string) string {
	for {
		if content := readNonEmpty(filepath.Join(dir, name)); content != "" {
			return content
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func readNonEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return ""
	}
	return string(data)
}
