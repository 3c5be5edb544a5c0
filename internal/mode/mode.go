// Package mode implements the Mode Registry: named bundles of system
// prompt, allowed tool ids, and model hints that the Chat Orchestrator
// selects per session.
package mode

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/forgecode-ai/agent/pkg/types"
)

// Registry holds the set of available modes, built-in plus any config
// overrides layered on top.
type Registry struct {
	mu    sync.RWMutex
	modes map[string]*types.Mode
}

// NewRegistry creates a registry seeded with the four built-in modes.
func NewRegistry() *Registry {
	r := &Registry{modes: make(map[string]*types.Mode)}
	for name, m := range BuiltInModes() {
		mode := m
		r.modes[name] = &mode
	}
	return r
}

// Get retrieves a mode by name.
func (r *Registry) Get(name string) (*types.Mode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modes[name]
	if !ok {
		return nil, fmt.Errorf("mode not found: %s", name)
	}
	return m, nil
}

// List returns all registered modes.
func (r *Registry) List() []*types.Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*types.Mode, 0, len(r.modes))
	for _, m := range r.modes {
		out = append(out, m)
	}
	return out
}

// Names returns all registered mode names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modes))
	for name := range r.modes {
		names = append(names, name)
	}
	return names
}

// Register adds or replaces a mode.
func (r *Registry) Register(m *types.Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[m.Name] = m
}

// ApplyConfig layers config.ModeConfig overrides (model hint, temperature,
// extra allowed tools, prompt) onto the built-in mode set.
func (r *Registry) ApplyConfig(overrides map[string]types.ModeConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, cfg := range overrides {
		m, exists := r.modes[name]
		if !exists {
			m = &types.Mode{Name: name}
			r.modes[name] = m
		} else {
			clone := *m
			m = &clone
			r.modes[name] = m
		}

		if cfg.Model != "" {
			m.ModelHint = cfg.Model
		}
		if cfg.Temperature != nil {
			m.Temperature = cfg.Temperature
		}
		if cfg.Prompt != "" {
			m.SystemPrompt = cfg.Prompt
		}
		for _, tool := range cfg.AllowedTools {
			if !containsTool(m.AllowedTools, tool) {
				m.AllowedTools = append(m.AllowedTools, tool)
			}
		}
	}
}

func containsTool(tools []string, id string) bool {
	for _, t := range tools {
		if t == id {
			return true
		}
	}
	return false
}

// ToolAllowed reports whether toolID is permitted under mode, matching
// glob patterns (e.g. "lsp_*") in AllowedTools via doublestar.
func ToolAllowed(m *types.Mode, toolID string) bool {
	for _, pattern := range m.AllowedTools {
		if pattern == toolID {
			return true
		}
		if strings.ContainsAny(pattern, "*?[") {
			if matched, _ := doublestar.Match(pattern, toolID); matched {
				return true
			}
		}
	}
	return false
}

// BuiltInModes returns the four built-in modes and their allowed-tool
// sets, matching the external interface's mode -> tool table exactly.
func BuiltInModes() map[string]types.Mode {
	return map[string]types.Mode{
		"default": {
			Name:         "default",
			Description:  "General-purpose coding assistant mode",
			SystemPrompt: "You are operating in default mode: make the requested changes directly, running commands and editing files as needed.",
			AllowedTools: []string{"bash", "read", "write", "edit", "grep"},
		},
		"review": {
			Name:         "review",
			Description:  "Read-only mode for code review and analysis",
			SystemPrompt: "You are operating in review mode: read and search the codebase to answer questions or critique changes. Do not modify files or run commands.",
			AllowedTools: []string{"read", "grep"},
		},
		"debug": {
			Name:         "debug",
			Description:  "Investigation mode: run commands and inspect code, with targeted edits",
			SystemPrompt: "You are operating in debug mode: reproduce and diagnose the issue with commands and reads, making only the targeted edits needed to fix it.",
			AllowedTools: []string{"bash", "read", "edit", "grep"},
		},
		"refactor": {
			Name:         "refactor",
			Description:  "Multi-file restructuring mode",
			SystemPrompt: "You are operating in refactor mode: restructure code across files while preserving behavior.",
			AllowedTools: []string{"read", "write", "edit", "grep", "bash"},
		},
	}
}
