package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/forgecode-ai/agent/internal/errkind"
	"github.com/forgecode-ai/agent/internal/storage"
)

// Registry manages tool registration and lookup, and packages the
// registered set as provider-facing schemas.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	workDir string
	storage *storage.Storage
}

// NewRegistry creates an empty registry rooted at workDir.
func NewRegistry(workDir string, store *storage.Storage) *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		workDir: workDir,
		storage: store,
	}
}

// Storage returns the registry's storage instance.
func (r *Registry) Storage() *storage.Storage {
	return r.storage
}

// WorkDir returns the registry's workspace root, the default filesystem
// scope its tools operate in.
func (r *Registry) WorkDir() string {
	return r.workDir
}

// Register adds a tool to the registry.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.ID()] = t
}

// Get retrieves a tool by ID.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// List returns every registered tool.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// ListAvailable returns the registered tools whose id appears in
// allowedIDs, sorted by id.
func (r *Registry) ListAvailable(allowedIDs []string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	allowed := make(map[string]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}

	tools := make([]Tool, 0, len(allowedIDs))
	for id, t := range r.tools {
		if allowed[id] {
			tools = append(tools, t)
		}
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].ID() < tools[j].ID() })
	return tools
}

// IDs returns all registered tool IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ToolSchema is the provider-facing function-calling declaration for a
// tool: id, description, and its JSON-schema parameters.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  []byte
}

// ToSchema packages tools as provider-tool-schema declarations.
func (r *Registry) ToSchema(tools []Tool) []ToolSchema {
	out := make([]ToolSchema, 0, len(tools))
	for _, t := range tools {
		out = append(out, ToolSchema{
			Name:        t.ID(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return out
}

// DefaultRegistry creates a registry with all built-in tools registered.
func DefaultRegistry(workDir string, store *storage.Storage) *Registry {
	r := NewRegistry(workDir, store)

	r.Register(NewReadTool(workDir))
	r.Register(NewWriteTool(workDir))
	r.Register(NewEditTool(workDir))
	r.Register(NewMultiEditTool(workDir))
	r.Register(NewPatchTool(workDir))
	r.Register(NewBashTool(workDir))
	r.Register(NewGlobTool(workDir))
	r.Register(NewGrepTool(workDir))
	r.Register(NewListTool(workDir))
	r.Register(NewWebFetchTool(workDir))
	r.Register(NewLSPDiagnosticsTool(workDir))
	r.Register(NewLSPHoverTool(workDir))
	r.Register(NewTaskTool(workDir))
	r.Register(NewTodoWriteTool(workDir, store))
	r.Register(NewTodoReadTool(workDir, store))
	r.Register(NewBatchTool(workDir, r))

	return r
}

// errUnknownTool is returned by Execute for an unregistered tool id.
func errUnknownTool(id string) error {
	return fmt.Errorf("tool not found: %s", id)
}

// Execute looks up id and runs it against input, recovering any panic
// raised by the tool's Execute method and turning it into a ToolRuntime
// error result rather than letting it propagate out of the caller's
// goroutine (spec §4.4, §7).
func (r *Registry) Execute(ctx context.Context, id string, input json.RawMessage, toolCtx *Context) (result *Result, err error) {
	t, ok := r.Get(id)
	if !ok {
		return nil, errUnknownTool(id)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = errkind.New(errkind.ToolRuntime, fmt.Errorf("tool %s panicked: %v", id, rec))
		}
	}()

	return t.Execute(ctx, input, toolCtx)
}
