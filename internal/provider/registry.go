package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/forgecode-ai/agent/internal/credential"
	"github.com/forgecode-ai/agent/internal/oauth"
	"github.com/forgecode-ai/agent/pkg/types"
)

// Registry holds the set of configured providers and resolves model
// references against them.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	config    *types.Config
}

// NewRegistry creates an empty registry bound to config (used to resolve
// the default model).
func NewRegistry(config *types.Config) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		config:    config,
	}
}

// Register adds or replaces a provider in the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get retrieves a provider by id.
func (r *Registry) Get(providerID string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", providerID)
	}
	return p, nil
}

// List returns every registered provider.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// GetModel finds a specific model descriptor on a provider.
func (r *Registry) GetModel(providerID, modelID string) (*types.ModelDescriptor, error) {
	p, err := r.Get(providerID)
	if err != nil {
		return nil, err
	}

	for _, m := range p.Info().Models {
		if m.ID == modelID {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("model not found: %s/%s", providerID, modelID)
}

// AllModels returns every model from every registered provider, ranked by
// rough capability priority.
func (r *Registry) AllModels() []types.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var models []types.ModelDescriptor
	for _, p := range r.providers {
		models = append(models, p.Info().Models...)
	}

	sort.Slice(models, func(i, j int) bool {
		return modelPriority(models[i].ID) > modelPriority(models[j].ID)
	})
	return models
}

// DefaultModel resolves config.Model (or a built-in fallback) to a
// provider id and model descriptor.
func (r *Registry) DefaultModel() (providerID string, model *types.ModelDescriptor, err error) {
	if r.config != nil && r.config.Model != "" {
		pid, mid := ParseModelString(r.config.Model)
		m, err := r.GetModel(pid, mid)
		if err != nil {
			return "", nil, err
		}
		return pid, m, nil
	}

	if m, err := r.GetModel("anthropic", "claude-sonnet-4-20250514"); err == nil {
		return "anthropic", m, nil
	}

	models := r.AllModels()
	if len(models) == 0 {
		return "", nil, fmt.Errorf("no models available")
	}
	return "", &models[0], nil
}

// ParseModelString splits a "provider/model" reference. A bare model id
// with no provider prefix is returned with an empty provider id.
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}

func modelPriority(modelID string) int {
	switch {
	case strings.Contains(modelID, "gpt-5"):
		return 100
	case strings.Contains(modelID, "claude-sonnet-4"):
		return 90
	case strings.Contains(modelID, "claude-opus"):
		return 85
	case strings.Contains(modelID, "gpt-4o"), strings.Contains(modelID, "gpt-4.1"):
		return 80
	case strings.Contains(modelID, "claude-3.5"), strings.Contains(modelID, "claude-3-5"):
		return 75
	default:
		return 50
	}
}

// InitializeProviders builds and registers the three built-in providers
// (anthropic, openai, copilot) from merged config and the credential store,
// skipping any provider left unconfigured or explicitly disabled.
func InitializeProviders(ctx context.Context, config *types.Config, credStore *credential.Store) (*Registry, error) {
	registry := NewRegistry(config)

	if cfg, ok := config.Provider["anthropic"]; !ok || !cfg.Disable {
		apiKey := resolveAPIKey(credStore, config, "anthropic")
		if apiKey != "" {
			p, err := NewAnthropicProvider(AnthropicConfig{
				ID:      "anthropic",
				APIKey:  apiKey,
				BaseURL: config.Provider["anthropic"].BaseURL,
			})
			if err == nil {
				registry.Register(p)
			}
		}
	}

	if cfg, ok := config.Provider["openai"]; !ok || !cfg.Disable {
		apiKey := resolveAPIKey(credStore, config, "openai")
		baseURL := config.Provider["openai"].BaseURL
		if apiKey != "" || baseURL != "" {
			p, err := NewOpenAIProvider(OpenAIConfig{
				ID:      "openai",
				APIKey:  apiKey,
				BaseURL: baseURL,
			})
			if err == nil {
				registry.Register(p)
			}
		}
	}

	if cfg, ok := config.Provider[oauth.ProviderID]; !ok || !cfg.Disable {
		if credStore != nil {
			manager := oauth.NewManager(credStore)
			if manager.IsAuthenticated(ctx) {
				registry.Register(NewCopilotProvider(manager))
			}
		}
	}

	return registry, nil
}

// resolveAPIKey prefers a credential stored via the credential store (set
// through `auth login`) over a plaintext key in the config file.
func resolveAPIKey(credStore *credential.Store, config *types.Config, providerID string) string {
	if credStore != nil {
		if cred, ok := credStore.Get(providerID); ok && cred.IsAPIKey() {
			return cred.Key
		}
	}
	if cfg, ok := config.Provider[providerID]; ok {
		return cfg.APIKey
	}
	return ""
}
