package provider

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"

	"github.com/forgecode-ai/agent/pkg/types"
)

// providerIntegrationConfig names the environment variables used to gate a
// single provider's live round-trip test.
type providerIntegrationConfig struct {
	name           string
	providerID     string
	apiKeyEnv      string
	modelIDEnv     string
	defaultModelID string
}

var providerIntegrationConfigs = []providerIntegrationConfig{
	{
		name:           "Anthropic",
		providerID:     "anthropic",
		apiKeyEnv:      "ANTHROPIC_API_KEY",
		modelIDEnv:     "ANTHROPIC_MODEL_ID",
		defaultModelID: "claude-3-5-haiku-20241022",
	},
	{
		name:           "OpenAI",
		providerID:     "openai",
		apiKeyEnv:      "OPENAI_API_KEY",
		modelIDEnv:     "OPENAI_MODEL_ID",
		defaultModelID: "gpt-4o-mini",
	},
}

// TestRegistry_LLMIntegration initializes the registry from config built
// from live environment API keys and exercises one real Chat round-trip per
// configured provider. Each provider is skipped independently when its key
// is absent.
func TestRegistry_LLMIntegration(t *testing.T) {
	_ = godotenv.Load("../../.env")

	for _, tc := range providerIntegrationConfigs {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			apiKey := os.Getenv(tc.apiKeyEnv)
			if apiKey == "" {
				t.Skipf("%s not set, skipping %s integration test", tc.apiKeyEnv, tc.name)
			}

			modelID := os.Getenv(tc.modelIDEnv)
			if modelID == "" {
				modelID = tc.defaultModelID
			}

			config := &types.Config{
				Model: tc.providerID + "/" + modelID,
				Provider: map[string]types.ProviderConfig{
					tc.providerID: {APIKey: apiKey},
				},
			}

			registry, err := InitializeProviders(context.Background(), config, nil)
			if err != nil {
				t.Fatalf("InitializeProviders failed: %v", err)
			}

			p, err := registry.Get(tc.providerID)
			if err != nil {
				t.Fatalf("Failed to get provider %s from registry: %v", tc.providerID, err)
			}

			resp, err := p.Chat(context.Background(), ChatRequest{
				Model:     modelID,
				Messages:  []Message{{Role: types.RoleUser, Content: "Say 'Hello, World!' and nothing else."}},
				MaxTokens: 50,
			})
			if err != nil {
				t.Fatalf("Chat failed: %v", err)
			}
			if resp.Content == "" {
				t.Error("Expected non-empty response")
			}
			t.Logf("[%s] Response: %s", tc.name, resp.Content)
		})
	}
}

// TestRegistry_MultiProvider verifies every configured provider with a live
// key ends up registered and retrievable from a single InitializeProviders
// call. Skipped entirely when no provider API key is configured.
func TestRegistry_MultiProvider(t *testing.T) {
	_ = godotenv.Load("../../.env")

	config := &types.Config{Provider: make(map[string]types.ProviderConfig)}
	var available []string

	for _, tc := range providerIntegrationConfigs {
		apiKey := os.Getenv(tc.apiKeyEnv)
		if apiKey == "" {
			continue
		}
		config.Provider[tc.providerID] = types.ProviderConfig{APIKey: apiKey}
		available = append(available, tc.providerID)
	}

	if len(available) == 0 {
		t.Skip("No provider API keys configured, skipping multi-provider test")
	}

	registry, err := InitializeProviders(context.Background(), config, nil)
	if err != nil {
		t.Fatalf("InitializeProviders failed: %v", err)
	}

	providers := registry.List()
	if len(providers) != len(available) {
		t.Errorf("Expected %d providers, got %d", len(available), len(providers))
	}

	for _, providerID := range available {
		if _, err := registry.Get(providerID); err != nil {
			t.Errorf("Failed to get provider %s: %v", providerID, err)
		}
	}
}
