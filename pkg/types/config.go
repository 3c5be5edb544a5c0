package types

// Config is the merged global+project configuration.
type Config struct {
	Model      string `json:"model,omitempty"`      // "provider/model", e.g. "anthropic/claude-sonnet-4-20250514"
	SmallModel string `json:"smallModel,omitempty"` // loaded and merged only; title generation and compaction use the provider registry's default model

	// Provider holds per-provider overrides (API keys, base URLs, disable flags).
	Provider map[string]ProviderConfig `json:"provider,omitempty"`

	// Mode holds per-mode overrides layered on top of the built-in mode set.
	Mode map[string]ModeConfig `json:"mode,omitempty"`

	// Instructions lists additional instruction file paths folded into the
	// system prompt by the System Prompt Assembler (C8).
	Instructions []string `json:"instructions,omitempty"`

	// Tools globally enables/disables a tool by id, overriding mode defaults.
	Tools map[string]bool `json:"tools,omitempty"`
}

// ProviderConfig holds per-provider configuration overrides.
type ProviderConfig struct {
	APIKey  string `json:"apiKey,omitempty"`
	BaseURL string `json:"baseURL,omitempty"`
	Disable bool   `json:"disable,omitempty"`
}

// ModeConfig holds per-mode overrides (model hint, temperature, extra
// allowed tools) layered onto a built-in Mode definition.
type ModeConfig struct {
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	AllowedTools []string `json:"allowedTools,omitempty"`
	Prompt       string   `json:"prompt,omitempty"`
}
