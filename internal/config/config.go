package config

import (
	"os"
	"path/filepath"

	"encoding/json"

	"github.com/tidwall/jsonc"

	"github.com/forgecode-ai/agent/pkg/types"
)

// Load loads configuration from, in priority order: global config, project
// config, then environment variable overrides. Later sources win on a
// per-field basis, except that an API-key environment variable only fills
// in a provider key that no config file set; map-valued fields (Provider,
// Mode, Tools) are merged key by key rather than replaced wholesale.
func Load(directory string) (*types.Config, error) {
	config := &types.Config{
		Provider: make(map[string]types.ProviderConfig),
		Mode:     make(map[string]types.ModeConfig),
		Tools:    make(map[string]bool),
	}

	loadConfigFile(GlobalConfigPath(), config)
	if directory != "" {
		loadConfigFile(ProjectConfigPath(directory), config)
	}
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile merges one JSONC config file into config, if present.
func loadConfigFile(path string, config *types.Config) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fileConfig types.Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &fileConfig); err != nil {
		return
	}

	mergeConfig(config, &fileConfig)
}

func mergeConfig(target, source *types.Config) {
	if source.Model != "" {
		target.Model = source.Model
	}
	if source.SmallModel != "" {
		target.SmallModel = source.SmallModel
	}
	if len(source.Instructions) > 0 {
		target.Instructions = append(target.Instructions, source.Instructions...)
	}

	for k, v := range source.Provider {
		target.Provider[k] = v
	}
	for k, v := range source.Mode {
		target.Mode[k] = v
	}
	for k, v := range source.Tools {
		target.Tools[k] = v
	}
}

// applyEnvOverrides layers model overrides from the environment on top of
// file-based configuration, and uses API-key environment variables only for
// providers whose configuration sets no key.
func applyEnvOverrides(config *types.Config) {
	providerEnvVar := map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"openai":    "OPENAI_API_KEY",
	}

	for providerID, envVar := range providerEnvVar {
		apiKey := os.Getenv(envVar)
		if apiKey == "" {
			continue
		}
		p := config.Provider[providerID]
		if p.APIKey == "" {
			p.APIKey = apiKey
			config.Provider[providerID] = p
		}
	}

	if model := os.Getenv("FORGECODE_MODEL"); model != "" {
		config.Model = model
	}
	if smallModel := os.Getenv("FORGECODE_SMALL_MODEL"); smallModel != "" {
		config.SmallModel = smallModel
	}
}

// Save writes config as indented JSON to path, creating parent directories
// as needed.
func Save(config *types.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
