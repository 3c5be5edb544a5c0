package commands

import (
	"context"
	"fmt"

	"github.com/forgecode-ai/agent/internal/config"
	"github.com/forgecode-ai/agent/internal/credential"
	"github.com/forgecode-ai/agent/internal/mode"
	"github.com/forgecode-ai/agent/internal/provider"
	"github.com/forgecode-ai/agent/internal/session"
	"github.com/forgecode-ai/agent/internal/storage"
	"github.com/forgecode-ai/agent/internal/tool"
	"github.com/forgecode-ai/agent/pkg/types"
)

// core bundles the collaborators every turn-running command needs, wired
// the same way regardless of which subcommand assembled them.
type core struct {
	config    *types.Config
	store     *storage.Storage
	sessions  *session.Store
	providers *provider.Registry
	modes     *mode.Registry
	tools     *tool.Registry
	orch      *session.Orchestrator
}

// buildCore loads configuration and wires the Session Store, Mode
// Registry, Tool Registry, Provider Registry, and Chat Orchestrator
// against workDir, the thin skin's one entrypoint into the agent core.
func buildCore(ctx context.Context, workDir, modelOverride string) (*core, error) {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, fmt.Errorf("preparing paths: %w", err)
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if modelOverride != "" {
		cfg.Model = modelOverride
	}

	credStore := credential.New(paths.CredentialPath())
	providers, err := provider.InitializeProviders(ctx, cfg, credStore)
	if err != nil {
		return nil, fmt.Errorf("initializing providers: %w", err)
	}

	store := storage.New(paths.StoragePath())

	modes := mode.NewRegistry()
	for _, m := range mode.BuiltInModes() {
		m := m
		modes.Register(&m)
	}
	modes.ApplyConfig(cfg.Mode)

	tools := tool.DefaultRegistry(workDir, store)

	sessions := session.NewStore(store)
	orch := session.NewOrchestrator(providers, modes, tools, sessions, cfg)

	return &core{
		config:    cfg,
		store:     store,
		sessions:  sessions,
		providers: providers,
		modes:     modes,
		tools:     tools,
		orch:      orch,
	}, nil
}
