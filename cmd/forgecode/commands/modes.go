package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/forgecode-ai/agent/internal/config"
	"github.com/forgecode-ai/agent/internal/mode"
	"github.com/spf13/cobra"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "List the available modes",
	Long: `List the built-in modes (default, review, debug, refactor) plus any
modes layered on top by project or global configuration.`,
	RunE: runModes,
}

func runModes(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	registry := mode.NewRegistry()
	for _, m := range mode.BuiltInModes() {
		m := m
		registry.Register(&m)
	}
	registry.ApplyConfig(cfg.Mode)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL HINT\tALLOWED TOOLS\t")
	for _, name := range registry.Names() {
		m, err := registry.Get(name)
		if err != nil {
			continue
		}
		tools := strings.Join(m.AllowedTools, ", ")
		if tools == "" {
			tools = "(none)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t\n", m.Name, m.ModelHint, tools)
	}
	return w.Flush()
}
