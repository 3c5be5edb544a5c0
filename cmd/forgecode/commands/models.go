package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsVerbose bool

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List available models",
	Long: `List all available models from configured providers.

Examples:
  forgecode models              # List all models
  forgecode models anthropic    # List only Anthropic models
  forgecode models --verbose    # Show pricing information`,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().BoolVarP(&modelsVerbose, "verbose", "v", false, "Include metadata like per-token pricing")
}

func runModels(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	c, err := buildCore(cmd.Context(), workDir, "")
	if err != nil {
		return err
	}

	var providerFilter string
	if len(args) > 0 {
		providerFilter = args[0]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if modelsVerbose {
		fmt.Fprintln(w, "PROVIDER\tMODEL\tCONTEXT\tIN $/1M\tOUT $/1M\t")
	} else {
		fmt.Fprintln(w, "PROVIDER\tMODEL\tCONTEXT\tTOOLS\tSTREAMING\t")
	}

	for _, p := range c.providers.List() {
		info := p.Info()
		if providerFilter != "" && info.ID != providerFilter {
			continue
		}

		for _, model := range info.Models {
			if modelsVerbose {
				fmt.Fprintf(w, "%s\t%s\t%dk\t$%.2f\t$%.2f\t\n",
					info.ID, model.ID, model.ContextLength/1000, model.CostIn, model.CostOut)
			} else {
				fmt.Fprintf(w, "%s\t%s\t%dk\t%t\t%t\t\n",
					info.ID, model.ID, model.ContextLength/1000, model.SupportsTools, model.SupportsStreaming)
			}
		}
	}

	return w.Flush()
}
