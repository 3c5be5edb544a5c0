package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/forgecode-ai/agent/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long:  `Inspect the merged configuration and the filesystem paths it's loaded from.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration as JSON",
	RunE:  runConfigShow,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the data/config/cache/state paths forgecode uses",
	RunE:  runConfigPaths,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(data))
	return nil
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	fmt.Println("forgecode paths:")
	fmt.Println()
	fmt.Printf("  Config:     %s\n", paths.Config)
	fmt.Printf("  Data:       %s\n", paths.Data)
	fmt.Printf("  Cache:      %s\n", paths.Cache)
	fmt.Printf("  State:      %s\n", paths.State)
	fmt.Printf("  Storage:    %s\n", paths.StoragePath())
	fmt.Printf("  Credential: %s\n", paths.CredentialPath())
	fmt.Printf("  Global config:  %s\n", config.GlobalConfigPath())
	fmt.Printf("  Project config: %s\n", config.ProjectConfigPath(workDir))

	return nil
}
