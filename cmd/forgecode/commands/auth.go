package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/forgecode-ai/agent/internal/config"
	"github.com/forgecode-ai/agent/internal/credential"
	"github.com/forgecode-ai/agent/internal/oauth"
	"github.com/forgecode-ai/agent/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage provider credentials",
	Long: `Manage authentication credentials for AI providers.

Subcommands:
  list     List all configured providers and their status
  login    Log in to a provider
  logout   Log out from a provider`,
}

var authListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all providers and their status",
	RunE:    runAuthList,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [provider]",
	Short: "Log in to a provider",
	Long: `Log in to a provider.

github-copilot uses the device authorization flow: a code is printed for
you to enter at the verification URL, then this command polls until you
confirm. Every other provider (anthropic, openai) prompts for an API key.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Log out from a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthLogout,
}

func init() {
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
}

// envVarFor maps a provider id to the environment variable InitializeProviders
// also checks, so `auth list` reports the same authentication source the
// core actually resolves at turn time.
var envVarFor = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

func runAuthList(cmd *cobra.Command, args []string) error {
	paths := config.GetPaths()
	store := credential.New(paths.CredentialPath())
	stored := store.All()

	ids := map[string]bool{oauth.ProviderID: true}
	for id := range envVarFor {
		ids[id] = true
	}
	for id := range stored {
		ids[id] = true
	}
	names := make([]string, 0, len(ids))
	for id := range ids {
		names = append(names, id)
	}
	sort.Strings(names)

	fmt.Println("Provider Authentication Status:")
	fmt.Println()
	for _, id := range names {
		status := "not configured"
		if cred, ok := stored[id]; ok {
			if cred.IsOAuth() {
				status = "configured (oauth device flow)"
			} else {
				status = "configured (api key, stored)"
			}
		} else if envVar, ok := envVarFor[id]; ok && os.Getenv(envVar) != "" {
			status = fmt.Sprintf("configured (via %s)", envVar)
		}
		fmt.Printf("  %-16s %s\n", id, status)
	}

	fmt.Println()
	fmt.Printf("Credential store: %s\n", store.Path())
	return nil
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	providerID := args[0]
	paths := config.GetPaths()
	store := credential.New(paths.CredentialPath())

	if providerID == oauth.ProviderID {
		return runCopilotDeviceLogin(cmd, store)
	}

	fmt.Printf("Enter API key for %s: ", providerID)
	key, err := readSecret()
	if err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	if err := store.Set(providerID, types.NewAPIKeyCredential(key)); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}

	fmt.Printf("Successfully logged in to %s\n", providerID)
	return nil
}

func runCopilotDeviceLogin(cmd *cobra.Command, store *credential.Store) error {
	manager := oauth.NewManager(store)
	ctx := cmd.Context()

	auth, err := manager.StartDeviceFlow(ctx)
	if err != nil {
		return fmt.Errorf("starting device flow: %w", err)
	}

	fmt.Printf("First copy your one-time code: %s\n", auth.UserCode)
	fmt.Printf("Then open: %s\n", auth.VerificationURI)
	fmt.Println("Waiting for confirmation...")

	if err := manager.CompleteDeviceFlow(ctx, auth.DeviceCode, auth.Interval, auth.ExpiresIn); err != nil {
		return fmt.Errorf("completing device flow: %w", err)
	}

	fmt.Println("Successfully logged in to github-copilot")
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	providerID := args[0]
	paths := config.GetPaths()
	store := credential.New(paths.CredentialPath())

	if _, ok := store.Get(providerID); !ok {
		return fmt.Errorf("not logged in to %s", providerID)
	}

	if err := store.Remove(providerID); err != nil {
		return fmt.Errorf("removing credential: %w", err)
	}

	fmt.Printf("Successfully logged out from %s\n", providerID)
	return nil
}

// readSecret reads a line from stdin without echoing it when stdin is a
// terminal, falling back to a plain line read when it's piped (e.g. in
// tests or scripted logins).
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
