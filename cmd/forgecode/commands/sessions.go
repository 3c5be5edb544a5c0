package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/forgecode-ai/agent/internal/config"
	"github.com/forgecode-ai/agent/internal/session"
	"github.com/forgecode-ai/agent/internal/storage"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions, most recently updated first",
	RunE:    runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print a session's messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:     "delete [session-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a session and all its messages",
	Args:    cobra.ExactArgs(1),
	RunE:    runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func sessionStore() *session.Store {
	paths := config.GetPaths()
	return session.NewStore(storage.New(paths.StoragePath()))
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	sessions, err := sessionStore().List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMODE\tMESSAGES\tUPDATED\t")
	for _, sess := range sessions {
		updated := time.UnixMilli(sess.Updated).Format(time.RFC3339)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t\n", sess.ID, sess.Title, sess.Mode, sess.MessageCount, updated)
	}
	return w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store := sessionStore()
	ctx := cmd.Context()

	sess, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session not found: %s", args[0])
	}

	messages, err := store.GetMessages(ctx, sess.ID)
	if err != nil {
		return err
	}

	fmt.Printf("session %s: %q (mode: %s)\n\n", sess.ID, sess.Title, sess.Mode)
	for _, msg := range messages {
		fmt.Printf("[%s] %s\n\n", msg.Role, msg.Text())
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	if err := sessionStore().Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}
