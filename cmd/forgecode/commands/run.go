package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgecode-ai/agent/pkg/types"
	"github.com/spf13/cobra"
)

var (
	runModel    string
	runMode     string
	runContinue bool
	runSession  string
	runDir      string
)

var runCmd = &cobra.Command{
	Use:   "run [message...]",
	Short: "Run a single turn against the agent",
	Long: `Run a single turn against the agent and print the assistant's reply.

Examples:
  forgecode run "Fix the bug in main.go"
  forgecode run --model anthropic/claude-sonnet-4-20250514 "Explain this code"
  forgecode run --continue "keep going"
  forgecode run --session sess_abc123 "what did we decide?"`,
	RunE: runInteractive,
}

func init() {
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use (provider/model format)")
	runCmd.Flags().StringVar(&runMode, "mode", "default", "Mode to use")
	runCmd.Flags().BoolVarP(&runContinue, "continue", "c", false, "Continue the most recently updated session")
	runCmd.Flags().StringVarP(&runSession, "session", "s", "", "Session ID to continue")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Working directory")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(runDir)
	if err != nil {
		return err
	}

	message := strings.Join(args, " ")
	if message == "" {
		return fmt.Errorf("message required. Usage: forgecode run \"your message\"")
	}

	model := runModel
	if model == "" {
		model = GetGlobalModel()
	}

	ctx := cmd.Context()
	c, err := buildCore(ctx, workDir, model)
	if err != nil {
		return err
	}

	sess, err := resolveRunSession(ctx, c, runSession, runContinue, runMode)
	if err != nil {
		return err
	}

	fmt.Printf("session %s (mode: %s)\n\n", sess.ID, sess.Mode)

	chunks, err := c.orch.RunTurn(ctx, sess.ID, message)
	if err != nil {
		return fmt.Errorf("running turn: %w", err)
	}

	if err := printChunks(chunks); err != nil {
		return err
	}

	fmt.Println()
	return nil
}

// resolveRunSession picks the session a turn runs against: an explicit
// --session id, the most recently updated session for --continue, or a
// freshly created one otherwise.
func resolveRunSession(ctx context.Context, c *core, sessionID string, continueLast bool, mode string) (*types.Session, error) {
	if sessionID != "" {
		sess, err := c.sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", sessionID, err)
		}
		if sess == nil {
			return nil, fmt.Errorf("session not found: %s", sessionID)
		}
		return sess, nil
	}

	if continueLast {
		sessions, err := c.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing sessions: %w", err)
		}
		if len(sessions) > 0 {
			return sessions[0], nil
		}
	}

	return c.sessions.Create(ctx, mode)
}

// printChunks renders a turn's stream to stdout, returning the first
// error chunk's message as an error once the stream completes.
func printChunks(chunks <-chan types.StreamChunk) error {
	var firstErr error
	for chunk := range chunks {
		switch chunk.Kind {
		case types.ChunkContent:
			fmt.Print(chunk.Text)
		case types.ChunkToolStart:
			fmt.Printf("\n[%s running...]\n", chunk.ToolName)
		case types.ChunkToolResult:
			fmt.Printf("[%s done]\n", chunk.ToolName)
		case types.ChunkToolError:
			fmt.Printf("[%s failed: %s]\n", chunk.ToolName, chunk.Message)
		case types.ChunkError:
			if firstErr == nil {
				firstErr = fmt.Errorf("%s", chunk.Message)
			}
		}
	}
	return firstErr
}
