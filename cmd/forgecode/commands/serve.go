package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/forgecode-ai/agent/internal/logging"
	"github.com/spf13/cobra"
)

var serveDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Process turns from stdin as newline-delimited JSON",
	Long: `Run forgecode as a long-lived pipe: each line of stdin is a JSON object
{"session": "<id or empty for a new session>", "message": "..."}, and each
turn's stream is written to stdout as newline-delimited StreamChunk JSON.

This is the integration surface for driving the agent from another
process; it does not expose an HTTP API.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory")
}

type serveRequest struct {
	Session string `json:"session"`
	Mode    string `json:"mode"`
	Message string `json:"message"`
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, err := buildCore(ctx, workDir, GetGlobalModel())
	if err != nil {
		return err
	}

	logging.Info().Str("directory", workDir).Msg("forgecode serve: reading turns from stdin")

	enc := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req serveRequest
		if err := json.Unmarshal(line, &req); err != nil {
			logging.Warn().Err(err).Msg("skipping malformed request line")
			continue
		}

		if err := serveOneTurn(ctx, c, req, enc); err != nil {
			logging.Error().Err(err).Msg("turn failed")
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	return nil
}

func serveOneTurn(ctx context.Context, c *core, req serveRequest, enc *json.Encoder) error {
	sess, err := resolveRunSession(ctx, c, req.Session, false, defaultString(req.Mode, "default"))
	if err != nil {
		return err
	}

	chunks, err := c.orch.RunTurn(ctx, sess.ID, req.Message)
	if err != nil {
		return err
	}

	for chunk := range chunks {
		if err := enc.Encode(chunk); err != nil {
			return err
		}
	}
	return nil
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
