package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

const (
	// DefaultBashTimeout is used when the caller does not specify one.
	DefaultBashTimeout = 60 * time.Second
	// MaxBashTimeout is the hard cap on a requested timeout.
	MaxBashTimeout = 600 * time.Second
	// MaxStreamOutput is the per-stream (stdout, stderr) truncation limit in bytes.
	MaxStreamOutput = 30000
	// SigkillTimeout is how long SIGTERM is given to land before SIGKILL.
	SigkillTimeout = 200 * time.Millisecond
)

const bashDescription = `Executes a bash command in a new shell process; no shell state carries over between calls.

Usage:
- Command is required
- Optional timeout in milliseconds (max 600000, default 60000)
- Provide a brief description of what the command does
- stdout and stderr are captured separately, each truncated at 30000 bytes
- Commands are run with process group for proper cleanup`

// BashTool implements shell command execution.
type BashTool struct {
	workDir string
	shell   string
}

// BashInput represents the input for the bash tool.
type BashInput struct {
	Command     string `json:"command"`
	Timeout     int    `json:"timeout,omitempty"` // milliseconds
	Description string `json:"description"`
}

// NewBashTool creates a new bash tool.
func NewBashTool(workDir string) *BashTool {
	return &BashTool{
		workDir: workDir,
		shell:   detectShell(),
	}
}

func detectShell() string {
	if s := os.Getenv("SHELL"); s != "" {
		if s != "/bin/fish" && s != "/usr/bin/fish" &&
			s != "/bin/nu" && s != "/usr/bin/nu" {
			return s
		}
	}

	if runtime.GOOS == "darwin" {
		return "/bin/zsh"
	}
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}

	if bash, err := exec.LookPath("bash"); err == nil {
		return bash
	}

	return "/bin/sh"
}

// primaryCommand parses command as a shell script and returns the name of
// the first simple command, for structured logging/metadata. It never
// rejects or rewrites the command; parse failures just yield "".
func primaryCommand(command string) string {
	parser := syntax.NewParser()
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return ""
	}

	var name string
	syntax.Walk(file, func(node syntax.Node) bool {
		if name != "" {
			return false
		}
		if call, ok := node.(*syntax.CallExpr); ok && len(call.Args) > 0 {
			var buf bytes.Buffer
			printer := syntax.NewPrinter()
			if err := printer.Print(&buf, call.Args[0]); err == nil {
				name = buf.String()
			}
			return false
		}
		return true
	})
	return name
}

func (t *BashTool) ID() string          { return "bash" }
func (t *BashTool) Description() string { return bashDescription }

func (t *BashTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {
				"type": "string",
				"description": "The command to execute"
			},
			"timeout": {
				"type": "integer",
				"description": "Optional timeout in milliseconds (max 600000)"
			},
			"description": {
				"type": "string",
				"description": "Brief description of what this command does"
			}
		},
		"required": ["command", "description"]
	}`)
}

func (t *BashTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params BashInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	timeout := DefaultBashTimeout
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Millisecond
		if timeout > MaxBashTimeout {
			timeout = MaxBashTimeout
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cmdCtx, t.shell, "/c", params.Command)
	} else {
		cmd = exec.CommandContext(cmdCtx, t.shell, "-c", params.Command)
	}

	if toolCtx != nil && toolCtx.WorkDir != "" {
		cmd.Dir = toolCtx.WorkDir
	} else if t.workDir != "" {
		cmd.Dir = t.workDir
	}

	cmd.Env = os.Environ()

	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmdName := primaryCommand(params.Command)

	if toolCtx != nil {
		toolCtx.SetMetadata(params.Description, map[string]any{
			"command":     cmdName,
			"description": params.Description,
		})
	}

	runErr := cmd.Run()
	timedOut := cmdCtx.Err() == context.DeadlineExceeded

	outStr, outTruncated := truncateStream(stdout.String())
	errStr, errTruncated := truncateStream(stderr.String())

	var output strings.Builder
	output.WriteString(outStr)
	if outTruncated {
		output.WriteString(fmt.Sprintf("\n\n(stdout truncated at %d bytes)", MaxStreamOutput))
	}
	if errStr != "" {
		output.WriteString("\n")
		output.WriteString(errStr)
		if errTruncated {
			output.WriteString(fmt.Sprintf("\n\n(stderr truncated at %d bytes)", MaxStreamOutput))
		}
	}

	if timedOut {
		t.killProcess(cmd)
		return &Result{
			Title:  params.Description,
			Output: fmt.Sprintf("Command timed out after %v\n\n%s", timeout, output.String()),
			Metadata: map[string]any{
				"command":     cmdName,
				"description": params.Description,
				"timedOut":    true,
			},
		}, fmt.Errorf("command timed out after %v", timeout)
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			output.WriteString(fmt.Sprintf("\n\nError: %v", runErr))
		}
	}

	title := params.Description
	if title == "" {
		title = "Run command"
	}

	return &Result{
		Title:  title,
		Output: output.String(),
		Metadata: map[string]any{
			"command":     cmdName,
			"exit":        exitCode,
			"description": params.Description,
		},
	}, nil
}

func truncateStream(s string) (string, bool) {
	if len(s) <= MaxStreamOutput {
		return s, false
	}
	return s[:MaxStreamOutput], true
}

func (t *BashTool) killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}

	pid := cmd.Process.Pid

	if runtime.GOOS == "windows" {
		exec.Command("taskkill", "/pid", fmt.Sprint(pid), "/f", "/t").Run()
		return
	}

	syscall.Kill(-pid, syscall.SIGTERM)
	time.Sleep(SigkillTimeout)

	if cmd.ProcessState == nil {
		syscall.Kill(-pid, syscall.SIGKILL)
	}
}
