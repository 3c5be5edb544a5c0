package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

const taskDescription = `Stub for sub-agent delegation.

Describes a task that would be delegated to a sub-agent and returns a
descriptive placeholder; it does not spawn or run a sub-agent.`

// TaskTool is a placeholder for sub-agent delegation: it records the
// requested task and returns a descriptive result without dispatching
// any actual sub-agent work.
type TaskTool struct {
	workDir string
}

// TaskInput represents the input for the task tool.
type TaskInput struct {
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	SubagentType string `json:"subagentType"`
}

// NewTaskTool creates a new task tool.
func NewTaskTool(workDir string) *TaskTool {
	return &TaskTool{workDir: workDir}
}

func (t *TaskTool) ID() string          { return "task" }
func (t *TaskTool) Description() string { return taskDescription }

func (t *TaskTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"description": {
				"type": "string",
				"description": "A short (3-5 word) description of the task"
			},
			"prompt": {
				"type": "string",
				"description": "The detailed task that would be delegated to a sub-agent"
			},
			"subagentType": {
				"type": "string",
				"description": "The kind of sub-agent this task would be delegated to"
			}
		},
		"required": ["description", "prompt", "subagentType"]
	}`)
}

func (t *TaskTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params TaskInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if params.Description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if params.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if params.SubagentType == "" {
		return nil, fmt.Errorf("subagentType is required")
	}

	if toolCtx != nil {
		toolCtx.SetMetadata(params.Description, map[string]any{
			"subagent": params.SubagentType,
			"status":   "not delegated",
		})
	}

	return &Result{
		Title: fmt.Sprintf("Task: %s", params.Description),
		Output: fmt.Sprintf(
			"Sub-agent delegation is not available in this build. The task that would have been delegated:\n\nAgent type: %s\nPrompt: %s",
			params.SubagentType, params.Prompt,
		),
		Metadata: map[string]any{
			"subagent":    params.SubagentType,
			"status":      "stub",
			"description": params.Description,
		},
	}, nil
}
