package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/forgecode-ai/agent/internal/errkind"
	"github.com/forgecode-ai/agent/pkg/types"
)

// AnthropicProvider implements Provider over the direct Anthropic Messages API.
type AnthropicProvider struct {
	id     string
	client anthropic.Client
	apiKey string
}

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	ID      string // defaults to "anthropic"
	APIKey  string
	BaseURL string
}

// NewAnthropicProvider constructs an AnthropicProvider.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errkind.New(errkind.AuthMissing, fmt.Errorf("anthropic: API key is required"))
	}

	id := cfg.ID
	if id == "" {
		id = "anthropic"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		id:     id,
		client: anthropic.NewClient(opts...),
		apiKey: cfg.APIKey,
	}, nil
}

func (p *AnthropicProvider) ID() string { return p.id }

func (p *AnthropicProvider) Info() types.ProviderDescriptor {
	return types.ProviderDescriptor{
		ID:           p.id,
		Name:         "Anthropic",
		RequiresAuth: true,
		Models:       anthropicModels(),
	}
}

func (p *AnthropicProvider) IsAuthenticated(ctx context.Context) bool {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude3_5HaikuLatest,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	return err == nil
}

func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}

	resp := &ChatResponse{
		FinishReason: string(msg.StopReason),
		Usage: &types.Usage{
			Prompt:     int(msg.Usage.InputTokens),
			Completion: int(msg.Usage.OutputTokens),
			Total:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Content += block.Text
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(args),
			})
		}
	}

	return resp, nil
}

func (p *AnthropicProvider) ChatStreaming(ctx context.Context, req ChatRequest) (ChunkStream, bool, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, false, err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	return newAnthropicChunkStream(stream), true, nil
}

func (p *AnthropicProvider) buildParams(req ChatRequest) (anthropic.MessageNewParams, error) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, m := range req.Messages {
		if m.Role == types.RoleSystem {
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
			continue
		}

		var content []anthropic.ContentBlockParamUnion
		if m.Content != "" {
			content = append(content, anthropic.NewTextBlock(m.Content))
		}
		if m.Role == types.RoleTool {
			content = append(content, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false))
		}
		for _, tc := range m.ToolCalls {
			var input map[string]any
			if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
				return anthropic.MessageNewParams{}, errkind.New(errkind.ToolInvalidArgs, err)
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}

		if m.Role == types.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(content...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(content...))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	if len(req.Tools) > 0 {
		tools := make([]anthropic.ToolUnionParam, 0, len(req.Tools))
		for _, t := range req.Tools {
			var schema anthropic.ToolInputSchemaParam
			if err := json.Unmarshal(t.Parameters, &schema); err != nil {
				return anthropic.MessageNewParams{}, errkind.New(errkind.ToolInvalidArgs, err)
			}
			tp := anthropic.ToolUnionParamOfTool(schema, t.Name)
			if tp.OfTool != nil {
				tp.OfTool.Description = anthropic.String(t.Description)
			}
			tools = append(tools, tp)
		}
		params.Tools = tools
	}

	return params, nil
}

func anthropicModels() []types.ModelDescriptor {
	return []types.ModelDescriptor{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextLength: 200000, SupportsTools: true, SupportsStreaming: true, CostIn: 3.0, CostOut: 15.0},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ContextLength: 200000, SupportsTools: true, SupportsStreaming: true, CostIn: 15.0, CostOut: 75.0},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextLength: 200000, SupportsTools: true, SupportsStreaming: true, CostIn: 3.0, CostOut: 15.0},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ContextLength: 200000, SupportsTools: true, SupportsStreaming: true, CostIn: 0.8, CostOut: 4.0},
	}
}
