package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forgecode-ai/agent/internal/errkind"
	"github.com/forgecode-ai/agent/pkg/types"
)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible
// (self-hosted, Azure, local-model-server) chat-completions backends.
type OpenAIProvider struct {
	id     string
	client *openai.Client
	models []types.ModelDescriptor
}

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	ID      string // defaults to "openai"
	APIKey  string
	BaseURL string // set for OpenAI-compatible endpoints
}

// NewOpenAIProvider constructs an OpenAIProvider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errkind.New(errkind.AuthMissing, errors.New("openai: API key or base URL is required"))
	}

	id := cfg.ID
	if id == "" {
		id = "openai"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		id:     id,
		client: openai.NewClientWithConfig(clientCfg),
		models: openAIModels(),
	}, nil
}

func (p *OpenAIProvider) ID() string { return p.id }

func (p *OpenAIProvider) Info() types.ProviderDescriptor {
	return types.ProviderDescriptor{
		ID:           p.id,
		Name:         "OpenAI",
		RequiresAuth: true,
		Models:       p.models,
	}
}

func (p *OpenAIProvider) IsAuthenticated(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	params := p.buildParams(req)

	resp, err := p.client.CreateChatCompletion(ctx, params)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}
	if len(resp.Choices) == 0 {
		return nil, errkind.New(errkind.ProviderProtocol, errors.New("openai: empty choices"))
	}

	choice := resp.Choices[0]
	out := &ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: &types.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func (p *OpenAIProvider) ChatStreaming(ctx context.Context, req ChatRequest) (ChunkStream, bool, error) {
	params := p.buildParams(req)
	params.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, params)
	if err != nil {
		return nil, false, errkind.New(errkind.ProviderTransport, err)
	}
	return newOpenAIChunkStream(stream), true, nil
}

func (p *OpenAIProvider) buildParams(req ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		messages = append(messages, msg)
	}

	params := openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		params.Temperature = float32(req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.Tool, 0, len(req.Tools))
		for _, t := range req.Tools {
			tools = append(tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  json.RawMessage(t.Parameters),
				},
			})
		}
		params.Tools = tools
	}

	return params
}

func openAIModels() []types.ModelDescriptor {
	return []types.ModelDescriptor{
		{ID: "gpt-5", Name: "GPT-5", ContextLength: 272000, SupportsTools: true, SupportsStreaming: true, CostIn: 1.25, CostOut: 10.0},
		{ID: "gpt-5-mini", Name: "GPT-5 Mini", ContextLength: 272000, SupportsTools: true, SupportsStreaming: true, CostIn: 0.25, CostOut: 2.0},
		{ID: "gpt-4o", Name: "GPT-4o", ContextLength: 128000, SupportsTools: true, SupportsStreaming: true, CostIn: 2.5, CostOut: 10.0},
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", ContextLength: 128000, SupportsTools: true, SupportsStreaming: true, CostIn: 0.15, CostOut: 0.6},
		{ID: "o1", Name: "O1", ContextLength: 200000, SupportsTools: true, SupportsStreaming: true, CostIn: 15.0, CostOut: 60.0},
	}
}

// openAIChunkStream adapts go-openai's delta stream into ProviderChunk.
type openAIChunkStream struct {
	raw  *openai.ChatCompletionStream
	done bool
}

func newOpenAIChunkStream(raw *openai.ChatCompletionStream) *openAIChunkStream {
	return &openAIChunkStream{raw: raw}
}

func (s *openAIChunkStream) Recv() (ProviderChunk, bool) {
	if s.done {
		return ProviderChunk{}, false
	}

	resp, err := s.raw.Recv()
	if errors.Is(err, io.EOF) {
		s.done = true
		return ProviderChunk{Kind: ChunkComplete}, true
	}
	if err != nil {
		s.done = true
		return ProviderChunk{Kind: ChunkError, Err: errkind.New(errkind.ProviderTransport, err)}, true
	}
	if len(resp.Choices) == 0 {
		return ProviderChunk{Kind: ChunkContent, Delta: ""}, true
	}

	delta := resp.Choices[0].Delta
	if len(delta.ToolCalls) > 0 {
		calls := make([]ToolCall, 0, len(delta.ToolCalls))
		for _, tc := range delta.ToolCalls {
			calls = append(calls, ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
		}
		return ProviderChunk{Kind: ChunkToolCalls, ToolCalls: calls}, true
	}
	if resp.Choices[0].FinishReason != "" {
		s.done = true
		return ProviderChunk{Kind: ChunkComplete}, true
	}
	return ProviderChunk{Kind: ChunkContent, Delta: delta.Content}, true
}

func (s *openAIChunkStream) Close() {
	s.raw.Close()
}
