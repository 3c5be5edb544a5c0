package provider

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/forgecode-ai/agent/internal/oauth"
	"github.com/forgecode-ai/agent/pkg/types"
)

const copilotChatURL = "https://api.githubcopilot.com"

// CopilotProvider is the device-flow coding-assistant provider: it speaks
// the OpenAI chat-completions wire format but authenticates through the
// GitHub Copilot device flow (internal/oauth) instead of a bare API key,
// and must stamp every request with the Copilot Chat header quadruple
// plus an X-Initiator header the backend uses for telemetry.
type CopilotProvider struct {
	id      string
	manager *oauth.Manager
	models  []types.ModelDescriptor
}

// NewCopilotProvider constructs a CopilotProvider backed by manager.
func NewCopilotProvider(manager *oauth.Manager) *CopilotProvider {
	return &CopilotProvider{id: "copilot", manager: manager, models: copilotModels()}
}

func (p *CopilotProvider) ID() string { return p.id }

func (p *CopilotProvider) Info() types.ProviderDescriptor {
	return types.ProviderDescriptor{
		ID:           p.id,
		Name:         "GitHub Copilot",
		RequiresAuth: true,
		Models:       p.models,
	}
}

func (p *CopilotProvider) IsAuthenticated(ctx context.Context) bool {
	return p.manager.IsAuthenticated(ctx)
}

func (p *CopilotProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	client, err := p.client(ctx, req)
	if err != nil {
		return nil, err
	}

	inner := &OpenAIProvider{id: p.id, client: client, models: p.models}
	return inner.Chat(ctx, req)
}

func (p *CopilotProvider) ChatStreaming(ctx context.Context, req ChatRequest) (ChunkStream, bool, error) {
	client, err := p.client(ctx, req)
	if err != nil {
		return nil, false, err
	}

	inner := &OpenAIProvider{id: p.id, client: client, models: p.models}
	return inner.ChatStreaming(ctx, req)
}

// client builds a go-openai client pointed at the Copilot chat endpoint,
// carrying a bearer token obtained from the device-flow manager and the
// fixed/derived header set the backend requires on every call.
func (p *CopilotProvider) client(ctx context.Context, req ChatRequest) (*openai.Client, error) {
	token, err := p.manager.GetAccessToken(ctx, false)
	if err != nil {
		return nil, err
	}

	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = copilotChatURL
	cfg.HTTPClient = &http.Client{
		Transport: &copilotTransport{
			token:     token,
			initiator: initiatorFor(req.Messages),
		},
	}

	return openai.NewClientWithConfig(cfg), nil
}

// initiatorFor implements spec's rule: "agent" once the conversation has
// already produced a tool or assistant turn, "user" for the opening turn.
func initiatorFor(messages []Message) string {
	for _, m := range messages {
		if m.Role == types.RoleTool || m.Role == types.RoleAssistant {
			return "agent"
		}
	}
	return "user"
}

// copilotTransport wraps the default transport to stamp every outgoing
// request with the Copilot Chat header quadruple, the bearer token, and
// the conversation-edits intent/initiator headers.
type copilotTransport struct {
	token     string
	initiator string
	base      http.RoundTripper
}

func (t *copilotTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Openai-Intent", "conversation-edits")
	req.Header.Set("X-Initiator", t.initiator)
	oauth.ApplyFixedHeaders(req)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func copilotModels() []types.ModelDescriptor {
	return []types.ModelDescriptor{
		{ID: "gpt-4o", Name: "GPT-4o (Copilot)", ContextLength: 128000, SupportsTools: true, SupportsStreaming: true},
		{ID: "gpt-4.1", Name: "GPT-4.1 (Copilot)", ContextLength: 128000, SupportsTools: true, SupportsStreaming: true},
		{ID: "claude-sonnet-4", Name: "Claude Sonnet 4 (Copilot)", ContextLength: 200000, SupportsTools: true, SupportsStreaming: true},
		{ID: "claude-3.5-sonnet", Name: "Claude 3.5 Sonnet (Copilot)", ContextLength: 200000, SupportsTools: true, SupportsStreaming: true},
	}
}
