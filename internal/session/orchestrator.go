package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"

	"github.com/forgecode-ai/agent/internal/errkind"
	"github.com/forgecode-ai/agent/internal/logging"
	"github.com/forgecode-ai/agent/internal/mode"
	"github.com/forgecode-ai/agent/internal/provider"
	"github.com/forgecode-ai/agent/internal/tool"
	"github.com/forgecode-ai/agent/pkg/types"
)

const (
	// maxToolDepth is the depth cap on model-turn re-invocation within a
	// single user turn: a fixed small value is acceptable per §4.7.
	maxToolDepth = 8

	// maxRetries/RetryXxx mirror the teacher's exponential-backoff-with-
	// jitter idiom for provider-call retries.
	maxRetries           = 3
	retryInitialInterval = time.Second
	retryMaxInterval     = 30 * time.Second
	retryMaxElapsedTime  = 2 * time.Minute

	// synthChunkSize is the slice width used to turn a non-streaming
	// ChatResponse into synthesised content chunks.
	synthChunkSize = 20
	// synthPacingDelay paces synthesised chunks so downstream consumers
	// see the same cadence a real stream would produce.
	synthPacingDelay = 15 * time.Millisecond

	// chunkQueueSize bounds the channel between the orchestrator and its
	// consumer; a full queue blocks the orchestrator at the next enqueue
	// rather than dropping chunks.
	chunkQueueSize = 64
)

// newRetryBackoff builds an exponential backoff with jitter, bounded by
// ctx, for provider-call retries.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsedTime
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

// Orchestrator is the Chat Orchestrator (C10): it runs one user turn to
// completion, dispatching tool calls through the Tool Registry and
// persisting the result through the Session Store.
type Orchestrator struct {
	providers *provider.Registry
	modes     *mode.Registry
	tools     *tool.Registry
	store     *Store
	config    *types.Config
}

// NewOrchestrator wires the collaborators a turn needs: provider and mode
// registries for resolution, the tool registry for dispatch, and the
// session store for persistence.
func NewOrchestrator(providers *provider.Registry, modes *mode.Registry, tools *tool.Registry, store *Store, cfg *types.Config) *Orchestrator {
	return &Orchestrator{providers: providers, modes: modes, tools: tools, store: store, config: cfg}
}

// RunTurn executes the algorithm of §4.7 for one user message and returns a
// channel of StreamChunk values; the channel is closed after the terminal
// complete chunk. The caller cancels a turn by cancelling ctx.
func (o *Orchestrator) RunTurn(ctx context.Context, sessionID, userText string) (<-chan types.StreamChunk, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, errkind.New(errkind.PersistFailure, err)
	}
	if sess == nil {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}

	m, err := o.modes.Get(sess.Mode)
	if err != nil {
		m, err = o.modes.Get("default")
		if err != nil {
			return nil, err
		}
	}

	providerID, modelID, err := o.resolveModel(m)
	if err != nil {
		return nil, errkind.New(errkind.AuthMissing, err)
	}
	p, err := o.providers.Get(providerID)
	if err != nil {
		return nil, errkind.New(errkind.AuthMissing, err)
	}

	history, err := o.store.GetMessages(ctx, sessionID)
	if err != nil {
		return nil, errkind.New(errkind.PersistFailure, err)
	}
	history = CompactHistory(ctx, o.providers, history)

	userMsg := &types.Message{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Role:      types.RoleUser,
		Parts:     []types.Part{types.NewTextPart(userText, nowMillis())},
		Timestamp: nowMillis(),
	}
	firstMessage := sess.MessageCount == 0
	if err := o.store.AddMessage(ctx, sessionID, userMsg); err != nil {
		return nil, errkind.New(errkind.PersistFailure, err)
	}
	if firstMessage {
		go GenerateTitle(context.Background(), o.store, o.providers, sess, userText)
	}

	out := make(chan types.StreamChunk, chunkQueueSize)
	go o.runTurn(ctx, p, modelID, m, sessionID, history, userMsg, out)
	return out, nil
}

func (o *Orchestrator) resolveModel(m *types.Mode) (providerID, modelID string, err error) {
	if m != nil && m.ModelHint != "" {
		providerID, modelID = provider.ParseModelString(m.ModelHint)
		if providerID != "" {
			return providerID, modelID, nil
		}
	}
	if o.config != nil && o.config.Model != "" {
		providerID, modelID = provider.ParseModelString(o.config.Model)
		return providerID, modelID, nil
	}
	providerID, model, err := o.providers.DefaultModel()
	if err != nil {
		return "", "", err
	}
	return providerID, model.ID, nil
}

// runTurn is step 1-6 of §4.7, running on its own goroutine so RunTurn can
// return the consumer channel immediately.
func (o *Orchestrator) runTurn(
	ctx context.Context,
	p provider.Provider,
	modelID string,
	m *types.Mode,
	sessionID string,
	history []*types.Message,
	userMsg *types.Message,
	out chan<- types.StreamChunk,
) {
	defer close(out)

	allowed := o.tools.ListAvailable(m.AllowedTools)
	schemas := toProviderTools(o.tools.ToSchema(allowed))

	messages := buildRequestMessages(modelID, m, o.tools.WorkDir(), o.config, history, userMsg)

	temperature := 0.0
	if m.Temperature != nil {
		temperature = *m.Temperature
	}

	assistantText := ""
	depth := 0

	for {
		if ctx.Err() != nil {
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkError, Message: "cancelled"})
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkComplete})
			return
		}

		req := provider.ChatRequest{
			Model:       modelID,
			Messages:    messages,
			Tools:       schemas,
			Temperature: temperature,
			MaxTokens:   m.MaxTokens,
			Stream:      true,
		}
		toolCalls, text, usage, kind, errMsg := o.invokeOnce(ctx, p, req, out)
		assistantText += text

		if kind == errkind.Cancelled {
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkError, Message: "cancelled"})
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkComplete})
			o.persistAssistant(ctx, sessionID, assistantText)
			return
		}
		if kind != "" {
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkError, Message: errMsg})
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkComplete})
			o.persistAssistant(ctx, sessionID, assistantText)
			return
		}

		if len(toolCalls) == 0 {
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkComplete, Usage: usage})
			o.persistAssistant(ctx, sessionID, assistantText)
			return
		}

		messages = append(messages, provider.Message{Role: types.RoleAssistant, Content: text, ToolCalls: toolCalls})

		depth++
		if depth > maxToolDepth {
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkComplete, Usage: usage})
			o.persistAssistant(ctx, sessionID, assistantText)
			return
		}

		for _, call := range toolCalls {
			result := o.dispatchTool(ctx, sessionID, m.Name, call, out)
			messages = append(messages, provider.Message{
				Role:       types.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
		// Tool calls handled; re-invoke the model with the augmented
		// history at the top of the loop.
	}
}

// invokeOnce performs step 4-5 of §4.7 for a single model invocation:
// stream if supported, else synthesise a stream from a non-streaming
// response. Retries transport failures with exponential backoff.
func (o *Orchestrator) invokeOnce(
	ctx context.Context,
	p provider.Provider,
	req provider.ChatRequest,
	out chan<- types.StreamChunk,
) (toolCalls []provider.ToolCall, text string, usage *types.Usage, kind errkind.Kind, errMsg string) {
	stream, supported, err := o.streamWithRetry(ctx, p, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", nil, errkind.Cancelled, "cancelled"
		}
		return nil, "", nil, errkind.ProviderTransport, err.Error()
	}

	if !supported {
		resp, err := o.chatWithRetry(ctx, p, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", nil, errkind.Cancelled, "cancelled"
			}
			return nil, "", nil, errkind.ProviderTransport, err.Error()
		}
		text = synthesizeStream(ctx, resp.Content, out)
		emitToolStarts(ctx, out, resp.ToolCalls)
		return resp.ToolCalls, text, resp.Usage, "", ""
	}
	defer stream.Close()

	for {
		chunk, ok := stream.Recv()
		if !ok {
			return toolCalls, text, usage, "", ""
		}
		if ctx.Err() != nil {
			return toolCalls, text, usage, errkind.Cancelled, "cancelled"
		}

		switch chunk.Kind {
		case provider.ChunkContent:
			text += chunk.Delta
			emit(ctx, out, types.StreamChunk{Kind: types.ChunkContent, Text: chunk.Delta})
		case provider.ChunkToolCalls:
			toolCalls = append(toolCalls, chunk.ToolCalls...)
			emitToolStarts(ctx, out, chunk.ToolCalls)
		case provider.ChunkComplete:
			usage = chunk.Usage
			return toolCalls, text, usage, "", ""
		case provider.ChunkError:
			return toolCalls, text, usage, errkind.ProviderProtocol, chunk.Err.Error()
		}
	}
}

func (o *Orchestrator) streamWithRetry(ctx context.Context, p provider.Provider, req provider.ChatRequest) (provider.ChunkStream, bool, error) {
	var stream provider.ChunkStream
	var supported bool
	op := func() error {
		s, sup, err := p.ChatStreaming(ctx, req)
		if err != nil {
			return err
		}
		stream, supported = s, sup
		return nil
	}
	err := backoff.Retry(op, newRetryBackoff(ctx))
	return stream, supported, err
}

func (o *Orchestrator) chatWithRetry(ctx context.Context, p provider.Provider, req provider.ChatRequest) (*provider.ChatResponse, error) {
	var resp *provider.ChatResponse
	op := func() error {
		r, err := p.Chat(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}
	err := backoff.Retry(op, newRetryBackoff(ctx))
	return resp, err
}

// synthesizeStream slices content into ~20-char chunks with a small pacing
// delay, for providers that only implement the non-streaming Chat call.
func synthesizeStream(ctx context.Context, content string, out chan<- types.StreamChunk) string {
	for i := 0; i < len(content); i += synthChunkSize {
		end := i + synthChunkSize
		if end > len(content) {
			end = len(content)
		}
		emit(ctx, out, types.StreamChunk{Kind: types.ChunkContent, Text: content[i:end]})

		if end < len(content) {
			select {
			case <-ctx.Done():
				return content
			case <-time.After(synthPacingDelay):
			}
		}
	}
	return content
}

func emitToolStarts(ctx context.Context, out chan<- types.StreamChunk, calls []provider.ToolCall) {
	for _, c := range calls {
		emit(ctx, out, types.StreamChunk{Kind: types.ChunkToolStart, CallID: c.ID, ToolName: c.Name})
	}
}

// dispatchTool executes one tool call under the turn's cancellation
// handle, emitting tool_result or tool_error, and returns the text fed
// back to the model as the matching tool-role message's content.
func (o *Orchestrator) dispatchTool(ctx context.Context, sessionID, modeName string, call provider.ToolCall, out chan<- types.StreamChunk) string {
	toolCtx := &tool.Context{
		SessionID: sessionID,
		CallID:    call.ID,
		Mode:      modeName,
		WorkDir:   o.tools.WorkDir(),
		AbortCh:   ctx.Done(),
	}

	result, err := o.tools.Execute(ctx, call.Name, json.RawMessage(call.Arguments), toolCtx)
	if err != nil {
		msg := err.Error()
		emit(ctx, out, types.StreamChunk{Kind: types.ChunkToolError, CallID: call.ID, ToolName: call.Name, Message: msg})
		return msg
	}

	emit(ctx, out, types.StreamChunk{Kind: types.ChunkToolResult, CallID: call.ID, ToolName: call.Name, Text: result.Output})
	return result.Output
}

func (o *Orchestrator) persistAssistant(ctx context.Context, sessionID, text string) {
	msg := &types.Message{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Role:      types.RoleAssistant,
		Parts:     []types.Part{types.NewTextPart(text, nowMillis())},
		Timestamp: nowMillis(),
	}
	if err := o.store.AddMessage(ctx, sessionID, msg); err != nil {
		logging.Logger.Error().Err(err).Str("sessionID", sessionID).Msg("failed to persist assistant message")
	}
}

// emit enqueues a chunk, blocking if the consumer is behind, but gives up
// once ctx is cancelled so a stalled consumer cannot wedge the turn.
func emit(ctx context.Context, out chan<- types.StreamChunk, chunk types.StreamChunk) {
	select {
	case out <- chunk:
	case <-ctx.Done():
	}
}

func toProviderTools(schemas []tool.ToolSchema) []provider.ToolSchema {
	out := make([]provider.ToolSchema, len(schemas))
	for i, s := range schemas {
		out[i] = provider.ToolSchema{Name: s.Name, Description: s.Description, Parameters: s.Parameters}
	}
	return out
}

// buildRequestMessages assembles step 2 of §4.7: system messages first,
// then user/assistant/tool history, then the new user message.
func buildRequestMessages(modelID string, m *types.Mode, cwd string, cfg *types.Config, history []*types.Message, userMsg *types.Message) []provider.Message {
	var out []provider.Message

	for _, sys := range AssembleSystemMessages(modelID, m, cwd, cfg) {
		out = append(out, provider.Message{Role: types.RoleSystem, Content: sys})
	}

	for _, msg := range history {
		out = append(out, provider.Message{
			Role:       msg.Role,
			Content:    msg.Text(),
			ToolCallID: msg.ToolCallID,
		})
	}

	out = append(out, provider.Message{Role: types.RoleUser, Content: userMsg.Text()})
	return out
}
