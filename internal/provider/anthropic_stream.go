package provider

import (
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/forgecode-ai/agent/internal/errkind"
	"github.com/forgecode-ai/agent/pkg/types"
)

var errAnthropicStream = errors.New("anthropic stream error")

// anthropicChunkStream adapts the SDK's SSE stream of message events into
// the flat ProviderChunk sequence, accumulating tool_use input JSON across
// the delta events that carry it in pieces.
type anthropicChunkStream struct {
	raw *ssestream.Stream[anthropic.MessageStreamEventUnion]

	pendingToolCall  *ToolCall
	pendingInput     strings.Builder
	pendingToolCalls []ToolCall

	inputTokens  int
	outputTokens int

	done bool
}

func newAnthropicChunkStream(raw *ssestream.Stream[anthropic.MessageStreamEventUnion]) *anthropicChunkStream {
	return &anthropicChunkStream{raw: raw}
}

func (s *anthropicChunkStream) Recv() (ProviderChunk, bool) {
	if s.done {
		return ProviderChunk{}, false
	}

	for s.raw.Next() {
		event := s.raw.Current()

		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			if ms.Message.Usage.InputTokens > 0 {
				s.inputTokens = int(ms.Message.Usage.InputTokens)
			}

		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				use := block.AsToolUse()
				s.pendingToolCall = &ToolCall{ID: use.ID, Name: use.Name}
				s.pendingInput.Reset()
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					return ProviderChunk{Kind: ChunkContent, Delta: delta.Text}, true
				}
			case "input_json_delta":
				s.pendingInput.WriteString(delta.PartialJSON)
			}

		case "content_block_stop":
			if s.pendingToolCall != nil {
				s.pendingToolCall.Arguments = s.pendingInput.String()
				s.pendingToolCalls = append(s.pendingToolCalls, *s.pendingToolCall)
				s.pendingToolCall = nil
			}

		case "message_delta":
			md := event.AsMessageDelta()
			if md.Usage.OutputTokens > 0 {
				s.outputTokens = int(md.Usage.OutputTokens)
			}

		case "message_stop":
			if len(s.pendingToolCalls) > 0 {
				calls := s.pendingToolCalls
				s.pendingToolCalls = nil
				return ProviderChunk{Kind: ChunkToolCalls, ToolCalls: calls}, true
			}
			s.done = true
			return s.completeChunk(), true

		case "error":
			s.done = true
			return ProviderChunk{Kind: ChunkError, Err: errkind.New(errkind.ProviderProtocol, errAnthropicStream)}, true
		}
	}

	s.done = true
	if err := s.raw.Err(); err != nil {
		return ProviderChunk{Kind: ChunkError, Err: errkind.New(errkind.ProviderTransport, err)}, true
	}
	return s.completeChunk(), true
}

func (s *anthropicChunkStream) completeChunk() ProviderChunk {
	return ProviderChunk{
		Kind: ChunkComplete,
		Usage: &types.Usage{
			Prompt:     s.inputTokens,
			Completion: s.outputTokens,
			Total:      s.inputTokens + s.outputTokens,
		},
	}
}

func (s *anthropicChunkStream) Close() {
	s.raw.Close()
}
