package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgecode-ai/agent/internal/provider"
	"github.com/forgecode-ai/agent/pkg/types"
)

// CompactionConfig controls when and how history is summarised to keep a
// turn's request within the model's context window.
type CompactionConfig struct {
	// MinMessagesToKeep is the minimum number of most-recent messages left
	// untouched after compaction.
	MinMessagesToKeep int

	// SummaryMaxTokens bounds the generated summary's length.
	SummaryMaxTokens int

	// MaxContextTokens is the rough token budget that triggers compaction.
	MaxContextTokens int
}

// DefaultCompactionConfig mirrors the teacher's threshold: compact once a
// conversation's estimated size crosses roughly 3/4 of a 150k-token budget.
var DefaultCompactionConfig = CompactionConfig{
	MinMessagesToKeep: 4,
	SummaryMaxTokens:  2000,
	MaxContextTokens:  150000,
}

const compactionSystemPrompt = `You are a conversation summarizer. Create a concise summary of the conversation that preserves key context for continuing the discussion.

Focus on:
1. What was accomplished
2. Current work in progress
3. Files involved
4. Next steps
5. Any key user requests or constraints

Be concise but detailed enough that work can continue seamlessly.`

// CompactHistory summarises the oldest messages of a session's history into
// a single synthetic system message when the estimated token count crosses
// DefaultCompactionConfig's threshold, returning the (possibly shortened)
// history to send on a turn's request. The summary is not persisted to the
// Session Store: compaction reshapes what is SENT to the model, not what
// is stored, so get_messages keeps returning the session's true history.
func CompactHistory(ctx context.Context, providers *provider.Registry, messages []*types.Message) []*types.Message {
	cfg := DefaultCompactionConfig
	if len(messages) <= cfg.MinMessagesToKeep {
		return messages
	}
	if estimateTokens(messages) < cfg.MaxContextTokens*3/4 {
		return messages
	}

	compactEnd := len(messages) - cfg.MinMessagesToKeep
	toCompact := messages[:compactEnd]
	tail := messages[compactEnd:]

	summary, err := summarize(ctx, providers, toCompact, cfg.SummaryMaxTokens)
	if err != nil || summary == "" {
		return messages
	}

	marker := &types.Message{
		ID:        "compaction-summary",
		SessionID: toCompact[0].SessionID,
		Role:      types.RoleSystem,
		Parts:     []types.Part{types.NewTextPart("Summary of earlier conversation:\n\n"+summary, toCompact[0].Timestamp)},
		Timestamp: toCompact[0].Timestamp,
	}

	return append([]*types.Message{marker}, tail...)
}

func summarize(ctx context.Context, providers *provider.Registry, messages []*types.Message, maxTokens int) (string, error) {
	providerID, model, err := providers.DefaultModel()
	if err != nil {
		return "", err
	}
	p, err := providers.Get(providerID)
	if err != nil {
		return "", err
	}

	resp, err := p.Chat(ctx, provider.ChatRequest{
		Model:     model.ID,
		MaxTokens: maxTokens,
		Messages: []provider.Message{
			{Role: types.RoleSystem, Content: compactionSystemPrompt},
			{Role: types.RoleUser, Content: buildSummaryPrompt(messages)},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func buildSummaryPrompt(messages []*types.Message) string {
	var b strings.Builder

	b.WriteString("Please summarize the following conversation, focusing on:\n")
	b.WriteString("1. Key decisions and outcomes\n")
	b.WriteString("2. Files that were modified\n")
	b.WriteString("3. Important context for continuing the work\n\n---\n\n")

	for _, msg := range messages {
		if msg.Role == types.RoleUser {
			b.WriteString("USER:\n")
		} else {
			b.WriteString("ASSISTANT:\n")
		}

		for _, part := range msg.Parts {
			switch part.Type {
			case types.PartText:
				b.WriteString(part.Text)
				b.WriteString("\n")
			case types.PartTool:
				b.WriteString(fmt.Sprintf("[Tool: %s]\n", part.Tool))
				if part.Output != "" {
					output := part.Output
					if len(output) > 500 {
						output = output[:500] + "..."
					}
					b.WriteString(output)
					b.WriteString("\n")
				}
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// estimateTokens gives a rough ~4-characters-per-token estimate across a
// message slice's text and tool-output content.
func estimateTokens(messages []*types.Message) int {
	total := 0
	for _, msg := range messages {
		for _, part := range msg.Parts {
			total += len(part.Text) + len(part.Output)
		}
	}
	return total / 4
}
