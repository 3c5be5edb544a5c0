package session

import (
	"context"
	"strings"

	"github.com/forgecode-ai/agent/internal/event"
	"github.com/forgecode-ai/agent/internal/provider"
	"github.com/forgecode-ai/agent/pkg/types"
)

const titleSystemPrompt = `You are a title generator. You output ONLY a thread title. Nothing else.

Generate a brief title that would help the user find this conversation later.

Rules:
- A single line, <=50 characters
- No explanations
- Use -ing verbs for actions (Debugging, Implementing, Analyzing)
- Keep exact: technical terms, numbers, filenames
- Remove: the, this, my, a, an
- Always output something meaningful

Examples:
"debug 500 errors in production" -> Debugging production 500 errors
"refactor user service" -> Refactoring user service
"implement rate limiting" -> Implementing rate limiting`

const maxGeneratedTitleLen = 100

// GenerateTitle replaces a session's truncated first-message title with a
// short LLM-generated one, using the provider registry's default model.
// Errors are swallowed: a missing title is cosmetic, not
// a turn failure, so the caller's turn is never blocked on it.
func GenerateTitle(ctx context.Context, store *Store, providers *provider.Registry, sess *types.Session, userContent string) {
	providerID, model, err := providers.DefaultModel()
	if err != nil {
		return
	}

	p, err := providers.Get(providerID)
	if err != nil {
		return
	}

	resp, err := p.Chat(ctx, provider.ChatRequest{
		Model:     model.ID,
		MaxTokens: 50,
		Messages: []provider.Message{
			{Role: types.RoleSystem, Content: titleSystemPrompt},
			{Role: types.RoleUser, Content: "Generate a title for this conversation:\n\n" + userContent},
		},
	})
	if err != nil || resp == nil {
		return
	}

	title := cleanTitle(resp.Content)
	if title == "" {
		return
	}

	current, err := store.Get(ctx, sess.ID)
	if err != nil || current == nil {
		return
	}
	current.Title = title
	if err := store.storage.Put(ctx, []string{"session", current.ID, "info"}, current); err != nil {
		return
	}
	event.PublishSync(event.Event{Type: event.SessionUpdated, Data: event.SessionUpdatedData{Info: current}})
}

func cleanTitle(raw string) string {
	text := strings.TrimSpace(raw)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			text = line
			break
		}
	}

	if len(text) > maxGeneratedTitleLen {
		text = text[:maxGeneratedTitleLen-3] + "..."
	}
	return text
}
