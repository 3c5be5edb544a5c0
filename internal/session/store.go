package session

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/forgecode-ai/agent/internal/event"
	"github.com/forgecode-ai/agent/internal/logging"
	"github.com/forgecode-ai/agent/internal/storage"
	"github.com/forgecode-ai/agent/pkg/types"
)

// maxTitleLen caps the length of a title derived from a user message.
const maxTitleLen = 50

// Store is the Session Store (C7): it owns the on-disk layout
//
//	session/<id>/info.json
//	session/<id>/messages/<message-id>.json
//
// exclusively through the storage abstraction, and publishes session/
// message lifecycle events for observers (a TUI/HTTP skin, audit logging).
type Store struct {
	storage *storage.Storage
}

// NewStore creates a Store backed by store.
func NewStore(store *storage.Storage) *Store {
	return &Store{storage: store}
}

// Create generates a uuid-v4 session id, writes its info.json, and
// publishes session.created.
func (s *Store) Create(ctx context.Context, mode string) (*types.Session, error) {
	now := nowMillis()
	sess := &types.Session{
		ID:      uuid.NewString(),
		Created: now,
		Updated: now,
		Mode:    mode,
	}

	if err := s.storage.Put(ctx, []string{"session", sess.ID, "info"}, sess); err != nil {
		return nil, err
	}

	event.Publish(event.Event{Type: event.SessionCreated, Data: event.SessionCreatedData{Info: sess}})
	return sess, nil
}

// Get loads a session's info. A missing or unparsable file yields (nil,
// nil): the spec's "parse failures yield none (logged)" policy — no
// repair pass is attempted.
func (s *Store) Get(ctx context.Context, id string) (*types.Session, error) {
	var sess types.Session
	if err := s.storage.Get(ctx, []string{"session", id, "info"}, &sess); err != nil {
		if err == storage.ErrNotFound {
			return nil, nil
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			logging.Logger.Warn().Err(err).Str("sessionID", id).Msg("unparsable session info")
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

// List enumerates sessions ordered by directory mtime descending, skipping
// any directory whose info.json fails to load.
func (s *Store) List(ctx context.Context) ([]*types.Session, error) {
	ids, err := s.storage.ListDirsByModTime(ctx, []string{"session"})
	if err != nil {
		return nil, err
	}

	sessions := make([]*types.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if err != nil || sess == nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Delete removes the whole session subtree. Idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.storage.DeleteTree(ctx, []string{"session", id}); err != nil {
		return err
	}
	event.Publish(event.Event{Type: event.SessionDeleted, Data: event.SessionDeletedData{ID: id}})
	return nil
}

// AddMessage writes messages/<msg.id>.json, then recomputes and rewrites
// info.json: message_count, updated, and, if unset, title from the first
// user message's text. Writes are per-file; no global lock is taken across
// the message write and the info rewrite.
func (s *Store) AddMessage(ctx context.Context, sessionID string, msg *types.Message) error {
	if err := s.storage.Put(ctx, []string{"session", sessionID, "messages", msg.ID}, msg); err != nil {
		return err
	}

	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	sess.MessageCount++
	sess.Updated = nowMillis()
	if sess.Title == "" && msg.Role == types.RoleUser {
		sess.Title = deriveTitle(msg.Text())
	}

	if err := s.storage.Put(ctx, []string{"session", sessionID, "info"}, sess); err != nil {
		return err
	}

	event.Publish(event.Event{Type: event.MessageCreated, Data: event.MessageCreatedData{Message: msg}})
	event.Publish(event.Event{Type: event.SessionUpdated, Data: event.SessionUpdatedData{Info: sess}})
	return nil
}

// GetMessages reads all message files for a session ordered by timestamp.
// A message file that fails to parse is silently skipped (crash policy:
// a partially written message is tolerated, never repaired).
func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]*types.Message, error) {
	var messages []*types.Message
	err := s.storage.Scan(ctx, []string{"session", sessionID, "messages"}, func(key string, data json.RawMessage) error {
		var msg types.Message
		if jsonErr := json.Unmarshal(data, &msg); jsonErr != nil {
			return nil // skip unparsable message file
		}
		messages = append(messages, &msg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].Timestamp < messages[j].Timestamp })
	return messages, nil
}

func deriveTitle(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxTitleLen {
		return text
	}
	return text[:maxTitleLen]
}
