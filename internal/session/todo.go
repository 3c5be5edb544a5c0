// Package session provides session management functionality.
package session

import (
	"context"

	"github.com/forgecode-ai/agent/internal/event"
	"github.com/forgecode-ai/agent/internal/storage"
	"github.com/forgecode-ai/agent/pkg/types"
)

// GetTodos retrieves todos for a session.
func GetTodos(ctx context.Context, store *storage.Storage, sessionID string) ([]types.TodoInfo, error) {
	var todos []types.TodoInfo
	err := store.Get(ctx, []string{"todo", sessionID}, &todos)
	if err == storage.ErrNotFound {
		return []types.TodoInfo{}, nil
	}
	if err != nil {
		return nil, err
	}
	return todos, nil
}

// UpdateTodos updates todos for a session and publishes a todo.updated event.
func UpdateTodos(ctx context.Context, store *storage.Storage, sessionID string, todos []types.TodoInfo) error {
	if err := store.Put(ctx, []string{"todo", sessionID}, todos); err != nil {
		return err
	}

	items := make([]event.TodoItem, len(todos))
	for i, td := range todos {
		items[i] = event.TodoItem{ID: td.ID, Content: td.Content, Status: td.Status, Priority: td.Priority}
	}

	event.Publish(event.Event{
		Type: event.TodoUpdated,
		Data: event.TodoUpdatedData{SessionID: sessionID, Todos: items},
	})
	return nil
}
