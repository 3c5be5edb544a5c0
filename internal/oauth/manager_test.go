package oauth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/forgecode-ai/agent/internal/credential"
	"github.com/forgecode-ai/agent/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store := credential.New(filepath.Join(t.TempDir(), "auth.json"))
	return NewManager(store)
}

func TestManager_GetAccessToken_NoCredential(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.GetAccessToken(context.Background(), false); err == nil {
		t.Fatal("expected error when no credential is stored")
	}
}

func TestManager_GetAccessToken_UsesCachedTokenBeforeExpiry(t *testing.T) {
	m := newTestManager(t)

	future := time.Now().Add(time.Hour).UnixMilli()
	cred := types.NewOAuthCredential("refresh-tok", "cached-access-tok", future)
	if err := m.store.Set(ProviderID, cred); err != nil {
		t.Fatal(err)
	}

	token, err := m.GetAccessToken(context.Background(), false)
	if err != nil {
		t.Fatalf("GetAccessToken failed: %v", err)
	}
	if token != "cached-access-tok" {
		t.Errorf("got %q, want cached token (no network call expected)", token)
	}
}

func TestManager_Revoke(t *testing.T) {
	m := newTestManager(t)

	if err := m.store.Set(ProviderID, types.NewOAuthCredential("r", "a", 1)); err != nil {
		t.Fatal(err)
	}
	if err := m.Revoke(); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, ok := m.store.Get(ProviderID); ok {
		t.Error("expected credential to be removed after Revoke")
	}
}
