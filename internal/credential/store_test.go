package credential

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/forgecode-ai/agent/pkg/types"
)

func TestStore_SetAndGet(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "auth.json"))

	cred := types.NewAPIKeyCredential("sk-test-123")
	if err := s.Set("openai", cred); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := s.Get("openai")
	if !ok {
		t.Fatal("expected credential to be found")
	}
	if got.Key != cred.Key || got.Type != cred.Type {
		t.Errorf("got %+v, want %+v", got, cred)
	}
}

func TestStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file mode bits are not meaningful on windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	s := New(path)

	if err := s.Set("github-copilot", types.NewOAuthCredential("r", "a", 123)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("got mode %o, want 0600", mode)
	}
}

func TestStore_GetMissing(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "auth.json"))

	if _, ok := s.Get("nope"); ok {
		t.Error("expected ok=false for missing provider")
	}
}

func TestStore_All(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "auth.json"))

	if err := s.Set("openai", types.NewAPIKeyCredential("k1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("anthropic", types.NewAPIKeyCredential("k2")); err != nil {
		t.Fatal(err)
	}

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("got %d entries, want 2", len(all))
	}
}

func TestStore_Remove(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "auth.json"))

	if err := s.Set("openai", types.NewAPIKeyCredential("k1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("openai"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok := s.Get("openai"); ok {
		t.Error("expected credential to be gone after Remove")
	}

	// Removing an absent entry is a no-op, not an error.
	if err := s.Remove("openai"); err != nil {
		t.Errorf("Remove of missing entry should not error, got: %v", err)
	}
}

func TestStore_RoundTripOAuth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	s := New(path)

	cred := types.NewOAuthCredential("refresh-tok", "access-tok", 1700000000000)
	if err := s.Set("github-copilot", cred); err != nil {
		t.Fatal(err)
	}

	// Reload from a fresh Store instance to verify persistence across processes.
	s2 := New(path)
	got, ok := s2.Get("github-copilot")
	if !ok {
		t.Fatal("expected credential after reload")
	}
	if got != cred {
		t.Errorf("got %+v, want %+v", got, cred)
	}
}
