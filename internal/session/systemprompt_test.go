package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgecode-ai/agent/pkg/types"
)

func TestModelFamilyPreamble(t *testing.T) {
	cases := map[string]string{
		"gpt-4o":                   gptFamilyPreamble,
		"o1-preview":                gptFamilyPreamble,
		"gemini-1.5-pro":            geminiFamilyPreamble,
		"claude-sonnet-4-20250514":  anthropicFamilyPreamble,
		"some-unknown-model":        anthropicFamilyPreamble,
	}
	for modelID, want := range cases {
		if got := modelFamilyPreamble(modelID); got != want {
			t.Errorf("modelFamilyPreamble(%q): expected the matching bundled preamble", modelID)
		}
	}
}

func TestCompress(t *testing.T) {
	one := compress([]string{"a"})
	if len(one) != 1 {
		t.Fatalf("expected 1 entry unchanged, got %d", len(one))
	}

	two := compress([]string{"a", "b"})
	if len(two) != 2 {
		t.Fatalf("expected 2 entries unchanged, got %d", len(two))
	}

	four := compress([]string{"a", "b", "c", "d"})
	if len(four) != 2 {
		t.Fatalf("expected compression to 2 entries, got %d", len(four))
	}
	if four[0] != "a" {
		t.Errorf("expected first entry unchanged, got %q", four[0])
	}
	if four[1] != "b\n\nc\n\nd" {
		t.Errorf("expected second entry to be the joined remainder, got %q", four[1])
	}
}

func TestEnvironmentBlockIncludesCwdAndDate(t *testing.T) {
	dir := t.TempDir()
	block := environmentBlock(dir)

	if !strings.Contains(block, dir) {
		t.Errorf("expected environment block to mention cwd %q, got:\n%s", dir, block)
	}
	if !strings.Contains(block, "Is git repo: false") {
		t.Errorf("expected 'Is git repo: false' for a non-repo dir, got:\n%s", block)
	}
}

func TestEnvironmentBlockDetectsGitRepo(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	block := environmentBlock(dir)
	if !strings.Contains(block, "Is git repo: true") {
		t.Errorf("expected 'Is git repo: true', got:\n%s", block)
	}
}

func TestCustomInstructionFilesFindsAgentsFileInCwd(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "AGENTS.md"), []byte("be nice"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	files := customInstructionFiles(dir, &types.Config{})
	found := false
	for _, f := range files {
		if f == "be nice" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected AGENTS.md contents among custom instruction files, got %v", files)
	}
}

func TestCustomInstructionFilesIncludesExplicitConfigPaths(t *testing.T) {
	dir := t.TempDir()
	instrPath := filepath.Join(dir, "extra-instructions.md")
	if err := os.WriteFile(instrPath, []byte("extra rules"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	files := customInstructionFiles(t.TempDir(), &types.Config{Instructions: []string{instrPath}})
	found := false
	for _, f := range files {
		if f == "extra rules" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected explicit instruction path contents, got %v", files)
	}
}

func TestAssembleSystemMessagesAppendsModeSystemPromptLast(t *testing.T) {
	dir := t.TempDir()
	m := &types.Mode{Name: "default", SystemPrompt: "mode prompt marker"}

	messages := AssembleSystemMessages("claude-sonnet-4-20250514", m, dir, &types.Config{})
	if len(messages) == 0 {
		t.Fatal("expected at least one system message")
	}
	last := messages[len(messages)-1]
	if !strings.Contains(last, "mode prompt marker") {
		t.Errorf("expected mode system prompt to appear in the (possibly compressed) tail, got %q", last)
	}
}
