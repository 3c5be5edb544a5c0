package tool

import (
	"strings"
	"testing"
)

func TestBuildDiffMetadata_NoChange(t *testing.T) {
	diffText, additions, deletions := buildDiffMetadata("/tmp/a.txt", "same\n", "same\n", "/tmp")
	if diffText != "" {
		t.Errorf("Expected empty diff for identical text, got: %s", diffText)
	}
	if additions != 0 || deletions != 0 {
		t.Errorf("Expected 0/0 line changes, got %d/%d", additions, deletions)
	}
}

func TestBuildDiffMetadata_AdditionsAndDeletions(t *testing.T) {
	before := "line one\nline two\nline three\n"
	after := "line one\nline replaced\nline three\nline four\n"

	diffText, additions, deletions := buildDiffMetadata("/tmp/work/file.txt", before, after, "/tmp/work")
	if diffText == "" {
		t.Fatal("Expected non-empty diff text")
	}
	if additions != 2 {
		t.Errorf("Expected 2 added lines, got %d", additions)
	}
	if deletions != 1 {
		t.Errorf("Expected 1 deleted line, got %d", deletions)
	}
	if !strings.Contains(diffText, "--- file.txt") || !strings.Contains(diffText, "+++ file.txt") {
		t.Errorf("Expected relative file headers in diff, got: %s", diffText)
	}
}

func TestBuildDiffMetadata_NoPath(t *testing.T) {
	diffText, _, _ := buildDiffMetadata("", "before\n", "after\n", "/tmp")
	if strings.HasPrefix(diffText, "---") {
		t.Errorf("Expected no file headers when path is empty, got: %s", diffText)
	}
}

func TestRelativePath(t *testing.T) {
	cases := []struct {
		path, baseDir, want string
	}{
		{"", "/tmp", ""},
		{"/tmp/a.txt", "", "/tmp/a.txt"},
		{"/tmp/work/file.txt", "/tmp/work", "file.txt"},
		{"/tmp/work/sub/file.txt", "/tmp/work", "sub/file.txt"},
	}
	for _, c := range cases {
		got := relativePath(c.path, c.baseDir)
		if got != c.want {
			t.Errorf("relativePath(%q, %q) = %q, want %q", c.path, c.baseDir, got, c.want)
		}
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one line\n", 1},
		{"one line no newline", 1},
		{"line one\nline two\n", 2},
		{"line one\nline two", 2},
	}
	for _, c := range cases {
		got := countLines(c.text)
		if got != c.want {
			t.Errorf("countLines(%q) = %d, want %d", c.text, got, c.want)
		}
	}
}
