package extract

import (
	"testing"

	"github.com/sokinpui/mend/internal/model"
)

func TestBlock(t *testing.T) {
	t.Run("first fenced block wins", func(t *testing.T) {
		text := "intro\n\n```python\nprint('hi')\n```\n\n```\nsecond\n```\n"
		if got := Block(text); got != "print('hi')\n" {
			t.Errorf("Block() = %q, want %q", got, "print('hi')\n")
		}
	})

	t.Run("no fence returns trimmed input", func(t *testing.T) {
		if got := Block("  raw content\n"); got != "raw content" {
			t.Errorf("Block() = %q, want %q", got, "raw content")
		}
	})

	t.Run("unclosed fence still yields its interior", func(t *testing.T) {
		if got := Block("```go\npackage main\n"); got != "package main\n" {
			t.Errorf("Block() = %q, want %q", got, "package main\n")
		}
	})
}

func TestFiles(t *testing.T) {
	t.Run("hinted block uses the configured dialect", func(t *testing.T) {
		response := "Here is the change for `src/main.go`:\n\n```go\npackage main\n```\n"
		edits := Files(response, model.KindSection)
		if len(edits) != 1 {
			t.Fatalf("expected 1 edit, got %d", len(edits))
		}
		e := edits[0]
		if e.Path != "src/main.go" {
			t.Errorf("Path = %q, want %q", e.Path, "src/main.go")
		}
		if e.Kind != model.KindSection {
			t.Errorf("Kind = %v, want KindSection", e.Kind)
		}
		if e.Patch != "package main\n" {
			t.Errorf("Patch = %q", e.Patch)
		}
	})

	t.Run("diff block is always unified and keyed by its +++ path", func(t *testing.T) {
		response := "```diff\n--- a/f.py\n+++ b/f.py\n@@ -1 +1 @@\n-old\n+new\n```\n"
		edits := Files(response, model.KindSection)
		if len(edits) != 1 {
			t.Fatalf("expected 1 edit, got %d", len(edits))
		}
		if edits[0].Path != "f.py" {
			t.Errorf("Path = %q, want %q", edits[0].Path, "f.py")
		}
		if edits[0].Kind != model.KindUnified {
			t.Errorf("Kind = %v, want KindUnified", edits[0].Kind)
		}
	})

	t.Run("hint with spaces is not a path", func(t *testing.T) {
		response := "Run `go run main.go` to test:\n\n```go\npackage main\n```\n"
		if edits := Files(response, model.KindSection); len(edits) != 0 {
			t.Errorf("expected no edits, got %v", edits)
		}
	})

	t.Run("block without a hint is skipped", func(t *testing.T) {
		response := "Some prose.\n\n```go\npackage main\n```\n"
		if edits := Files(response, model.KindSection); len(edits) != 0 {
			t.Errorf("expected no edits, got %v", edits)
		}
	})

	t.Run("hint paragraph spanning multiple lines", func(t *testing.T) {
		response := "Apply this change\nto `wrapped.go` now:\n\n```go\npackage w\n```\n"
		edits := Files(response, model.KindSection)
		if len(edits) != 1 {
			t.Fatalf("expected 1 edit, got %d", len(edits))
		}
		if edits[0].Path != "wrapped.go" {
			t.Errorf("Path = %q, want %q", edits[0].Path, "wrapped.go")
		}
	})

	t.Run("several files in one response", func(t *testing.T) {
		response := "`a.go`\n\n```go\npackage a\n```\n\n`b.go`\n\n```go\npackage b\n```\n"
		edits := Files(response, model.KindSection)
		if len(edits) != 2 {
			t.Fatalf("expected 2 edits, got %d", len(edits))
		}
		if edits[0].Path != "a.go" || edits[1].Path != "b.go" {
			t.Errorf("paths = %q, %q", edits[0].Path, edits[1].Path)
		}
	})
}

func TestPathFromDiff(t *testing.T) {
	if got := PathFromDiff("--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n"); got != "x.go" {
		t.Errorf("PathFromDiff() = %q, want %q", got, "x.go")
	}
	if got := PathFromDiff("no diff here"); got != "" {
		t.Errorf("PathFromDiff() = %q, want empty", got)
	}
}
