package edit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sokinpui/mend/internal/fs"
	"github.com/sokinpui/mend/internal/model"
)

func approveAll() Confirmer {
	return ConfirmerFunc(func(string, model.Decision, string) (bool, error) {
		return true, nil
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOrchestratorCreate(t *testing.T) {
	dir := t.TempDir()
	o := New(fs.NewPathResolver([]string{dir}), approveAll())

	response := "`new.txt`\n\n```\nhello\n```\n"
	res := o.Run(response, model.KindSection)

	if len(res.Applied) != 1 {
		t.Fatalf("expected 1 applied edit, got %+v", res)
	}
	ap := res.Applied[0]
	if ap.Decision != model.Create {
		t.Errorf("Decision = %v, want Create", ap.Decision)
	}
	data, err := os.ReadFile(filepath.Join(dir, "new.txt"))
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q", data)
	}
	if got := res.Contents()[ap.Path]; got != "hello\n" {
		t.Errorf("Contents() = %q", got)
	}
}

func TestOrchestratorModify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	writeFile(t, path, "line1\nline2\nline3\n")

	o := New(fs.NewPathResolver([]string{dir}), approveAll())
	response := "`f.txt`\n\n```\nline1\nline2X\n[UNCHANGED]\n```\n"
	res := o.Run(response, model.KindSection)

	if len(res.Applied) != 1 || res.Applied[0].Decision != model.Modify {
		t.Fatalf("expected 1 modify, got %+v", res)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "line1\nline2X\nline3\n" {
		t.Errorf("content = %q", data)
	}
	if res.Applied[0].Before != "line1\nline2\nline3\n" {
		t.Errorf("Before = %q", res.Applied[0].Before)
	}
}

func TestOrchestratorDecline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	writeFile(t, path, "old\n")

	decline := ConfirmerFunc(func(string, model.Decision, string) (bool, error) {
		return false, nil
	})
	o := New(fs.NewPathResolver([]string{dir}), decline)
	res := o.Run("`f.txt`\n\n```\nnew\n```\n", model.KindSection)

	if len(res.Applied) != 0 || len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skip, got %+v", res)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "old\n" {
		t.Errorf("declined file was written: %q", data)
	}
}

func TestOrchestratorIdenticalContentSkipsWithoutPrompt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "f.txt"), "same\n")

	prompted := false
	confirm := ConfirmerFunc(func(string, model.Decision, string) (bool, error) {
		prompted = true
		return true, nil
	})
	o := New(fs.NewPathResolver([]string{dir}), confirm)
	res := o.Run("`f.txt`\n\n```\nsame\n```\n", model.KindSection)

	if prompted {
		t.Error("confirmer was called for an unchanged file")
	}
	if len(res.Skipped) != 1 || len(res.Applied) != 0 {
		t.Errorf("expected 1 skip, got %+v", res)
	}
}

func TestOrchestratorAbortStopsRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a\n")
	writeFile(t, filepath.Join(dir, "b.txt"), "b\n")

	abort := ConfirmerFunc(func(string, model.Decision, string) (bool, error) {
		return false, ErrAborted
	})
	o := New(fs.NewPathResolver([]string{dir}), abort)
	response := "`a.txt`\n\n```\nA\n```\n\n`b.txt`\n\n```\nB\n```\n"
	res := o.Run(response, model.KindSection)

	// Only the first file reaches the prompt; the rest are untouched.
	if len(res.Skipped) != 1 {
		t.Fatalf("expected 1 skip, got %+v", res)
	}
	for _, name := range []string{"a.txt", "b.txt"} {
		data, _ := os.ReadFile(filepath.Join(dir, name))
		if string(data) != name[:1]+"\n" {
			t.Errorf("%s was written: %q", name, data)
		}
	}
}

func TestOrchestratorUnifiedFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "b.txt"), "old\n")

	o := New(fs.NewPathResolver([]string{dir}), approveAll())
	// The diff's context matches nothing in a.py; b.txt still applies.
	response := "```diff\n--- a/a.py\n+++ b/a.py\n@@ -1 +1 @@\n-unrelated = 9\n+unrelated = 10\n```\n\n`b.txt`\n\n```\nnew\n```\n"
	res := o.Run(response, model.KindSection)

	if len(res.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %+v", res)
	}
	if len(res.Applied) != 1 || filepath.Base(res.Applied[0].Path) != "b.txt" {
		t.Fatalf("expected b.txt applied, got %+v", res.Applied)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "a.py"))
	if string(data) != "x = 1\n" {
		t.Errorf("failed patch modified the file: %q", data)
	}
}

func TestOrchestratorExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	o := New(fs.NewPathResolver([]string{dir}), approveAll())
	o.SetExtensions([]string{".go"})

	response := "`a.go`\n\n```go\npackage a\n```\n\n`b.txt`\n\n```\nskip me\n```\n"
	res := o.Run(response, model.KindSection)

	if len(res.Applied) != 1 || filepath.Base(res.Applied[0].Path) != "a.go" {
		t.Fatalf("expected only a.go, got %+v", res.Applied)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Error("filtered file was written")
	}
}

func TestOrchestratorNilConfirmerDeclines(t *testing.T) {
	dir := t.TempDir()
	o := New(fs.NewPathResolver([]string{dir}), nil)
	res := o.Run("`f.txt`\n\n```\nhello\n```\n", model.KindSection)

	if len(res.Applied) != 0 || len(res.Skipped) != 1 {
		t.Errorf("expected a skip, got %+v", res)
	}
}

func TestOrchestratorCustomMarker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	writeFile(t, path, "line1\nline2\nline3\n")

	o := New(fs.NewPathResolver([]string{dir}), approveAll())
	o.SetMarker("<KEEP>")
	res := o.Run("`f.txt`\n\n```\nline1\nline2X\n<KEEP>\n```\n", model.KindSection)

	if len(res.Applied) != 1 {
		t.Fatalf("expected 1 applied edit, got %+v", res)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "line1\nline2X\nline3\n" {
		t.Errorf("content = %q", data)
	}
}
