package templater

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Paintersrp/snyft/internal/parser"
)

func fixedTemplater(t *testing.T, userDir string) *Templater {
	t.Helper()
	tmpl, err := newTemplater(userDir)
	if err != nil {
		t.Fatalf("newTemplater returned error: %v", err)
	}
	tmpl.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return tmpl
}

func TestEmbeddedTemplatesAreRegistered(t *testing.T) {
	tmpl := fixedTemplater(t, filepath.Join(t.TempDir(), "missing"))
	want := []string{"code", "daily", "meeting", "project", "reading", "research"}
	if got := tmpl.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
}

func TestExecuteFillsVariables(t *testing.T) {
	tmpl := fixedTemplater(t, t.TempDir())

	body, err := tmpl.Execute("meeting", `Kickoff: "Q2"`)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	for _, want := range []string{"date: 2024-03-09", "time: 14:05", "*Created: 2024-03-09 14:05:07*"} {
		if !strings.Contains(body, want) {
			t.Fatalf("rendered meeting template missing %q:\n%s", want, body)
		}
	}

	// The quoted title keeps the front matter valid YAML.
	meta := parser.Parse(body)
	if meta.Title != `Kickoff: "Q2"` {
		t.Fatalf("front matter title = %q", meta.Title)
	}
	if len(meta.Tags) == 0 || meta.Tags[0] != "meeting" {
		t.Fatalf("front matter tags = %v", meta.Tags)
	}
}

func TestUserTemplateShadowsEmbedded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "daily.tmpl"), []byte("custom {{.Title}} {{.Date}}"), 0o644); err != nil {
		t.Fatalf("failed to write user template: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("failed to write stray file: %v", err)
	}

	tmpl := fixedTemplater(t, dir)
	got, err := tmpl.Execute("daily", "Saturday")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got != "custom Saturday 2024-03-09" {
		t.Fatalf("Execute = %q", got)
	}
	if tmpl.Has("notes") {
		t.Fatalf("non-.tmpl files must not register templates")
	}
}

func TestExecuteUnknownTemplate(t *testing.T) {
	tmpl := fixedTemplater(t, t.TempDir())
	if _, err := tmpl.Execute("nope", "x"); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}
