package preview

import (
	"strings"
	"testing"
	"time"
)

func TestRenderCachesUntilNoteChanges(t *testing.T) {
	r := New("notty", 2)
	modified := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC).UnixNano()

	first := r.Render("n1", modified, "# Heading\n\nbody text", 60)
	if !strings.Contains(first, "Heading") || !strings.Contains(first, "body text") {
		t.Fatalf("rendered output missing content:\n%s", first)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one cached render, got %d", r.Len())
	}

	// Same stamp returns the cached output even for a different body.
	if got := r.Render("n1", modified, "something else", 60); got != first {
		t.Fatalf("expected cached output for an unchanged note")
	}

	changed := r.Render("n1", modified+int64(time.Second), "something else", 60)
	if !strings.Contains(changed, "something else") {
		t.Fatalf("expected a fresh render after modification:\n%s", changed)
	}

	r.Forget("n1")
	if r.Len() != 0 {
		t.Fatalf("Forget left %d entries", r.Len())
	}
}

func TestRenderEvictsLeastRecent(t *testing.T) {
	r := New("notty", 2)
	r.Render("a", 0, "a", 40)
	r.Render("b", 0, "b", 40)
	r.Render("c", 0, "c", 40)
	if r.Len() != 2 {
		t.Fatalf("expected cache bounded at 2, got %d", r.Len())
	}
}
