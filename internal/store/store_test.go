package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Paintersrp/snyft/internal/codebook"
	"github.com/Paintersrp/snyft/internal/overlay"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	fixed := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.CreateNote(ctx, "Interview", "first draft")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if n.ID != NoteID("Interview", fixed) || len(n.ID) != 12 {
		t.Fatalf("unexpected id %q", n.ID)
	}

	// Same title in the same second still gets its own id.
	dup, err := s.CreateNote(ctx, "Interview", "")
	if err != nil {
		t.Fatalf("CreateNote duplicate: %v", err)
	}
	if dup.ID == n.ID {
		t.Fatalf("duplicate note reused id %q", n.ID)
	}

	later := fixed.Add(time.Minute)
	if err := s.UpdateNote(ctx, n.ID, "second draft", later); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if err := s.SetTags(ctx, n.ID, []string{"research", "ux"}); err != nil {
		t.Fatalf("SetTags: %v", err)
	}

	got, err := s.GetNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if got.Body != "second draft" || !got.ModifiedAt.Equal(later) {
		t.Fatalf("GetNote = %+v", got)
	}
	if !reflect.DeepEqual(got.Tags, []string{"research", "ux"}) {
		t.Fatalf("Tags = %#v", got.Tags)
	}

	list, err := s.ListNotes(ctx)
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(list) != 2 || list[0].ID != n.ID {
		t.Fatalf("ListNotes should put the most recently modified first, got %+v", list)
	}

	if err := s.UpdateTitle(ctx, n.ID, "Interview 1"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	if got, _ := s.GetNote(ctx, n.ID); got.Title != "Interview 1" || got.ID != n.ID {
		t.Fatalf("rename changed identity: %+v", got)
	}

	if err := s.DeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if _, err := s.GetNote(ctx, n.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateNote(ctx, n.ID, "x", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateNote on a deleted note should report ErrNotFound, got %v", err)
	}
}

func TestSegmentsAndCodes(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	book, err := codebook.Open(ctx, s)
	if err != nil {
		t.Fatalf("codebook.Open: %v", err)
	}
	if book.Len() != 8 {
		t.Fatalf("expected defaults seeded into sqlite, got %d", book.Len())
	}
	if c, ok := book.ByShortcut('u'); !ok || c.ID != "quote" {
		t.Fatalf("shortcut lost in round trip: %+v", c)
	}

	n, err := s.CreateNote(ctx, "Coded", "hello world")
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	segs := []overlay.Segment{
		{ID: "b", NoteID: n.ID, CodeID: "quote", Start: 6, End: 11, CreatedAt: created, Seq: 2},
		{ID: "a", NoteID: n.ID, CodeID: "theme", Start: 0, End: 5, Memo: "greeting", CreatedAt: created, Seq: 1},
	}
	if err := s.SaveSegments(ctx, n.ID, segs); err != nil {
		t.Fatalf("SaveSegments: %v", err)
	}

	loaded, err := s.LoadSegments(ctx, n.ID)
	if err != nil {
		t.Fatalf("LoadSegments: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "a" || loaded[0].Memo != "greeting" || !loaded[0].CreatedAt.Equal(created) {
		t.Fatalf("LoadSegments = %+v", loaded)
	}

	counts, err := s.SegmentCounts(ctx)
	if err != nil {
		t.Fatalf("SegmentCounts: %v", err)
	}
	if counts["theme"] != 1 || counts["quote"] != 1 {
		t.Fatalf("SegmentCounts = %v", counts)
	}

	// Replace-all semantics.
	if err := s.SaveSegments(ctx, n.ID, segs[:1]); err != nil {
		t.Fatalf("SaveSegments: %v", err)
	}
	if loaded, _ := s.LoadSegments(ctx, n.ID); len(loaded) != 1 || loaded[0].ID != "b" {
		t.Fatalf("expected only segment b, got %+v", loaded)
	}

	if err := book.Delete(ctx, "quote"); err != nil {
		t.Fatalf("Delete code: %v", err)
	}
	if loaded, _ := s.LoadSegments(ctx, n.ID); len(loaded) != 0 {
		t.Fatalf("deleting a code must drop its segments, got %+v", loaded)
	}

	if err := s.SaveSegments(ctx, n.ID, segs[1:]); err != nil {
		t.Fatalf("SaveSegments: %v", err)
	}
	if err := s.DeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	if byCode, _ := s.SegmentsByCode(ctx, "theme"); len(byCode) != 0 {
		t.Fatalf("deleting a note must cascade to its segments, got %+v", byCode)
	}
}
