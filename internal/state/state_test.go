package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Paintersrp/snyft/internal/config"
	"github.com/Paintersrp/snyft/internal/logging"
	"github.com/Paintersrp/snyft/internal/search"
	indexsvc "github.com/Paintersrp/snyft/internal/services/index"
	"github.com/Paintersrp/snyft/internal/store"
)

func testState(t *testing.T) *State {
	t.Helper()
	home := t.TempDir()
	st, err := store.Open(filepath.Join(home, store.FileName))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	s, err := Assemble(context.Background(), config.Default(home), st, logging.Discard())
	if err != nil {
		st.Close()
		t.Fatalf("assemble: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 0, 0, time.Local) }
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateNoteUsesDefaultTitle(t *testing.T) {
	ctx := context.Background()
	s := testState(t)

	n, err := s.CreateNote(ctx, "  ", "")
	if err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}
	if n.Title != "Note 2024-03-09 14:05" {
		t.Fatalf("default title = %q", n.Title)
	}
	if s.Codebook.Len() == 0 {
		t.Fatalf("expected the default codebook to be seeded")
	}

	results, degraded, err := s.SearchNotes(ctx, search.Query{Term: "2024-03-09"})
	if err != nil || degraded {
		t.Fatalf("SearchNotes = %v, degraded %v", err, degraded)
	}
	if len(results) != 1 || results[0].ID != n.ID {
		t.Fatalf("expected the new note in the index, got %+v", results)
	}
}

func TestAutosavePersistsBodyTagsAndSegments(t *testing.T) {
	ctx := context.Background()
	s := testState(t)

	n, err := s.CreateNote(ctx, "Interview", "")
	if err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}
	body := "hello world #fieldwork"
	s.Overlay.Load(n.ID, 22, nil)
	seg, err := s.Overlay.Apply(n.ID, "theme", 0, 5, "greeting")
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	s.Autosave.Commit(n.ID, body)
	if err := s.Flush(ctx, n.ID); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}

	stored, segs, err := s.OpenNote(ctx, n.ID)
	if err != nil {
		t.Fatalf("OpenNote returned error: %v", err)
	}
	if stored.Body != body || len(stored.Tags) != 1 || stored.Tags[0] != "fieldwork" {
		t.Fatalf("stored note = %+v", stored)
	}
	if len(segs) != 1 || segs[0].ID != seg.ID || segs[0].Memo != "greeting" {
		t.Fatalf("stored segments = %+v", segs)
	}

	results, _, err := s.SearchNotes(ctx, search.Query{Tags: []string{"fieldwork"}})
	if err != nil {
		t.Fatalf("SearchNotes returned error: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Interview" {
		t.Fatalf("expected the saved tags to reach the index, got %+v", results)
	}
}

func TestSaveLeavesSegmentsOfUnloadedNotes(t *testing.T) {
	ctx := context.Background()
	s := testState(t)

	n, err := s.CreateNote(ctx, "Field notes", "")
	if err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}
	s.Overlay.Load(n.ID, 11, nil)
	if _, err := s.Overlay.Apply(n.ID, "quote", 6, 11, ""); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	s.Autosave.Commit(n.ID, "hello world")
	if err := s.Flush(ctx, n.ID); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}

	s.Overlay.Drop(n.ID)
	s.Autosave.Commit(n.ID, "hello world!")
	if err := s.Flush(ctx, n.ID); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if _, segs, _ := s.OpenNote(ctx, n.ID); len(segs) != 1 {
		t.Fatalf("expected stored segment to survive, got %+v", segs)
	}
}

func TestRenameAndDeleteNote(t *testing.T) {
	ctx := context.Background()
	s := testState(t)

	n, err := s.CreateNote(ctx, "Draft", "")
	if err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}
	if err := s.RenameNote(ctx, n.ID, ""); err == nil {
		t.Fatalf("expected an empty title to be rejected")
	}
	if err := s.RenameNote(ctx, n.ID, "Final"); err != nil {
		t.Fatalf("RenameNote returned error: %v", err)
	}
	if results, _, _ := s.SearchNotes(ctx, search.Query{Term: "final"}); len(results) != 1 || results[0].ID != n.ID {
		t.Fatalf("renamed note not found by new title: %+v", results)
	}

	if err := s.DeleteNote(ctx, n.ID); err != nil {
		t.Fatalf("DeleteNote returned error: %v", err)
	}
	if _, _, err := s.OpenNote(ctx, n.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if results, _, _ := s.SearchNotes(ctx, search.Query{Term: "final"}); len(results) != 0 {
		t.Fatalf("deleted note still indexed: %+v", results)
	}
}

func TestSearchFallsBackToNoteScan(t *testing.T) {
	ctx := context.Background()
	s := testState(t)

	notes := []struct {
		title, body string
		tags        []string
	}{
		{"Beta interview", "", nil},
		{"Alpha interview", "", []string{"wave2"}},
		{"Meeting", "We discussed the Budget for the next wave.", nil},
		{"Unrelated", "nothing here", []string{"budgeting"}},
	}
	for _, n := range notes {
		created, err := s.CreateNote(ctx, n.title, "")
		if err != nil {
			t.Fatalf("CreateNote returned error: %v", err)
		}
		if err := s.Store.UpdateNote(ctx, created.ID, n.body, created.ModifiedAt); err != nil {
			t.Fatalf("UpdateNote returned error: %v", err)
		}
		if err := s.Store.SetTags(ctx, created.ID, n.tags); err != nil {
			t.Fatalf("SetTags returned error: %v", err)
		}
	}
	s.Index = indexsvc.NewService(search.Config{})

	tests := []struct {
		name   string
		query  search.Query
		titles []string
		from   []string
	}{
		{"title", search.Query{Term: "INTERVIEW"}, []string{"Alpha interview", "Beta interview"}, []string{"title", "title"}},
		{"body and tag", search.Query{Term: "budget"}, []string{"Unrelated", "Meeting"}, []string{"tags", "body"}},
		{"tag filter", search.Query{Term: "interview", Tags: []string{"WAVE2"}}, []string{"Alpha interview"}, []string{"title"}},
		{"no match", search.Query{Term: "zebra"}, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, degraded, err := s.SearchNotes(ctx, tt.query)
			if err != nil {
				t.Fatalf("SearchNotes returned error: %v", err)
			}
			if !degraded {
				t.Fatalf("expected degraded results without an index")
			}
			if len(results) != len(tt.titles) {
				t.Fatalf("fallback results = %+v", results)
			}
			for i, r := range results {
				if r.Title != tt.titles[i] || r.MatchFrom != tt.from[i] {
					t.Fatalf("result %d = %+v, want %s from %s", i, r, tt.titles[i], tt.from[i])
				}
			}
		})
	}

	results, _, _ := s.SearchNotes(ctx, search.Query{Term: "budget"})
	if got := results[1].Snippet; got != "We discussed the Budget for the next wave." {
		t.Fatalf("body snippet = %q", got)
	}
}

func TestDeleteCodeStripsLoadedSegments(t *testing.T) {
	ctx := context.Background()
	s := testState(t)

	n, err := s.CreateNote(ctx, "Coded", "")
	if err != nil {
		t.Fatalf("CreateNote returned error: %v", err)
	}
	s.Overlay.Load(n.ID, 10, nil)
	if _, err := s.Overlay.Apply(n.ID, "method", 0, 4, ""); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	removed, err := s.DeleteCode(ctx, "method")
	if err != nil {
		t.Fatalf("DeleteCode returned error: %v", err)
	}
	if len(removed) != 1 || len(s.Overlay.SegmentsFor(n.ID)) != 0 {
		t.Fatalf("expected the segment to go with its code, removed %+v", removed)
	}
	if _, ok := s.Codebook.Get("method"); ok {
		t.Fatalf("code still present after delete")
	}
}
