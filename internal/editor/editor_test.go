package editor

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Paintersrp/snyft/internal/overlay"
)

const family = "\U0001F468\u200d\U0001F469\u200d\U0001F467"

type recordingCommitter struct {
	bodies []string
}

func (r *recordingCommitter) Commit(_ string, body string) uint64 {
	r.bodies = append(r.bodies, body)
	return uint64(len(r.bodies))
}

func (r *recordingCommitter) last() string {
	if len(r.bodies) == 0 {
		return ""
	}
	return r.bodies[len(r.bodies)-1]
}

func newTestEditor(t *testing.T, body string) (*Editor, *recordingCommitter) {
	t.Helper()
	n := 0
	ov := overlay.New(overlay.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("seg-%d", n)
	}))
	rc := &recordingCommitter{}
	e := New(ov, rc, WithClipboard(&MemoryClipboard{}))
	e.Open("note", body, nil)
	return e, rc
}

func TestEditsCarryCodedSegments(t *testing.T) {
	e, rc := newTestEditor(t, "hello world")

	e.MoveTo(0, false)
	e.MoveTo(5, true)
	seg, err := e.ApplyCode("theme", "")
	if err != nil {
		t.Fatalf("ApplyCode: %v", err)
	}
	if seg.Start != 0 || seg.End != 5 || e.Cursor().HasSelection() {
		t.Fatalf("ApplyCode = %+v, selection %v", seg, e.Cursor().Anchored())
	}
	if len(rc.bodies) != 1 {
		t.Fatalf("coding must commit so the segment is persisted, got %d commits", len(rc.bodies))
	}

	e.MoveTo(2, false)
	if err := e.InsertText("X"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	if e.Text() != "heXllo world" || rc.last() != "heXllo world" {
		t.Fatalf("text = %q, committed %q", e.Text(), rc.last())
	}
	if e.Cursor().Cursor() != 3 {
		t.Fatalf("cursor = %d, want 3", e.Cursor().Cursor())
	}
	segs := e.Segments()
	if len(segs) != 1 || segs[0].Start != 0 || segs[0].End != 6 {
		t.Fatalf("segments after insert = %+v", segs)
	}
	if got := e.SegmentsAt(5); len(got) != 1 || got[0].CodeID != "theme" {
		t.Fatalf("SegmentsAt(5) = %+v", got)
	}

	if err := e.Backspace(); err != nil {
		t.Fatalf("Backspace: %v", err)
	}
	if e.Text() != "hello world" || e.Segments()[0].End != 5 {
		t.Fatalf("after backspace text %q segments %+v", e.Text(), e.Segments())
	}

	e.MoveTo(0, false)
	e.MoveTo(5, true)
	if err := e.DeleteForward(); err != nil {
		t.Fatalf("DeleteForward: %v", err)
	}
	if e.Text() != " world" || len(e.Segments()) != 0 {
		t.Fatalf("deleting the coded span must remove it, text %q segments %+v", e.Text(), e.Segments())
	}
}

func TestTypingReplacesSelection(t *testing.T) {
	e, _ := newTestEditor(t, "hello world")
	e.MoveTo(6, false)
	e.MoveTo(11, true)
	if err := e.InsertText("there"); err != nil {
		t.Fatalf("InsertText: %v", err)
	}
	if e.Text() != "hello there" || e.Cursor().Cursor() != 11 {
		t.Fatalf("text %q cursor %d", e.Text(), e.Cursor().Cursor())
	}
	if _, ok := e.Cursor().VirtualColumn(); ok {
		t.Fatalf("edits must clear the virtual column")
	}

	if err := e.Newline(); err != nil {
		t.Fatal(err)
	}
	if err := e.Tab(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "hello there\n\t" {
		t.Fatalf("text = %q", e.Text())
	}
}

func TestClipboardCommands(t *testing.T) {
	e, rc := newTestEditor(t, "hello there")

	if err := e.Copy(); err != nil {
		t.Fatalf("Copy without selection: %v", err)
	}
	if err := e.Cut(); err != nil || len(rc.bodies) != 0 {
		t.Fatalf("Cut without selection must be a no-op, err %v commits %d", err, len(rc.bodies))
	}

	e.MoveTo(5, true)
	if err := e.Cut(); err != nil {
		t.Fatalf("Cut: %v", err)
	}
	if e.Text() != " there" {
		t.Fatalf("after cut %q", e.Text())
	}

	e.Move(DocEnd, false)
	if err := e.Paste(); err != nil {
		t.Fatalf("Paste: %v", err)
	}
	if e.Text() != " therehello" || e.Cursor().Cursor() != 11 {
		t.Fatalf("after paste %q cursor %d", e.Text(), e.Cursor().Cursor())
	}

	e.SelectAll()
	if err := e.Copy(); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if err := e.Paste(); err != nil {
		t.Fatalf("Paste over selection: %v", err)
	}
	if e.Text() != " therehello" {
		t.Fatalf("pasting the selection over itself changed the text: %q", e.Text())
	}
}

func TestDeletionIsPerGrapheme(t *testing.T) {
	e, rc := newTestEditor(t, "a"+family+"e\u0301")

	e.Move(DocEnd, false)
	if err := e.Backspace(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "a"+family {
		t.Fatalf("backspace must remove the accented cluster, got %q", e.Text())
	}
	if err := e.Backspace(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "a" {
		t.Fatalf("backspace must remove the whole emoji, got %q", e.Text())
	}

	commits := len(rc.bodies)
	if err := e.DeleteForward(); err != nil {
		t.Fatal(err)
	}
	e.Move(DocStart, false)
	if err := e.Backspace(); err != nil {
		t.Fatal(err)
	}
	if len(rc.bodies) != commits {
		t.Fatalf("no-op deletions must not commit")
	}
}

func TestApplyCodeNeedsSelection(t *testing.T) {
	e, _ := newTestEditor(t, "hello")
	if _, err := e.ApplyCode("theme", ""); !errors.Is(err, overlay.ErrEmptySelection) {
		t.Fatalf("ApplyCode without selection = %v", err)
	}
}

func TestRemoveSegmentAndMemo(t *testing.T) {
	e, rc := newTestEditor(t, "hello world")
	e.MoveTo(6, false)
	e.MoveTo(11, true)
	seg, err := e.ApplyCode("quote", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SetMemo(seg.ID, "said twice"); err != nil {
		t.Fatalf("SetMemo: %v", err)
	}
	if got := e.Segments(); got[0].Memo != "said twice" {
		t.Fatalf("memo = %q", got[0].Memo)
	}
	if err := e.RemoveSegment(seg.ID); err != nil {
		t.Fatalf("RemoveSegment: %v", err)
	}
	if len(e.Segments()) != 0 || len(rc.bodies) != 3 {
		t.Fatalf("segments %+v commits %d", e.Segments(), len(rc.bodies))
	}
	if err := e.RemoveSegment(seg.ID); !errors.Is(err, overlay.ErrSegmentNotFound) {
		t.Fatalf("second RemoveSegment = %v", err)
	}
}

func TestTabsAndDisplayColumns(t *testing.T) {
	e, _ := newTestEditor(t, "\tab\na\tb\n"+family+"x")
	if got := e.DisplayColumn(0, 1); got != DefaultTabWidth {
		t.Fatalf("column after leading tab = %d", got)
	}
	if got := e.ExpandTabs("a\tb"); got != "a   b" {
		t.Fatalf("ExpandTabs = %q", got)
	}
	if got := e.DisplayColumn(2, 1); got != 2 {
		t.Fatalf("emoji should be two columns wide, got %d", got)
	}
	if got := e.DocWidth(); got != 6 {
		t.Fatalf("DocWidth = %d, want 6", got)
	}
}

func TestViewportFollowsEdits(t *testing.T) {
	e, _ := newTestEditor(t, strings.Repeat("line\n", 9)+"line")
	e.Resize(20, 3)

	e.Move(DocEnd, false)
	if got := e.Viewport().ScrollY; got != 7 {
		t.Fatalf("ScrollY at end = %d, want 7", got)
	}
	e.Move(DocStart, false)
	if got := e.Viewport().ScrollY; got != 0 {
		t.Fatalf("ScrollY at start = %d", got)
	}
	if err := e.InsertText(strings.Repeat("x", 30)); err != nil {
		t.Fatal(err)
	}
	if got := e.Viewport().ScrollX; got == 0 {
		t.Fatalf("typing past the right edge must scroll horizontally")
	}
}

func TestOpenSwitchesNotes(t *testing.T) {
	e, _ := newTestEditor(t, "first")
	e.MoveTo(0, false)
	e.MoveTo(5, true)
	if _, err := e.ApplyCode("theme", ""); err != nil {
		t.Fatal(err)
	}

	e.Open("other", "second note", []overlay.Segment{{ID: "s", CodeID: "quote", Start: 0, End: 6}})
	if e.NoteID() != "other" || e.Text() != "second note" || e.Cursor().Cursor() != 0 {
		t.Fatalf("Open did not reset the session")
	}
	if segs := e.Segments(); len(segs) != 1 || segs[0].NoteID != "other" {
		t.Fatalf("segments = %+v", segs)
	}

	e.Close()
	if e.NoteID() != "" || e.Text() != "" {
		t.Fatalf("Close kept %q", e.Text())
	}
}

func TestWordAndLineDeletion(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		cursor  int
		del     func(*Editor) error
		want    string
		wantPos int
		commits int
	}{
		{"word at end", "hello world", 11, (*Editor).DeleteWordBackward, "hello ", 6, 1},
		{"word skips spaces", "hello world  ", 13, (*Editor).DeleteWordBackward, "hello ", 6, 1},
		{"punctuation run", "say hi!!", 8, (*Editor).DeleteWordBackward, "say hi", 6, 1},
		{"word at start", "hello", 0, (*Editor).DeleteWordBackward, "hello", 0, 0},
		{"emoji word", "ok " + family + family, 5, (*Editor).DeleteWordBackward, "ok ", 3, 1},
		{"to line start", "one\ntwo three", 11, (*Editor).DeleteToLineStart, "one\nee", 4, 1},
		{"line start is a no-op", "one\ntwo", 4, (*Editor).DeleteToLineStart, "one\ntwo", 4, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, rc := newTestEditor(t, tc.body)
			e.MoveTo(tc.cursor, false)
			if err := tc.del(e); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if e.Text() != tc.want || e.Cursor().Cursor() != tc.wantPos {
				t.Fatalf("got %q at %d, want %q at %d", e.Text(), e.Cursor().Cursor(), tc.want, tc.wantPos)
			}
			if len(rc.bodies) != tc.commits {
				t.Fatalf("commits = %d, want %d", len(rc.bodies), tc.commits)
			}
		})
	}
}

func TestWordDeletionTakesSelection(t *testing.T) {
	e, _ := newTestEditor(t, "alpha beta gamma")
	e.MoveTo(2, false)
	e.MoveTo(8, true)
	if err := e.DeleteWordBackward(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "alta gamma" {
		t.Fatalf("text = %q", e.Text())
	}

	e.MoveTo(5, false)
	e.MoveTo(10, true)
	if err := e.DeleteToLineStart(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "alta " {
		t.Fatalf("text = %q", e.Text())
	}
}
