package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Paintersrp/snyft/internal/overlay"
)

type fakeSaver struct {
	mu       sync.Mutex
	bodies   map[string]string
	writes   []string
	versions []Version
	fail     error
	gate     chan struct{}
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{bodies: make(map[string]string)}
}

func (f *fakeSaver) SaveVersion(_ context.Context, v Version) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.bodies[v.NoteID] = v.Body
	f.writes = append(f.writes, v.Body)
	f.versions = append(f.versions, v)
	return nil
}

func (f *fakeSaver) body(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[id]
}

func (f *fakeSaver) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

type fakeIndexer struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (f *fakeIndexer) QueueIndex(noteID, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = make(map[string]string)
	}
	f.bodies[noteID] = body
}

func flush(t *testing.T, c *Controller, noteID string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Flush(ctx, noteID)
}

func TestCommitThenFlushStoresLatestBody(t *testing.T) {
	saver := newFakeSaver()
	ix := &fakeIndexer{}
	c := New(saver, WithIndexer(ix))
	defer c.Close()

	var last uint64
	for _, body := range []string{"h", "he", "hel", "hell", "hello"} {
		seq := c.Commit("n1", body)
		if seq <= last {
			t.Fatalf("sequence went from %d to %d", last, seq)
		}
		last = seq
	}
	if err := flush(t, c, "n1"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := saver.body("n1"); got != "hello" {
		t.Fatalf("stored %q, want latest body", got)
	}
	if committed, stored := c.Seq("n1"); committed != last || stored != last {
		t.Fatalf("Seq = %d/%d, want %d/%d", committed, stored, last, last)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.bodies["n1"] != "hello" {
		t.Fatalf("indexer saw %q", ix.bodies["n1"])
	}
}

func TestQueuedSavesCoalesce(t *testing.T) {
	saver := newFakeSaver()
	saver.gate = make(chan struct{})
	c := New(saver)
	defer c.Close()

	c.Commit("n1", "first")
	// The worker is now blocked inside UpdateNote with "first", or about to
	// be. Every later commit collapses into a single pending save.
	for _, body := range []string{"a", "ab", "abc"} {
		c.Commit("n1", body)
	}
	close(saver.gate)

	if err := flush(t, c, "n1"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.writes) > 2 {
		t.Fatalf("expected at most two writes, got %q", saver.writes)
	}
	if saver.writes[len(saver.writes)-1] != "abc" {
		t.Fatalf("last write %q, want abc", saver.writes[len(saver.writes)-1])
	}
}

func TestFailureIsReportedAndRetried(t *testing.T) {
	saver := newFakeSaver()
	boom := errors.New("disk full")
	saver.setFail(boom)
	c := New(saver)
	defer c.Close()

	seq := c.Commit("n1", "draft")
	err := flush(t, c, "n1")
	var serr *StorageError
	if !errors.As(err, &serr) || !errors.Is(err, boom) {
		t.Fatalf("Flush = %v, want StorageError wrapping %v", err, boom)
	}
	if serr.NoteID != "n1" || serr.Seq != seq {
		t.Fatalf("StorageError = %+v", serr)
	}

	select {
	case got := <-c.Errors():
		if got.Seq != seq {
			t.Fatalf("Errors() delivered seq %d", got.Seq)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no error delivered")
	}

	saver.setFail(nil)
	c.Retry("n1")
	deadline := time.Now().Add(5 * time.Second)
	for saver.body("n1") != "draft" {
		if time.Now().After(deadline) {
			t.Fatal("retry never stored the failed body")
		}
		time.Sleep(time.Millisecond)
	}
	if err := flush(t, c, "n1"); err != nil {
		t.Fatalf("Flush after retry: %v", err)
	}
}

func TestRetryDelayRetriesAutomatically(t *testing.T) {
	saver := newFakeSaver()
	saver.setFail(errors.New("locked"))
	c := New(saver, WithRetryDelay(10*time.Millisecond))
	defer c.Close()

	c.Commit("n1", "body")
	_ = flush(t, c, "n1")
	saver.setFail(nil)

	deadline := time.Now().Add(5 * time.Second)
	for saver.body("n1") != "body" {
		if time.Now().After(deadline) {
			t.Fatal("automatic retry never stored the body")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotesAreIndependent(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver)
	defer c.Close()

	a := c.Commit("a", "alpha")
	b := c.Commit("b", "beta")
	if a != 1 || b != 1 {
		t.Fatalf("sequences are per note, got %d and %d", a, b)
	}
	for _, id := range []string{"a", "b"} {
		if err := flush(t, c, id); err != nil {
			t.Fatalf("Flush(%s): %v", id, err)
		}
	}
	if saver.body("a") != "alpha" || saver.body("b") != "beta" {
		t.Fatalf("bodies = %v", saver.bodies)
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	saver := newFakeSaver()
	c := New(saver)

	for i, body := range []string{"one", "two", "three"} {
		c.Commit("n1", body)
		c.Commit("n2", body+string(rune('0'+i)))
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if saver.body("n1") != "three" || saver.body("n2") != "three2" {
		t.Fatalf("Close did not drain: %v", saver.bodies)
	}

	// Commits after Close are written synchronously.
	c.Commit("n1", "late")
	if saver.body("n1") != "late" {
		t.Fatalf("late commit stored %q", saver.body("n1"))
	}
}

func TestFlushHonoursContext(t *testing.T) {
	saver := newFakeSaver()
	saver.gate = make(chan struct{})
	c := New(saver)
	defer func() {
		close(saver.gate)
		c.Close()
	}()

	c.Commit("n1", "stuck")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Flush(ctx, "n1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Flush = %v, want deadline exceeded", err)
	}
}

func TestDiscardReleasesFlush(t *testing.T) {
	saver := newFakeSaver()
	saver.setFail(errors.New("gone"))
	c := New(saver)
	defer c.Close()

	c.Commit("n1", "x")
	_ = flush(t, c, "n1")
	c.Discard("n1")
	if err := flush(t, c, "n1"); err != nil {
		t.Fatalf("Flush after Discard = %v", err)
	}
	if err := flush(t, c, "unknown"); err != nil {
		t.Fatalf("Flush of an unknown note = %v", err)
	}
}

type fakeSegments struct {
	mu   sync.Mutex
	segs map[string][]overlay.Segment
}

func (f *fakeSegments) Loaded(noteID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.segs[noteID]
	return ok
}

func (f *fakeSegments) SegmentsFor(noteID string) []overlay.Segment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]overlay.Segment(nil), f.segs[noteID]...)
}

func (f *fakeSegments) set(noteID string, segs ...overlay.Segment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.segs[noteID] = segs
}

func TestSegmentsAreCapturedAtCommit(t *testing.T) {
	saver := newFakeSaver()
	saver.gate = make(chan struct{})
	src := &fakeSegments{segs: map[string][]overlay.Segment{}}
	c := New(saver, WithSegments(src))
	defer c.Close()

	src.set("n1", overlay.Segment{ID: "a", Start: 0, End: 5})
	c.Commit("n1", "hello")
	src.set("n1", overlay.Segment{ID: "a", Start: 1, End: 6})
	c.Commit("plain", "no coding loaded")
	close(saver.gate)

	if err := flush(t, c, "n1"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := flush(t, c, "plain"); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	saver.mu.Lock()
	defer saver.mu.Unlock()
	tests := []struct {
		note  string
		coded bool
		segs  int
		start int
	}{
		{"n1", true, 1, 0},
		{"plain", false, 0, 0},
	}
	for _, tt := range tests {
		var got *Version
		for i := range saver.versions {
			if saver.versions[i].NoteID == tt.note {
				got = &saver.versions[i]
			}
		}
		if got == nil {
			t.Fatalf("%s was not saved", tt.note)
		}
		if got.Coded != tt.coded || len(got.Segments) != tt.segs {
			t.Fatalf("%s saved %+v", tt.note, got)
		}
		if tt.segs > 0 && got.Segments[0].Start != tt.start {
			t.Fatalf("%s stored segments from after its commit: %+v", tt.note, got.Segments)
		}
	}
}
