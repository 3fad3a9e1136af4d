// Package overlay anchors coded segments to grapheme ranges of a note and
// keeps them valid as the note's text is edited.
package overlay

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rdleal/intervalst/interval"

	"github.com/Paintersrp/snyft/internal/buffer"
)

var (
	// ErrEmptySelection is returned when a code is applied to a collapsed
	// selection.
	ErrEmptySelection = errors.New("overlay: empty selection")

	// ErrSegmentNotFound is returned for an unknown segment id.
	ErrSegmentNotFound = errors.New("overlay: segment not found")

	// ErrNoteNotLoaded is returned when a note's segments were never loaded.
	ErrNoteNotLoaded = errors.New("overlay: note not loaded")
)

// Segment is a coded span [Start, End) of one note.
type Segment struct {
	ID        string
	NoteID    string
	CodeID    string
	Start     int
	End       int
	Memo      string
	CreatedAt time.Time
	Seq       uint64
}

// Len returns the number of graphemes covered.
func (s Segment) Len() int {
	return s.End - s.Start
}

type noteSegments struct {
	textLen int
	segs    []Segment

	lookup *interval.MultiValueSearchTree[string, int]
	dirty  bool
}

// Overlay holds the coded segments of every loaded note.
type Overlay struct {
	mu    sync.Mutex
	notes map[string]*noteSegments
	seq   uint64

	now   func() time.Time
	newID func() string
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Overlay) { o.now = now }
}

// WithIDFunc overrides segment id generation.
func WithIDFunc(fn func() string) Option {
	return func(o *Overlay) { o.newID = fn }
}

// New returns an empty overlay.
func New(opts ...Option) *Overlay {
	o := &Overlay{
		notes: make(map[string]*noteSegments),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load installs the persisted segments of a note whose text is textLen
// graphemes long, replacing anything held for it.
func (o *Overlay) Load(noteID string, textLen int, segs []Segment) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ns := &noteSegments{textLen: textLen, dirty: true}
	for _, s := range segs {
		if s.Seq > o.seq {
			o.seq = s.Seq
		}
		s.NoteID = noteID
		ns.segs = append(ns.segs, s)
	}
	sortSegments(ns.segs)
	o.notes[noteID] = ns
}

// Drop forgets a note's segments.
func (o *Overlay) Drop(noteID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.notes, noteID)
}

// Loaded reports whether the note's segments are held.
func (o *Overlay) Loaded(noteID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.notes[noteID]
	return ok
}

// Apply codes the range between anchor and head.
func (o *Overlay) Apply(noteID, codeID string, anchor, head int, memo string) (Segment, error) {
	if anchor == head {
		return Segment{}, ErrEmptySelection
	}
	start, end := anchor, head
	if start > end {
		start, end = end, start
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	ns, ok := o.notes[noteID]
	if !ok {
		return Segment{}, fmt.Errorf("%w: %s", ErrNoteNotLoaded, noteID)
	}
	if start < 0 {
		return Segment{}, &buffer.OffsetError{Op: "apply", Pos: start, Len: ns.textLen}
	}
	if end > ns.textLen {
		return Segment{}, &buffer.OffsetError{Op: "apply", Pos: end, Len: ns.textLen}
	}

	o.seq++
	seg := Segment{
		ID:        o.newID(),
		NoteID:    noteID,
		CodeID:    codeID,
		Start:     start,
		End:       end,
		Memo:      memo,
		CreatedAt: o.now(),
		Seq:       o.seq,
	}
	ns.segs = append(ns.segs, seg)
	sortSegments(ns.segs)
	ns.dirty = true
	return seg, nil
}

// Get returns a segment by id.
func (o *Overlay) Get(segmentID string) (Segment, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ns, i, ok := o.find(segmentID)
	if !ok {
		return Segment{}, false
	}
	return ns.segs[i], true
}

// Remove deletes a segment.
func (o *Overlay) Remove(segmentID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	ns, i, ok := o.find(segmentID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
	}
	ns.segs = append(ns.segs[:i], ns.segs[i+1:]...)
	ns.dirty = true
	return nil
}

// SetMemo replaces a segment's memo.
func (o *Overlay) SetMemo(segmentID, memo string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	ns, i, ok := o.find(segmentID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSegmentNotFound, segmentID)
	}
	ns.segs[i].Memo = memo
	return nil
}

// SegmentsFor returns a note's segments ordered by start, then creation.
func (o *Overlay) SegmentsFor(noteID string) []Segment {
	o.mu.Lock()
	defer o.mu.Unlock()
	ns, ok := o.notes[noteID]
	if !ok {
		return nil
	}
	out := make([]Segment, len(ns.segs))
	copy(out, ns.segs)
	return out
}

// At returns the segments covering pos.
func (o *Overlay) At(noteID string, pos int) []Segment {
	return o.Intersecting(noteID, pos, pos+1)
}

// Intersecting returns the segments overlapping [start, end), ordered like
// SegmentsFor.
func (o *Overlay) Intersecting(noteID string, start, end int) []Segment {
	if end <= start {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	ns, ok := o.notes[noteID]
	if !ok || len(ns.segs) == 0 {
		return nil
	}
	ns.reindex()

	ids, ok := ns.lookup.AllIntersections(start, end)
	if !ok {
		return nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	var out []Segment
	for _, s := range ns.segs {
		if _, hit := want[s.ID]; !hit {
			continue
		}
		if s.Start < end && s.End > start {
			out = append(out, s)
		}
	}
	return out
}

// Adjust rebases a note's segments over one buffer mutation and returns the
// segments the mutation deleted outright.
//
// Segments before the edit keep their offsets and segments after it shift by
// the delta's change. A pure insertion at a segment's start shifts it, at its
// end leaves it alone, and strictly inside grows it. A pure deletion covering
// a whole segment removes it. Any other overlap clamps the endpoint that fell
// inside the replaced range onto the replacement text.
func (o *Overlay) Adjust(noteID string, d buffer.Delta) []Segment {
	if d.Empty() {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	ns, ok := o.notes[noteID]
	if !ok {
		return nil
	}
	ns.textLen += d.Change()

	var removed []Segment
	kept := ns.segs[:0]
	for _, s := range ns.segs {
		next, ok := rebase(s, d)
		if !ok {
			removed = append(removed, s)
			continue
		}
		kept = append(kept, next)
	}
	ns.segs = kept
	sortSegments(ns.segs)
	ns.dirty = true
	return removed
}

// RemoveCode deletes every segment tagged with codeID across loaded notes.
func (o *Overlay) RemoveCode(codeID string) []Segment {
	o.mu.Lock()
	defer o.mu.Unlock()

	var removed []Segment
	for _, ns := range o.notes {
		kept := ns.segs[:0]
		for _, s := range ns.segs {
			if s.CodeID == codeID {
				removed = append(removed, s)
				continue
			}
			kept = append(kept, s)
		}
		if len(kept) != len(ns.segs) {
			ns.segs = kept
			ns.dirty = true
		}
	}
	return removed
}

func rebase(s Segment, d buffer.Delta) (Segment, bool) {
	change := d.Change()

	if d.Removed == 0 {
		switch at := d.Start; {
		case at <= s.Start:
			s.Start += d.Inserted
			s.End += d.Inserted
		case at < s.End:
			s.End += d.Inserted
		}
		return s, true
	}

	switch {
	case s.End <= d.Start:
		return s, true
	case s.Start >= d.End:
		s.Start += change
		s.End += change
		return s, true
	case d.Inserted == 0 && d.Start <= s.Start && s.End <= d.End:
		return s, false
	}

	replEnd := d.Start + d.Inserted
	if s.Start > d.Start {
		s.Start = d.Start
	}
	switch {
	case s.End >= d.End:
		s.End += change
	default:
		s.End = replEnd
	}
	return s, s.Start < s.End
}

func (o *Overlay) find(segmentID string) (*noteSegments, int, bool) {
	for _, ns := range o.notes {
		for i, s := range ns.segs {
			if s.ID == segmentID {
				return ns, i, true
			}
		}
	}
	return nil, 0, false
}

func (ns *noteSegments) reindex() {
	if !ns.dirty && ns.lookup != nil {
		return
	}
	ns.lookup = interval.NewMultiValueSearchTreeWithOptions[string, int](cmpInt, interval.TreeWithIntervalPoint())
	for _, s := range ns.segs {
		// Insert only fails for an inverted interval, which rebase never
		// produces.
		_ = ns.lookup.Insert(s.Start, s.End, s.ID)
	}
	ns.dirty = false
}

func cmpInt(a, b int) int {
	return a - b
}

func sortSegments(segs []Segment) {
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].Start != segs[j].Start {
			return segs[i].Start < segs[j].Start
		}
		return segs[i].Seq < segs[j].Seq
	})
}
