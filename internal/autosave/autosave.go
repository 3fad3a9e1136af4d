// Package autosave persists note bodies in the background after every
// committed edit.
//
// Each commit gets a per-note sequence number. A single worker applies saves
// in commit order, coalescing queued saves for one note down to the latest
// body, so a stale body never overwrites a newer one. Flush is the
// synchronization point used before switching notes and before exit.
package autosave

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Paintersrp/snyft/internal/overlay"
)

// Version is one committed state of a note. Segments were captured with
// Body when Coded is set; otherwise the stored segments are left alone.
type Version struct {
	NoteID     string
	Body       string
	Segments   []overlay.Segment
	Coded      bool
	ModifiedAt time.Time
}

// Saver writes a committed version to durable storage.
type Saver interface {
	SaveVersion(ctx context.Context, v Version) error
}

// SegmentSource supplies the coded segments of loaded notes. Commit reads
// it so each body is stored with the segments it was committed with.
type SegmentSource interface {
	Loaded(noteID string) bool
	SegmentsFor(noteID string) []overlay.Segment
}

// Indexer is told about every body that reached storage.
type Indexer interface {
	QueueIndex(noteID, body string)
}

// StorageError reports a save that did not reach storage. The body stays
// queued for retry.
type StorageError struct {
	NoteID string
	Seq    uint64
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("autosave: note %s (seq %d): %v", e.NoteID, e.Seq, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

type save struct {
	body  string
	segs  []overlay.Segment
	coded bool
	seq   uint64
}

type noteState struct {
	seq     uint64 // last committed
	applied uint64 // last stored
	settled uint64 // last stored or failed

	pending *save
	failed  *save
	queued  bool
	lastErr *StorageError
}

// Controller owns the background save worker.
type Controller struct {
	saver      Saver
	indexer    Indexer
	segments   SegmentSource
	logger     *slog.Logger
	now        func() time.Time
	retryDelay time.Duration

	mu      sync.Mutex
	notes   map[string]*noteState
	queue   []string
	changed chan struct{}
	closed  bool

	errs chan *StorageError
	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithIndexer notifies ix after every successful save.
func WithIndexer(ix Indexer) Option {
	return func(c *Controller) { c.indexer = ix }
}

// WithSegments captures the segments of src at every commit.
func WithSegments(src SegmentSource) Option {
	return func(c *Controller) { c.segments = src }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock overrides the modification timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRetryDelay re-attempts a failed save after d. Zero disables automatic
// retries; failed bodies are then retried on the next Commit or Retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) { c.retryDelay = d }
}

// New starts a controller writing through saver.
func New(saver Saver, opts ...Option) *Controller {
	c := &Controller{
		saver:   saver,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		notes:   make(map[string]*noteState),
		changed: make(chan struct{}),
		errs:    make(chan *StorageError, 16),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

// Errors delivers storage failures. Failures are dropped when nobody reads
// and the buffer is full; Flush still reports them.
func (c *Controller) Errors() <-chan *StorageError {
	return c.errs
}

// Commit queues body as the newest content of noteID and returns its
// sequence number. It never blocks on storage.
func (c *Controller) Commit(noteID, body string) uint64 {
	job := &save{body: body}
	if c.segments != nil && c.segments.Loaded(noteID) {
		job.segs, job.coded = c.segments.SegmentsFor(noteID), true
	}

	c.mu.Lock()
	st := c.state(noteID)
	st.seq++
	job.seq = st.seq
	st.pending = job
	st.failed = nil

	if c.closed {
		st.pending = nil
		c.mu.Unlock()
		c.apply(noteID, job)
		return job.seq
	}
	c.enqueue(noteID, st)
	c.mu.Unlock()
	return job.seq
}

// Retry re-queues the last failed body of noteID, if any.
func (c *Controller) Retry(noteID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.notes[noteID]
	if !ok || st.failed == nil || st.pending != nil || c.closed {
		return
	}
	st.pending = st.failed
	st.failed = nil
	c.enqueue(noteID, st)
}

// Discard drops anything queued for noteID. Used when the note is deleted.
func (c *Controller) Discard(noteID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.notes[noteID]
	if !ok {
		return
	}
	st.pending = nil
	st.failed = nil
	st.lastErr = nil
	st.settled = st.seq
	c.broadcast()
}

// Seq returns the latest committed and stored sequence numbers of noteID.
func (c *Controller) Seq(noteID string) (committed, stored uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.notes[noteID]; ok {
		return st.seq, st.applied
	}
	return 0, 0
}

// Unsaved counts the notes with commits not yet in storage, failed ones
// included.
func (c *Controller) Unsaved() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, st := range c.notes {
		if st.settled < st.seq || st.failed != nil {
			n++
		}
	}
	return n
}

// Flush waits until every commit made to noteID before the call has been
// stored or has failed. It returns the StorageError of the latest failure.
func (c *Controller) Flush(ctx context.Context, noteID string) error {
	c.mu.Lock()
	st, ok := c.notes[noteID]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	target := st.seq
	for st.settled < target {
		ch := c.changed
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return fmt.Errorf("autosave: flush %s: %w", noteID, ctx.Err())
		}
		c.mu.Lock()
	}
	defer c.mu.Unlock()
	if st.lastErr != nil {
		return st.lastErr
	}
	return nil
}

// Close stops accepting background work, drains the queue and waits for the
// worker to exit. Later commits are written synchronously.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
	return nil
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		c.drain()
		select {
		case <-c.wake:
		case <-c.stop:
			c.drain()
			return
		}
	}
}

func (c *Controller) drain() {
	for {
		noteID, job, ok := c.next()
		if !ok {
			return
		}
		c.apply(noteID, job)
	}
}

func (c *Controller) next() (string, *save, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) > 0 {
		noteID := c.queue[0]
		c.queue = c.queue[1:]
		st := c.notes[noteID]
		st.queued = false
		if st.pending == nil {
			continue
		}
		job := st.pending
		st.pending = nil
		return noteID, job, true
	}
	return "", nil, false
}

func (c *Controller) apply(noteID string, job *save) {
	c.mu.Lock()
	st := c.state(noteID)
	if job.seq <= st.applied {
		c.mu.Unlock()
		c.logger.Debug("discarding stale save", "note", noteID, "seq", job.seq, "applied", st.applied)
		return
	}
	c.mu.Unlock()

	err := c.saver.SaveVersion(context.Background(), Version{
		NoteID:     noteID,
		Body:       job.body,
		Segments:   job.segs,
		Coded:      job.coded,
		ModifiedAt: c.now(),
	})

	c.mu.Lock()
	if job.seq > st.settled {
		st.settled = job.seq
	}
	var serr *StorageError
	if err != nil {
		serr = &StorageError{NoteID: noteID, Seq: job.seq, Err: err}
		st.lastErr = serr
		if st.pending == nil {
			st.failed = job
		}
	} else {
		if job.seq > st.applied {
			st.applied = job.seq
		}
		if st.lastErr != nil && st.lastErr.Seq <= job.seq {
			st.lastErr = nil
		}
	}
	c.broadcast()
	retry := serr != nil && c.retryDelay > 0 && !c.closed
	c.mu.Unlock()

	if serr != nil {
		c.logger.Error("autosave failed", "note", noteID, "seq", job.seq, "error", err)
		select {
		case c.errs <- serr:
		default:
		}
		if retry {
			time.AfterFunc(c.retryDelay, func() { c.Retry(noteID) })
		}
		return
	}

	c.logger.Debug("note saved", "note", noteID, "seq", job.seq)
	if c.indexer != nil {
		c.indexer.QueueIndex(noteID, job.body)
	}
}

// state returns the bookkeeping for noteID. c.mu must be held.
func (c *Controller) state(noteID string) *noteState {
	st, ok := c.notes[noteID]
	if !ok {
		st = &noteState{}
		c.notes[noteID] = st
	}
	return st
}

// enqueue schedules noteID for the worker. c.mu must be held.
func (c *Controller) enqueue(noteID string, st *noteState) {
	if !st.queued {
		st.queued = true
		c.queue = append(c.queue, noteID)
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// broadcast wakes every Flush waiter. c.mu must be held.
func (c *Controller) broadcast() {
	close(c.changed)
	c.changed = make(chan struct{})
}
