package editor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Paintersrp/snyft/internal/buffer"
	"github.com/Paintersrp/snyft/internal/grapheme"
	"github.com/Paintersrp/snyft/internal/overlay"
)

// DefaultTabWidth is the display width of a tab stop.
const DefaultTabWidth = 4

// Committer receives the full body after every mutation.
type Committer interface {
	Commit(noteID, body string) uint64
}

// Editor is the editing session over the open note. Mutations flow buffer,
// overlay, committer, viewport in that order; motions touch only the cursor
// and the viewport.
type Editor struct {
	noteID   string
	buf      *buffer.Buffer
	cur      *Cursor
	view     *Viewport
	overlay  *overlay.Overlay
	saver    Committer
	clip     Clipboard
	tabWidth int
	logger   *slog.Logger

	lastSeq      uint64
	widths       lineWidths
	widthVersion uint64
	block        *Block
}

// Option configures an Editor.
type Option func(*Editor)

// WithClipboard sets the clipboard used by Cut, Copy and Paste.
func WithClipboard(c Clipboard) Option {
	return func(e *Editor) { e.clip = c }
}

// WithTabWidth sets the tab stop width used for display columns.
func WithTabWidth(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.tabWidth = n
		}
	}
}

// WithViewport replaces the default 80x24 viewport.
func WithViewport(v *Viewport) Option {
	return func(e *Editor) { e.view = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// New returns an editor with no note open.
func New(ov *overlay.Overlay, saver Committer, opts ...Option) *Editor {
	e := &Editor{
		buf:      buffer.New(""),
		view:     NewViewport(80, 24, DefaultPadding),
		overlay:  ov,
		saver:    saver,
		clip:     &MemoryClipboard{},
		tabWidth: DefaultTabWidth,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cur = NewCursor(e.buf)
	e.cur.SetPageSize(e.view.PageSize())
	e.widthVersion = ^uint64(0)
	return e
}

// Open loads body and its coded segments as the note being edited. The
// cursor goes to the start of the document.
func (e *Editor) Open(noteID, body string, segs []overlay.Segment) {
	if e.noteID != "" && e.noteID != noteID {
		e.overlay.Drop(e.noteID)
	}
	e.noteID = noteID
	e.block = nil
	e.buf.Reset(body)
	e.overlay.Load(noteID, e.buf.Len(), segs)
	e.cur.SetCursor(0)
	e.view.ScrollX, e.view.ScrollY = 0, 0
	e.lastSeq = 0
}

// Close forgets the open note.
func (e *Editor) Close() {
	if e.noteID != "" {
		e.overlay.Drop(e.noteID)
	}
	e.noteID = ""
	e.block = nil
	e.buf.Reset("")
	e.cur.SetCursor(0)
}

// NoteID returns the open note, or "" when none is open.
func (e *Editor) NoteID() string { return e.noteID }

// Buffer exposes the text for rendering. Callers must not mutate it.
func (e *Editor) Buffer() *buffer.Buffer { return e.buf }

// Cursor exposes the cursor state.
func (e *Editor) Cursor() *Cursor { return e.cur }

// Viewport exposes the scroll state.
func (e *Editor) Viewport() *Viewport { return e.view }

// Text returns the full body.
func (e *Editor) Text() string { return e.buf.String() }

// LastSeq is the sequence number of the last committed body.
func (e *Editor) LastSeq() uint64 { return e.lastSeq }

// Resize changes the viewport size and the page motion distance.
func (e *Editor) Resize(width, height int) {
	e.view.Resize(width, height)
	e.cur.SetPageSize(e.view.PageSize())
	e.follow()
}

// Move applies a cursor motion.
func (e *Editor) Move(dir Direction, extend bool) {
	e.block = nil
	e.cur.Move(dir, extend)
	e.follow()
}

// MoveTo places the cursor at a grapheme index, as a mouse click does.
func (e *Editor) MoveTo(pos int, extend bool) {
	e.block = nil
	if extend {
		e.cur.SetSelection(e.cur.Anchored().Anchor, pos)
	} else {
		e.cur.SetCursor(pos)
	}
	e.follow()
}

// SelectAll selects the whole document.
func (e *Editor) SelectAll() {
	e.block = nil
	e.cur.SelectAll()
	e.follow()
}

// InsertText types s at the cursor, replacing the selection if any. A block
// selection is dropped and the text goes in at its head.
func (e *Editor) InsertText(s string) error {
	e.block = nil
	start, end := e.cur.Selection()
	if s == "" && start == end {
		return nil
	}
	return e.replace("insert", start, end, s)
}

// Newline inserts a line break.
func (e *Editor) Newline() error {
	return e.InsertText("\n")
}

// Tab inserts a tab character.
func (e *Editor) Tab() error {
	return e.InsertText("\t")
}

// Backspace deletes the selection, or the grapheme before the cursor.
func (e *Editor) Backspace() error {
	if e.block != nil {
		return e.eraseBlock("backspace")
	}
	start, end := e.cur.Selection()
	if start == end {
		if start == 0 {
			return nil
		}
		start--
	}
	return e.replace("backspace", start, end, "")
}

// DeleteForward deletes the selection, or the grapheme after the cursor.
func (e *Editor) DeleteForward() error {
	if e.block != nil {
		return e.eraseBlock("delete")
	}
	start, end := e.cur.Selection()
	if start == end {
		if end >= e.buf.Len() {
			return nil
		}
		end++
	}
	return e.replace("delete", start, end, "")
}

// DeleteWordBackward deletes the selection, or back to the start of the
// word before the cursor.
func (e *Editor) DeleteWordBackward() error {
	e.block = nil
	start, end := e.cur.Selection()
	if start == end {
		start = e.cur.wordLeft(end)
		if start == end {
			return nil
		}
	}
	return e.replace("delete word", start, end, "")
}

// DeleteToLineStart deletes the selection, or everything between the start
// of the cursor's line and the cursor. At the start of a line it does
// nothing.
func (e *Editor) DeleteToLineStart() error {
	e.block = nil
	start, end := e.cur.Selection()
	if start == end {
		start = e.buf.LineStart(e.buf.LineOf(end))
		if start == end {
			return nil
		}
	}
	return e.replace("delete line", start, end, "")
}

// Copy writes the selection to the clipboard. Without a selection it does
// nothing.
func (e *Editor) Copy() error {
	if e.block != nil {
		if err := e.clip.WriteAll(e.blockText()); err != nil {
			return fmt.Errorf("editor: copy: %w", err)
		}
		return nil
	}
	start, end := e.cur.Selection()
	if start == end {
		return nil
	}
	text, err := e.buf.Slice(start, end)
	if err != nil {
		return e.fail("copy", err)
	}
	if err := e.clip.WriteAll(text); err != nil {
		return fmt.Errorf("editor: copy: %w", err)
	}
	return nil
}

// Cut copies the selection and deletes it.
func (e *Editor) Cut() error {
	if e.block != nil {
		if err := e.Copy(); err != nil {
			return err
		}
		return e.eraseBlock("cut")
	}
	start, end := e.cur.Selection()
	if start == end {
		return nil
	}
	if err := e.Copy(); err != nil {
		return err
	}
	return e.replace("cut", start, end, "")
}

// Paste inserts the clipboard contents, replacing the selection if any.
func (e *Editor) Paste() error {
	text, err := e.clip.ReadAll()
	if err != nil {
		return fmt.Errorf("editor: paste: %w", err)
	}
	return e.InsertText(text)
}

// ApplyCode codes the current selection and commits so the new segment is
// persisted with the body. The selection collapses onto its head.
func (e *Editor) ApplyCode(codeID, memo string) (overlay.Segment, error) {
	sel := e.cur.Anchored()
	seg, err := e.overlay.Apply(e.noteID, codeID, sel.Anchor, sel.Head, memo)
	if err != nil {
		if errors.Is(err, buffer.ErrInvalidOffset) {
			return seg, e.fail("apply code", err)
		}
		return seg, err
	}
	e.cur.Collapse()
	e.commit()
	return seg, nil
}

// RemoveSegment removes a coded segment of the open note.
func (e *Editor) RemoveSegment(segmentID string) error {
	if err := e.overlay.Remove(segmentID); err != nil {
		return err
	}
	e.commit()
	return nil
}

// SetMemo changes the memo of a coded segment.
func (e *Editor) SetMemo(segmentID, memo string) error {
	if err := e.overlay.SetMemo(segmentID, memo); err != nil {
		return err
	}
	e.commit()
	return nil
}

// Segments returns the coded segments of the open note.
func (e *Editor) Segments() []overlay.Segment {
	return e.overlay.SegmentsFor(e.noteID)
}

// SegmentsAt returns the segments covering the grapheme at pos.
func (e *Editor) SegmentsAt(pos int) []overlay.Segment {
	return e.overlay.At(e.noteID, pos)
}

// SegmentsIn returns the segments overlapping [start, end).
func (e *Editor) SegmentsIn(start, end int) []overlay.Segment {
	return e.overlay.Intersecting(e.noteID, start, end)
}

// DisplayColumn returns the screen column of grapheme col on line, with
// tabs expanded to the next stop.
func (e *Editor) DisplayColumn(line, col int) int {
	w := 0
	for i, c := range grapheme.Split(e.buf.Line(line)) {
		if i >= col {
			break
		}
		w += e.CellWidth(c, w)
	}
	return w
}

// ExpandTabs returns line with tabs replaced by spaces up to the next stop.
func (e *Editor) ExpandTabs(line string) string {
	var out []byte
	w := 0
	for _, c := range grapheme.Split(line) {
		cw := e.CellWidth(c, w)
		if c == "\t" {
			for i := 0; i < cw; i++ {
				out = append(out, ' ')
			}
		} else {
			out = append(out, c...)
		}
		w += cw
	}
	return string(out)
}

// DocWidth returns the display width of the widest line. Widths are kept
// per line and updated from each edit, so only a freshly loaded buffer is
// measured in full.
func (e *Editor) DocWidth() int {
	if e.widthVersion != e.buf.Version() {
		e.widths.reset(e.measureLines(0, e.buf.LineCount()-1))
		e.widthVersion = e.buf.Version()
	}
	return e.widths.max()
}

func (e *Editor) measureLines(first, last int) []int {
	widths := make([]int, 0, last-first+1)
	for line := first; line <= last; line++ {
		widths = append(widths, e.DisplayColumn(line, e.buf.LineLen(line)))
	}
	return widths
}

// remeasure updates the line widths for the lines d touched.
func (e *Editor) remeasure(d buffer.Delta, oldLines int) {
	first := e.buf.LineOf(d.Start)
	last := e.buf.LineOf(d.Start + d.Inserted)
	added := last - first + 1
	removed := added - (e.buf.LineCount() - oldLines)
	e.widths.splice(first, removed, e.measureLines(first, last))
	e.widthVersion = e.buf.Version()
}

// CellWidth returns the screen width of cluster c drawn at display column
// at. Tabs reach the next stop.
func (e *Editor) CellWidth(c string, at int) int {
	if c == "\t" {
		return e.tabWidth - at%e.tabWidth
	}
	return grapheme.Width(c)
}

// replace is the single mutation path for one range: edit, then place the
// cursor, commit and follow.
func (e *Editor) replace(op string, start, end int, text string) error {
	oldLen := e.buf.Len()
	if _, err := e.edit(op, start, end, text); err != nil {
		return err
	}

	// Text after the edited range is untouched, so the cursor lands where
	// that suffix now begins.
	e.cur.SetCursor(e.buf.Len() - (oldLen - end))
	e.commit()
	e.follow()
	return nil
}

// edit changes the buffer and keeps the line widths and the overlay in step
// with the delta. It neither commits nor moves the cursor.
func (e *Editor) edit(op string, start, end int, text string) (buffer.Delta, error) {
	oldLines := e.buf.LineCount()
	widthsValid := e.widthVersion == e.buf.Version()
	d, err := e.buf.Replace(start, end, text)
	if err != nil {
		return d, e.fail(op, err)
	}
	if widthsValid && !d.Empty() {
		e.remeasure(d, oldLines)
	}

	if removed := e.overlay.Adjust(e.noteID, d); len(removed) > 0 {
		e.logger.Debug("edit removed coded segments", "note", e.noteID, "count", len(removed))
	}
	return d, nil
}

func (e *Editor) commit() {
	if e.saver == nil || e.noteID == "" {
		return
	}
	e.lastSeq = e.saver.Commit(e.noteID, e.buf.String())
}

func (e *Editor) follow() {
	head := e.cur.Cursor()
	line := e.buf.LineOf(head)
	col := e.DisplayColumn(line, e.buf.ColumnOf(head))
	e.view.FollowCursor(line, col, e.buf.LineCount(), e.DocWidth())
}

func (e *Editor) fail(op string, err error) error {
	e.logger.Error("editor contract violation", "op", op, "note", e.noteID, "error", err)
	return fmt.Errorf("editor: %s: %w", op, err)
}
