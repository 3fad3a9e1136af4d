package notes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Paintersrp/snyft/internal/codebook"
	"github.com/Paintersrp/snyft/internal/editor"
	"github.com/Paintersrp/snyft/internal/grapheme"
	"github.com/Paintersrp/snyft/internal/overlay"
	"github.com/Paintersrp/snyft/internal/store"
)

const fallbackCodeColor = "#888888"

// editorSession is the editor pane: the open note's metadata plus the
// editing engine.
type editorSession struct {
	ed           *editor.Editor
	note         store.Note
	highlighting bool
}

func newEditorSession(ed *editor.Editor) *editorSession {
	return &editorSession{ed: ed}
}

func (s *editorSession) open(n store.Note, segs []overlay.Segment) {
	s.note = n
	s.highlighting = false
	s.ed.Open(n.ID, n.Body, segs)
}

func (s *editorSession) close() {
	s.note = store.Note{}
	s.highlighting = false
	s.ed.Close()
}

func (s *editorSession) isOpen() bool {
	return s != nil && s.ed.NoteID() != ""
}

func (s *editorSession) noteID() string {
	if s == nil {
		return ""
	}
	return s.ed.NoteID()
}

func (s *editorSession) viewHeader() string {
	if !s.isOpen() {
		return "No note open"
	}
	header := fmt.Sprintf("Editing %s", s.note.Title)
	if s.highlighting {
		header += " " + modeStyle.Render("HIGHLIGHT")
	}
	return header
}

func (s *editorSession) setSize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s.ed.Resize(width, height)
}

// cursorSummary names the codes covering the cursor and the memo of the
// innermost one.
func (s *editorSession) cursorSummary(book *codebook.Book) string {
	segs := s.ed.SegmentsAt(s.ed.Cursor().Cursor())
	if len(segs) == 0 {
		return ""
	}
	names := make([]string, 0, len(segs))
	for _, seg := range segs {
		names = append(names, codeName(book, seg.CodeID))
	}
	summary := "[" + strings.Join(names, ", ") + "]"
	if memo := segs[len(segs)-1].Memo; memo != "" {
		summary += " " + memo
	}
	return summary
}

// innermostSegment returns the most specific segment at the cursor.
func (s *editorSession) innermostSegment() (overlay.Segment, bool) {
	segs := s.ed.SegmentsAt(s.ed.Cursor().Cursor())
	if len(segs) == 0 {
		return overlay.Segment{}, false
	}
	return segs[len(segs)-1], true
}

type cellKind int

const (
	cellText cellKind = iota
	cellSelected
	cellCoded
	cellCursor
)

type cellStyle struct {
	kind  cellKind
	color string
}

func (c cellStyle) style() lipgloss.Style {
	switch c.kind {
	case cellCursor:
		return cursorStyle
	case cellSelected:
		return selectionStyle
	case cellCoded:
		return codeStyle(c.color)
	default:
		return textStyle
	}
}

// render draws the visible window of the buffer with the selection, coded
// segments, and cursor styled.
func (s *editorSession) render(book *codebook.Book, focused bool) string {
	if !s.isOpen() {
		return ""
	}
	v := s.ed.Viewport()
	buf := s.ed.Buffer()
	top, bottom := v.Visible()

	lines := make([]string, 0, bottom-top)
	for row := top; row < bottom; row++ {
		if row >= buf.LineCount() {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, s.renderLine(row, book, focused))
	}
	return strings.Join(lines, "\n")
}

func (s *editorSession) renderLine(row int, book *codebook.Book, focused bool) string {
	v := s.ed.Viewport()
	buf := s.ed.Buffer()
	cur := s.ed.Cursor()
	head := cur.Cursor()
	selStart, selEnd := cur.Selection()

	start := buf.LineStart(row)
	clusters := grapheme.Split(buf.Line(row))
	segs := s.ed.SegmentsIn(start, start+len(clusters))
	left, right := v.ScrollX, v.ScrollX+v.Width

	var (
		out     strings.Builder
		run     strings.Builder
		current cellStyle
		started bool
	)
	flush := func() {
		if run.Len() > 0 {
			out.WriteString(current.style().Render(run.String()))
			run.Reset()
		}
	}
	emit := func(text string, cs cellStyle) {
		if started && cs != current {
			flush()
		}
		current, started = cs, true
		run.WriteString(text)
	}

	col := 0
	for i, c := range clusters {
		w := s.ed.CellWidth(c, col)
		if col >= right {
			break
		}
		if col < left {
			col += w
			continue
		}
		text := c
		if c == "\t" {
			text = strings.Repeat(" ", w)
		}

		pos := start + i
		cs := cellStyle{kind: cellText}
		switch {
		case focused && pos == head:
			cs.kind = cellCursor
		case s.ed.InBlock(row, col):
			cs.kind = cellSelected
		case pos >= selStart && pos < selEnd:
			cs.kind = cellSelected
		default:
			if seg, ok := covering(segs, pos); ok {
				cs = cellStyle{kind: cellCoded, color: codeColor(book, seg.CodeID)}
			}
		}
		emit(text, cs)
		col += w
	}
	if focused && head == start+len(clusters) && col >= left && col < right {
		emit(" ", cellStyle{kind: cellCursor})
	}
	flush()
	return out.String()
}

// covering returns the latest-starting segment covering pos. segs is
// ordered by start.
func covering(segs []overlay.Segment, pos int) (overlay.Segment, bool) {
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].Start <= pos && pos < segs[i].End {
			return segs[i], true
		}
	}
	return overlay.Segment{}, false
}

func codeColor(book *codebook.Book, codeID string) string {
	if book != nil {
		if c, ok := book.Get(codeID); ok {
			return c.Color
		}
	}
	return fallbackCodeColor
}

func codeName(book *codebook.Book, codeID string) string {
	if book != nil {
		if c, ok := book.Get(codeID); ok {
			return c.Name
		}
	}
	return codeID
}
