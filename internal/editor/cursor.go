package editor

import "github.com/Paintersrp/snyft/internal/grapheme"

// Text is the read side of the buffer the cursor moves over.
type Text interface {
	Len() int
	LineCount() int
	LineOf(pos int) int
	LineStart(line int) int
	LineLen(line int) int
	ColumnOf(pos int) int
	Offset(line, col int) int
	GraphemeAt(pos int) string
}

// Direction names a cursor motion.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	WordLeft
	WordRight
	LineStart
	LineEnd
	DocStart
	DocEnd
	PageUp
	PageDown
)

var directionNames = map[Direction]string{
	Left:      "left",
	Right:     "right",
	Up:        "up",
	Down:      "down",
	WordLeft:  "word-left",
	WordRight: "word-right",
	LineStart: "line-start",
	LineEnd:   "line-end",
	DocStart:  "doc-start",
	DocEnd:    "doc-end",
	PageUp:    "page-up",
	PageDown:  "page-down",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "unknown"
}

// Selection is an anchored range of grapheme indices. Anchor == Head means
// there is no selection.
type Selection struct {
	Anchor int
	Head   int
}

// Range returns the selection ordered as [start, end).
func (s Selection) Range() (int, int) {
	if s.Anchor <= s.Head {
		return s.Anchor, s.Head
	}
	return s.Head, s.Anchor
}

// Empty reports whether the selection covers nothing.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// Cursor tracks the insertion point, the selection anchor and the column
// remembered across vertical motion.
type Cursor struct {
	text   Text
	head   int
	anchor int

	vcol    int
	hasVcol bool

	pageSize int
}

// NewCursor places a cursor at the start of text.
func NewCursor(text Text) *Cursor {
	return &Cursor{text: text, pageSize: 1}
}

// SetPageSize sets the line count PageUp and PageDown travel.
func (c *Cursor) SetPageSize(lines int) {
	if lines < 1 {
		lines = 1
	}
	c.pageSize = lines
}

// Cursor returns the insertion point.
func (c *Cursor) Cursor() int {
	return c.head
}

// Selection returns the selected range ordered as [start, end).
func (c *Cursor) Selection() (int, int) {
	return c.Anchored().Range()
}

// Anchored returns the raw anchor and head.
func (c *Cursor) Anchored() Selection {
	return Selection{Anchor: c.anchor, Head: c.head}
}

// HasSelection reports whether any text is selected.
func (c *Cursor) HasSelection() bool {
	return c.anchor != c.head
}

// VirtualColumn returns the column remembered by vertical motion.
func (c *Cursor) VirtualColumn() (int, bool) {
	return c.vcol, c.hasVcol
}

// SetCursor collapses the selection onto pos and forgets the remembered
// column. pos is clamped to the text.
func (c *Cursor) SetCursor(pos int) {
	pos = c.clamp(pos)
	c.head, c.anchor = pos, pos
	c.hasVcol = false
}

// SetSelection replaces the selection. Both ends are clamped.
func (c *Cursor) SetSelection(anchor, head int) {
	c.anchor, c.head = c.clamp(anchor), c.clamp(head)
	c.hasVcol = false
}

// Collapse drops the selection, keeping the head.
func (c *Cursor) Collapse() {
	c.anchor = c.head
}

// SelectAll selects the whole text.
func (c *Cursor) SelectAll() {
	c.anchor = 0
	c.head = c.text.Len()
	c.hasVcol = false
}

// Move applies one motion. With extend the anchor stays put and the head
// moves; without it the selection collapses onto the new position.
func (c *Cursor) Move(dir Direction, extend bool) {
	pos := c.head
	switch dir {
	case Left:
		c.hasVcol = false
		if pos > 0 {
			pos--
		}
	case Right:
		c.hasVcol = false
		if pos < c.text.Len() {
			pos++
		}
	case Up:
		pos = c.vertical(-1)
	case Down:
		pos = c.vertical(1)
	case PageUp:
		pos = c.vertical(-c.pageSize)
	case PageDown:
		pos = c.vertical(c.pageSize)
	case WordLeft:
		c.hasVcol = false
		pos = c.wordLeft(pos)
	case WordRight:
		c.hasVcol = false
		pos = c.wordRight(pos)
	case LineStart:
		c.hasVcol = false
		pos = c.text.LineStart(c.text.LineOf(pos))
	case LineEnd:
		c.hasVcol = false
		line := c.text.LineOf(pos)
		pos = c.text.LineStart(line) + c.text.LineLen(line)
	case DocStart:
		c.hasVcol = false
		pos = 0
	case DocEnd:
		c.hasVcol = false
		pos = c.text.Len()
	}

	c.head = pos
	if !extend {
		c.anchor = pos
	}
}

// vertical moves the head by delta lines, clamped to the first and last
// line. Moving from the first line up or the last line down does nothing.
func (c *Cursor) vertical(delta int) int {
	line := c.text.LineOf(c.head)
	target := line + delta
	if target < 0 {
		target = 0
	}
	if last := c.text.LineCount() - 1; target > last {
		target = last
	}
	if target == line {
		return c.head
	}

	col := c.text.ColumnOf(c.head)
	want := col
	if c.hasVcol {
		want = c.vcol
		if col > want {
			want = col
		}
	}
	c.vcol, c.hasVcol = want, true
	return c.text.Offset(target, want)
}

// wordLeft moves to the start of the previous word, skipping whitespace.
func (c *Cursor) wordLeft(pos int) int {
	for pos > 0 && grapheme.ClassOf(c.text.GraphemeAt(pos-1)) == grapheme.ClassSpace {
		pos--
	}
	if pos == 0 {
		return 0
	}
	class := grapheme.ClassOf(c.text.GraphemeAt(pos - 1))
	for pos > 0 && grapheme.ClassOf(c.text.GraphemeAt(pos-1)) == class {
		pos--
	}
	return pos
}

// wordRight moves to the end of the next word, skipping whitespace.
func (c *Cursor) wordRight(pos int) int {
	n := c.text.Len()
	for pos < n && grapheme.ClassOf(c.text.GraphemeAt(pos)) == grapheme.ClassSpace {
		pos++
	}
	if pos == n {
		return n
	}
	class := grapheme.ClassOf(c.text.GraphemeAt(pos))
	for pos < n && grapheme.ClassOf(c.text.GraphemeAt(pos)) == class {
		pos++
	}
	return pos
}

func (c *Cursor) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if n := c.text.Len(); pos > n {
		return n
	}
	return pos
}
