package editor

import (
	"strings"

	"github.com/Paintersrp/snyft/internal/grapheme"
)

// Block is a rectangular selection over lines and display columns. The
// cursor sits at the head; columns span [min, max) of the two ends.
type Block struct {
	AnchorLine, AnchorCol int
	HeadLine, HeadCol     int
}

// Bounds returns the first and last line and the column span of b.
func (b Block) Bounds() (top, bottom, left, right int) {
	top, bottom = b.AnchorLine, b.HeadLine
	if top > bottom {
		top, bottom = bottom, top
	}
	left, right = b.AnchorCol, b.HeadCol
	if left > right {
		left, right = right, left
	}
	return top, bottom, left, right
}

type span struct {
	start, end int
}

// Block returns the active block selection.
func (e *Editor) Block() (Block, bool) {
	if e.block == nil {
		return Block{}, false
	}
	return *e.block, true
}

// ClearBlock drops the block selection, leaving the cursor where it is.
func (e *Editor) ClearBlock() {
	e.block = nil
}

// ExtendBlock grows or shrinks the block selection by one step, starting a
// block at the cursor when none is active. Left and right step over whole
// clusters of the head line and stop at its ends; up and down keep the
// column.
func (e *Editor) ExtendBlock(dir Direction) {
	if e.block == nil {
		head := e.cur.Cursor()
		line := e.buf.LineOf(head)
		col := e.DisplayColumn(line, e.buf.ColumnOf(head))
		e.cur.SetCursor(head)
		e.block = &Block{AnchorLine: line, AnchorCol: col, HeadLine: line, HeadCol: col}
	}
	b := e.block

	switch dir {
	case Left:
		if b.HeadCol > 0 {
			pos := e.cellIndex(b.HeadLine, b.HeadCol-1)
			b.HeadCol = e.columnOf(pos)
		}
	case Right:
		line := b.HeadLine
		pos := e.boundaryAtColumn(line, b.HeadCol)
		if pos < e.buf.LineStart(line)+e.buf.LineLen(line) {
			b.HeadCol = e.columnOf(pos + 1)
		}
	case Up:
		if b.HeadLine > 0 {
			b.HeadLine--
		}
	case Down:
		if b.HeadLine < e.buf.LineCount()-1 {
			b.HeadLine++
		}
	default:
		return
	}
	e.cur.SetCursor(e.boundaryAtColumn(b.HeadLine, b.HeadCol))
	e.follow()
}

// BlockTo moves the head of the block selection to viewport cell (x, y),
// starting a block there when none is active. Mouse drags with alt held use
// it.
func (e *Editor) BlockTo(x, y int) {
	line, col := e.CellAt(x, y)
	if e.block == nil {
		e.block = &Block{AnchorLine: line, AnchorCol: col}
	}
	e.block.HeadLine, e.block.HeadCol = line, col
	e.cur.SetCursor(e.boundaryAtColumn(line, col))
	e.follow()
}

// InBlock reports whether the cell at display column col of line lies in
// the block selection.
func (e *Editor) InBlock(line, col int) bool {
	if e.block == nil {
		return false
	}
	top, bottom, left, right := e.block.Bounds()
	return line >= top && line <= bottom && col >= left && col < right
}

// CellAt maps a cell of the viewport to a document line and display column.
// The line is clamped to the document.
func (e *Editor) CellAt(x, y int) (line, col int) {
	line = e.view.ScrollY + y
	if line < 0 {
		line = 0
	}
	if last := e.buf.LineCount() - 1; line > last {
		line = last
	}
	col = e.view.ScrollX + x
	if col < 0 {
		col = 0
	}
	return line, col
}

// PositionAt returns the grapheme index drawn at viewport cell (x, y). A
// cell past the end of the line maps to the line end.
func (e *Editor) PositionAt(x, y int) int {
	return e.cellIndex(e.CellAt(x, y))
}

// cellIndex returns the cluster covering display column col of line, or the
// line end when col lies past it.
func (e *Editor) cellIndex(line, col int) int {
	start := e.buf.LineStart(line)
	w := 0
	for i, c := range grapheme.Split(e.buf.Line(line)) {
		cw := e.CellWidth(c, w)
		if col < w+cw {
			return start + i
		}
		w += cw
	}
	return start + e.buf.LineLen(line)
}

// boundaryAtColumn returns the first cluster of line starting at display
// column col or later, or the line end.
func (e *Editor) boundaryAtColumn(line, col int) int {
	start := e.buf.LineStart(line)
	w := 0
	for i, c := range grapheme.Split(e.buf.Line(line)) {
		if w >= col {
			return start + i
		}
		w += e.CellWidth(c, w)
	}
	return start + e.buf.LineLen(line)
}

func (e *Editor) columnOf(pos int) int {
	line := e.buf.LineOf(pos)
	return e.DisplayColumn(line, pos-e.buf.LineStart(line))
}

// blockSpans returns the grapheme range the block covers on each of its
// lines, top to bottom. Lines shorter than the block give empty spans.
func (e *Editor) blockSpans() []span {
	top, bottom, left, right := e.block.Bounds()
	spans := make([]span, 0, bottom-top+1)
	for line := top; line <= bottom; line++ {
		spans = append(spans, span{
			start: e.boundaryAtColumn(line, left),
			end:   e.boundaryAtColumn(line, right),
		})
	}
	return spans
}

func (e *Editor) blockText() string {
	spans := e.blockSpans()
	lines := make([]string, 0, len(spans))
	for _, sp := range spans {
		text, err := e.buf.Slice(sp.start, sp.end)
		if err != nil {
			text = ""
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// eraseBlock blanks the block with spaces so text right of it keeps its
// columns. Lines are edited bottom up, which leaves the spans still to do
// valid, and the result is committed once.
func (e *Editor) eraseBlock(op string) error {
	spans := e.blockSpans()
	top, _, left, _ := e.block.Bounds()
	e.block = nil

	changed := false
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]
		if sp.start >= sp.end {
			continue
		}
		width := e.columnOf(sp.end) - e.columnOf(sp.start)
		if _, err := e.edit(op, sp.start, sp.end, strings.Repeat(" ", width)); err != nil {
			return err
		}
		changed = true
	}

	e.cur.SetCursor(e.boundaryAtColumn(top, left))
	if changed {
		e.commit()
	}
	e.follow()
	return nil
}
