// Package buffer holds the live body of the open note as a rope of grapheme
// clusters.
//
// All positions are grapheme indices. Every mutation reports a Delta that
// other components (cursor, overlay, viewport) use to stay consistent with
// the text.
package buffer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Paintersrp/snyft/internal/grapheme"
)

// ErrInvalidOffset reports a position or range outside the buffer.
var ErrInvalidOffset = errors.New("invalid offset")

// OffsetError describes a rejected position. It unwraps to ErrInvalidOffset.
type OffsetError struct {
	Op  string
	Pos int
	Len int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("buffer: %s: offset %d out of range [0, %d]", e.Op, e.Pos, e.Len)
}

func (e *OffsetError) Unwrap() error {
	return ErrInvalidOffset
}

// Delta describes one mutation. [Start, End) is the replaced range in
// pre-edit coordinates; Inserted clusters now occupy [Start, Start+Inserted).
type Delta struct {
	Start    int
	End      int
	Inserted int
	Removed  int
}

// Change returns the net change in grapheme length.
func (d Delta) Change() int {
	return d.Inserted - d.Removed
}

// Empty reports whether the delta changed nothing.
func (d Delta) Empty() bool {
	return d.Inserted == 0 && d.Removed == 0
}

// Buffer is a mutable grapheme rope. It is not safe for concurrent use.
type Buffer struct {
	root    *node
	version uint64
}

// New returns a buffer holding text.
func New(text string) *Buffer {
	return &Buffer{root: build(grapheme.New(text))}
}

// String returns the full text.
func (b *Buffer) String() string {
	if b.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(b.root.bytes)
	writeRange(&sb, b.root, 0, b.root.count)
	return sb.String()
}

// Len returns the number of grapheme clusters.
func (b *Buffer) Len() int {
	return b.root.c()
}

// Version increments on every mutation that changes the text.
func (b *Buffer) Version() uint64 {
	return b.version
}

// Reset replaces the whole text without reporting a delta. Used when a
// different note is loaded.
func (b *Buffer) Reset(text string) {
	b.root = build(grapheme.New(text))
	b.version++
}

// Insert places text before grapheme index at.
func (b *Buffer) Insert(at int, text string) (Delta, error) {
	if at < 0 || at > b.Len() {
		return Delta{}, &OffsetError{Op: "insert", Pos: at, Len: b.Len()}
	}
	if text == "" {
		return Delta{Start: at, End: at}, nil
	}
	return b.replace(at, at, text), nil
}

// Delete removes graphemes [start, end).
func (b *Buffer) Delete(start, end int) (Delta, error) {
	if err := b.checkRange("delete", start, end); err != nil {
		return Delta{}, err
	}
	if start == end {
		return Delta{Start: start, End: end}, nil
	}
	return b.replace(start, end, ""), nil
}

// Replace swaps graphemes [start, end) for text in a single delta.
func (b *Buffer) Replace(start, end int, text string) (Delta, error) {
	if err := b.checkRange("replace", start, end); err != nil {
		return Delta{}, err
	}
	if start == end && text == "" {
		return Delta{Start: start, End: end}, nil
	}
	return b.replace(start, end, text), nil
}

// Slice returns graphemes [start, end).
func (b *Buffer) Slice(start, end int) (string, error) {
	if err := b.checkRange("slice", start, end); err != nil {
		return "", err
	}
	return b.slice(start, end), nil
}

// GraphemeAt returns the cluster at pos, or "" at or past the end.
func (b *Buffer) GraphemeAt(pos int) string {
	if pos < 0 || pos >= b.Len() {
		return ""
	}
	return clusterAt(b.root, pos)
}

// LineCount returns the number of lines; an empty buffer has one.
func (b *Buffer) LineCount() int {
	return b.root.br() + 1
}

// LineOf returns the zero-based line containing pos. A line break belongs to
// the line it terminates. Positions are clamped.
func (b *Buffer) LineOf(pos int) int {
	return breaksBefore(b.root, b.clamp(pos))
}

// LineStart returns the grapheme index of the first cluster on line. Lines
// past the end clamp to the last line.
func (b *Buffer) LineStart(line int) int {
	if line <= 0 {
		return 0
	}
	if line > b.root.br() {
		line = b.root.br()
		if line == 0 {
			return 0
		}
	}
	return nthBreak(b.root, line) + 1
}

// LineLen returns the number of clusters on line, excluding its line break.
func (b *Buffer) LineLen(line int) int {
	if line < 0 {
		line = 0
	}
	last := b.LineCount() - 1
	if line > last {
		line = last
	}
	start := b.LineStart(line)
	if line == last {
		return b.Len() - start
	}
	return b.LineStart(line+1) - 1 - start
}

// Line returns the text of line without its line break.
func (b *Buffer) Line(line int) string {
	start := b.LineStart(line)
	return b.slice(start, start+b.LineLen(line))
}

// ColumnOf returns the number of clusters between the start of pos's line
// and pos.
func (b *Buffer) ColumnOf(pos int) int {
	pos = b.clamp(pos)
	return pos - b.LineStart(b.LineOf(pos))
}

// Offset converts a line and column to a grapheme index. The line is clamped
// to the buffer and the column to the line's length.
func (b *Buffer) Offset(line, col int) int {
	if line < 0 {
		line = 0
	}
	if last := b.LineCount() - 1; line > last {
		line = last
	}
	if col < 0 {
		col = 0
	}
	if n := b.LineLen(line); col > n {
		col = n
	}
	return b.LineStart(line) + col
}

func (b *Buffer) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if n := b.Len(); pos > n {
		return n
	}
	return pos
}

func (b *Buffer) checkRange(op string, start, end int) error {
	n := b.Len()
	if start < 0 || start > n {
		return &OffsetError{Op: op, Pos: start, Len: n}
	}
	if end < start || end > n {
		return &OffsetError{Op: op, Pos: end, Len: n}
	}
	return nil
}

func (b *Buffer) slice(start, end int) string {
	var sb strings.Builder
	writeRange(&sb, b.root, start, end)
	return sb.String()
}

// replace swaps [start, end) for text. The cluster before the edit and the
// clusters after it are re-segmented together with the new text so that
// every stored cluster matches what a fresh segmentation of String() would
// produce. A cluster boundary before the edit cannot move, so one cluster on
// the left is enough. On the right a merge can chain (a ZWJ joining the next
// pictograph, regional indicators re-pairing along a run), so the window
// grows until its last cluster comes out exactly as stored. The delta covers
// only the clusters that actually changed.
func (b *Buffer) replace(start, end int, text string) Delta {
	n := b.Len()
	lo, hi := start, end
	if lo > 0 {
		lo--
	}
	prev := b.slice(lo, start)

	var (
		next strings.Builder
		ix   *grapheme.Index
	)
	for {
		if hi < n {
			next.WriteString(clusterAt(b.root, hi))
			hi++
		}
		ix = grapheme.New(prev + text + next.String())
		if hi == end || hi == n {
			break
		}
		if ix.Len() > 0 && ix.Cluster(ix.Len()-1) == clusterAt(b.root, hi-1) {
			break
		}
	}

	first, last := 0, ix.Len()
	if prev != "" && ix.Len() > 0 && ix.Cluster(0) == prev {
		first = 1
		lo = start
	}
	for hi > end && last > first && ix.Cluster(last-1) == clusterAt(b.root, hi-1) {
		last--
		hi--
	}
	if first > 0 || last < ix.Len() {
		ix = grapheme.New(ix.Text()[ix.RawOf(first):ix.RawOf(last)])
	}

	left, rest := split(b.root, lo)
	_, right := split(rest, hi-lo)
	b.root = join(join(left, build(ix)), right)
	b.version++

	return Delta{Start: lo, End: hi, Inserted: ix.Len(), Removed: hi - lo}
}
