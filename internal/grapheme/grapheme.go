// Package grapheme maps raw byte offsets to grapheme-cluster boundaries.
//
// Every cursor and selection position in the editor is a grapheme index, so a
// single keypress moves over exactly one user-perceived character no matter
// how many code points compose it.
package grapheme

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Index caches the cluster boundaries of a piece of text.
type Index struct {
	text string
	// bounds[i] is the byte offset where cluster i starts; the final entry is
	// len(text), so len(bounds) == Len()+1.
	bounds []int
}

// New walks text once and records the byte offset of every cluster boundary.
func New(text string) *Index {
	bounds := make([]int, 0, len(text)+1)
	rest := text
	state := -1
	for len(rest) > 0 {
		bounds = append(bounds, len(text)-len(rest))
		_, rest, _, state = uniseg.StepString(rest, state)
	}
	bounds = append(bounds, len(text))
	return &Index{text: text, bounds: bounds}
}

// Text returns the indexed text.
func (ix *Index) Text() string {
	return ix.text
}

// Len returns the number of grapheme clusters.
func (ix *Index) Len() int {
	return len(ix.bounds) - 1
}

// RawOf returns the byte offset of grapheme index g. Out-of-range indices
// are clamped to the text bounds.
func (ix *Index) RawOf(g int) int {
	if g <= 0 {
		return 0
	}
	if g >= ix.Len() {
		return len(ix.text)
	}
	return ix.bounds[g]
}

// GraphemeOf returns the index of the cluster containing raw, or the cluster
// count when raw is at or past the end. Negative offsets clamp to zero.
func (ix *Index) GraphemeOf(raw int) int {
	if raw <= 0 {
		return 0
	}
	if raw >= len(ix.text) {
		return ix.Len()
	}
	// First boundary strictly greater than raw, minus one, is the cluster
	// that contains raw.
	i := sort.SearchInts(ix.bounds, raw+1)
	return i - 1
}

// BoundaryAtOrBefore returns the nearest cluster boundary at or before raw,
// as a byte offset.
func (ix *Index) BoundaryAtOrBefore(raw int) int {
	return ix.RawOf(ix.GraphemeOf(raw))
}

// Cluster returns cluster g, or "" when g is out of range.
func (ix *Index) Cluster(g int) string {
	if g < 0 || g >= ix.Len() {
		return ""
	}
	return ix.text[ix.bounds[g]:ix.bounds[g+1]]
}

// Count returns the number of grapheme clusters in s.
func Count(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// Split returns the clusters of s in order.
func Split(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// Slice returns the clusters of s in [start, end). Bounds are clamped.
func Slice(s string, start, end int) string {
	ix := New(s)
	if start < 0 {
		start = 0
	}
	if end < start {
		return ""
	}
	return s[ix.RawOf(start):ix.RawOf(end)]
}

// Width returns the number of terminal cells a cluster occupies.
func Width(cluster string) int {
	if cluster == "" {
		return 0
	}
	if cluster == "\t" {
		return 1
	}
	return runewidth.StringWidth(cluster)
}

// StringWidth returns the display width of s in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate returns the longest prefix of s that fits in maxWidth cells
// without splitting a cluster.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	var sb strings.Builder
	width := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := Width(g.Str())
		if width+w > maxWidth {
			break
		}
		sb.WriteString(g.Str())
		width += w
	}
	return sb.String()
}

// Class groups clusters for word motion.
type Class int

const (
	ClassSpace Class = iota
	ClassWord
	ClassPunct
)

// ClassOf classifies a cluster by its base rune.
func ClassOf(cluster string) Class {
	for _, r := range cluster {
		switch {
		case unicode.IsSpace(r):
			return ClassSpace
		case r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r):
			return ClassWord
		default:
			return ClassPunct
		}
	}
	return ClassSpace
}

// IsLineBreak reports whether cluster ends a line. "\r\n" is a single
// cluster.
func IsLineBreak(cluster string) bool {
	return cluster == "\n" || cluster == "\r\n"
}
