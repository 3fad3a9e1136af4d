package buffer

import (
	"strings"

	"github.com/Paintersrp/snyft/internal/grapheme"
)

// maxLeafBytes bounds the text held by one leaf. Leaves are split and merged
// around this size so that edits and slices touch O(log n) nodes plus one or
// two leaves.
const maxLeafBytes = 1024

// leaf holds whole grapheme clusters. bounds[i] is the byte offset of
// cluster i within text.
type leaf struct {
	text   string
	bounds []int32
	breaks int
}

func newLeaf(text string, bounds []int32) *leaf {
	lf := &leaf{text: text, bounds: bounds}
	for i := range bounds {
		if grapheme.IsLineBreak(lf.cluster(i)) {
			lf.breaks++
		}
	}
	return lf
}

func (lf *leaf) count() int { return len(lf.bounds) }

func (lf *leaf) rawOf(k int) int {
	if k >= len(lf.bounds) {
		return len(lf.text)
	}
	return int(lf.bounds[k])
}

func (lf *leaf) cluster(k int) string {
	return lf.text[lf.rawOf(k):lf.rawOf(k+1)]
}

func (lf *leaf) breaksBefore(k int) int {
	if k >= lf.count() {
		return lf.breaks
	}
	n := 0
	for i := 0; i < k; i++ {
		if grapheme.IsLineBreak(lf.cluster(i)) {
			n++
		}
	}
	return n
}

// nthBreak returns the in-leaf index of the n-th (1-based) line break.
func (lf *leaf) nthBreak(n int) int {
	for i := 0; i < lf.count(); i++ {
		if grapheme.IsLineBreak(lf.cluster(i)) {
			n--
			if n == 0 {
				return i
			}
		}
	}
	return lf.count()
}

func (lf *leaf) split(k int) (*leaf, *leaf) {
	raw := lf.rawOf(k)
	left := make([]int32, k)
	copy(left, lf.bounds[:k])
	right := make([]int32, lf.count()-k)
	for i, b := range lf.bounds[k:] {
		right[i] = b - int32(raw)
	}
	return newLeaf(lf.text[:raw], left), newLeaf(lf.text[raw:], right)
}

func concatLeaves(a, b *leaf) *leaf {
	bounds := make([]int32, 0, a.count()+b.count())
	bounds = append(bounds, a.bounds...)
	shift := int32(len(a.text))
	for _, off := range b.bounds {
		bounds = append(bounds, off+shift)
	}
	return &leaf{text: a.text + b.text, bounds: bounds, breaks: a.breaks + b.breaks}
}

// node is an AVL-balanced rope node. Leaves carry text; inner nodes cache
// the totals of their subtrees.
type node struct {
	left, right *node
	leaf        *leaf

	height int
	count  int
	breaks int
	bytes  int
}

func leafNode(lf *leaf) *node {
	if lf == nil || lf.count() == 0 {
		return nil
	}
	return &node{leaf: lf, count: lf.count(), breaks: lf.breaks, bytes: len(lf.text)}
}

func inner(l, r *node) *node {
	n := &node{left: l, right: r}
	n.update()
	return n
}

func (n *node) update() {
	n.height = 1 + maxInt(n.left.h(), n.right.h())
	n.count = n.left.c() + n.right.c()
	n.breaks = n.left.br() + n.right.br()
	n.bytes = n.left.by() + n.right.by()
}

func (n *node) h() int {
	if n == nil {
		return -1
	}
	return n.height
}

func (n *node) c() int {
	if n == nil {
		return 0
	}
	return n.count
}

func (n *node) br() int {
	if n == nil {
		return 0
	}
	return n.breaks
}

func (n *node) by() int {
	if n == nil {
		return 0
	}
	return n.bytes
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	n.update()
	l.right = n
	l.update()
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	n.update()
	r.left = n
	r.update()
	return r
}

func balance(n *node) *node {
	switch bf := n.left.h() - n.right.h(); {
	case bf > 1:
		if n.left.left.h() < n.left.right.h() {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case bf < -1:
		if n.right.right.h() < n.right.left.h() {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	default:
		n.update()
		return n
	}
}

// join concatenates two ropes, keeping the result balanced and folding small
// neighbouring leaves together.
func join(l, r *node) *node {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case r.leaf != nil:
		return appendLeaf(l, r)
	case l.leaf != nil:
		return prependLeaf(r, l)
	case l.height > r.height+1:
		return balance(inner(l.left, join(l.right, r)))
	case r.height > l.height+1:
		return balance(inner(join(l, r.left), r.right))
	default:
		return inner(l, r)
	}
}

func appendLeaf(t, lf *node) *node {
	if t.leaf != nil {
		if t.bytes+lf.bytes <= maxLeafBytes {
			return leafNode(concatLeaves(t.leaf, lf.leaf))
		}
		return inner(t, lf)
	}
	return balance(inner(t.left, appendLeaf(t.right, lf)))
}

func prependLeaf(t, lf *node) *node {
	if t.leaf != nil {
		if t.bytes+lf.bytes <= maxLeafBytes {
			return leafNode(concatLeaves(lf.leaf, t.leaf))
		}
		return inner(lf, t)
	}
	return balance(inner(prependLeaf(t.left, lf), t.right))
}

// split returns the first k graphemes of t and the remainder.
func split(t *node, k int) (*node, *node) {
	switch {
	case t == nil:
		return nil, nil
	case k <= 0:
		return nil, t
	case k >= t.count:
		return t, nil
	case t.leaf != nil:
		a, b := t.leaf.split(k)
		return leafNode(a), leafNode(b)
	case k < t.left.c():
		ll, lr := split(t.left, k)
		return ll, join(lr, t.right)
	case k == t.left.c():
		return t.left, t.right
	default:
		rl, rr := split(t.right, k-t.left.c())
		return join(t.left, rl), rr
	}
}

// build turns a segmented text into a balanced rope.
func build(ix *grapheme.Index) *node {
	text := ix.Text()
	var leaves []*leaf
	start := 0
	for start < ix.Len() {
		end := start + 1
		base := ix.RawOf(start)
		for end < ix.Len() && ix.RawOf(end+1)-base <= maxLeafBytes {
			end++
		}
		bounds := make([]int32, 0, end-start)
		for g := start; g < end; g++ {
			bounds = append(bounds, int32(ix.RawOf(g)-base))
		}
		leaves = append(leaves, newLeaf(text[base:ix.RawOf(end)], bounds))
		start = end
	}
	return buildLeaves(leaves)
}

func buildLeaves(leaves []*leaf) *node {
	switch len(leaves) {
	case 0:
		return nil
	case 1:
		return leafNode(leaves[0])
	}
	mid := len(leaves) / 2
	return inner(buildLeaves(leaves[:mid]), buildLeaves(leaves[mid:]))
}

// writeRange appends graphemes [start, end) of t to sb.
func writeRange(sb *strings.Builder, t *node, start, end int) {
	if t == nil || start >= end || end <= 0 || start >= t.count {
		return
	}
	if t.leaf != nil {
		lo := maxInt(start, 0)
		hi := minInt(end, t.count)
		sb.WriteString(t.leaf.text[t.leaf.rawOf(lo):t.leaf.rawOf(hi)])
		return
	}
	lc := t.left.c()
	writeRange(sb, t.left, start, end)
	writeRange(sb, t.right, start-lc, end-lc)
}

func clusterAt(t *node, k int) string {
	for t != nil {
		if t.leaf != nil {
			return t.leaf.cluster(k)
		}
		if k < t.left.c() {
			t = t.left
		} else {
			k -= t.left.c()
			t = t.right
		}
	}
	return ""
}

// breaksBefore counts line breaks among the first k graphemes.
func breaksBefore(t *node, k int) int {
	n := 0
	for t != nil && k > 0 {
		if t.leaf != nil {
			return n + t.leaf.breaksBefore(k)
		}
		if k <= t.left.c() {
			t = t.left
			continue
		}
		n += t.left.br()
		k -= t.left.c()
		t = t.right
	}
	return n
}

// nthBreak returns the grapheme index of the n-th (1-based) line break.
func nthBreak(t *node, n int) int {
	pos := 0
	for t != nil {
		if t.leaf != nil {
			return pos + t.leaf.nthBreak(n)
		}
		if n <= t.left.br() {
			t = t.left
			continue
		}
		n -= t.left.br()
		pos += t.left.c()
		t = t.right
	}
	return pos
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
