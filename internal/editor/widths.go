package editor

// widthChunkSize bounds the lines held by one chunk of lineWidths.
const widthChunkSize = 512

// lineWidths keeps the display width of every line in fixed-size chunks,
// each caching its own maximum, so an edit touching a few lines costs a
// chunk rewrite plus a scan over the chunk maxima.
type lineWidths struct {
	chunks []*widthChunk
}

type widthChunk struct {
	w   []int
	max int
}

func (c *widthChunk) measure() {
	c.max = 0
	for _, w := range c.w {
		if w > c.max {
			c.max = w
		}
	}
}

func (lw *lineWidths) reset(widths []int) {
	lw.chunks = lw.chunks[:0]
	for len(widths) > widthChunkSize {
		lw.chunks = append(lw.chunks, newWidthChunk(widths[:widthChunkSize]))
		widths = widths[widthChunkSize:]
	}
	lw.chunks = append(lw.chunks, newWidthChunk(widths))
}

func newWidthChunk(widths []int) *widthChunk {
	c := &widthChunk{w: append([]int(nil), widths...)}
	c.measure()
	return c
}

func (lw *lineWidths) len() int {
	n := 0
	for _, c := range lw.chunks {
		n += len(c.w)
	}
	return n
}

func (lw *lineWidths) max() int {
	m := 0
	for _, c := range lw.chunks {
		if c.max > m {
			m = c.max
		}
	}
	return m
}

// splice replaces remove widths starting at line with widths.
func (lw *lineWidths) splice(line, remove int, widths []int) {
	if len(lw.chunks) == 0 {
		lw.reset(nil)
	}
	ci, off := lw.locate(line)
	c := lw.chunks[ci]
	for off+remove > len(c.w) && ci+1 < len(lw.chunks) {
		c.w = append(c.w, lw.chunks[ci+1].w...)
		lw.chunks = append(lw.chunks[:ci+1], lw.chunks[ci+2:]...)
	}
	if end := off + remove; end > len(c.w) {
		remove = len(c.w) - off
	}

	tail := append([]int(nil), c.w[off+remove:]...)
	c.w = append(append(c.w[:off], widths...), tail...)

	switch {
	case len(c.w) > 2*widthChunkSize:
		parts := make([]*widthChunk, 0, len(c.w)/widthChunkSize+1)
		for rest := c.w; len(rest) > 0; {
			n := widthChunkSize
			if n > len(rest) {
				n = len(rest)
			}
			parts = append(parts, newWidthChunk(rest[:n]))
			rest = rest[n:]
		}
		lw.chunks = append(lw.chunks[:ci], append(parts, lw.chunks[ci+1:]...)...)
	case len(c.w) == 0 && len(lw.chunks) > 1:
		lw.chunks = append(lw.chunks[:ci], lw.chunks[ci+1:]...)
	default:
		c.measure()
	}
}

// locate returns the chunk holding line and the offset inside it. A line
// one past the end maps to the end of the last chunk.
func (lw *lineWidths) locate(line int) (int, int) {
	for i, c := range lw.chunks {
		if line < len(c.w) {
			return i, line
		}
		line -= len(c.w)
	}
	last := len(lw.chunks) - 1
	return last, len(lw.chunks[last].w)
}
