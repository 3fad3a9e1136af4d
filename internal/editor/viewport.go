package editor

// DefaultPadding is the margin kept between the cursor and the viewport edge.
const DefaultPadding = 2

// Viewport is the visible window over the document, in rows and display
// columns.
type Viewport struct {
	ScrollX int
	ScrollY int
	Width   int
	Height  int
	Padding int
}

// NewViewport returns a viewport of the given size scrolled to the origin.
func NewViewport(width, height, padding int) *Viewport {
	if padding < 0 {
		padding = DefaultPadding
	}
	return &Viewport{Width: width, Height: height, Padding: padding}
}

// Resize changes the visible size. Scroll offsets are reclamped on the next
// FollowCursor.
func (v *Viewport) Resize(width, height int) {
	v.Width, v.Height = width, height
}

// PageSize is the number of lines a page motion travels.
func (v *Viewport) PageSize() int {
	if v.Height <= 1 {
		return 1
	}
	return v.Height - 1
}

// Visible returns the half-open range of document rows on screen.
func (v *Viewport) Visible() (top, bottom int) {
	return v.ScrollY, v.ScrollY + v.Height
}

// FollowCursor scrolls so the cursor at (row, col) sits at least Padding
// rows and columns inside the viewport, then clamps the offsets to the
// document. docWidth is the widest line; the cursor may sit one column past
// it.
func (v *Viewport) FollowCursor(row, col, docHeight, docWidth int) {
	v.ScrollY = follow(v.ScrollY, row, v.Height, v.pad(v.Height), docHeight)
	v.ScrollX = follow(v.ScrollX, col, v.Width, v.pad(v.Width), docWidth+1)
}

// pad shrinks the margin for viewports too small to honour it on both sides.
func (v *Viewport) pad(size int) int {
	p := v.Padding
	if half := (size - 1) / 2; p > half {
		p = half
	}
	if p < 0 {
		return 0
	}
	return p
}

func follow(scroll, pos, size, pad, extent int) int {
	if size <= 0 {
		return 0
	}
	switch {
	case pos < scroll+pad:
		scroll = pos - pad
	case pos >= scroll+size-pad:
		scroll = pos + pad + 1 - size
	}
	if limit := extent - size; scroll > limit {
		scroll = limit
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}
