package editor

import (
	"testing"

	"github.com/Paintersrp/snyft/internal/buffer"
)

func TestVerticalMotionKeepsVirtualColumn(t *testing.T) {
	c := NewCursor(buffer.New("hello\nhi\nworld"))
	c.SetCursor(4)

	steps := []struct {
		dir  Direction
		want int
	}{
		{Down, 8},  // "hi" is too short, clamp to its end
		{Down, 13}, // back to column 4 on "world"
		{Down, 13}, // last line, no-op
		{Up, 8},
		{Up, 4},
		{Up, 4}, // first line, no-op
	}
	for i, step := range steps {
		c.Move(step.dir, false)
		if got := c.Cursor(); got != step.want {
			t.Fatalf("step %d (%s): cursor = %d, want %d", i, step.dir, got, step.want)
		}
		if col, ok := c.VirtualColumn(); !ok || col != 4 {
			t.Fatalf("step %d: virtual column = %d, %v", i, col, ok)
		}
	}

	c.Move(Right, false)
	if _, ok := c.VirtualColumn(); ok {
		t.Fatalf("horizontal motion must clear the virtual column")
	}
}

func TestVirtualColumnTakesLargerColumn(t *testing.T) {
	c := NewCursor(buffer.New("abcdefgh\nab\nabcdef"))
	c.SetCursor(1)
	c.Move(Down, false) // vcol 1, pos 10
	c.Move(Right, false)
	c.Move(Down, false) // vcol cleared, col 2 on line 1 -> col 2 on line 2
	if got := c.Cursor(); got != 14 {
		t.Fatalf("cursor = %d, want 14", got)
	}
	c.Move(Up, false)
	c.Move(Up, false)
	if got := c.Cursor(); got != 2 {
		t.Fatalf("cursor = %d, want 2", got)
	}
}

func TestHorizontalMotion(t *testing.T) {
	text := buffer.New("ab cd, ef\ngh")
	tests := []struct {
		name  string
		start int
		dir   Direction
		want  int
	}{
		{name: "left at zero", start: 0, dir: Left, want: 0},
		{name: "right at end", start: 12, dir: Right, want: 12},
		{name: "left", start: 3, dir: Left, want: 2},
		{name: "word right skips space", start: 2, dir: WordRight, want: 5},
		{name: "word right stops at punct", start: 3, dir: WordRight, want: 5},
		{name: "word right crosses lines", start: 9, dir: WordRight, want: 12},
		{name: "word left", start: 5, dir: WordLeft, want: 3},
		{name: "word left over punct", start: 6, dir: WordLeft, want: 5},
		{name: "line start", start: 11, dir: LineStart, want: 10},
		{name: "line end", start: 1, dir: LineEnd, want: 9},
		{name: "doc start", start: 7, dir: DocStart, want: 0},
		{name: "doc end", start: 7, dir: DocEnd, want: 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(text)
			c.SetCursor(tt.start)
			c.Move(tt.dir, false)
			if got := c.Cursor(); got != tt.want {
				t.Fatalf("%s from %d = %d, want %d", tt.dir, tt.start, got, tt.want)
			}
		})
	}
}

func TestExtendAndCollapse(t *testing.T) {
	c := NewCursor(buffer.New("hello world"))
	c.SetCursor(6)
	c.Move(WordRight, true)
	if start, end := c.Selection(); start != 6 || end != 11 || !c.HasSelection() {
		t.Fatalf("selection = [%d, %d)", start, end)
	}
	c.Move(DocStart, true)
	if sel := c.Anchored(); sel.Anchor != 6 || sel.Head != 0 {
		t.Fatalf("anchor must stay put, got %+v", sel)
	}
	if start, end := c.Selection(); start != 0 || end != 6 {
		t.Fatalf("selection = [%d, %d)", start, end)
	}
	c.Move(Right, false)
	if c.HasSelection() || c.Cursor() != 1 {
		t.Fatalf("non-extend motion must collapse, got %+v", c.Anchored())
	}

	c.SelectAll()
	if start, end := c.Selection(); start != 0 || end != 11 {
		t.Fatalf("SelectAll = [%d, %d)", start, end)
	}
	c.Collapse()
	if c.HasSelection() || c.Cursor() != 11 {
		t.Fatalf("Collapse kept %+v", c.Anchored())
	}
}

func TestPageMotion(t *testing.T) {
	c := NewCursor(buffer.New("0\n1\n2\n3\n4\n5\n6\n7\n8\n9"))
	c.SetPageSize(4)
	c.Move(PageDown, false)
	if c.Cursor() != 8 {
		t.Fatalf("PageDown = %d, want 8", c.Cursor())
	}
	c.Move(PageDown, false)
	c.Move(PageDown, false)
	if c.Cursor() != 18 {
		t.Fatalf("PageDown must clamp to the last line, got %d", c.Cursor())
	}
	c.Move(PageUp, false)
	if c.Cursor() != 10 {
		t.Fatalf("PageUp = %d, want 10", c.Cursor())
	}
}
