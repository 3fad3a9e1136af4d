package editor

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

type countingCommitter struct {
	n uint64
}

func (c *countingCommitter) Commit(string, string) uint64 {
	c.n++
	return c.n
}

func TestLineWidthsSplice(t *testing.T) {
	widths := make([]int, 1500)
	for i := range widths {
		widths[i] = i % 7
	}
	widths[1200] = 90

	var lw lineWidths
	lw.reset(widths)
	if lw.len() != 1500 || lw.max() != 90 {
		t.Fatalf("reset: len %d max %d", lw.len(), lw.max())
	}

	lw.splice(1200, 1, []int{3, 4})
	if lw.len() != 1501 || lw.max() != 6 {
		t.Fatalf("replacing the widest line: len %d max %d", lw.len(), lw.max())
	}

	lw.splice(100, 1300, nil)
	if lw.len() != 201 {
		t.Fatalf("removing across chunks: len %d", lw.len())
	}

	big := make([]int, 3000)
	big[2999] = 40
	lw.splice(lw.len(), 0, big)
	if lw.len() != 3201 || lw.max() != 40 {
		t.Fatalf("appending: len %d max %d", lw.len(), lw.max())
	}
	for _, c := range lw.chunks {
		if len(c.w) > 2*widthChunkSize {
			t.Fatalf("chunk of %d widths was not split", len(c.w))
		}
	}

	lw.splice(0, lw.len(), []int{5})
	if lw.len() != 1 || lw.max() != 5 {
		t.Fatalf("replacing everything: len %d max %d", lw.len(), lw.max())
	}
}

func TestDocWidthTracksEdits(t *testing.T) {
	e, _ := newTestEditor(t, "short\na much longer line\n\tx")
	if got := e.DocWidth(); got != 18 {
		t.Fatalf("DocWidth = %d, want 18", got)
	}

	steps := []func() error{
		func() error { e.Move(DocEnd, false); return e.InsertText(strings.Repeat("y", 30)) },
		func() error { e.MoveTo(8, false); return e.Newline() },
		func() error { e.MoveTo(0, false); e.MoveTo(20, true); return e.Backspace() },
		func() error { e.SelectAll(); return e.InsertText("a\r\nbb\n" + family) },
		func() error { e.Move(DocEnd, false); return e.Backspace() },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		fresh, _ := newTestEditor(t, e.Text())
		if got, want := e.DocWidth(), fresh.DocWidth(); got != want {
			t.Fatalf("step %d: DocWidth = %d, fresh measure %d (%q)", i, got, want, e.Text())
		}
		if e.widthVersion != e.Buffer().Version() {
			t.Fatalf("step %d: widths were rebuilt instead of updated", i)
		}
	}
}

func TestTypingInLargeDocumentStaysFast(t *testing.T) {
	if testing.Short() {
		t.Skip("large document")
	}
	var sb strings.Builder
	for i := 0; i < 20000; i++ {
		fmt.Fprintf(&sb, "line %05d of a long research note\n", i)
	}

	e, _ := newTestEditor(t, "")
	e.saver = &countingCommitter{}
	e.Open("big", sb.String(), nil)
	e.Resize(80, 40)
	e.Move(DocEnd, false)

	start := time.Now()
	for i := 0; i < 200; i++ {
		var err error
		if i%20 == 19 {
			err = e.Newline()
		} else {
			err = e.InsertText("x")
		}
		if err != nil {
			t.Fatalf("keystroke %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("200 keystrokes took %v", elapsed)
	}
	if e.widths.len() != e.Buffer().LineCount() {
		t.Fatalf("tracked %d line widths for %d lines", e.widths.len(), e.Buffer().LineCount())
	}
}
