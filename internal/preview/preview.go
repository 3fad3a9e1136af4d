// Package preview renders note bodies as styled markdown for the terminal.
package preview

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/Paintersrp/snyft/internal/cache"
)

const defaultCacheSize = 32

type entry struct {
	stamp  string
	output string
}

// Renderer renders markdown with glamour and remembers the output per note
// until the note or the width changes.
type Renderer struct {
	style string
	cache *cache.LRUCache[string, entry]
}

// New returns a renderer using style, one of auto, dark, light, or notty.
// A size below 1 uses the default cache size.
func New(style string, size int) *Renderer {
	if size < 1 {
		size = defaultCacheSize
	}
	return &Renderer{style: style, cache: cache.NewLRUCache[string, entry](size)}
}

// Render returns the styled body of note id. version identifies the body,
// typically the note's modification time in nanoseconds; a new version or
// width invalidates the cached output.
func (r *Renderer) Render(id string, version int64, body string, width int) string {
	stamp := fmt.Sprintf("%d/%d", version, width)
	if e, ok := r.cache.Get(id); ok && e.stamp == stamp {
		return e.output
	}

	out, err := r.render(body, width)
	if err != nil {
		return "Error rendering markdown"
	}
	r.cache.Put(id, entry{stamp: stamp, output: out})
	return out
}

// Forget drops the cached output of a note.
func (r *Renderer) Forget(id string) {
	r.cache.Remove(id)
}

// Len reports the number of cached renders.
func (r *Renderer) Len() int {
	return r.cache.Len()
}

func (r *Renderer) render(body string, width int) (string, error) {
	if width < 20 {
		width = 20
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch r.style {
	case "", "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(r.style))
	}
	if r.style == "notty" {
		opts = append(opts, glamour.WithColorProfile(termenv.Ascii))
	} else {
		opts = append(opts, glamour.WithColorProfile(termenv.ANSI256))
	}

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return tr.Render(body)
}
