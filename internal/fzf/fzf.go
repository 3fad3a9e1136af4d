// Package fzf picks a note with an interactive fuzzy finder.
package fzf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/Paintersrp/snyft/internal/preview"
	"github.com/Paintersrp/snyft/internal/store"
)

// ErrNoneSelected is returned when the finder is aborted.
var ErrNoneSelected = errors.New("no note selected")

// FinderFunc matches fuzzyfinder.Find so tests can replace the terminal UI.
type FinderFunc func(items []store.Note, itemFunc func(int) string, opts ...fuzzyfinder.Option) (int, error)

// FuzzyFinder encapsulates the fuzzy finder functionality
type FuzzyFinder struct {
	Header   string
	notes    []store.Note
	renderer *preview.Renderer
	find     FinderFunc
}

func NewFuzzyFinder(notes []store.Note, renderer *preview.Renderer, header string) *FuzzyFinder {
	return &FuzzyFinder{
		Header:   header,
		notes:    notes,
		renderer: renderer,
		find: func(items []store.Note, itemFunc func(int) string, opts ...fuzzyfinder.Option) (int, error) {
			return fuzzyfinder.Find(items, itemFunc, opts...)
		},
	}
}

// WithFinder swaps the finder implementation.
func (f *FuzzyFinder) WithFinder(find FinderFunc) *FuzzyFinder {
	f.find = find
	return f
}

// Run shows the finder, prefilled with query, and returns the chosen note.
func (f *FuzzyFinder) Run(query string) (store.Note, error) {
	if len(f.notes) == 0 {
		return store.Note{}, fmt.Errorf("%w: there are no notes yet", ErrNoneSelected)
	}

	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(f.renderPreview),
	}
	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}
	if f.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(f.Header))
	}

	idx, err := f.find(f.notes, f.Label, options...)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return store.Note{}, ErrNoneSelected
	}
	if err != nil {
		return store.Note{}, fmt.Errorf("error selecting note: %w", err)
	}
	if idx < 0 || idx >= len(f.notes) {
		return store.Note{}, ErrNoneSelected
	}
	return f.notes[idx], nil
}

// Label is the finder line of note i: its title with its tags.
func (f *FuzzyFinder) Label(i int) string {
	n := f.notes[i]
	title := n.Title
	if title == "" {
		title = n.ID
	}
	if len(n.Tags) == 0 {
		return fmt.Sprintf("%s [No tags]", title)
	}
	return fmt.Sprintf("%s [Tags: %s]", title, strings.Join(n.Tags, ", "))
}

func (f *FuzzyFinder) renderPreview(i, w, h int) string {
	if i < 0 || i >= len(f.notes) {
		return ""
	}
	n := f.notes[i]
	if f.renderer == nil {
		return n.Body
	}
	return f.renderer.Render(n.ID, n.ModifiedAt.UnixNano(), n.Body, w-4)
}
