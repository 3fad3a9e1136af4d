package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Paintersrp/snyft/internal/state"
	"github.com/Paintersrp/snyft/internal/store"
)

// ErrAmbiguousNote is returned when an argument matches several titles.
var ErrAmbiguousNote = errors.New("note reference is ambiguous")

// ResolveNote finds the note an argument refers to. An exact id wins,
// then a unique id prefix, then a case-insensitive title.
func ResolveNote(ctx context.Context, s *state.State, arg string) (store.Note, error) {
	if s == nil || s.Store == nil {
		return store.Note{}, fmt.Errorf("state is not initialized")
	}
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return store.Note{}, fmt.Errorf("a note id or title is required")
	}

	n, err := s.Store.GetNote(ctx, arg)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Note{}, err
	}

	notes, err := s.Store.ListNotes(ctx)
	if err != nil {
		return store.Note{}, err
	}

	if match, err := unique(notes, arg, func(n store.Note) bool {
		return strings.HasPrefix(n.ID, arg)
	}); match != nil || err != nil {
		return deref(match), err
	}

	if match, err := unique(notes, arg, func(n store.Note) bool {
		return strings.EqualFold(n.Title, arg)
	}); match != nil || err != nil {
		return deref(match), err
	}

	return store.Note{}, fmt.Errorf("%w: %q", store.ErrNotFound, arg)
}

func unique(notes []store.Note, arg string, keep func(store.Note) bool) (*store.Note, error) {
	var found []store.Note
	for _, n := range notes {
		if keep(n) {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return &found[0], nil
	}

	ids := make([]string, 0, len(found))
	for _, n := range found {
		ids = append(ids, n.ID)
	}
	return nil, fmt.Errorf("%w: %q matches %s", ErrAmbiguousNote, arg, strings.Join(ids, ", "))
}

func deref(n *store.Note) store.Note {
	if n == nil {
		return store.Note{}
	}
	return *n
}
