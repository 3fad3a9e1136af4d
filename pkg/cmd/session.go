package cmd

import (
	"context"
	"sync"

	"github.com/Paintersrp/snyft/internal/state"
)

// Opener builds the application state.
type Opener func(ctx context.Context) (*state.State, error)

// Session opens the state the first time a command needs it, after flags
// have been parsed, and closes it once the command finishes.
type Session struct {
	open Opener

	mu  sync.Mutex
	st  *state.State
	err error
}

func NewSession(open Opener) *Session {
	return &Session{open: open}
}

// FromState wraps an already built state, as tests do.
func FromState(s *state.State) *Session {
	return &Session{st: s}
}

func (x *Session) State(ctx context.Context) (*state.State, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.st != nil || x.err != nil {
		return x.st, x.err
	}
	x.st, x.err = x.open(ctx)
	return x.st, x.err
}

// Close releases the state if it was opened.
func (x *Session) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.st == nil {
		return nil
	}
	err := x.st.Close()
	x.st = nil
	return err
}
