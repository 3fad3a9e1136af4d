package index

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Paintersrp/snyft/internal/search"
)

// ErrClosed signals that the index service has been shut down and cannot be
// used to produce new snapshots.
var ErrClosed = errors.New("index service closed")

// ErrUnavailable indicates that the search index has not been built yet.
var ErrUnavailable = errors.New("search index unavailable")

// Stats captures lightweight instrumentation about the shared index.
type Stats struct {
	LastRebuild time.Time
	Pending     int
	Documents   int
}

// Service owns the shared search index and folds in updates queued by the
// autosave worker. Updates are applied lazily on the next query so queueing
// never blocks a save.
type Service struct {
	mu          sync.RWMutex
	config      search.Config
	index       *search.Index
	pending     map[string]*search.Document
	lastRebuild time.Time
	closed      bool

	now func() time.Time
}

// NewService constructs an index service. It answers ErrUnavailable until
// Rebuild succeeds.
func NewService(cfg search.Config) *Service {
	return &Service{
		config:  cfg,
		pending: make(map[string]*search.Document),
		now:     time.Now,
	}
}

// Rebuild replaces the index with docs. Updates queued before the rebuild
// are applied on top.
func (s *Service) Rebuild(docs []search.Document) error {
	if s == nil {
		return ErrUnavailable
	}

	idx := search.NewIndex(s.config)
	idx.Build(docs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.index = idx
	s.lastRebuild = s.now()
	return nil
}

// QueueIndex schedules a note for reindexing. It never blocks on the index.
func (s *Service) QueueIndex(id, title, body string, tags []string) {
	if s == nil {
		return
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending[id] = &search.Document{
		ID:         id,
		Title:      title,
		Body:       body,
		Tags:       append([]string(nil), tags...),
		ModifiedAt: s.now(),
	}
}

// QueueRemove schedules a deleted note for removal.
func (s *Service) QueueRemove(id string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.pending[id] = nil
}

// Search evaluates q against the current index.
func (s *Service) Search(q search.Query) ([]search.Result, error) {
	if err := s.applyPending(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Search(q), nil
}

// AcquireSnapshot returns a copy of the index that callers may query
// without further locking.
func (s *Service) AcquireSnapshot() (*search.Index, error) {
	if err := s.applyPending(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Clone(), nil
}

// Stats returns instrumentation about the index lifecycle.
func (s *Service) Stats() Stats {
	if s == nil {
		return Stats{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{LastRebuild: s.lastRebuild, Pending: len(s.pending)}
	if s.index != nil {
		st.Documents = s.index.Len()
	}
	return st
}

// Close releases the service. Subsequent queries return ErrClosed.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.index = nil
	s.pending = nil
	return nil
}

func (s *Service) applyPending() error {
	if s == nil {
		return ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.index == nil {
		return ErrUnavailable
	}
	if len(s.pending) == 0 {
		return nil
	}

	pending := s.pending
	s.pending = make(map[string]*search.Document)
	for id, doc := range pending {
		if doc == nil {
			s.index.Remove(id)
			continue
		}
		s.index.Upsert(*doc)
	}
	return nil
}
