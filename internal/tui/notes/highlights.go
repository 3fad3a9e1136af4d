package notes

import (
	"sync"

	"github.com/Paintersrp/snyft/internal/search"
)

// highlightStore holds the search result of each listed note, keyed by note
// id, so list items can show the matched snippet.
type highlightStore struct {
	mu      sync.RWMutex
	matches map[string]search.Result
}

func newHighlightStore() *highlightStore {
	return &highlightStore{matches: make(map[string]search.Result)}
}

func (s *highlightStore) setAll(results []search.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches = make(map[string]search.Result, len(results))
	for _, result := range results {
		s.matches[result.ID] = result
	}
}

func (s *highlightStore) clear() {
	s.setAll(nil)
}

func (s *highlightStore) lookup(id string) (search.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.matches[id]
	return result, ok
}
