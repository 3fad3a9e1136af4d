package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Paintersrp/snyft/internal/autosave"
	"github.com/Paintersrp/snyft/internal/overlay"
	"github.com/Paintersrp/snyft/internal/parser"
)

type noteStore interface {
	UpdateNote(ctx context.Context, id, body string, modifiedAt time.Time) error
	SetTags(ctx context.Context, id string, tags []string) error
	SaveSegments(ctx context.Context, noteID string, segs []overlay.Segment) error
}

// noteSaver persists one committed version: the body, the tags parsed from
// it and, when coding was captured, the segments committed with it.
type noteSaver struct {
	store  noteStore
	logger *slog.Logger
}

func (n *noteSaver) SaveVersion(ctx context.Context, v autosave.Version) error {
	if err := n.store.UpdateNote(ctx, v.NoteID, v.Body, v.ModifiedAt); err != nil {
		return err
	}
	if err := n.store.SetTags(ctx, v.NoteID, parser.Tags(v.Body)); err != nil {
		return err
	}
	if !v.Coded {
		return nil
	}
	if err := n.store.SaveSegments(ctx, v.NoteID, v.Segments); err != nil {
		return err
	}
	n.logger.Debug("note saved", "id", v.NoteID, "segments", len(v.Segments))
	return nil
}

type queueIndexer interface {
	QueueIndex(id, title, body string, tags []string)
}

// indexBridge adds the title the autosave worker does not carry.
type indexBridge struct {
	index  queueIndexer
	titles *titleMap
}

func (b *indexBridge) QueueIndex(noteID, body string) {
	b.index.QueueIndex(noteID, b.titles.get(noteID), body, parser.Tags(body))
}

type titleMap struct {
	mu     sync.RWMutex
	titles map[string]string
}

func newTitleMap() *titleMap {
	return &titleMap{titles: make(map[string]string)}
}

func (m *titleMap) get(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.titles[id]
}

func (m *titleMap) set(id, title string) {
	m.mu.Lock()
	m.titles[id] = title
	m.mu.Unlock()
}

func (m *titleMap) remove(id string) {
	m.mu.Lock()
	delete(m.titles, id)
	m.mu.Unlock()
}

func (m *titleMap) snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.titles))
	for k, v := range m.titles {
		out[k] = v
	}
	return out
}
