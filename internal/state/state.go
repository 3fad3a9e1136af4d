package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/snyft/internal/autosave"
	"github.com/Paintersrp/snyft/internal/codebook"
	"github.com/Paintersrp/snyft/internal/config"
	"github.com/Paintersrp/snyft/internal/constants"
	"github.com/Paintersrp/snyft/internal/logging"
	"github.com/Paintersrp/snyft/internal/overlay"
	"github.com/Paintersrp/snyft/internal/parser"
	"github.com/Paintersrp/snyft/internal/preview"
	"github.com/Paintersrp/snyft/internal/search"
	indexsvc "github.com/Paintersrp/snyft/internal/services/index"
	"github.com/Paintersrp/snyft/internal/store"
	"github.com/Paintersrp/snyft/internal/templater"
)

// previewCacheSize bounds the rendered previews kept in memory.
const previewCacheSize = 32

type State struct {
	Config     *config.Config
	Home       string
	Logger     *slog.Logger
	Store      *store.Store
	Codebook   *codebook.Book
	Overlay    *overlay.Overlay
	Autosave   *autosave.Controller
	Index      IndexService
	Templater  *templater.Templater
	Preview    *preview.Renderer

	titles  *titleMap
	closers []io.Closer
	now     func() time.Time
}

// IndexService exposes the shared search index fed by the autosave worker.
type IndexService interface {
	QueueIndex(id, title, body string, tags []string)
	QueueRemove(id string)
	Search(q search.Query) ([]search.Result, error)
	AcquireSnapshot() (*search.Index, error)
	Stats() indexsvc.Stats
	Close() error
}

// NewState loads the configuration, opens the record store, and starts the
// autosave worker. Flags bound into v take precedence over the config file.
func NewState(ctx context.Context, v *viper.Viper) (*State, error) {
	home, err := GetHomeDir()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(home, v)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.NotesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Path:  cfg.LogPath(constants.LogFile),
		Level: cfg.Level(),
	})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DatabasePath(store.FileName))
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	t, err := templater.NewTemplater()
	if err != nil {
		st.Close()
		logCloser.Close()
		return nil, fmt.Errorf("failed to create templater: %v", err)
	}

	s, err := Assemble(ctx, cfg, st, logger)
	if err != nil {
		st.Close()
		logCloser.Close()
		return nil, err
	}
	s.Home = home
	s.Templater = t
	s.closers = append(s.closers, logCloser)
	return s, nil
}

// Assemble wires the in-memory services on top of an open store. The
// codebook load and the index build run concurrently. Templater is left
// unset, and Close closes st.
func Assemble(ctx context.Context, cfg *config.Config, st *store.Store, logger *slog.Logger) (*State, error) {
	index := indexsvc.NewService(search.Config{
		EnableBody: cfg.Search.EnableBody,
		Fuzzy:      cfg.Search.Fuzzy,
	})
	titles := newTitleMap()

	var book *codebook.Book
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := codebook.Open(gctx, st)
		if err != nil {
			return err
		}
		book = b
		return nil
	})
	g.Go(func() error {
		notes, err := st.ListNotes(gctx)
		if err != nil {
			return err
		}
		docs := make([]search.Document, 0, len(notes))
		for _, n := range notes {
			titles.set(n.ID, n.Title)
			docs = append(docs, documentFor(n))
		}
		return index.Rebuild(docs)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	ov := overlay.New()
	s := &State{
		Config:     cfg,
		Logger:     logger,
		Store:      st,
		Codebook:   book,
		Overlay:    ov,
		Index:      index,
		Preview:    preview.New(cfg.Preview.Style, previewCacheSize),
		titles:     titles,
		now:        time.Now,
	}
	s.Autosave = autosave.New(
		&noteSaver{store: st, logger: logger},
		autosave.WithSegments(ov),
		autosave.WithIndexer(&indexBridge{index: index, titles: titles}),
		autosave.WithLogger(logger),
		autosave.WithRetryDelay(cfg.Autosave.RetryDelay),
	)
	logger.Info("state ready", "notes", len(titles.snapshot()), "codes", book.Len())
	return s, nil
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

// LoadConfig makes sure a config file exists under home, loads it, and folds
// the overrides bound into v on top.
func LoadConfig(home string, v *viper.Viper) (*config.Config, error) {
	if v != nil {
		v.AddConfigPath(filepath.Join(home, constants.ConfigDir))
		v.SetConfigName(constants.ConfigFile)
		v.SetConfigType(constants.ConfigFileType)
	}

	if err := config.EnsureConfigExists(home); err != nil {
		return nil, err
	}
	if v != nil {
		// Only the keys ApplyOverrides reads matter, and a file that
		// config.Load accepted is readable here too.
		_ = v.ReadInConfig()
	}

	cfg, err := config.Load(home)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(v); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewNoteTitle is the title given to a note created without one.
func (s *State) NewNoteTitle() string {
	return "Note " + s.now().Format(constants.NewNoteTitleLayout)
}

// CreateNote stores a new note. An empty title gets the default one and a
// non-empty templateName renders the starting body.
func (s *State) CreateNote(ctx context.Context, title, templateName string) (store.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = s.NewNoteTitle()
	}

	body := ""
	if templateName != "" {
		if s.Templater == nil {
			return store.Note{}, fmt.Errorf("%w: %q", templater.ErrTemplateNotFound, templateName)
		}
		rendered, err := s.Templater.Execute(templateName, title)
		if err != nil {
			return store.Note{}, err
		}
		body = rendered
	}

	n, err := s.Store.CreateNote(ctx, title, body)
	if err != nil {
		return store.Note{}, err
	}
	if tags := parser.Tags(body); len(tags) > 0 {
		if err := s.Store.SetTags(ctx, n.ID, tags); err != nil {
			return store.Note{}, err
		}
		n.Tags = tags
	}
	s.titles.set(n.ID, n.Title)
	s.Index.QueueIndex(n.ID, n.Title, n.Body, n.Tags)
	s.Logger.Info("note created", "id", n.ID, "template", templateName)
	return n, nil
}

// OpenNote reads a note and its persisted segments.
func (s *State) OpenNote(ctx context.Context, id string) (store.Note, []overlay.Segment, error) {
	n, err := s.Store.GetNote(ctx, id)
	if err != nil {
		return store.Note{}, nil, err
	}
	segs, err := s.Store.LoadSegments(ctx, id)
	if err != nil {
		return store.Note{}, nil, err
	}
	return n, segs, nil
}

// RenameNote changes a note's title. The id stays fixed.
func (s *State) RenameNote(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.New("note title cannot be empty")
	}
	if err := s.Store.UpdateTitle(ctx, id, title); err != nil {
		return err
	}
	n, err := s.Store.GetNote(ctx, id)
	if err != nil {
		return err
	}
	s.titles.set(id, title)
	s.Index.QueueIndex(id, title, n.Body, n.Tags)
	s.Preview.Forget(id)
	return nil
}

// DeleteNote removes a note with its segments, dropping any pending save.
func (s *State) DeleteNote(ctx context.Context, id string) error {
	s.Autosave.Discard(id)
	if err := s.Store.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.Overlay.Drop(id)
	s.titles.remove(id)
	s.Index.QueueRemove(id)
	s.Preview.Forget(id)
	s.Logger.Info("note deleted", "id", id)
	return nil
}

// DeleteCode removes a code from the codebook and strips its segments from
// every loaded note. Stored segments go with the code.
func (s *State) DeleteCode(ctx context.Context, id string) ([]overlay.Segment, error) {
	if err := s.Codebook.Delete(ctx, id); err != nil {
		return nil, err
	}
	return s.Overlay.RemoveCode(id), nil
}

// Flush waits until every commit made so far for noteID is stored.
func (s *State) Flush(ctx context.Context, noteID string) error {
	if noteID == "" {
		return nil
	}
	return s.Autosave.Flush(ctx, noteID)
}

// SearchNotes answers a search. When the index is unavailable it scans the
// stored notes instead, matching the term against titles, tags and bodies
// without case, and reports degraded as true.
func (s *State) SearchNotes(ctx context.Context, q search.Query) (results []search.Result, degraded bool, err error) {
	results, err = s.Index.Search(q)
	if err == nil {
		return results, false, nil
	}
	if !errors.Is(err, indexsvc.ErrUnavailable) && !errors.Is(err, indexsvc.ErrClosed) {
		return nil, false, err
	}
	s.Logger.Warn("search index unavailable, scanning notes", "err", err)

	notes, err := s.Store.ListNotes(ctx)
	if err != nil {
		return nil, true, err
	}
	term := strings.TrimSpace(q.Term)
	for _, n := range notes {
		if !hasTags(n.Tags, q.Tags) {
			continue
		}
		if res, ok := scanNote(n, term); ok {
			results = append(results, res)
		}
	}
	rank := map[string]int{"title": 0, "tags": 1, "body": 2}
	sort.SliceStable(results, func(i, j int) bool {
		if a, b := rank[results[i].MatchFrom], rank[results[j].MatchFrom]; a != b {
			return a < b
		}
		return results[i].Title < results[j].Title
	})
	return results, true, nil
}

// scanNote matches one note for the degraded search. An empty term matches
// every note by title.
func scanNote(n store.Note, term string) (search.Result, bool) {
	res := search.Result{ID: n.ID, Title: n.Title, Snippet: n.Title, MatchFrom: "title"}
	lower := strings.ToLower(term)
	if term == "" || strings.Contains(strings.ToLower(n.Title), lower) {
		return res, true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), lower) {
			res.MatchFrom, res.Snippet = "tags", "#"+tag
			return res, true
		}
	}
	if snippet, ok := search.Snippet(n.Body, term); ok {
		res.MatchFrom, res.Snippet = "body", snippet
		return res, true
	}
	return search.Result{}, false
}

func hasTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Close flushes and stops the autosave worker, then releases the index,
// store, and log file.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.Autosave != nil {
		if err := s.Autosave.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Autosave = nil
	}
	if s.Index != nil {
		if err := s.Index.Close(); err != nil && !errors.Is(err, indexsvc.ErrClosed) {
			errs = append(errs, err)
		}
		s.Index = nil
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Store = nil
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func documentFor(n store.Note) search.Document {
	return search.Document{
		ID:         n.ID,
		Title:      n.Title,
		Body:       n.Body,
		Tags:       append([]string(nil), n.Tags...),
		ModifiedAt: n.ModifiedAt,
	}
}
