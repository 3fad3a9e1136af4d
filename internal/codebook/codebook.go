// Package codebook is the registry of qualitative codes that segments are
// tagged with.
package codebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

var (
	ErrNotFound         = errors.New("codebook: code not found")
	ErrDuplicateName    = errors.New("codebook: code name already exists")
	ErrShortcutTaken    = errors.New("codebook: shortcut already assigned")
	errShortcutNotPrint = errors.New("shortcut must be a single printable character")
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Code is one code definition.
type Code struct {
	ID          string
	Name        string
	Description string
	Color       string
	Shortcut    rune
}

// Validate checks the definition's fields.
func (c Code) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Name, validation.Required, validation.Length(1, 64)),
		validation.Field(&c.Color, validation.Required, validation.Match(hexColor)),
		validation.Field(&c.Shortcut, validation.By(func(v interface{}) error {
			r, _ := v.(rune)
			if r != 0 && (r < ' ' || r == 0x7f) {
				return errShortcutNotPrint
			}
			return nil
		})),
	)
}

// IDFor derives a code id from its name.
func IDFor(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Defaults returns the codes a fresh installation starts with.
func Defaults() []Code {
	return []Code{
		{ID: "theme", Name: "Theme", Description: "Major theme or pattern", Color: "#6496c8", Shortcut: 't'},
		{ID: "concept", Name: "Concept", Description: "Key concept or idea", Color: "#96c864", Shortcut: 'c'},
		{ID: "question", Name: "Question", Description: "Research question or inquiry", Color: "#c89664", Shortcut: 'q'},
		{ID: "insight", Name: "Insight", Description: "Important insight or finding", Color: "#c86496", Shortcut: 'i'},
		{ID: "to_do", Name: "To Do", Description: "Action item or follow-up", Color: "#c86464", Shortcut: 'd'},
		{ID: "quote", Name: "Quote", Description: "Notable quotation", Color: "#9696c8", Shortcut: 'u'},
		{ID: "reference", Name: "Reference", Description: "Citation or reference", Color: "#64c896", Shortcut: 'r'},
		{ID: "method", Name: "Method", Description: "Methodology or approach", Color: "#b4b464", Shortcut: 'm'},
	}
}

// Store persists code definitions.
type Store interface {
	LoadCodebook(ctx context.Context) ([]Code, error)
	SaveCode(ctx context.Context, c Code) error
	DeleteCode(ctx context.Context, id string) error
}

// Book is the in-memory codebook backed by a Store. It is safe for
// concurrent use.
type Book struct {
	mu    sync.RWMutex
	codes map[string]Code
	store Store
}

// Open loads the codebook, seeding the defaults when the store is empty.
func Open(ctx context.Context, store Store) (*Book, error) {
	codes, err := store.LoadCodebook(ctx)
	if err != nil {
		return nil, fmt.Errorf("codebook: load: %w", err)
	}

	b := &Book{codes: make(map[string]Code), store: store}
	if len(codes) == 0 {
		codes = Defaults()
		for _, c := range codes {
			if err := store.SaveCode(ctx, c); err != nil {
				return nil, fmt.Errorf("codebook: seed %s: %w", c.ID, err)
			}
		}
	}
	for _, c := range codes {
		b.codes[c.ID] = c
	}
	return b, nil
}

// All returns every code ordered by name.
func (b *Book) All() []Code {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Code, 0, len(b.codes))
	for _, c := range b.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Len returns the number of codes.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.codes)
}

// Get returns a code by id.
func (b *Book) Get(id string) (Code, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.codes[id]
	return c, ok
}

// ByName returns a code by case-insensitive name.
func (b *Book) ByName(name string) (Code, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.codes {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Code{}, false
}

// ByShortcut returns the code bound to r.
func (b *Book) ByShortcut(r rune) (Code, bool) {
	if r == 0 {
		return Code{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, c := range b.codes {
		if c.Shortcut == r {
			return c, true
		}
	}
	return Code{}, false
}

// Lookup resolves a code by id, then name, then single-character shortcut.
func (b *Book) Lookup(key string) (Code, bool) {
	if c, ok := b.Get(key); ok {
		return c, true
	}
	if c, ok := b.ByName(key); ok {
		return c, true
	}
	if r := []rune(key); len(r) == 1 {
		return b.ByShortcut(r[0])
	}
	return Code{}, false
}

// Create adds a code and persists it.
func (b *Book) Create(ctx context.Context, name, description, color string, shortcut rune) (Code, error) {
	c := Code{
		ID:          IDFor(name),
		Name:        strings.TrimSpace(name),
		Description: description,
		Color:       color,
		Shortcut:    shortcut,
	}
	if err := c.Validate(); err != nil {
		return Code{}, fmt.Errorf("codebook: create: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.codes[c.ID]; exists || b.nameTaken(c.Name, "") {
		return Code{}, fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
	}
	if b.shortcutTaken(shortcut, "") {
		return Code{}, fmt.Errorf("%w: %q", ErrShortcutTaken, shortcut)
	}
	if err := b.store.SaveCode(ctx, c); err != nil {
		return Code{}, fmt.Errorf("codebook: create %s: %w", c.ID, err)
	}
	b.codes[c.ID] = c
	return c, nil
}

// Update persists changed attributes of an existing code. The id is fixed
// for the life of the code so segments keep pointing at it across renames.
func (b *Book) Update(ctx context.Context, c Code) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("codebook: update: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.codes[c.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, c.ID)
	}
	if b.nameTaken(c.Name, c.ID) {
		return fmt.Errorf("%w: %s", ErrDuplicateName, c.Name)
	}
	if b.shortcutTaken(c.Shortcut, c.ID) {
		return fmt.Errorf("%w: %q", ErrShortcutTaken, c.Shortcut)
	}
	if err := b.store.SaveCode(ctx, c); err != nil {
		return fmt.Errorf("codebook: update %s: %w", c.ID, err)
	}
	b.codes[c.ID] = c
	return nil
}

// Rename changes a code's display name.
func (b *Book) Rename(ctx context.Context, id, name string) error {
	c, ok := b.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.Name = strings.TrimSpace(name)
	return b.Update(ctx, c)
}

// Recolor changes a code's highlight color.
func (b *Book) Recolor(ctx context.Context, id, color string) error {
	c, ok := b.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c.Color = color
	return b.Update(ctx, c)
}

// Delete removes a code. The store drops the code's segments with it.
func (b *Book) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.codes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := b.store.DeleteCode(ctx, id); err != nil {
		return fmt.Errorf("codebook: delete %s: %w", id, err)
	}
	delete(b.codes, id)
	return nil
}

type exportFile struct {
	Codes []codeEntry `yaml:"codes"`
}

type codeEntry struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Color       string `yaml:"color"`
	Shortcut    string `yaml:"shortcut,omitempty"`
}

// Export writes the codebook as YAML.
func (b *Book) Export(w io.Writer) error {
	var file exportFile
	for _, c := range b.All() {
		e := codeEntry{ID: c.ID, Name: c.Name, Description: c.Description, Color: c.Color}
		if c.Shortcut != 0 {
			e.Shortcut = string(c.Shortcut)
		}
		file.Codes = append(file.Codes, e)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("codebook: export: %w", err)
	}
	return enc.Close()
}

// Import reads a YAML codebook and adds every code whose id and name are not
// already present. Existing codes are left untouched. Shortcuts that clash
// with an existing code are dropped. It returns the number of codes added.
func (b *Book) Import(ctx context.Context, r io.Reader) (int, error) {
	var file exportFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("codebook: import: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	added := 0
	for _, e := range file.Codes {
		c := Code{ID: e.ID, Name: e.Name, Description: e.Description, Color: e.Color}
		if c.ID == "" {
			c.ID = IDFor(c.Name)
		}
		if r := []rune(e.Shortcut); len(r) == 1 {
			c.Shortcut = r[0]
		}
		if err := c.Validate(); err != nil {
			return added, fmt.Errorf("codebook: import %q: %w", c.Name, err)
		}
		if _, exists := b.codes[c.ID]; exists || b.nameTaken(c.Name, "") {
			continue
		}
		if b.shortcutTaken(c.Shortcut, "") {
			c.Shortcut = 0
		}
		if err := b.store.SaveCode(ctx, c); err != nil {
			return added, fmt.Errorf("codebook: import %s: %w", c.ID, err)
		}
		b.codes[c.ID] = c
		added++
	}
	return added, nil
}

func (b *Book) nameTaken(name, except string) bool {
	for id, c := range b.codes {
		if id != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (b *Book) shortcutTaken(r rune, except string) bool {
	if r == 0 {
		return false
	}
	for id, c := range b.codes {
		if id != except && c.Shortcut == r {
			return true
		}
	}
	return false
}
