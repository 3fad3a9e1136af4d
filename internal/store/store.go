// Package store persists notes, codes and coded segments in SQLite.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Paintersrp/snyft/internal/codebook"
	"github.com/Paintersrp/snyft/internal/overlay"
)

// FileName is the database file created inside the notes directory.
const FileName = "notes.db"

// ErrNotFound is returned when a note does not exist.
var ErrNotFound = errors.New("store: not found")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	tags        TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS codes (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	color       TEXT NOT NULL,
	shortcut    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS coded_segments (
	id           TEXT PRIMARY KEY,
	note_id      TEXT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
	code_id      TEXT NOT NULL REFERENCES codes(id) ON DELETE CASCADE,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	memo         TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL,
	seq          INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_segments_note ON coded_segments(note_id);
CREATE INDEX IF NOT EXISTS idx_segments_code ON coded_segments(code_id);
`

// Note is a stored note.
type Note struct {
	ID         string
	Title      string
	Body       string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Tags       []string
}

// NoteID derives the immutable id of a note from its title and creation
// time.
func NoteID(title string, created time.Time) string {
	sum := sha256.Sum256([]byte(title + created.UTC().Format(time.RFC3339)))
	return hex.EncodeToString(sum[:])[:12]
}

// Store wraps the SQLite connection.
type Store struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{conn: conn, now: time.Now}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CreateNote inserts a new note. When the derived id is already taken (two
// notes with one title in the same second) the creation time is nudged
// forward until the id is free.
func (s *Store) CreateNote(ctx context.Context, title, body string) (Note, error) {
	created := s.now().UTC().Truncate(time.Second)
	for attempt := 0; attempt < 60; attempt++ {
		n := Note{
			ID:         NoteID(title, created),
			Title:      title,
			Body:       body,
			CreatedAt:  created,
			ModifiedAt: created,
			Tags:       []string{},
		}
		res, err := s.conn.ExecContext(ctx, `
			INSERT OR IGNORE INTO notes (id, title, body, created_at, modified_at, tags)
			VALUES (?, ?, ?, ?, ?, '[]')
		`, n.ID, n.Title, n.Body, formatTime(n.CreatedAt), formatTime(n.ModifiedAt))
		if err != nil {
			return Note{}, fmt.Errorf("store: create note: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 1 {
			return n, nil
		}
		created = created.Add(time.Second)
	}
	return Note{}, fmt.Errorf("store: create note %q: no free id", title)
}

// GetNote returns one note.
func (s *Store) GetNote(ctx context.Context, id string) (Note, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, title, body, created_at, modified_at, tags FROM notes WHERE id = ?
	`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, fmt.Errorf("%w: note %s", ErrNotFound, id)
	}
	if err != nil {
		return Note{}, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

// ListNotes returns every note, most recently modified first.
func (s *Store) ListNotes(ctx context.Context) ([]Note, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, title, body, created_at, modified_at, tags
		FROM notes ORDER BY modified_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list notes: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UpdateNote replaces a note's body.
func (s *Store) UpdateNote(ctx context.Context, id, body string, modifiedAt time.Time) error {
	return s.exec(ctx, "update note", id,
		`UPDATE notes SET body = ?, modified_at = ? WHERE id = ?`,
		body, formatTime(modifiedAt), id)
}

// UpdateTitle renames a note. The id does not change.
func (s *Store) UpdateTitle(ctx context.Context, id, title string) error {
	return s.exec(ctx, "update title", id,
		`UPDATE notes SET title = ?, modified_at = ? WHERE id = ?`,
		title, formatTime(s.now()), id)
}

// SetTags replaces a note's tags.
func (s *Store) SetTags(ctx context.Context, id string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("store: encode tags: %w", err)
	}
	return s.exec(ctx, "set tags", id,
		`UPDATE notes SET tags = ? WHERE id = ?`, string(encoded), id)
}

// DeleteNote removes a note and its coded segments.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	return s.exec(ctx, "delete note", id, `DELETE FROM notes WHERE id = ?`, id)
}

// SaveSegments replaces every coded segment of a note.
func (s *Store) SaveSegments(ctx context.Context, noteID string, segs []overlay.Segment) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM coded_segments WHERE note_id = ?`, noteID); err != nil {
		return fmt.Errorf("store: clear segments: %w", err)
	}
	if len(segs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO coded_segments (id, note_id, code_id, start_offset, end_offset, memo, created_at, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("store: prepare segment insert: %w", err)
		}
		defer stmt.Close()
		for _, seg := range segs {
			if _, err := stmt.ExecContext(ctx, seg.ID, noteID, seg.CodeID, seg.Start, seg.End,
				seg.Memo, formatTime(seg.CreatedAt), int64(seg.Seq)); err != nil {
				return fmt.Errorf("store: insert segment %s: %w", seg.ID, err)
			}
		}
	}
	return tx.Commit()
}

// LoadSegments returns a note's coded segments ordered by start offset.
func (s *Store) LoadSegments(ctx context.Context, noteID string) ([]overlay.Segment, error) {
	return s.querySegments(ctx, `
		SELECT id, note_id, code_id, start_offset, end_offset, memo, created_at, seq
		FROM coded_segments WHERE note_id = ? ORDER BY start_offset, seq
	`, noteID)
}

// SegmentsByCode returns every segment tagged with a code across notes.
func (s *Store) SegmentsByCode(ctx context.Context, codeID string) ([]overlay.Segment, error) {
	return s.querySegments(ctx, `
		SELECT id, note_id, code_id, start_offset, end_offset, memo, created_at, seq
		FROM coded_segments WHERE code_id = ? ORDER BY note_id, start_offset, seq
	`, codeID)
}

// SegmentCounts returns the number of segments per code id.
func (s *Store) SegmentCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT code_id, count(*) FROM coded_segments GROUP BY code_id`)
	if err != nil {
		return nil, fmt.Errorf("store: segment counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// LoadCodebook returns every stored code definition.
func (s *Store) LoadCodebook(ctx context.Context) ([]codebook.Code, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, name, description, color, shortcut FROM codes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: load codebook: %w", err)
	}
	defer rows.Close()

	var out []codebook.Code
	for rows.Next() {
		var c codebook.Code
		var shortcut string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &shortcut); err != nil {
			return nil, fmt.Errorf("store: load codebook: %w", err)
		}
		if r := []rune(shortcut); len(r) > 0 {
			c.Shortcut = r[0]
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveCode inserts or updates a code definition.
func (s *Store) SaveCode(ctx context.Context, c codebook.Code) error {
	shortcut := ""
	if c.Shortcut != 0 {
		shortcut = string(c.Shortcut)
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO codes (id, name, description, color, shortcut)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name        = excluded.name,
			description = excluded.description,
			color       = excluded.color,
			shortcut    = excluded.shortcut
	`, c.ID, c.Name, c.Description, c.Color, shortcut)
	if err != nil {
		return fmt.Errorf("store: save code %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCode removes a code definition and every segment tagged with it.
func (s *Store) DeleteCode(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM coded_segments WHERE code_id = ?`, id); err != nil {
		return fmt.Errorf("store: delete code segments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM codes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete code: %w", err)
	}
	return tx.Commit()
}

func (s *Store) exec(ctx context.Context, op, id, query string, args ...any) error {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("store: %s: %w", op, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: note %s", ErrNotFound, id)
	}
	return nil
}

func (s *Store) querySegments(ctx context.Context, query string, arg string) ([]overlay.Segment, error) {
	rows, err := s.conn.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("store: load segments: %w", err)
	}
	defer rows.Close()

	var out []overlay.Segment
	for rows.Next() {
		var seg overlay.Segment
		var created string
		var seq int64
		if err := rows.Scan(&seg.ID, &seg.NoteID, &seg.CodeID, &seg.Start, &seg.End,
			&seg.Memo, &created, &seq); err != nil {
			return nil, fmt.Errorf("store: scan segment: %w", err)
		}
		seg.CreatedAt = parseTime(created)
		seg.Seq = uint64(seq)
		out = append(out, seg)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (Note, error) {
	var n Note
	var created, modified, tags string
	if err := row.Scan(&n.ID, &n.Title, &n.Body, &created, &modified, &tags); err != nil {
		return Note{}, err
	}
	n.CreatedAt = parseTime(created)
	n.ModifiedAt = parseTime(modified)
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		n.Tags = nil
	}
	return n, nil
}

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
