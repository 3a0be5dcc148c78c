// Package snippets stores reusable note fragments in a local SQLite
// database, so frequently pasted text survives overlay restarts and can be
// recalled most-recently-used first.
package snippets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ghostnote/internal/config"
)

// ErrNotFound is returned when no snippet has the requested id.
var ErrNotFound = errors.New("snippet not found")

// maxBodyBytes bounds a single snippet; anything larger belongs in a file.
const maxBodyBytes = 64 << 10

// Snippet is one stored fragment.
type Snippet struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Store is a snippet library backed by a SQLite file.
type Store struct {
	db *sql.DB

	// now is a test seam for deterministic timestamps.
	now func() time.Time
}

// DefaultPath returns the snippet database path, next to the config file.
func DefaultPath() string {
	return filepath.Join(filepath.Dir(config.DefaultPath()), "snippets.db")
}

const schema = `
CREATE TABLE IF NOT EXISTS snippets (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	body         TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL,
	last_used_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_snippets_last_used ON snippets(last_used_at DESC);
`

// Open opens (creating if needed) the snippet database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("snippet database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("snippets: mkdir: %w", err)
	}

	// WAL keeps the UI responsive when a save lands mid-query; the busy
	// timeout rides out the brief lock a concurrent writer holds.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("snippets: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("snippets: init schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new snippet and returns it with its generated id.
func (s *Store) Create(ctx context.Context, title, body string) (Snippet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Snippet{}, errors.New("snippet title required")
	}
	if len(body) > maxBodyBytes {
		return Snippet{}, fmt.Errorf("snippet body exceeds %d bytes", maxBodyBytes)
	}

	now := s.now().UTC()
	sn := Snippet{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snippets (id, title, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sn.ID, sn.Title, sn.Body, sn.CreatedAt, sn.UpdatedAt,
	)
	if err != nil {
		return Snippet{}, fmt.Errorf("snippets: create: %w", err)
	}
	return sn, nil
}

// Get returns one snippet by id.
func (s *Store) Get(ctx context.Context, id string) (Snippet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, body, created_at, updated_at, last_used_at FROM snippets WHERE id = ?`, id)
	return scanSnippet(row)
}

// List returns all snippets, most recently used first; never-used snippets
// follow, newest first.
func (s *Store) List(ctx context.Context) ([]Snippet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, created_at, updated_at, last_used_at
		 FROM snippets
		 ORDER BY last_used_at IS NULL, last_used_at DESC, updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("snippets: list: %w", err)
	}
	defer rows.Close()

	var out []Snippet
	for rows.Next() {
		sn, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sn)
	}
	return out, rows.Err()
}

// Update replaces a snippet's title and body.
func (s *Store) Update(ctx context.Context, id, title, body string) (Snippet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Snippet{}, errors.New("snippet title required")
	}
	if len(body) > maxBodyBytes {
		return Snippet{}, fmt.Errorf("snippet body exceeds %d bytes", maxBodyBytes)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE snippets SET title = ?, body = ?, updated_at = ? WHERE id = ?`,
		title, body, s.now().UTC(), id)
	if err != nil {
		return Snippet{}, fmt.Errorf("snippets: update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return Snippet{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes a snippet.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("snippets: delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch marks a snippet as used now, moving it to the front of List.
func (s *Store) Touch(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE snippets SET last_used_at = ? WHERE id = ?`, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("snippets: touch: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (Snippet, error) {
	var sn Snippet
	var lastUsed sql.NullTime
	err := row.Scan(&sn.ID, &sn.Title, &sn.Body, &sn.CreatedAt, &sn.UpdatedAt, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return Snippet{}, ErrNotFound
	}
	if err != nil {
		return Snippet{}, fmt.Errorf("snippets: scan: %w", err)
	}
	if lastUsed.Valid {
		t := lastUsed.Time
		sn.LastUsedAt = &t
	}
	return sn, nil
}
