// ABOUTME: Conversation transcript persistence
// ABOUTME: SQLite-backed store for sessions and utterances
package history

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Utterance is one line of conversation from either side
type Utterance struct {
	ID        int64
	SessionID string
	Role      string // "user" or "assistant"
	Text      string
	CreatedAt time.Time
}

// Store persists conversation transcripts
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at path and applies migrations
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("sqlite driver: %w", err)
	}

	src, err := iofs.New(embeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// CreateSession records a new conversation session
func (s *Store) CreateSession(ctx context.Context, id, model string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions(id, model, started_at) VALUES (?, ?, ?)`,
		id, model, time.Now().UTC(),
	)
	return err
}

// AppendUtterance adds one line of transcript to a session
func (s *Store) AppendUtterance(ctx context.Context, sessionID, role, text string) error {
	if text == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO utterances(session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, role, text, time.Now().UTC(),
	)
	return err
}

// Utterances returns a session's transcript in order
func (s *Store) Utterances(ctx context.Context, sessionID string) ([]Utterance, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, session_id, role, text, created_at
	FROM utterances WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Utterance
	for rows.Next() {
		var u Utterance
		if err := rows.Scan(&u.ID, &u.SessionID, &u.Role, &u.Text, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
