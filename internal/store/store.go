package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS translations (
	key         TEXT PRIMARY KEY,
	source      TEXT NOT NULL,
	translation TEXT NOT NULL,
	created_at  INTEGER NOT NULL
)`

// Store is a SQLite backed translation memory
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open translation memory: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize translation memory: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup returns the translation stored under key
func (s *Store) Lookup(ctx context.Context, key string) (string, bool, error) {
	var translation string
	err := s.db.QueryRowContext(ctx, `SELECT translation FROM translations WHERE key = ?`, key).Scan(&translation)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up translation: %w", err)
	}
	return translation, true, nil
}

// Remember stores a translation, replacing any previous one under key
func (s *Store) Remember(ctx context.Context, key, source, translation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translations (key, source, translation, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET translation = excluded.translation, created_at = excluded.created_at`,
		key, source, translation, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save translation: %w", err)
	}
	return nil
}

// Count returns the number of stored translations
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count translations: %w", err)
	}
	return n, nil
}
