// Package storage persists saved BASIC programs in a SQLite database. It
// implements the interpreter's ProgramStore interface.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/antibyte/retrobasic/pkg/basic"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// Store wraps the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and ensures the schema
// exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	query := `CREATE TABLE IF NOT EXISTS programs (
		session TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (session, name)
	)`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create programs table: %w", err)
	}
	return nil
}

// Save stores or replaces a program under (session, name).
func (s *Store) Save(session, name, content string) error {
	_, err := s.db.Exec(
		`INSERT INTO programs (session, name, content, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session, name) DO UPDATE SET
		   content = excluded.content,
		   updated_at = excluded.updated_at`,
		session, name, content, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save program %q: %w", name, err)
	}
	logger.Debug(logger.AreaStorage, "saved program %q for session %s (%d bytes)",
		name, session, len(content))
	return nil
}

// Load returns the content saved under (session, name), or
// basic.ErrProgramNotFound.
func (s *Store) Load(session, name string) (string, error) {
	var content string
	err := s.db.QueryRow(
		`SELECT content FROM programs WHERE session = ? AND name = ?`,
		session, name).Scan(&content)
	if err == sql.ErrNoRows {
		return "", basic.ErrProgramNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load program %q: %w", name, err)
	}
	return content, nil
}

// List returns the names of all programs saved for a session.
func (s *Store) List(session string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT name FROM programs WHERE session = ? ORDER BY name`, session)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
