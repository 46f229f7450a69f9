package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store holds the row-level operations. Outside a transaction it runs against
// the connection pool; inside InTx it runs against the transaction.
type Store struct {
	q execer
}

// DB wraps the database connection
type DB struct {
	*sql.DB
	*Store
}

// Open opens (creating if needed) the database at path and initializes the schema
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000&_loc=auto")
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{DB: conn, Store: &Store{q: conn}}, nil
}

// InTx runs fn inside one transaction. Any error from fn rolls back every
// write fn made.
func (db *DB) InTx(fn func(s *Store) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(&Store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// Savepoint runs fn inside a named savepoint. An error rolls back only what
// fn wrote; the surrounding transaction stays usable.
func (s *Store) Savepoint(name string, fn func() error) error {
	if _, err := s.q.Exec("SAVEPOINT " + name); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if _, rbErr := s.q.Exec("ROLLBACK TO SAVEPOINT " + name); rbErr != nil {
			return fmt.Errorf("%w (rollback to %s: %v)", err, name, rbErr)
		}
		if _, relErr := s.q.Exec("RELEASE SAVEPOINT " + name); relErr != nil {
			return fmt.Errorf("%w (release %s: %v)", err, name, relErr)
		}
		return err
	}
	_, err := s.q.Exec("RELEASE SAVEPOINT " + name)
	return err
}

// Reset deletes all flow data but keeps settings and focus history
func (s *Store) Reset() error {
	for _, table := range []string{"answers", "connections", "tasks", "blocks", "projects", "batches"} {
		if _, err := s.q.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}

// GetSetting retrieves a setting value by key
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.q.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (s *Store) SetSetting(key, value string) error {
	_, err := s.q.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
