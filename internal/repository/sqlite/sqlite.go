// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// DOCUMENT STORAGE ON SQLITE:
// Each user is one row. The user's review history lives inline in that row as
// a JSON array (the `reviews` column), so a user and its reviews are always
// read and written together, the way a document database would store them.
// There is no separate reviews table.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, and ":memory:"
// databases make repository tests fast and isolated.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/reviews.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite has a single writer. One pooled connection means writers queue
	// in database/sql instead of failing with SQLITE_BUSY, and a ":memory:"
	// database is the same database for every query.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// external_subject is UNIQUE: it is the only thing that stops two concurrent
// first requests from the same caller creating two users. `reviews` is
// nullable; rows written without a history read back as a nil slice.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id               TEXT PRIMARY KEY,
			external_subject TEXT NOT NULL UNIQUE,
			email            TEXT NOT NULL DEFAULT '',
			display_name     TEXT NOT NULL DEFAULT '',
			reviews          TEXT,
			created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
