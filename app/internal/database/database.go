// Package database stores the operator event log in SQLite.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the event log connection
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema. Use ":memory:" for a throwaway database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" shared.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.ensureSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection
func (db *DB) Close() error {
	return db.conn.Close()
}
