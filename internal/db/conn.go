// Package db holds the SQLite completion log.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// schemaVersion is stored in PRAGMA user_version once schema.sql is applied.
const schemaVersion = 1

//go:embed schema.sql
var schema string

type DB struct {
	conn *sql.DB
}

// Open opens the database at path, creating it and its directory as needed.
// A leading ~/ is expanded to the home directory.
func Open(path string) (*DB, error) {
	if path != MemoryPath {
		resolved, err := resolvePath(path)
		if err != nil {
			return nil, err
		}
		path = resolved
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if path == MemoryPath {
		// Each pooled connection would otherwise see its own empty database.
		conn.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &DB{conn: conn}, nil
}

func resolvePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating database dir: %w", err)
	}
	return path, nil
}

// Migrate applies the schema if the database predates it. It is safe to call
// on every start.
func (d *DB) Migrate() error {
	v, err := d.Version()
	if err != nil {
		return err
	}
	if v >= schemaVersion {
		return nil
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return tx.Commit()
}

// Version reports the schema version recorded in the database.
func (d *DB) Version() (int, error) {
	var v int
	if err := d.conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

func (d *DB) Conn() *sql.DB {
	return d.conn
}

func (d *DB) Close() error {
	return d.conn.Close()
}
