package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	conn *sql.DB
	Path string
}

// OpenDB opens a SQLite database with WAL mode and foreign keys enabled
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// :memory: databases are per-connection
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	return &DB{conn: conn, Path: path}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS organizations (
	ein TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	org_type TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	ntee_code TEXT NOT NULL DEFAULT '',
	assets REAL NOT NULL DEFAULT 0,
	revenue REAL NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS grants (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	foundation_ein TEXT NOT NULL,
	grantee_ein TEXT NOT NULL,
	amount REAL NOT NULL DEFAULT 0,
	tax_year INTEGER NOT NULL DEFAULT 0,
	purpose TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_grants_foundation ON grants(foundation_ein);
CREATE INDEX IF NOT EXISTS idx_grants_grantee ON grants(grantee_ein);
CREATE UNIQUE INDEX IF NOT EXISTS idx_grants_record
	ON grants(foundation_ein, grantee_ein, tax_year, amount, purpose);
`

// Migrate creates the organizations and grants tables if they do not exist
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}
