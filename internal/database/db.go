// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the configurations database connection with production-grade configuration
type DB struct {
	conn *sql.DB
	path string
	name string // Database name for logging
}

// Config holds database configuration
type Config struct {
	Path string
	Name string // Friendly name for logging (e.g., "configurations")
}

// schema is the configurations database schema. Saved configurations are keyed
// by flowsheet and name; the stored payload is opaque JSON from the solver side.
const schema = `
CREATE TABLE IF NOT EXISTS configurations (
	flowsheet_id TEXT NOT NULL,
	name         TEXT NOT NULL,
	data         TEXT,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL,
	PRIMARY KEY (flowsheet_id, name)
);
CREATE INDEX IF NOT EXISTS idx_configurations_flowsheet
	ON configurations (flowsheet_id, updated_at);
`

// New creates a new database connection with production-grade configuration
func New(cfg Config) (*DB, error) {
	// Handle file: URIs (used for in-memory databases in tests) - skip filepath operations
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	db := &DB{
		conn: conn,
		path: cfg.Path,
		name: cfg.Name,
	}

	if err := db.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database %s: %w", cfg.Name, err)
	}

	return db, nil
}

// buildConnectionString creates the SQLite connection string with PRAGMAs
func buildConnectionString(path string) string {
	connStr := path + "?_pragma=journal_mode(WAL)"
	connStr += "&_pragma=synchronous(NORMAL)"      // Fsync at checkpoints
	connStr += "&_pragma=auto_vacuum(INCREMENTAL)" // Gradual space reclamation
	connStr += "&_pragma=temp_store(MEMORY)"       // Temp tables in RAM
	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=wal_autocheckpoint(1000)" // Checkpoint every 1000 pages
	connStr += "&_pragma=busy_timeout(5000)"
	return connStr
}

// configureConnectionPool sets up the connection pool for long-term operation
func configureConnectionPool(conn *sql.DB) {
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)
}

// Migrate applies the configurations schema. Idempotent.
func (db *DB) Migrate() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}

	if _, err := tx.Exec(schema); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute schema for %s: %w", db.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema for %s: %w", db.name, err)
	}

	return nil
}

// CheckpointWAL forces a WAL checkpoint, truncating the log. Run by the
// maintenance job so the WAL file cannot grow without bound between restarts.
func (db *DB) CheckpointWAL() error {
	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL for %s: %w", db.name, err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
// Used by repositories to execute queries
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}
