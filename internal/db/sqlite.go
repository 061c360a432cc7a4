package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the SQLite database at dbPath, creating the parent directory if
// needed, and runs schema migrations.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL for concurrent readers while the audit writer appends
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}

// runMigrations executes the database schema migrations.
func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS lab_sessions (
		id TEXT PRIMARY KEY,
		session_code TEXT NOT NULL UNIQUE,
		mentor_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		project_ref TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		ai_interaction_count INTEGER NOT NULL DEFAULT 0,
		final_code_snapshot TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_lab_sessions_status ON lab_sessions(status);
	CREATE INDEX IF NOT EXISTS idx_lab_sessions_mentor_id ON lab_sessions(mentor_id);

	CREATE TABLE IF NOT EXISTS code_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES lab_sessions(id),
		author_id TEXT NOT NULL,
		code TEXT NOT NULL,
		language TEXT NOT NULL,
		captured_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_code_snapshots_session_id ON code_snapshots(session_id);

	CREATE TABLE IF NOT EXISTS debug_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES lab_sessions(id),
		author_id TEXT NOT NULL,
		error_message TEXT NOT NULL,
		code_snippet TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		captured_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_debug_logs_session_id ON debug_logs(session_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// NewTestDB creates a new in-memory database for testing.
// Every call returns an independent database.
func NewTestDB() (*sql.DB, error) {
	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}

	// each pooled connection to :memory: would see its own empty database
	testDB.SetMaxOpenConns(1)

	if err := runMigrations(testDB); err != nil {
		testDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return testDB, nil
}
