package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_CreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "lab.db")

	conn, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer conn.Close()

	for _, table := range []string{"lab_sessions", "code_snapshots", "debug_logs"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "lab.db")

	first, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	first.Close()

	second, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	second.Close()
}

func TestNewTestDB_Independent(t *testing.T) {
	a, err := NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	defer a.Close()

	b, err := NewTestDB()
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	defer b.Close()

	if _, err := a.Exec(`INSERT INTO lab_sessions (id, session_code, mentor_id, student_id, started_at) VALUES ('s1', 'LAB-1', 'm', 's', CURRENT_TIMESTAMP)`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	var count int
	if err := b.QueryRow(`SELECT COUNT(*) FROM lab_sessions`).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty second database, got %d rows", count)
	}
}
