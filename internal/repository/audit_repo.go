package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nexushub/virtuallab/internal/model"
)

// AuditRepository appends and reads the code snapshot and debug log trails.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AppendSnapshot inserts a code snapshot.
func (r *AuditRepository) AppendSnapshot(ctx context.Context, snap *model.CodeSnapshot) error {
	query := `
		INSERT INTO code_snapshots (session_id, author_id, code, language, captured_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		snap.SessionID, snap.AuthorID, snap.Code, snap.Language, snap.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to append code snapshot: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		snap.ID = id
	}
	return nil
}

// AppendDebugLog inserts a debug log entry.
func (r *AuditRepository) AppendDebugLog(ctx context.Context, entry *model.DebugLog) error {
	query := `
		INSERT INTO debug_logs (session_id, author_id, error_message, code_snippet, ai_response, captured_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.SessionID, entry.AuthorID, entry.ErrorMessage, entry.CodeSnippet, entry.AIResponse, entry.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to append debug log: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// ListSnapshots returns the snapshots of a session in capture order.
func (r *AuditRepository) ListSnapshots(ctx context.Context, sessionID string) ([]*model.CodeSnapshot, error) {
	query := `
		SELECT id, session_id, author_id, code, language, captured_at
		FROM code_snapshots
		WHERE session_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list code snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*model.CodeSnapshot
	for rows.Next() {
		snap := &model.CodeSnapshot{}
		if err := rows.Scan(&snap.ID, &snap.SessionID, &snap.AuthorID, &snap.Code, &snap.Language, &snap.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan code snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating code snapshots: %w", err)
	}

	return snaps, nil
}

// ListDebugLogs returns the debug logs of a session in capture order.
func (r *AuditRepository) ListDebugLogs(ctx context.Context, sessionID string) ([]*model.DebugLog, error) {
	query := `
		SELECT id, session_id, author_id, error_message, code_snippet, ai_response, captured_at
		FROM debug_logs
		WHERE session_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debug logs: %w", err)
	}
	defer rows.Close()

	var entries []*model.DebugLog
	for rows.Next() {
		entry := &model.DebugLog{}
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.AuthorID, &entry.ErrorMessage, &entry.CodeSnippet, &entry.AIResponse, &entry.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan debug log: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating debug logs: %w", err)
	}

	return entries, nil
}
