package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/nexushub/virtuallab/internal/model"
)

const sessionColumns = `id, session_code, mentor_id, student_id, project_ref, status, started_at, ended_at, ai_interaction_count, final_code_snapshot`

// SessionRepository provides data access for lab sessions.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.LabSession, error) {
	session := &model.LabSession{}
	var projectRef sql.NullString
	var endedAt sql.NullTime
	var snapshot sql.NullString

	err := row.Scan(
		&session.ID,
		&session.SessionCode,
		&session.MentorID,
		&session.StudentID,
		&projectRef,
		&session.Status,
		&session.StartedAt,
		&endedAt,
		&session.AIInteractionCount,
		&snapshot,
	)
	if err != nil {
		return nil, err
	}

	if projectRef.Valid {
		session.ProjectRef = projectRef.String
	}
	if endedAt.Valid {
		t := endedAt.Time
		session.EndedAt = &t
	}
	if snapshot.Valid {
		session.FinalCodeSnapshot = snapshot.String
	}

	return session, nil
}

// Create inserts a new session. It returns model.ErrDuplicateCode when the
// session code is already taken.
func (r *SessionRepository) Create(ctx context.Context, session *model.LabSession) error {
	query := `
		INSERT INTO lab_sessions (id, session_code, mentor_id, student_id, project_ref, status, started_at, ai_interaction_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.SessionCode,
		session.MentorID,
		session.StudentID,
		nullString(session.ProjectRef),
		session.Status,
		session.StartedAt,
		session.AIInteractionCount,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return model.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.LabSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM lab_sessions WHERE id = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// GetByCode retrieves a session by its session code regardless of status.
func (r *SessionRepository) GetByCode(ctx context.Context, code string) (*model.LabSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM lab_sessions WHERE session_code = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListActive retrieves all active sessions, newest first.
func (r *SessionRepository) ListActive(ctx context.Context) ([]*model.LabSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM lab_sessions WHERE status = ? ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query, model.SessionStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.LabSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// Complete marks an active session as completed and stores the final snapshot.
// It reports false without writing anything when the session is not active.
func (r *SessionRepository) Complete(ctx context.Context, id string, snapshot string, endedAt time.Time) (bool, error) {
	query := `
		UPDATE lab_sessions
		SET status = ?, ended_at = ?, final_code_snapshot = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		model.SessionStatusCompleted, endedAt, snapshot, id, model.SessionStatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to complete session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// IncrementAIInteractions bumps the AI interaction counter of a session.
func (r *SessionRepository) IncrementAIInteractions(ctx context.Context, id string) error {
	query := `UPDATE lab_sessions SET ai_interaction_count = ai_interaction_count + 1 WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment ai interactions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return model.ErrSessionNotFound
	}

	return nil
}

// CountActiveByMentor returns the number of active sessions for a mentor.
func (r *SessionRepository) CountActiveByMentor(ctx context.Context, mentorID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM lab_sessions
		WHERE mentor_id = ? AND status = ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, mentorID, model.SessionStatusActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}

	return count, nil
}

// CodeExists checks whether a session code has ever been issued.
func (r *SessionRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT 1 FROM lab_sessions WHERE session_code = ? LIMIT 1`

	var exists int
	err := r.db.QueryRowContext(ctx, query, code).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session code: %w", err)
	}

	return true, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
