package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
	"github.com/nexushub/virtuallab/internal/repository"
)

const defaultCodeAttempts = 5

// Manager is the durable session store: it owns the lab session lifecycle.
type Manager struct {
	repo *repository.SessionRepository

	maxActivePerMentor int
	codeAttempts       int
	newCode            CodeGenerator
	now                func() time.Time
}

// Config holds configuration for the session manager.
type Config struct {
	MaxActivePerMentor int
	CodeAttempts       int
	CodeGenerator      CodeGenerator
}

// NewManager creates a new session manager.
func NewManager(repo *repository.SessionRepository, config Config) *Manager {
	if config.MaxActivePerMentor == 0 {
		config.MaxActivePerMentor = 10
	}
	if config.CodeAttempts <= 0 {
		config.CodeAttempts = defaultCodeAttempts
	}
	if config.CodeGenerator == nil {
		config.CodeGenerator = NewSessionCode
	}

	return &Manager{
		repo:               repo,
		maxActivePerMentor: config.MaxActivePerMentor,
		codeAttempts:       config.CodeAttempts,
		newCode:            config.CodeGenerator,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Start creates a new active lab session with a unique session code.
func (m *Manager) Start(ctx context.Context, req *model.StartSessionRequest) (*model.LabSession, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	activeCount, err := m.repo.CountActiveByMentor(ctx, req.MentorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active sessions: %w", err)
	}
	if activeCount >= m.maxActivePerMentor {
		return nil, fmt.Errorf("%w: mentor %s has %d active sessions", model.ErrConcurrencyLimit, req.MentorID, activeCount)
	}

	for attempt := 1; attempt <= m.codeAttempts; attempt++ {
		code := m.newCode()

		exists, err := m.repo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			log.Warn().Str("module", "session").Str("code", code).Int("attempt", attempt).Msg("session code collision")
			continue
		}

		session := &model.LabSession{
			ID:          uuid.New().String(),
			SessionCode: code,
			MentorID:    req.MentorID,
			StudentID:   req.StudentID,
			ProjectRef:  req.ProjectRef,
			Status:      model.SessionStatusActive,
			StartedAt:   m.now(),
		}

		err = m.repo.Create(ctx, session)
		if errors.Is(err, model.ErrDuplicateCode) {
			// lost a race with a concurrent Start
			log.Warn().Str("module", "session").Str("code", code).Int("attempt", attempt).Msg("session code taken on insert")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to persist session: %w", err)
		}

		log.Info().Str("module", "session").Str("session_id", session.ID).Str("code", code).
			Str("mentor_id", session.MentorID).Str("student_id", session.StudentID).Msg("lab session started")
		return session, nil
	}

	return nil, model.ErrCodeCollision
}

// Get retrieves a session by ID.
func (m *Manager) Get(ctx context.Context, id string) (*model.LabSession, error) {
	return m.repo.GetByID(ctx, id)
}

// GetByCode retrieves a session by code regardless of status.
func (m *Manager) GetByCode(ctx context.Context, code string) (*model.LabSession, error) {
	return m.repo.GetByCode(ctx, code)
}

// GetActive returns the active session for a code, or model.ErrSessionInvalid.
func (m *Manager) GetActive(ctx context.Context, code string) (*model.LabSession, error) {
	session, err := m.repo.GetByCode(ctx, code)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, model.ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, model.ErrSessionInvalid
	}
	return session, nil
}

// ListActive returns all active sessions.
func (m *Manager) ListActive(ctx context.Context) ([]*model.LabSession, error) {
	return m.repo.ListActive(ctx)
}

// End completes a session and stores its final code snapshot. Ending an
// already completed session writes nothing and returns the stored session
// together with model.ErrAlreadyEnded.
func (m *Manager) End(ctx context.Context, id string, finalSnapshot string) (*model.LabSession, error) {
	ok, err := m.repo.Complete(ctx, id, finalSnapshot, m.now())
	if err != nil {
		return nil, err
	}

	session, err := m.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !ok {
		return session, model.ErrAlreadyEnded
	}

	log.Info().Str("module", "session").Str("session_id", id).Str("code", session.SessionCode).
		Str("snapshot", humanize.Bytes(uint64(len(finalSnapshot)))).
		Int("ai_interactions", session.AIInteractionCount).Msg("lab session ended")
	return session, nil
}

// EndByCode resolves a session code and ends that session.
func (m *Manager) EndByCode(ctx context.Context, code string, finalSnapshot string) (*model.LabSession, error) {
	session, err := m.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return m.End(ctx, session.ID, finalSnapshot)
}

// RecordAIInteraction increments the AI interaction counter of a session.
func (m *Manager) RecordAIInteraction(ctx context.Context, id string) error {
	return m.repo.IncrementAIInteractions(ctx, id)
}

// MaxActivePerMentor returns the maximum allowed active sessions per mentor.
func (m *Manager) MaxActivePerMentor() int {
	return m.maxActivePerMentor
}
