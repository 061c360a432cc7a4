package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/assist"
	"github.com/nexushub/virtuallab/internal/model"
)

// SessionStore is the durable session lookup the rooms are derived from.
type SessionStore interface {
	GetActive(ctx context.Context, code string) (*model.LabSession, error)
	End(ctx context.Context, id string, finalSnapshot string) (*model.LabSession, error)
}

// Assistant answers AI requests. *assist.Broker implements it.
type Assistant interface {
	AnalyzeError(ctx context.Context, req assist.AnalyzeRequest) assist.Analysis
	SuggestCode(ctx context.Context, description, language string) (string, error)
}

// SnapshotSink receives code snapshots for the audit trail.
type SnapshotSink interface {
	RecordSnapshot(snap model.CodeSnapshot) bool
}

// Options tune the live rooms.
type Options struct {
	RolePolicy      RolePolicy
	DefaultLanguage string
	ChatHistory     int
	MaxChatLength   int
	IdleTTL         time.Duration
	ReapInterval    time.Duration
}

func (o Options) withDefaults() Options {
	if o.RolePolicy == "" {
		o.RolePolicy = RolePolicyReconnect
	}
	if o.DefaultLanguage == "" {
		o.DefaultLanguage = "javascript"
	}
	if o.MaxChatLength <= 0 {
		o.MaxChatLength = 2000
	}
	if o.ReapInterval <= 0 {
		o.ReapInterval = time.Minute
	}
	return o
}

// Service brokers every live lab room of the process.
type Service struct {
	store     SessionStore
	assistant Assistant
	snapshots SnapshotSink
	registry  *Registry
	opts      Options

	// in-flight AI requests
	inflight sync.WaitGroup
}

// NewService creates the live-room service. assistant and snapshots may be nil.
func NewService(store SessionStore, assistant Assistant, snapshots SnapshotSink, opts Options) *Service {
	opts = opts.withDefaults()
	return &Service{
		store:     store,
		assistant: assistant,
		snapshots: snapshots,
		registry:  NewRegistry(opts.DefaultLanguage, opts.ChatHistory),
		opts:      opts,
	}
}

// Registry returns the live-room registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// LiveCode returns the current buffer of a live room.
func (s *Service) LiveCode(code string) (string, bool) {
	room := s.registry.Get(code)
	if room == nil {
		return "", false
	}
	buf, _ := room.Snapshot()
	return buf, true
}

// Presence reports which roles are connected to a live room.
func (s *Service) Presence(code string) map[model.Role]bool {
	room := s.registry.Get(code)
	if room == nil {
		presence := make(map[model.Role]bool, len(model.Roles))
		for _, role := range model.Roles {
			presence[role] = false
		}
		return presence
	}
	return room.Presence()
}

// EndSession completes the session, falling back to the live buffer when no
// final snapshot is given, then evicts the room and tells its members.
// Ending an ended session returns model.ErrAlreadyEnded and changes nothing.
func (s *Service) EndSession(ctx context.Context, session *model.LabSession, finalSnapshot string) (*model.LabSession, error) {
	if finalSnapshot == "" {
		if live, ok := s.LiveCode(session.SessionCode); ok {
			finalSnapshot = live
		}
	}

	ended, err := s.store.End(ctx, session.ID, finalSnapshot)
	if err != nil && !errors.Is(err, model.ErrAlreadyEnded) {
		return nil, err
	}

	// a stale room may outlive the session when a join raced the end
	if room := s.registry.Remove(session.SessionCode); room != nil {
		members := room.close(true)
		log.Info().Str("module", "ws").Str("code", session.SessionCode).Int("members", members).
			Msg("live room closed")
	}

	if err != nil {
		return ended, err
	}

	log.Info().Str("module", "ws").Str("code", session.SessionCode).
		Dur("duration", ended.Duration()).Msg("lab session ended")
	return ended, nil
}

// Close waits for in-flight AI requests and drops every room.
func (s *Service) Close() {
	s.inflight.Wait()
	s.registry.Close()
}
