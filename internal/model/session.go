package model

import (
	"strings"
	"time"
)

// SessionStatus represents the status of a lab session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// LabSession is the durable record of one mentoring session.
type LabSession struct {
	ID                 string        `json:"id"`
	SessionCode        string        `json:"sessionCode"`
	MentorID           string        `json:"mentorId"`
	StudentID          string        `json:"studentId"`
	ProjectRef         string        `json:"projectRef,omitempty"`
	Status             SessionStatus `json:"status"`
	StartedAt          time.Time     `json:"startedAt"`
	EndedAt            *time.Time    `json:"endedAt,omitempty"`
	AIInteractionCount int           `json:"aiInteractionCount"`
	FinalCodeSnapshot  string        `json:"finalCodeSnapshot,omitempty"`
}

// IsActive reports whether the session still accepts joins.
func (s *LabSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// ParticipantFor returns the user id recorded for the given role.
func (s *LabSession) ParticipantFor(role Role) string {
	switch role {
	case RoleMentor:
		return s.MentorID
	case RoleStudent:
		return s.StudentID
	}
	return ""
}

// Duration returns how long the session ran, or has been running.
func (s *LabSession) Duration() time.Duration {
	if s.EndedAt != nil {
		return s.EndedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// StartSessionRequest represents a request to start a new lab session.
type StartSessionRequest struct {
	MentorID   string `json:"mentorId" binding:"required"`
	StudentID  string `json:"studentId" binding:"required"`
	ProjectRef string `json:"projectRef"`
}

// Validate validates the start session request.
func (r *StartSessionRequest) Validate() error {
	r.MentorID = strings.TrimSpace(r.MentorID)
	r.StudentID = strings.TrimSpace(r.StudentID)
	if r.MentorID == "" || r.StudentID == "" {
		return ErrParticipantRequired
	}
	if r.MentorID == r.StudentID {
		return ErrSameParticipant
	}
	return nil
}
