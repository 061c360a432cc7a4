package model

import "errors"

var (
	// ErrParticipantRequired is returned when a start request is missing a mentor or student id.
	ErrParticipantRequired = errors.New("mentor and student ids are required")

	// ErrSameParticipant is returned when the mentor and the student are the same user.
	ErrSameParticipant = errors.New("mentor and student must be different users")

	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionInvalid is returned when a session code is unknown or the session is no longer active.
	ErrSessionInvalid = errors.New("invalid or inactive session")

	// ErrAlreadyEnded is returned when ending a session that is already completed.
	ErrAlreadyEnded = errors.New("session already ended")

	// ErrInvalidRole is returned when a join names a role other than Mentor or Student.
	ErrInvalidRole = errors.New("invalid role")

	// ErrNotParticipant is returned when the joining user is not recorded on the session for that role.
	ErrNotParticipant = errors.New("user is not a participant of this session")

	// ErrRoleSlotTaken is returned when a role slot is already bound to a live connection.
	ErrRoleSlotTaken = errors.New("role slot already taken")

	// ErrDuplicateCode is returned by the repository when a session code already exists.
	ErrDuplicateCode = errors.New("session code already exists")

	// ErrCodeCollision is returned when no unique session code could be generated.
	ErrCodeCollision = errors.New("could not generate a unique session code")

	// ErrConcurrencyLimit is returned when the maximum number of concurrent sessions is reached.
	ErrConcurrencyLimit = errors.New("concurrent session limit exceeded")

	// ErrPersistenceFailure wraps audit write failures.
	ErrPersistenceFailure = errors.New("persistence failure")
)
