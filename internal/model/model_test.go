package model

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	testCases := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "Mentor", want: RoleMentor},
		{input: "Student", want: RoleStudent},
		{input: "mentor", wantErr: true},
		{input: "Admin", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseRole(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidRole) {
					t.Fatalf("expected ErrInvalidRole, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestStartSessionRequest_Validate(t *testing.T) {
	req := &StartSessionRequest{MentorID: " 7 ", StudentID: "9"}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.MentorID != "7" {
		t.Errorf("expected trimmed mentor id, got %q", req.MentorID)
	}

	req = &StartSessionRequest{MentorID: "7"}
	if err := req.Validate(); !errors.Is(err, ErrParticipantRequired) {
		t.Errorf("expected ErrParticipantRequired, got %v", err)
	}

	req = &StartSessionRequest{MentorID: "7", StudentID: "7"}
	if err := req.Validate(); !errors.Is(err, ErrSameParticipant) {
		t.Errorf("expected ErrSameParticipant, got %v", err)
	}
}

func TestLabSession_ParticipantFor(t *testing.T) {
	s := &LabSession{MentorID: "7", StudentID: "9"}
	if s.ParticipantFor(RoleMentor) != "7" {
		t.Error("mentor slot should map to mentor id")
	}
	if s.ParticipantFor(RoleStudent) != "9" {
		t.Error("student slot should map to student id")
	}
	if s.ParticipantFor(Role("Admin")) != "" {
		t.Error("unknown role should map to no participant")
	}
}
