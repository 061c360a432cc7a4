package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nexushub/virtuallab/internal/db"
	"github.com/nexushub/virtuallab/internal/model"
)

// generateID generates a unique ID for testing.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Every created session can be read back by id and by code with the same identity fields.
func TestSessionCreationIntegrityProperty(t *testing.T) {
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer testDB.Close()

	repo := NewSessionRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	nonEmptyString := gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0 && len(s) <= 100
	})

	properties.Property("session creation persists and can be retrieved", prop.ForAll(
		func(mentorID, studentID, projectRef string) bool {
			session := &model.LabSession{
				ID:          generateID(),
				SessionCode: "LAB-" + generateID(),
				MentorID:    mentorID,
				StudentID:   studentID,
				ProjectRef:  projectRef,
				Status:      model.SessionStatusActive,
				StartedAt:   time.Now().UTC(),
			}

			if err := repo.Create(ctx, session); err != nil {
				t.Logf("failed to create session: %v", err)
				return false
			}

			byID, err := repo.GetByID(ctx, session.ID)
			if err != nil {
				t.Logf("failed to retrieve session: %v", err)
				return false
			}

			byCode, err := repo.GetByCode(ctx, session.SessionCode)
			if err != nil {
				t.Logf("failed to retrieve session by code: %v", err)
				return false
			}

			for _, got := range []*model.LabSession{byID, byCode} {
				if got.ID != session.ID ||
					got.SessionCode != session.SessionCode ||
					got.MentorID != session.MentorID ||
					got.StudentID != session.StudentID ||
					got.ProjectRef != session.ProjectRef ||
					got.Status != model.SessionStatusActive ||
					got.EndedAt != nil {
					t.Logf("retrieved session does not match created session")
					return false
				}
			}

			return true
		},
		nonEmptyString,
		nonEmptyString,
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
