package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nexushub/virtuallab/internal/db"
	"github.com/nexushub/virtuallab/internal/model"
)

func setupTestRepos(t *testing.T) (*SessionRepository, *AuditRepository) {
	t.Helper()
	testDB, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })
	return NewSessionRepository(testDB), NewAuditRepository(testDB)
}

func createSession(t *testing.T, repo *SessionRepository, code string) *model.LabSession {
	t.Helper()
	session := &model.LabSession{
		ID:          generateID(),
		SessionCode: code,
		MentorID:    "7",
		StudentID:   "9",
		Status:      model.SessionStatusActive,
		StartedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}

func TestSessionRepository_DuplicateCode(t *testing.T) {
	repo, _ := setupTestRepos(t)
	createSession(t, repo, "LAB-1")

	dup := &model.LabSession{
		ID:          generateID(),
		SessionCode: "LAB-1",
		MentorID:    "1",
		StudentID:   "2",
		Status:      model.SessionStatusActive,
		StartedAt:   time.Now().UTC(),
	}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, model.ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	exists, err := repo.CodeExists(context.Background(), "LAB-1")
	if err != nil || !exists {
		t.Errorf("expected LAB-1 to exist, got %v (%v)", exists, err)
	}
	exists, err = repo.CodeExists(context.Background(), "LAB-2")
	if err != nil || exists {
		t.Errorf("expected LAB-2 to be free, got %v (%v)", exists, err)
	}
}

func TestSessionRepository_CompleteOnlyOnce(t *testing.T) {
	repo, _ := setupTestRepos(t)
	ctx := context.Background()
	session := createSession(t, repo, "LAB-END")

	ok, err := repo.Complete(ctx, session.ID, "print(1)", time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("first complete should succeed, got %v (%v)", ok, err)
	}

	ok, err = repo.Complete(ctx, session.ID, "overwritten", time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("second complete must not write")
	}

	got, err := repo.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.Status != model.SessionStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.FinalCodeSnapshot != "print(1)" {
		t.Errorf("expected first snapshot to survive, got %q", got.FinalCodeSnapshot)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt should be set")
	}
}

func TestSessionRepository_ListActiveAndCounters(t *testing.T) {
	repo, _ := setupTestRepos(t)
	ctx := context.Background()

	a := createSession(t, repo, "LAB-A")
	b := createSession(t, repo, "LAB-B")
	if _, err := repo.Complete(ctx, b.ID, "", time.Now().UTC()); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != a.ID {
		t.Fatalf("expected only %s active, got %d sessions", a.ID, len(active))
	}

	count, err := repo.CountActiveByMentor(ctx, "7")
	if err != nil || count != 1 {
		t.Errorf("expected 1 active session for mentor, got %d (%v)", count, err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementAIInteractions(ctx, a.ID); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}
	got, _ := repo.GetByID(ctx, a.ID)
	if got.AIInteractionCount != 3 {
		t.Errorf("expected 3 ai interactions, got %d", got.AIInteractionCount)
	}

	if err := repo.IncrementAIInteractions(ctx, "missing"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuditRepository_AppendAndList(t *testing.T) {
	repo, audit := setupTestRepos(t)
	ctx := context.Background()
	session := createSession(t, repo, "LAB-AUDIT")

	for _, code := range []string{"a", "b", "c"} {
		snap := &model.CodeSnapshot{
			SessionID:  session.ID,
			AuthorID:   "9",
			Code:       code,
			Language:   "python",
			CapturedAt: time.Now().UTC(),
		}
		if err := audit.AppendSnapshot(ctx, snap); err != nil {
			t.Fatalf("append snapshot failed: %v", err)
		}
		if snap.ID == 0 {
			t.Error("snapshot id should be assigned")
		}
	}

	snaps, err := audit.ListSnapshots(ctx, session.ID)
	if err != nil {
		t.Fatalf("list snapshots failed: %v", err)
	}
	if len(snaps) != 3 || snaps[2].Code != "c" {
		t.Fatalf("expected snapshots in capture order, got %d", len(snaps))
	}

	entry := &model.DebugLog{
		SessionID:    session.ID,
		AuthorID:     "9",
		ErrorMessage: "NameError",
		CodeSnippet:  "print(x)",
		AIResponse:   `{"cause":"x undefined"}`,
		CapturedAt:   time.Now().UTC(),
	}
	if err := audit.AppendDebugLog(ctx, entry); err != nil {
		t.Fatalf("append debug log failed: %v", err)
	}

	logs, err := audit.ListDebugLogs(ctx, session.ID)
	if err != nil {
		t.Fatalf("list debug logs failed: %v", err)
	}
	if len(logs) != 1 || logs[0].ErrorMessage != "NameError" {
		t.Fatalf("unexpected debug logs: %+v", logs)
	}
}

func TestAuditRepository_RejectsUnknownSession(t *testing.T) {
	_, audit := setupTestRepos(t)

	err := audit.AppendSnapshot(context.Background(), &model.CodeSnapshot{
		SessionID:  "missing",
		AuthorID:   "9",
		Code:       "x",
		Language:   "go",
		CapturedAt: time.Now().UTC(),
	})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown session")
	}
}
