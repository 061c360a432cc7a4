package ws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nexushub/virtuallab/internal/assist"
	"github.com/nexushub/virtuallab/internal/db"
	"github.com/nexushub/virtuallab/internal/model"
	"github.com/nexushub/virtuallab/internal/repository"
	"github.com/nexushub/virtuallab/internal/session"
)

const (
	mentorID  = "7"
	studentID = "9"
)

// recordingSink collects audited snapshots.
type recordingSink struct {
	mu    sync.Mutex
	snaps []model.CodeSnapshot
}

func (s *recordingSink) RecordSnapshot(snap model.CodeSnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return true
}

func (s *recordingSink) all() []model.CodeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CodeSnapshot(nil), s.snaps...)
}

type testEnv struct {
	service *Service
	manager *session.Manager
	sink    *recordingSink
}

func setupTestService(t *testing.T, opts Options) *testEnv {
	t.Helper()

	database, err := db.NewTestDB()
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	manager := session.NewManager(repository.NewSessionRepository(database), session.Config{})
	broker := assist.NewBroker(nil, assist.Config{Counter: manager})
	sink := &recordingSink{}

	if opts.ChatHistory == 0 {
		opts.ChatHistory = 10
	}
	svc := NewService(manager, broker, sink, opts)
	t.Cleanup(svc.Close)

	return &testEnv{service: svc, manager: manager, sink: sink}
}

func (e *testEnv) startSession(t *testing.T) *model.LabSession {
	t.Helper()
	sess, err := e.manager.Start(context.Background(), &model.StartSessionRequest{MentorID: mentorID, StudentID: studentID})
	if err != nil {
		t.Fatalf("Failed to start session: %v", err)
	}
	return sess
}

func newTestClient() *Client {
	return NewClient(nil, 64)
}

// send runs one inbound event through the dispatcher.
func (e *testEnv) send(t *testing.T, client *Client, msgType MessageType, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	frame, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		t.Fatalf("failed to marshal frame: %v", err)
	}
	e.service.HandleMessage(context.Background(), client, frame)
}

// join joins and discards the joiner's own replies.
func (e *testEnv) join(t *testing.T, client *Client, code string, role model.Role, userID string) {
	t.Helper()
	e.send(t, client, MessageTypeJoinLab, JoinRequest{SessionCode: code, UserRole: role.String(), UserID: userID})
	expectEvent(t, client, MessageTypeJoinedLab)
	expectEvent(t, client, MessageTypeChatHistory)
}

func receiveWithTimeoutTest(t *testing.T, client *Client, timeout time.Duration) []byte {
	t.Helper()
	select {
	case data := <-client.SendChan():
		return data
	case <-time.After(timeout):
		return nil
	}
}

// expectEvent reads the next frame and checks its type.
func expectEvent(t *testing.T, client *Client, want MessageType) json.RawMessage {
	t.Helper()
	data := receiveWithTimeoutTest(t, client, time.Second)
	if data == nil {
		t.Fatalf("expected %s, got nothing", want)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("failed to unmarshal frame: %v", err)
	}
	if msg.Type != want {
		t.Fatalf("expected %s, got %s (%s)", want, msg.Type, msg.Data)
	}
	return msg.Data
}

func expectNoEvent(t *testing.T, client *Client) {
	t.Helper()
	if data := receiveWithTimeoutTest(t, client, 50*time.Millisecond); data != nil {
		t.Fatalf("expected no event, got %s", data)
	}
}

func decodeEvent[T any](t *testing.T, data json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	return v
}
