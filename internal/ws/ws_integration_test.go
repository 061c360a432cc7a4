package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestServer(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	return conn
}

func writeEvent(t *testing.T, conn *websocket.Conn, msgType MessageType, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	if err := conn.WriteJSON(Message{Type: msgType, Data: data}); err != nil {
		t.Fatalf("failed to write %s: %v", msgType, err)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return msg
}

func expectWireEvent(t *testing.T, conn *websocket.Conn, want MessageType) json.RawMessage {
	t.Helper()
	msg := readEvent(t, conn)
	if msg.Type != want {
		t.Fatalf("expected %s, got %s (%s)", want, msg.Type, msg.Data)
	}
	return msg.Data
}

// TestLabScenarioOverWebSocket drives a whole mentoring session through real
// connections: join, mirror, drop, and an AI request without a provider.
func TestLabScenarioOverWebSocket(t *testing.T) {
	env := setupTestService(t, Options{})
	sess := env.startSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := NewHandler(ctx, env.service, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := handler.HandleConnection(w, r); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	mentor := dialTestServer(t, url)
	student := dialTestServer(t, url)
	defer student.Close()

	writeEvent(t, mentor, MessageTypeJoinLab, JoinRequest{SessionCode: sess.SessionCode, UserRole: "Mentor", UserID: mentorID})
	joined := decodeEvent[JoinedLabEvent](t, expectWireEvent(t, mentor, MessageTypeJoinedLab))
	if joined.SessionCode != sess.SessionCode || joined.CurrentCode != "" {
		t.Fatalf("unexpected joined-lab: %+v", joined)
	}
	expectWireEvent(t, mentor, MessageTypeChatHistory)

	writeEvent(t, student, MessageTypeJoinLab, JoinRequest{SessionCode: sess.SessionCode, UserRole: "Student", UserID: studentID})
	expectWireEvent(t, student, MessageTypeJoinedLab)
	expectWireEvent(t, student, MessageTypeChatHistory)

	peer := decodeEvent[ParticipantEvent](t, expectWireEvent(t, mentor, MessageTypeParticipantJoined))
	if peer.UserRole != "Student" {
		t.Errorf("expected Student, got %q", peer.UserRole)
	}

	writeEvent(t, student, MessageTypeCodeUpdate, CodeUpdateRequest{SessionCode: sess.SessionCode, Code: "print(1)", Language: "python", UserID: studentID})
	mirrored := decodeEvent[CodeMirroredEvent](t, expectWireEvent(t, mentor, MessageTypeCodeMirrored))
	if mirrored.Code != "print(1)" || mirrored.Language != "python" {
		t.Errorf("unexpected code-mirrored: %+v", mirrored)
	}

	// the student's next frame is the disconnect notice, not its own update
	mentor.Close()
	expectWireEvent(t, student, MessageTypeParticipantDisconnected)

	if code, ok := env.service.LiveCode(sess.SessionCode); !ok || code != "print(1)" {
		t.Errorf("buffer should be retained, got %q (%v)", code, ok)
	}

	writeEvent(t, student, MessageTypeDebugRequest, DebugRequest{SessionCode: sess.SessionCode, ErrorMessage: "NameError", UserID: studentID})
	analysis := decodeEvent[DebugResponseEvent](t, expectWireEvent(t, student, MessageTypeDebugResponse))
	if analysis.Cause == "" || analysis.Fix == "" {
		t.Errorf("expected fallback analysis, got %+v", analysis)
	}

	writeEvent(t, student, MessageTypePing, struct{}{})
	expectWireEvent(t, student, MessageTypePong)
}

func TestHandler_CheckOrigin(t *testing.T) {
	handler := NewHandler(context.Background(), nil, HandlerConfig{AllowedOrigins: []string{"https://lab.example.com", " "}})

	testCases := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "https://lab.example.com", want: true},
		{origin: "http://lab.example.com", want: true},
		{origin: "https://evil.example.com", want: false},
	}

	for _, tc := range testCases {
		r := httptest.NewRequest(http.MethodGet, "/api/lab/ws", nil)
		if tc.origin != "" {
			r.Header.Set("Origin", tc.origin)
		}
		if got := handler.checkOrigin(r); got != tc.want {
			t.Errorf("origin %q: expected %v, got %v", tc.origin, tc.want, got)
		}
	}

	open := NewHandler(context.Background(), nil, HandlerConfig{})
	r := httptest.NewRequest(http.MethodGet, "/api/lab/ws", nil)
	r.Header.Set("Origin", "https://anywhere.example.com")
	if !open.checkOrigin(r) {
		t.Error("no configured origins should accept any origin")
	}
}
