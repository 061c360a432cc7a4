package ws

import (
	"encoding/json"
	"time"

	"github.com/nexushub/virtuallab/internal/assist"
)

// MessageType represents the type of WebSocket event.
type MessageType string

const (
	// Client -> Server message types
	MessageTypeJoinLab               MessageType = "join-lab"
	MessageTypeCodeUpdate            MessageType = "code-update"
	MessageTypeDebugRequest          MessageType = "debug-request"
	MessageTypeCodeSuggestionRequest MessageType = "code-suggestion-request"
	MessageTypeLeaveLab              MessageType = "leave-lab"
	MessageTypeLabChat               MessageType = "lab-chat"
	MessageTypeCursorPosition        MessageType = "cursor-position"
	MessageTypePing                  MessageType = "ping"

	// Server -> Client message types
	MessageTypeJoinedLab               MessageType = "joined-lab"
	MessageTypeCodeMirrored            MessageType = "code-mirrored"
	MessageTypeParticipantJoined       MessageType = "participant-joined"
	MessageTypeParticipantLeft         MessageType = "participant-left"
	MessageTypeParticipantDisconnected MessageType = "participant-disconnected"
	MessageTypeDebugResponse           MessageType = "debug-response"
	MessageTypeCodeSuggestionResponse  MessageType = "code-suggestion-response"
	MessageTypeChatHistory             MessageType = "chat-history"
	MessageTypeChatMessage             MessageType = "chat-message"
	MessageTypeCursorUpdate            MessageType = "cursor-update"
	MessageTypeSessionEnded            MessageType = "session-ended"
	MessageTypePong                    MessageType = "pong"
	MessageTypeError                   MessageType = "error"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinRequest is the payload of join-lab.
type JoinRequest struct {
	SessionCode string `json:"sessionCode"`
	UserRole    string `json:"userRole"`
	UserID      string `json:"userId"`
}

// CodeUpdateRequest is the payload of code-update.
type CodeUpdateRequest struct {
	SessionCode string `json:"sessionCode"`
	Code        string `json:"code"`
	Language    string `json:"language"`
	UserID      string `json:"userId"`
}

// DebugRequest is the payload of debug-request.
type DebugRequest struct {
	SessionCode  string `json:"sessionCode"`
	ErrorMessage string `json:"errorMessage"`
	CodeSnippet  string `json:"codeSnippet"`
	Language     string `json:"language"`
	UserID       string `json:"userId"`
}

// SuggestionRequest is the payload of code-suggestion-request.
type SuggestionRequest struct {
	Description string `json:"description"`
	Language    string `json:"language"`
}

// LeaveRequest is the payload of leave-lab.
type LeaveRequest struct {
	SessionCode string `json:"sessionCode"`
}

// ChatRequest is the payload of lab-chat.
type ChatRequest struct {
	SessionCode string `json:"sessionCode"`
	Message     string `json:"message"`
}

// CursorPosition is a zero-based location in the shared buffer.
type CursorPosition struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// CursorRequest is the payload of cursor-position.
type CursorRequest struct {
	SessionCode string         `json:"sessionCode"`
	Position    CursorPosition `json:"position"`
}

type JoinedLabEvent struct {
	SessionCode string `json:"sessionCode"`
	CurrentCode string `json:"currentCode"`
	Language    string `json:"language"`
}

type CodeMirroredEvent struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type ParticipantEvent struct {
	UserRole string `json:"userRole"`
}

type DebugResponseEvent struct {
	Cause         string `json:"cause,omitempty"`
	Fix           string `json:"fix,omitempty"`
	BestPractices string `json:"bestPractices,omitempty"`
	Error         string `json:"error,omitempty"`
}

func debugResponse(a assist.Analysis) DebugResponseEvent {
	return DebugResponseEvent{Cause: a.Cause, Fix: a.Fix, BestPractices: a.BestPractices}
}

type SuggestionResponseEvent struct {
	Suggestion string `json:"suggestion,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ChatMessage is one entry of a room's chat.
type ChatMessage struct {
	UserRole  string    `json:"userRole"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatHistoryEvent struct {
	Messages []ChatMessage `json:"messages"`
}

type CursorUpdateEvent struct {
	UserRole string         `json:"userRole"`
	Position CursorPosition `json:"position"`
}

type SessionEndedEvent struct {
	SessionCode string `json:"sessionCode"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

var emptyData = json.RawMessage(`{}`)

// encodeEvent builds an outbound frame. Events without a payload carry {}.
func encodeEvent(t MessageType, payload any) ([]byte, error) {
	data := emptyData
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(Message{Type: t, Data: data})
}
