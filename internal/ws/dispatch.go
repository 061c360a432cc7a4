package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
)

// HandleMessage decodes one inbound frame and runs it. Failures are answered
// with an error event; a panic is contained to this message.
func (s *Service) HandleMessage(ctx context.Context, client *Client, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "ws").Str("conn_id", client.ID()).Interface("panic", r).Msg("message handler panicked")
			client.SendError("Internal error")
		}
	}()

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Str("module", "ws").Str("conn_id", client.ID()).Err(err).Msg("failed to unmarshal message")
		client.SendError("Malformed message")
		return
	}

	if err := s.dispatch(ctx, client, &msg); err != nil {
		text, expected := errorMessage(msg.Type, err)
		event := log.Error()
		if expected {
			event = log.Debug()
		}
		event.Str("module", "ws").Str("conn_id", client.ID()).Str("type", string(msg.Type)).Err(err).Msg("message rejected")
		client.SendError(text)
	}
}

func (s *Service) dispatch(ctx context.Context, client *Client, msg *Message) error {
	switch msg.Type {
	case MessageTypeJoinLab:
		var req JoinRequest
		if err := decodeData(msg, &req); err != nil {
			return err
		}
		return s.Join(ctx, client, req)

	case MessageTypeCodeUpdate:
		var req CodeUpdateRequest
		if err := decodeData(msg, &req); err != nil {
			return err
		}
		return s.UpdateCode(ctx, client, req)

	case MessageTypeDebugRequest:
		var req DebugRequest
		if err := decodeData(msg, &req); err != nil {
			return err
		}
		s.Debug(ctx, client, req)
		return nil

	case MessageTypeCodeSuggestionRequest:
		var req SuggestionRequest
		if err := decodeData(msg, &req); err != nil {
			return err
		}
		s.Suggest(ctx, client, req)
		return nil

	case MessageTypeLeaveLab:
		var req LeaveRequest
		if err := decodeData(msg, &req); err != nil {
			return err
		}
		return s.Leave(ctx, client, req)

	case MessageTypeLabChat:
		var req ChatRequest
		if err := decodeData(msg, &req); err != nil {
			return err
		}
		return s.Chat(ctx, client, req)

	case MessageTypeCursorPosition:
		var req CursorRequest
		if err := decodeData(msg, &req); err != nil {
			return err
		}
		return s.MoveCursor(ctx, client, req)

	case MessageTypePing:
		client.SendEvent(MessageTypePong, nil)
		return nil

	default:
		return fmt.Errorf("%w: %q", errUnknownType, msg.Type)
	}
}

var (
	errUnknownType = errors.New("unknown message type")
	errBadPayload  = errors.New("malformed payload")
)

func decodeData(msg *Message, v any) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%w: missing data", errBadPayload)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

// errorMessage maps a failure to the text sent to the client and reports
// whether it is an expected protocol error rather than an internal one.
func errorMessage(t MessageType, err error) (string, bool) {
	switch {
	case errors.Is(err, model.ErrSessionInvalid):
		return "Invalid or inactive session", true
	case errors.Is(err, model.ErrInvalidRole):
		return "Invalid role, expected Mentor or Student", true
	case errors.Is(err, model.ErrNotParticipant):
		return "You are not a participant of this lab session", true
	case errors.Is(err, model.ErrRoleSlotTaken):
		return "This role is already connected to the lab session", true
	case errors.Is(err, ErrNotJoined):
		return "Join the lab session first", true
	case errors.Is(err, errEmptyChat):
		return "Chat message is empty", true
	case errors.Is(err, errUnknownType):
		return "Unknown message type", true
	case errors.Is(err, errBadPayload):
		return "Malformed message", true
	}
	if t == MessageTypeJoinLab {
		return "Failed to join lab session", false
	}
	return "Request failed", false
}
