package ws

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
)

// UpdateCode overwrites the room buffer (last writer wins) and relays it to
// every other member. The snapshot is audited after the broadcast and its
// failure never reaches the sender.
func (s *Service) UpdateCode(ctx context.Context, client *Client, req CodeUpdateRequest) error {
	room := s.registry.Get(req.SessionCode)
	if room == nil {
		return model.ErrSessionInvalid
	}

	role, authorID, language, err := room.update(client, req.Code, req.Language)
	if err != nil {
		return err
	}

	if s.snapshots != nil {
		s.snapshots.RecordSnapshot(model.CodeSnapshot{
			SessionID:  room.SessionID(),
			AuthorID:   authorID,
			Code:       req.Code,
			Language:   language,
			CapturedAt: time.Now().UTC(),
		})
	}

	log.Debug().Str("module", "ws").Str("code", room.Code()).Str("role", role.String()).
		Int("bytes", len(req.Code)).Msg("code mirrored")
	return nil
}

// Chat posts a message to the room chat.
func (s *Service) Chat(ctx context.Context, client *Client, req ChatRequest) error {
	room := s.registry.Get(req.SessionCode)
	if room == nil {
		return model.ErrSessionInvalid
	}

	text := strings.TrimSpace(req.Message)
	if text == "" {
		return errEmptyChat
	}
	if len(text) > s.opts.MaxChatLength {
		text = text[:s.opts.MaxChatLength]
	}

	_, err := room.chatFrom(client, text)
	return err
}

// MoveCursor shares the sender's cursor with its peers.
func (s *Service) MoveCursor(ctx context.Context, client *Client, req CursorRequest) error {
	room := s.registry.Get(req.SessionCode)
	if room == nil {
		return model.ErrSessionInvalid
	}
	return room.cursorFrom(client, req.Position)
}
