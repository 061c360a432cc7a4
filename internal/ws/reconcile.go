package ws

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
)

// Leave unbinds client from the room and tells the peer. The buffer stays.
func (s *Service) Leave(ctx context.Context, client *Client, req LeaveRequest) error {
	room := s.registry.Get(req.SessionCode)
	if room == nil {
		return model.ErrSessionInvalid
	}

	role, ok := room.unbind(client, MessageTypeParticipantLeft)
	if !ok {
		return ErrNotJoined
	}

	log.Info().Str("module", "ws").Str("conn_id", client.ID()).Str("code", room.Code()).
		Str("role", role.String()).Msg("left lab")
	return nil
}

// Disconnect releases every slot client held after its connection dropped.
// Rooms and their buffers are kept so the participant can resume.
func (s *Service) Disconnect(client *Client) {
	for _, code := range client.Rooms() {
		room := s.registry.Get(code)
		if room == nil {
			client.forgetRoom(code)
			continue
		}

		role, ok := room.unbind(client, MessageTypeParticipantDisconnected)
		if !ok {
			continue
		}
		log.Info().Str("module", "ws").Str("conn_id", client.ID()).Str("code", code).
			Str("role", role.String()).Msg("participant disconnected")
	}
}
