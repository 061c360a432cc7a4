package ws

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
)

// Join binds client to a role slot of the room for req.SessionCode. The
// session must be active in the store and req.UserID must be the participant
// recorded for that role.
func (s *Service) Join(ctx context.Context, client *Client, req JoinRequest) error {
	role, err := model.ParseRole(req.UserRole)
	if err != nil {
		return err
	}
	code := normalizeCode(req.SessionCode)

	// a room closed between lookup and bind is looked up again once
	for attempt := 0; attempt < 2; attempt++ {
		session, err := s.store.GetActive(ctx, code)
		if err != nil {
			return err
		}
		if req.UserID == "" || session.ParticipantFor(role) != req.UserID {
			return model.ErrNotParticipant
		}

		room, created := s.registry.GetOrCreate(session.SessionCode, session.ID)
		superseded, err := room.bind(role, client, req.UserID, s.opts.RolePolicy)
		if errors.Is(err, errRoomClosed) {
			continue
		}
		if err != nil {
			return err
		}

		event := log.Info().Str("module", "ws").Str("conn_id", client.ID()).Str("code", code).
			Str("role", role.String()).Str("user_id", req.UserID).Bool("new_room", created)
		if superseded != nil {
			event = event.Str("superseded_conn", superseded.ID())
		}
		event.Msg("joined lab")
		return nil
	}

	return model.ErrSessionInvalid
}
