package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/nexushub/virtuallab/internal/buffer"
	"github.com/nexushub/virtuallab/internal/model"
)

// RolePolicy decides what happens when a role slot is joined while bound.
type RolePolicy string

const (
	// RolePolicyReconnect lets the newer connection take over the slot.
	RolePolicyReconnect RolePolicy = "reconnect"
	// RolePolicyReject refuses the join while the bound connection is alive.
	RolePolicyReject RolePolicy = "reject"
)

var (
	// ErrNotJoined is returned when a connection acts on a room it is not bound in.
	ErrNotJoined = errors.New("connection has not joined this lab session")

	errRoomClosed = errors.New("room closed")
	errEmptyChat  = errors.New("chat message is empty")
)

const supersededMessage = "Your lab session was opened from another connection"

type slot struct {
	client        *Client
	participantID string
}

// Room is the live state of one lab session.
type Room struct {
	code      string
	sessionID string

	mu           sync.Mutex
	slots        map[model.Role]slot
	buffer       string
	language     string
	chat         *buffer.Ring[ChatMessage]
	lastActivity time.Time
	ended        bool
	now          func() time.Time
}

func newRoom(code, sessionID, language string, chatHistory int, now func() time.Time) *Room {
	r := &Room{
		code:         code,
		sessionID:    sessionID,
		slots:        make(map[model.Role]slot, len(model.Roles)),
		language:     language,
		lastActivity: now(),
		now:          now,
	}
	if chatHistory > 0 {
		r.chat = buffer.NewRing[ChatMessage](chatHistory)
	}
	return r
}

// Code returns the session code of the room.
func (r *Room) Code() string {
	return r.code
}

// SessionID returns the durable session id the room belongs to.
func (r *Room) SessionID() string {
	return r.sessionID
}

// Snapshot returns the current buffer and language.
func (r *Room) Snapshot() (code, language string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffer, r.language
}

// Presence reports which role slots are bound.
func (r *Room) Presence() map[model.Role]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	presence := make(map[model.Role]bool, len(model.Roles))
	for _, role := range model.Roles {
		presence[role] = r.slots[role].client != nil
	}
	return presence
}

// Participant returns the participant id bound to a role, if any.
func (r *Room) Participant(role model.Role) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[role]
	if !ok || s.client == nil {
		return "", false
	}
	return s.participantID, true
}

func (r *Room) participantOf(client *Client) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, s, ok := r.roleOfLocked(client)
	return s.participantID, ok
}

// LastActivity returns the time of the last join, update or leave.
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

func (r *Room) touchLocked() {
	r.lastActivity = r.now()
}

func (r *Room) roleOfLocked(client *Client) (model.Role, slot, bool) {
	for _, role := range model.Roles {
		if s := r.slots[role]; s.client == client {
			return role, s, true
		}
	}
	return "", slot{}, false
}

// peersLocked returns every bound connection except exclude.
func (r *Room) peersLocked(exclude *Client) []*Client {
	peers := make([]*Client, 0, len(model.Roles))
	for _, role := range model.Roles {
		if s := r.slots[role]; s.client != nil && s.client != exclude {
			peers = append(peers, s.client)
		}
	}
	return peers
}

func (r *Room) multicastLocked(exclude *Client, t MessageType, payload any) {
	peers := r.peersLocked(exclude)
	if len(peers) == 0 {
		return
	}
	data, err := encodeEvent(t, payload)
	if err != nil {
		return
	}
	for _, peer := range peers {
		peer.Send(data)
	}
}

// bind puts client into the role slot. The reply to the joiner and the
// announcement to peers are queued under the room lock so no code update
// can fall between the snapshot and the binding.
func (r *Room) bind(role model.Role, client *Client, participantID string, policy RolePolicy) (superseded *Client, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ended {
		return nil, errRoomClosed
	}

	current := r.slots[role]
	if current.client != nil && current.client != client {
		if policy == RolePolicyReject && !current.client.IsClosed() {
			return nil, model.ErrRoleSlotTaken
		}
		superseded = current.client
	}

	// one role per connection per room
	if other, _, ok := r.roleOfLocked(client); ok && other != role {
		delete(r.slots, other)
	}

	r.slots[role] = slot{client: client, participantID: participantID}
	client.trackRoom(r.code, role)
	r.touchLocked()

	if superseded != nil {
		superseded.forgetRoom(r.code)
		superseded.SendError(supersededMessage)
	}

	client.SendEvent(MessageTypeJoinedLab, JoinedLabEvent{
		SessionCode: r.code,
		CurrentCode: r.buffer,
		Language:    r.language,
	})
	if r.chat != nil {
		messages := r.chat.Items()
		if messages == nil {
			messages = []ChatMessage{}
		}
		client.SendEvent(MessageTypeChatHistory, ChatHistoryEvent{Messages: messages})
	}
	r.multicastLocked(client, MessageTypeParticipantJoined, ParticipantEvent{UserRole: role.String()})

	return superseded, nil
}

// update overwrites the buffer and the language, then relays both to every
// peer of the sender.
func (r *Room) update(sender *Client, code, language string) (model.Role, string, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, s, ok := r.roleOfLocked(sender)
	if !ok {
		return "", "", "", ErrNotJoined
	}

	r.buffer = code
	r.language = language
	r.touchLocked()

	r.multicastLocked(sender, MessageTypeCodeMirrored, CodeMirroredEvent{Code: code, Language: r.language})
	return role, s.participantID, r.language, nil
}

// unbind clears the slot held by client and tells the peers with event t.
// The buffer is kept.
func (r *Room) unbind(client *Client, t MessageType) (model.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, _, ok := r.roleOfLocked(client)
	if !ok {
		return "", false
	}

	delete(r.slots, role)
	client.forgetRoom(r.code)
	r.touchLocked()

	r.multicastLocked(client, t, nil)
	return role, true
}

// chatFrom records a chat line and delivers it to all members, sender included.
func (r *Room) chatFrom(sender *Client, text string) (ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, _, ok := r.roleOfLocked(sender)
	if !ok {
		return ChatMessage{}, ErrNotJoined
	}

	msg := ChatMessage{UserRole: role.String(), Message: text, Timestamp: r.now()}
	if r.chat != nil {
		r.chat.Push(msg)
	}
	r.touchLocked()

	r.multicastLocked(nil, MessageTypeChatMessage, msg)
	return msg, nil
}

// cursorFrom relays a cursor position to the sender's peers.
func (r *Room) cursorFrom(sender *Client, pos CursorPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, _, ok := r.roleOfLocked(sender)
	if !ok {
		return ErrNotJoined
	}

	r.multicastLocked(sender, MessageTypeCursorUpdate, CursorUpdateEvent{UserRole: role.String(), Position: pos})
	return nil
}

// close marks the room ended, tells the members and unbinds them.
func (r *Room) close(notify bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ended {
		return 0
	}
	r.ended = true

	if notify {
		r.multicastLocked(nil, MessageTypeSessionEnded, SessionEndedEvent{SessionCode: r.code})
	}

	members := r.peersLocked(nil)
	for _, member := range members {
		member.forgetRoom(r.code)
	}
	clear(r.slots)
	return len(members)
}

// idle reports whether the room has no live binding and no activity for ttl.
func (r *Room) idle(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.slots {
		if s.client != nil && !s.client.IsClosed() {
			return false
		}
	}
	return now.Sub(r.lastActivity) >= ttl
}
