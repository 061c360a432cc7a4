package ws

import (
	"strings"
	"sync"
	"time"
)

// Registry maps session codes to live rooms. It is a cache of the session
// store: entries appear on the first join and are evicted on end or idleness.
type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex

	defaultLanguage string
	chatHistory     int
	now             func() time.Time
}

// NewRegistry creates a registry whose rooms start in defaultLanguage and keep
// chatHistory chat lines (0 disables history).
func NewRegistry(defaultLanguage string, chatHistory int) *Registry {
	return &Registry{
		rooms:           make(map[string]*Room),
		defaultLanguage: defaultLanguage,
		chatHistory:     chatHistory,
		now:             time.Now,
	}
}

// GetOrCreate returns the room for code, creating it if absent.
func (reg *Registry) GetOrCreate(code, sessionID string) (*Room, bool) {
	code = normalizeCode(code)
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, ok := reg.rooms[code]; ok {
		return room, false
	}

	room := newRoom(code, sessionID, reg.defaultLanguage, reg.chatHistory, reg.now)
	reg.rooms[code] = room
	return room, true
}

// Get returns the room for code, or nil if not found.
func (reg *Registry) Get(code string) *Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.rooms[normalizeCode(code)]
}

// Remove deletes the room for code and returns it, or nil.
func (reg *Registry) Remove(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code = normalizeCode(code)
	room, ok := reg.rooms[code]
	if !ok {
		return nil
	}
	delete(reg.rooms, code)
	return room
}

// Len returns the number of live rooms.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// EvictIdle removes rooms without live bindings that saw no activity for ttl.
func (reg *Registry) EvictIdle(ttl time.Duration) []*Room {
	now := reg.now()

	reg.mu.Lock()
	defer reg.mu.Unlock()

	var evicted []*Room
	for code, room := range reg.rooms {
		if !room.idle(now, ttl) {
			continue
		}
		delete(reg.rooms, code)
		room.close(false)
		evicted = append(evicted, room)
	}
	return evicted
}

// Close drops every room.
func (reg *Registry) Close() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, room := range reg.rooms {
		room.close(false)
	}
	reg.rooms = make(map[string]*Room)
}

// normalizeCode strips surrounding whitespace from a session code so every
// frame resolves the room the same way join did.
func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
