package ws

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nexushub/virtuallab/internal/model"
)

const defaultSendBuffer = 256

// Client represents one WebSocket connection.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
	rooms  map[string]model.Role // session code -> bound role

	dropped atomic.Int64
}

// NewClient creates a client with a send queue of the given size.
// A nil conn is allowed; the queue is then drained by the caller.
func NewClient(conn *websocket.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Client{
		id:    uuid.New().String(),
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]model.Role),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

// Send queues a frame without blocking. A full queue drops the frame.
func (c *Client) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		n := c.dropped.Add(1)
		log.Warn().Str("module", "ws").Str("conn_id", c.id).Int64("dropped", n).Msg("send queue full, frame dropped")
		return false
	}
}

// SendEvent encodes and queues an event.
func (c *Client) SendEvent(t MessageType, payload any) bool {
	data, err := encodeEvent(t, payload)
	if err != nil {
		log.Error().Str("module", "ws").Str("conn_id", c.id).Str("type", string(t)).Err(err).Msg("failed to encode event")
		return false
	}
	return c.Send(data)
}

// SendError queues an error event.
func (c *Client) SendError(message string) bool {
	return c.SendEvent(MessageTypeError, ErrorEvent{Message: message})
}

// Close closes the send queue; the write pump then closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Dropped returns how many frames were dropped on a full queue.
func (c *Client) Dropped() int64 {
	return c.dropped.Load()
}

func (c *Client) trackRoom(code string, role model.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[code] = role
}

func (c *Client) forgetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, code)
}

// Rooms returns the session codes this client is bound in.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	codes := make([]string, 0, len(c.rooms))
	for code := range c.rooms {
		codes = append(codes, code)
	}
	return codes
}
