package ws

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Default maximum message size allowed from peer.
	defaultMaxMessageSize = 512 * 1024
)

// HandlerConfig holds transport settings.
type HandlerConfig struct {
	MaxMessageSize int64
	SendBuffer     int
	AllowedOrigins []string
}

// Handler upgrades HTTP requests and pumps frames for each connection.
type Handler struct {
	service        *Service
	upgrader       websocket.Upgrader
	maxMessageSize int64
	sendBuffer     int
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool

	// ctx scopes every connection; cancelled on shutdown
	ctx context.Context
}

// NewHandler creates a new WebSocket handler. Connections live until ctx is done.
func NewHandler(ctx context.Context, service *Service, config HandlerConfig) *Handler {
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = defaultMaxMessageSize
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaultSendBuffer
	}

	h := &Handler{
		service:        service,
		maxMessageSize: config.MaxMessageSize,
		sendBuffer:     config.SendBuffer,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		ctx:            ctx,
	}
	for _, origin := range config.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		h.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			h.allowedHosts[parsed.Host] = true
		}
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts any origin when none are configured.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	if h.allowedOrigins[origin] {
		return true
	}
	if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
		return h.allowedHosts[parsed.Host]
	}
	return false
}

// HandleConnection upgrades the request and starts the pumps.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, h.sendBuffer)
	log.Info().Str("module", "ws").Str("conn_id", client.ID()).Str("remote", r.RemoteAddr).Msg("connection opened")

	go h.writePump(client)
	go h.readPump(client)
	return nil
}

// readPump runs every inbound frame of one connection in order.
func (h *Handler) readPump(client *Client) {
	conn := client.Conn()
	defer func() {
		h.service.Disconnect(client)
		client.Close()
		conn.Close()
		log.Info().Str("module", "ws").Str("conn_id", client.ID()).Int64("dropped", client.Dropped()).Msg("connection closed")
	}()

	conn.SetReadLimit(h.maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Str("module", "ws").Str("conn_id", client.ID()).Err(err).Msg("websocket error")
			}
			return
		}

		h.service.HandleMessage(h.ctx, client, message)
	}
}

// writePump sends queued frames, one per WebSocket message, and pings.
func (h *Handler) writePump(client *Client) {
	conn := client.Conn()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.SendChan():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-h.ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
