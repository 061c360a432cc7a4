package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/nexushub/virtuallab/internal/ws"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler serves the real-time lab protocol.
type WebSocketHandler struct {
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{
		wsHandler: wsHandler,
	}
}

// Connect handles WS /api/lab/ws. Sessions are joined with join-lab frames
// after the upgrade, so the route carries no session id.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	if err := h.wsHandler.HandleConnection(c.Writer, c.Request); err != nil {
		// the upgrader has already written the HTTP error
		log.Debug().Str("module", "api").Err(err).Str("remote", c.ClientIP()).Msg("websocket upgrade failed")
	}
}

// RegisterRoutes registers the WebSocket handler routes on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Connect)
}
