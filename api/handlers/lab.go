// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexushub/virtuallab/internal/assist"
	"github.com/nexushub/virtuallab/internal/model"
	"github.com/nexushub/virtuallab/internal/session"
	"github.com/nexushub/virtuallab/internal/ws"
	"github.com/rs/zerolog/log"
)

// LabHandler handles HTTP requests for lab session lifecycle.
type LabHandler struct {
	sessions *session.Manager
	live     *ws.Service
	broker   *assist.Broker
}

// NewLabHandler creates a new LabHandler.
func NewLabHandler(sessions *session.Manager, live *ws.Service, broker *assist.Broker) *LabHandler {
	return &LabHandler{
		sessions: sessions,
		live:     live,
		broker:   broker,
	}
}

// EndSessionRequest is the request body for ending a session.
type EndSessionRequest struct {
	CodeSnapshot string `json:"codeSnapshot"`
}

// ReviewRequest is the request body for the code review endpoint.
type ReviewRequest struct {
	SessionCode string `json:"sessionCode"`
	StudentCode string `json:"studentCode" binding:"required"`
	MentorCode  string `json:"mentorCode"`
}

// SessionResponse represents a lab session in API responses.
type SessionResponse struct {
	ID                 string          `json:"id"`
	SessionCode        string          `json:"sessionCode"`
	MentorID           string          `json:"mentorId"`
	StudentID          string          `json:"studentId"`
	ProjectRef         string          `json:"projectRef,omitempty"`
	Status             string          `json:"status"`
	AIInteractionCount int             `json:"aiInteractionCount"`
	FinalCodeSnapshot  string          `json:"finalCodeSnapshot,omitempty"`
	Duration           string          `json:"duration"`
	StartedAt          string          `json:"startedAt"`
	EndedAt            string          `json:"endedAt,omitempty"`
	Presence           map[string]bool `json:"presence,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func toSessionResponse(s *model.LabSession) *SessionResponse {
	resp := &SessionResponse{
		ID:                 s.ID,
		SessionCode:        s.SessionCode,
		MentorID:           s.MentorID,
		StudentID:          s.StudentID,
		ProjectRef:         s.ProjectRef,
		Status:             string(s.Status),
		AIInteractionCount: s.AIInteractionCount,
		FinalCodeSnapshot:  s.FinalCodeSnapshot,
		Duration:           formatDuration(s.Duration()),
		StartedAt:          s.StartedAt.Format(time.RFC3339),
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(time.RFC3339)
	}
	return resp
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return time.Duration(h*time.Hour + m*time.Minute + s*time.Second).String()
	}
	if m > 0 {
		return time.Duration(m*time.Minute + s*time.Second).String()
	}
	return time.Duration(s * time.Second).String()
}

// getUserID extracts the caller identity placed on the context by
// IdentityMiddleware. Empty when the request carried none.
func getUserID(c *gin.Context) string {
	if userID, exists := c.Get("userID"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// lookup resolves a path parameter that is either a session id or a session code.
func (h *LabHandler) lookup(c *gin.Context, ref string) (*model.LabSession, bool) {
	sess, err := h.sessions.Get(c.Request.Context(), ref)
	if errors.Is(err, model.ErrSessionNotFound) {
		sess, err = h.sessions.GetByCode(c.Request.Context(), ref)
	}
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+ref+" not found")
			return nil, false
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get session: "+err.Error())
		return nil, false
	}
	return sess, true
}

// canAccess reports whether the caller may act on the session. Requests
// without an identity are trusted.
func canAccess(c *gin.Context, sess *model.LabSession) bool {
	userID := getUserID(c)
	return userID == "" || userID == sess.MentorID || userID == sess.StudentID
}

// Start handles POST /api/lab/sessions - starts a new lab session.
func (h *LabHandler) Start(c *gin.Context) {
	var req model.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	if userID := getUserID(c); userID != "" && userID != req.MentorID && userID != req.StudentID {
		sendError(c, http.StatusForbidden, "FORBIDDEN", "Only a participant may start a lab session")
		return
	}

	sess, err := h.sessions.Start(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrParticipantRequired), errors.Is(err, model.ErrSameParticipant):
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, model.ErrConcurrencyLimit):
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error: ErrorDetail{
					Code:    "LIMIT_EXCEEDED",
					Message: err.Error(),
					Details: map[string]interface{}{"maxActivePerMentor": h.sessions.MaxActivePerMentor()},
				},
			})
		case errors.Is(err, model.ErrCodeCollision):
			sendError(c, http.StatusServiceUnavailable, "CODE_COLLISION", err.Error())
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to start lab session: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sessionCode": sess.SessionCode,
		"session":     toSessionResponse(sess),
	})
}

// End handles POST /api/lab/sessions/:id/end - completes a lab session.
func (h *LabHandler) End(c *gin.Context) {
	var req EndSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
			return
		}
	}

	sess, ok := h.lookup(c, c.Param("id"))
	if !ok {
		return
	}
	if !canAccess(c, sess) {
		sendError(c, http.StatusForbidden, "FORBIDDEN", "Access to session denied")
		return
	}

	ended, err := h.live.EndSession(c.Request.Context(), sess, req.CodeSnapshot)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAlreadyEnded):
			sendError(c, http.StatusConflict, "ALREADY_ENDED", "Session "+sess.SessionCode+" has already ended")
		case errors.Is(err, model.ErrSessionNotFound):
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sess.SessionCode+" not found")
		default:
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to end lab session: "+err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": toSessionResponse(ended)})
}

// Get handles GET /api/lab/sessions/:id - gets one session by id or code.
func (h *LabHandler) Get(c *gin.Context) {
	sess, ok := h.lookup(c, c.Param("id"))
	if !ok {
		return
	}
	if !canAccess(c, sess) {
		sendError(c, http.StatusForbidden, "FORBIDDEN", "Access to session denied")
		return
	}

	resp := toSessionResponse(sess)
	if sess.IsActive() {
		resp.Presence = h.presence(sess.SessionCode)
	}
	c.JSON(http.StatusOK, resp)
}

// ListActive handles GET /api/lab/sessions - lists active sessions with live presence.
func (h *LabHandler) ListActive(c *gin.Context) {
	sessions, err := h.sessions.ListActive(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list sessions: "+err.Error())
		return
	}

	response := make([]*SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		if !canAccess(c, sess) {
			continue
		}
		resp := toSessionResponse(sess)
		resp.Presence = h.presence(sess.SessionCode)
		response = append(response, resp)
	}

	c.JSON(http.StatusOK, response)
}

func (h *LabHandler) presence(code string) map[string]bool {
	live := h.live.Presence(code)
	out := make(map[string]bool, len(live))
	for role, connected := range live {
		out[role.String()] = connected
	}
	return out
}

// Review handles POST /api/lab/ai-debug - reviews student code against an
// optional mentor reference. Always answers with feedback.
func (h *LabHandler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	review := assist.ReviewRequest{
		StudentCode: req.StudentCode,
		MentorCode:  req.MentorCode,
	}
	if req.SessionCode != "" {
		sess, err := h.sessions.GetActive(c.Request.Context(), req.SessionCode)
		if err != nil {
			log.Debug().Str("module", "api").Str("code", req.SessionCode).Err(err).Msg("review without session")
		} else {
			review.SessionID = sess.ID
		}
	}

	feedback := h.broker.ReviewCode(c.Request.Context(), review)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"feedback": feedback,
	})
}

// RegisterRoutes registers the lab handler routes on a Gin router group.
func (h *LabHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Start)
		sessions.GET("", h.ListActive)
		sessions.GET("/:id", h.Get)
		sessions.POST("/:id/end", h.End)
	}
	rg.POST("/ai-debug", h.Review)
}
