package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shadowtalk/internal/config"
	"shadowtalk/internal/services"
	"shadowtalk/internal/utils"
	"shadowtalk/internal/websocket"
	"shadowtalk/pkg/database"
)

// APIHandler serves the operational HTTP surface next to the WebSocket:
// health, queue status, live stats and session history.
type APIHandler struct {
	cfg        *config.Config
	matchmaker *services.Matchmaker
	sessions   *services.SessionService
	hub        *websocket.Hub
	startedAt  time.Time
}

func NewAPIHandler(cfg *config.Config, matchmaker *services.Matchmaker, sessions *services.SessionService, hub *websocket.Hub) *APIHandler {
	return &APIHandler{
		cfg:        cfg,
		matchmaker: matchmaker,
		sessions:   sessions,
		hub:        hub,
		startedAt:  time.Now(),
	}
}

// Health reports process and database liveness.
func (h *APIHandler) Health(c *gin.Context) {
	status := "healthy"
	dbStatus := "connected"
	if err := database.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":   status,
		"version":  h.cfg.App.Version,
		"uptime":   int(time.Since(h.startedAt).Seconds()),
		"database": dbStatus,
	})
}

// QueueStatus reports the caller's waiting-queue position.
func (h *APIHandler) QueueStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	chatType := services.ParseChatType(c.DefaultQuery("chat_type", "text"))
	utils.SuccessResponse(c, h.matchmaker.QueueStatus(userID, chatType))
}

// Stats summarizes the live system for dashboards.
func (h *APIHandler) Stats(c *gin.Context) {
	stats := h.matchmaker.Stats()
	stats["connected_clients"] = h.hub.ClientCount()
	utils.SuccessResponse(c, stats)
}

// SessionMessages returns the stored history of one of the caller's
// sessions.
func (h *APIHandler) SessionMessages(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("id")

	session, err := h.sessions.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found")
		return
	}
	if session.User1ID != userID && session.User2ID != userID {
		utils.ErrorResponse(c, http.StatusForbidden, "Not a participant of this session")
		return
	}

	messages, err := h.sessions.GetSessionMessages(c.Request.Context(), sessionID, 200)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	utils.SuccessResponse(c, gin.H{
		"session_id": sessionID,
		"messages":   messages,
	})
}
