package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"shadowtalk/internal/config"
	"shadowtalk/internal/services"
	"shadowtalk/internal/utils"
	"shadowtalk/internal/websocket"
	"shadowtalk/pkg/logger"
)

// WebSocketHandler authenticates and upgrades client connections.
type WebSocketHandler struct {
	hub      *websocket.Hub
	router   *EventRouter
	users    *services.UserService
	upgrader gorilla.Upgrader
}

func NewWebSocketHandler(cfg *config.Config, hub *websocket.Hub, router *EventRouter, users *services.UserService) *WebSocketHandler {
	allowed := cfg.Server.CORS.AllowedOrigins
	return &WebSocketHandler{
		hub:    hub,
		router: router,
		users:  users,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  cfg.Server.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.Server.WebSocket.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
					return true
				}
				for _, allowedOrigin := range allowed {
					if allowedOrigin == "*" || origin == allowedOrigin {
						return true
					}
				}
				return false
			},
		},
	}
}

// HandleWebSocket validates the token, rejects banned users and hands the
// connection over to the hub.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := h.getToken(c)
	if token == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication token required")
		return
	}

	claims, err := utils.ValidateUserJWT(token)
	if err != nil {
		logger.WithError(err).Warn("Invalid token for WebSocket connection")
		utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authentication token")
		return
	}
	userID := claims.UserID

	banCtx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if banned, err := h.users.IsBanned(banCtx, userID); err != nil {
		logger.LogError(err, "ban_check", map[string]interface{}{"user_id": userID})
	} else if banned {
		utils.ErrorResponse(c, http.StatusForbidden, "User is banned")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := websocket.NewClient(conn, h.hub, userID)
	client.IP = c.ClientIP()
	client.UserAgent = c.GetHeader("User-Agent")

	h.hub.Register <- client
	h.router.HandleConnect(userID)

	logger.LogUserAction(userID, "websocket_connected", map[string]interface{}{
		"ip":         client.IP,
		"user_agent": client.UserAgent,
	})

	go client.WritePump()
	go client.ReadPump()
}

// getToken reads the auth token from the query string (browser WebSocket
// clients cannot set headers) or the Authorization header.
func (h *WebSocketHandler) getToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
		return token
	}
	return ""
}
