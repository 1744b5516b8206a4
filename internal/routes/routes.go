package routes

import (
	"github.com/gin-gonic/gin"

	"shadowtalk/internal/config"
	"shadowtalk/internal/handlers"
	"shadowtalk/internal/middleware"
)

// SetupRoutes wires the HTTP and WebSocket surface onto the router.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	api *handlers.APIHandler,
	admin *handlers.AdminHandler,
	ws *handlers.WebSocketHandler,
) {
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.Server.CORS))

	router.GET("/health", api.Health)
	router.GET("/ws", ws.HandleWebSocket)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(10, 20))
	v1.Use(middleware.Auth())
	{
		v1.GET("/queue/status", api.QueueStatus)
		v1.GET("/stats", api.Stats)
		v1.GET("/sessions/:id/messages", api.SessionMessages)

		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.RequireAdmin())
		{
			adminGroup.POST("/users/:id/ban", admin.BanUser)
			adminGroup.DELETE("/users/:id/ban", admin.UnbanUser)
		}
	}
}
