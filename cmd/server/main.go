package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"shadowtalk/internal/config"
	"shadowtalk/internal/handlers"
	"shadowtalk/internal/routes"
	"shadowtalk/internal/services"
	"shadowtalk/internal/websocket"
	"shadowtalk/pkg/database"
	"shadowtalk/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger.Init()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := database.InitMongoDB(cfg.MongoDB); err != nil {
		logger.Fatal("Failed to connect to MongoDB: " + err.Error())
	}
	defer database.Disconnect()
	db := database.GetDatabase()

	// Persistence services
	sessionService := services.NewSessionService(db)
	userService := services.NewUserService(db)

	// In-memory matchmaking core
	queue := services.NewWaitingQueue(cfg.Matching)
	registry := services.NewSessionRegistry()
	presence := services.NewPresenceTracker()

	// WebSocket hub doubles as the core's event publisher
	hub := websocket.NewHub(cfg.Server.WebSocket)

	matchmaker := services.NewMatchmaker(
		cfg.Matching, queue, registry, presence,
		sessionService, userService, hub,
	)

	router := handlers.NewEventRouter(matchmaker, userService)
	hub.SetHandler(router)
	go hub.Run()

	// Background cleanup
	janitor := services.NewJanitor(cfg.Matching, matchmaker, queue, registry, presence)
	go janitor.Run(context.Background())
	defer janitor.Stop()

	// HTTP surface
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	apiHandler := handlers.NewAPIHandler(cfg, matchmaker, sessionService, hub)
	adminHandler := handlers.NewAdminHandler(matchmaker, userService)
	wsHandler := handlers.NewWebSocketHandler(cfg, hub, router, userService)
	routes.SetupRoutes(engine, cfg, apiHandler, adminHandler, wsHandler)

	logger.Info("Server starting on port: " + cfg.App.Port)
	if err := engine.Run(":" + cfg.App.Port); err != nil {
		logger.Fatal("Failed to start server: " + err.Error())
	}
}
