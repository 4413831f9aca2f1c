package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cueroom/backend/internal/api"
	"github.com/cueroom/backend/internal/config"
	"github.com/cueroom/backend/internal/database"
	"github.com/cueroom/backend/internal/match"
	"github.com/cueroom/backend/internal/migrations"
	"github.com/cueroom/backend/internal/redis"
	"github.com/cueroom/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database (optional: without it the server runs in-memory only)
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("Database unavailable, running without persistence: %v", err)
		db = nil
	} else {
		defer db.Close()
	}

	// Run migrations on start if requested
	if db != nil && os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Redis (optional: disables the snapshot cache and event bus)
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, running without snapshot cache: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// Start the websocket hub and the cross-instance event relay
	hub := ws.NewHub()
	go hub.Run()
	hub.StartEventSubscriber(context.Background(), rdb)

	// Initialize the match manager
	mgr := match.NewManager(db, rdb, cfg, hub)
	mgr.StartExpiryChecker(context.Background())

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	api.SetupRoutes(router, mgr, hub, cfg)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting CueRoom server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
