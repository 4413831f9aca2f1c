package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/cueroom/backend/internal/api/handlers"
	"github.com/cueroom/backend/internal/config"
	"github.com/cueroom/backend/internal/match"
	"github.com/cueroom/backend/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, mgr *match.Manager, hub *ws.Hub, cfg *config.Config) {
	// CORS middleware for browser clients
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Completed match history (DB-backed)
		v1.GET("/matches", handlers.GetMatchHistory(mgr))
		v1.GET("/matches/:id/stats", handlers.GetMatchStats(mgr))

		// Match endpoints
		m := v1.Group("/match")
		{
			m.POST("", handlers.CreateMatch(mgr, cfg))
			m.GET("/:token", handlers.GetMatchState(mgr))
			m.POST("/:token/transition", handlers.ApplyTransition(mgr))
			m.GET("/:token/legal-shots", handlers.GetLegalShots(mgr))
			m.GET("/:token/score/:player", handlers.GetPlayerScore(mgr))
			m.POST("/:token/forfeit", handlers.ForfeitMatch(mgr))
			m.GET("/:token/ws", ws.HandleMatchWebSocket(hub, mgr))
		}
	}
}
