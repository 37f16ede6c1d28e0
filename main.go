package main

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"civicwatch/broadcast"
	"civicwatch/config"
	"civicwatch/database"
	"civicwatch/handlers"
	"civicwatch/middleware"
	"civicwatch/services"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	cfg := config.Load()

	log.Info("Starting the civicwatch service...")

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.InitSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Services
	reportService := database.NewReportService(db)
	authService := database.NewAuthService(db, cfg.JWTSecret)
	leaderboardService := services.NewLeaderboardService(reportService)

	// Live-update hub
	hub := broadcast.NewHub(leaderboardService)

	// Safety net: re-broadcast on a fixed schedule in case a
	// report mutation slipped past the event-driven path.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.BroadcastSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hub.Broadcast(ctx); err != nil {
			log.Warnf("Scheduled broadcast failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid broadcast schedule %q: %v", cfg.BroadcastSchedule, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Handlers
	reportHandler := handlers.NewReportHandler(reportService, hub)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, hub)
	websocketHandler := handlers.NewWebSocketHandler(hub)
	authHandler := handlers.NewAuthHandler(authService)

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Health endpoint (public)
	r.GET("/health", leaderboardHandler.Health)

	// Auth
	r.POST("/api/auth/login", authHandler.Login)

	// Reports
	r.POST("/api/reports", middleware.RateLimitMiddleware(30, time.Minute), reportHandler.CreateReport)
	r.GET("/api/reports", reportHandler.ListReports)
	r.GET("/api/reports/kpis", reportHandler.KPIs)
	r.GET("/api/reports/geojson", reportHandler.GeoJSON)
	r.GET("/api/reports/:id", reportHandler.GetReport)
	r.PATCH("/api/reports/:id/close",
		middleware.AuthMiddleware(authService),
		middleware.RequireRole("government", "admin"),
		reportHandler.CloseReport)

	// Leaderboard: query, SSE stream and websocket mirror. The live
	// feeds are public read-only data, no auth required.
	r.GET("/api/leaderboard", leaderboardHandler.GetLeaderboard)
	r.GET("/api/leaderboard/stream", leaderboardHandler.StreamLeaderboard)
	r.GET("/ws/leaderboard", websocketHandler.ListenLeaderboard)

	log.Infof("Starting civicwatch service on %s:%s", cfg.Host, cfg.Port)
	if err := r.Run(cfg.Host + ":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
