package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/local/sensei/api/config"
	"github.com/local/sensei/api/db"
	"github.com/local/sensei/api/handlers"
	"github.com/local/sensei/api/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	database, err := db.Init(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	log.Info().Str("db_path", cfg.DBPath).Msg("Database initialized")

	// Create Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Configure CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Initialize handlers
	h := handlers.New(database, cfg)

	// Health check
	router.GET("/api/health", h.Health)

	// Telegram pushes updates without platform credentials
	router.POST("/api/telegram/webhook", h.TelegramWebhook)

	// Authenticated API routes
	api := router.Group("/api")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		api.POST("/content/generate", h.GenerateContent)

		professor := api.Group("")
		professor.Use(middleware.RequireRole(middleware.RoleProfessor))
		{
			professor.POST("/content/generate-from-document", h.GenerateFromDocument)
			professor.POST("/report/generate", h.GenerateClassReport)
			professor.GET("/report/:classId", h.GetClassReport)
			professor.POST("/export", h.ExportClassData)
			professor.POST("/messages/send", h.SendMessage)
		}
	}

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Info().
		Str("port", cfg.Port).
		Str("model_provider", cfg.ModelProvider).
		Msg("Starting AI Sensei API server")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
