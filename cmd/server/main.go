package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/for-everyoung12/chat-chit/internal/config"
	"github.com/for-everyoung12/chat-chit/internal/database"
	"github.com/for-everyoung12/chat-chit/internal/repository"
	"github.com/for-everyoung12/chat-chit/internal/routes"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	// 3. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowCredentials: true,
		AllowOriginsFunc: func(origin string) bool { return true },
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	routes.RegisterRoutes(app, cfg, database.DB)

	go reapExpiredSessions(database.DB)

	// 4. Start Server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// reapExpiredSessions drops refresh-token rows past their expiry. Expired
// sessions are already rejected on use; this just keeps the table small.
func reapExpiredSessions(db repository.DBTX) {
	sessionRepo := repository.NewSessionRepository(db)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		deleted, err := sessionRepo.DeleteExpired(context.Background())
		if err != nil {
			log.Printf("Failed to delete expired sessions: %v", err)
			continue
		}
		if deleted > 0 {
			log.Printf("Deleted %d expired sessions", deleted)
		}
	}
}
