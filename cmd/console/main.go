package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"charge-console/internal/config"
	"charge-console/internal/console"
	"charge-console/internal/gateway"
	"charge-console/internal/schema"
	"charge-console/internal/session"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, upstream: %s)", cfg.Server.Port, cfg.Upstream.BaseURL)

	// 2. Open session store
	sessions, err := session.NewStore(ctx, cfg.Session)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer sessions.Close()
	log.Println("Session store ready")

	// 3. Gateway to the charging-platform backend
	client := gateway.New(cfg.Upstream.BaseURL, gateway.WithTimeout(cfg.Upstream.Timeout()))

	// 4. Screen registry
	registry := schema.NewRegistry()
	registry.Load(schema.BuiltinScreens())
	log.Printf("Loaded %d screens", len(registry.AllScreens()))

	// 5. Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: console.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 6. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 7. Console handler and routes
	handler, err := console.NewHandler(client, sessions, registry, cfg.Export.Title)
	if err != nil {
		log.Fatalf("Failed to build console handler: %v", err)
	}
	console.RegisterAuthRoutes(app, handler)
	console.RegisterRoutes(app, handler, handler.RequireSession())

	// 8. Periodic purge of expired sessions
	stopPurge := startSessionPurge(ctx, sessions)
	defer stopPurge()

	// 9. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting console on %s", addr)
	log.Fatal(app.Listen(addr))
}

func startSessionPurge(ctx context.Context, sessions *session.Store) func() {
	ticker := time.NewTicker(time.Hour)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n, err := sessions.PurgeExpired(ctx, time.Now()); err != nil {
					log.Printf("WARN: purge sessions: %v", err)
				} else if n > 0 {
					log.Printf("Purged %d expired sessions", n)
				}
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
