package httpapi

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"weather-grid-ingest/internal/ingest"
)

// StorePinger is the document-store health command.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes wires the ops endpoints into the Fiber app. These exist for
// operators and process supervisors; the ingest loop never depends on them.
func RegisterRoutes(app *fiber.App, stats func() ingest.Stats, store StorePinger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		storeStatus := "ok"
		if err := store.Ping(ctx); err != nil {
			storeStatus = "unreachable"
		}

		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-grid-ingest",
			"store":   storeStatus,
		})
	})

	app.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(stats())
	})
}
