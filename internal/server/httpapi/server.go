package httpapi

import (
	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber application with the API routes mounted under
// /api/v1 and a liveness probe at /healthz.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "activation",
		DisableStartupMessage: true,
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")
	h.Register(v1)

	return app
}
