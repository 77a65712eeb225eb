package app

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"dmlabels/internal/handlers"
	u "dmlabels/internal/utils"
)

// SetupApp creates and configures a new Fiber app instance. rdb may be nil.
func SetupApp(cfg u.Config, rdb *redis.Client) *fiber.App {
	bodyLimit := cfg.Server.BodyLimitMB << 20
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				msg = e.Message
			} else {
				u.Error("Unhandled request error", "path", c.Path(), "error", err)
			}

			u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)
			return errorResponse(c, code, msg)
		},
	})

	RegisterMiddleware(app, cfg)
	RegisterRoutes(app, cfg, rdb)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, cfg u.Config, rdb *redis.Client) {
	api := app.Group("/api")

	svc := handlers.NewLabelService(cfg, rdb)

	api.Get("/sizes", svc.HandleSizes)
	api.Post("/upload", svc.HandleUpload)
	api.Post("/pdf", svc.HandlePDF)
	api.Post("/decode", svc.HandleDecode)

	api.Get("/monitor", monitor.New())
}
