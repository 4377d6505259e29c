package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/terraincognita07/cyclecal/internal/metrics"
)

type AppOptions struct {
	CORSAllowOrigins string
	// AccessLog enables the fiber request logger.
	AccessLog bool
}

// NewApp wires the middleware stack and routes around handler.
func NewApp(handler *Handler, options AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "cyclecal",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if options.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	if origins := strings.TrimSpace(options.CORSAllowOrigins); origins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: origins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
	}
	app.Use(metrics.Middleware())

	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}
