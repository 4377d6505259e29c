package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecal/internal/metrics"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Get("/profile", handler.AuthRequired, handler.GetProfile)
	auth.Put("/profile", handler.AuthRequired, handler.UpdateProfile)
	auth.Delete("/profile", handler.AuthRequired, handler.DeleteProfile)
	auth.Get("/settings", handler.AuthRequired, handler.GetSettings)
	auth.Put("/settings", handler.AuthRequired, handler.UpdateSettings)

	periods := api.Group("/periods", handler.AuthRequired)
	periods.Get("", handler.ListPeriods)
	periods.Post("", handler.AddPeriod)
	periods.Delete("/all", handler.ClearPeriods)
	periods.Delete("", handler.RemovePeriod)
	periods.Get("/summary", handler.PeriodSummary)
	periods.Get("/calendar.ics", handler.PeriodCalendarICS)
}
