package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecal/internal/cycle"
	"github.com/terraincognita07/cyclecal/internal/metrics"
	"go.uber.org/zap"
)

type periodInput struct {
	Date string `json:"date"`
}

type periodResponse struct {
	StartDate cycle.Date `json:"start_date"`
}

func (handler *Handler) ListPeriods(c *fiber.Ctx) error {
	dates, err := handler.periodCache.FetchDates(c.UserContext(), currentUserID(c))
	if err != nil {
		return handler.storeFailure(c, "list", "failed to load periods", err)
	}

	response := make([]periodResponse, 0, len(dates))
	for _, day := range dates {
		response = append(response, periodResponse{StartDate: day})
	}
	return c.JSON(response)
}

func (handler *Handler) AddPeriod(c *fiber.Ctx) error {
	day, err := parsePeriodDate(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}
	if err := handler.periodCache.AddDate(c.UserContext(), currentUserID(c), day); err != nil {
		return handler.storeFailure(c, "add", "failed to save period", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}

func (handler *Handler) RemovePeriod(c *fiber.Ctx) error {
	day, err := parsePeriodDate(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}
	if err := handler.periodCache.RemoveDate(c.UserContext(), currentUserID(c), day); err != nil {
		return handler.storeFailure(c, "remove", "failed to delete period", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) ClearPeriods(c *fiber.Ctx) error {
	if err := handler.periodCache.ClearAll(c.UserContext(), currentUserID(c)); err != nil {
		return handler.storeFailure(c, "clear_all", "failed to clear periods", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) PeriodSummary(c *fiber.Ctx) error {
	view, err := handler.periodSummary(c.UserContext(), currentUserID(c))
	if err != nil {
		return handler.storeFailure(c, "summary", "failed to build summary", err)
	}
	return c.JSON(view)
}

func (handler *Handler) PeriodCalendarICS(c *fiber.Ctx) error {
	userID := currentUserID(c)
	view, err := handler.periodSummary(c.UserContext(), userID)
	if err != nil {
		return handler.storeFailure(c, "calendar", "failed to build calendar", err)
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="cyclecal.ics"`)
	return c.SendString(handler.export.BuildCalendarICS(userID, view))
}

func (handler *Handler) periodSummary(ctx context.Context, userID uint) (cycle.View, error) {
	dates, err := handler.periodCache.FetchDates(ctx, userID)
	if err != nil {
		return cycle.View{}, err
	}
	return handler.periods.SummaryOf(ctx, userID, dates)
}

func (handler *Handler) storeFailure(c *fiber.Ctx, operation string, message string, err error) error {
	metrics.ObserveStoreFailure(operation)
	handler.logger.Error(message, zap.String("operation", operation), zap.Uint("user_id", currentUserID(c)), zap.Error(err))
	return apiError(c, fiber.StatusInternalServerError, message)
}

// parsePeriodDate reads the date from the JSON body, falling back to the
// ?date= query parameter. It accepts YYYY-MM-DD or an RFC 3339 timestamp,
// whose calendar day is taken as written.
func parsePeriodDate(c *fiber.Ctx) (cycle.Date, error) {
	input := periodInput{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return cycle.Date{}, err
		}
	}
	raw := strings.TrimSpace(input.Date)
	if raw == "" {
		raw = strings.TrimSpace(c.Query("date"))
	}
	if raw == "" {
		return cycle.Date{}, errors.New("date is required")
	}
	if len(raw) > len(cycle.DateLayout) {
		stamp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return cycle.Date{}, fmt.Errorf("%w: %q", cycle.ErrInvalidDate, raw)
		}
		return cycle.DateOf(stamp), nil
	}
	return cycle.ParseDate(raw)
}
