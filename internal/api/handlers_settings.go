package api

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecal/internal/services"
)

// settingsInput mirrors the settings form: cycle_override may be a number,
// null or an empty string (both meaning "use the average"). Missing keys
// leave the stored value alone.
type settingsInput struct {
	CycleOverride json.RawMessage `json:"cycle_override"`
	NotifyDays    *int            `json:"notify_days"`
}

func (handler *Handler) GetSettings(c *fiber.Ctx) error {
	settings, err := handler.settingCache.GetSettings(c.UserContext(), currentUserID(c))
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to load settings")
	}
	return c.JSON(settings)
}

func (handler *Handler) UpdateSettings(c *fiber.Ctx) error {
	input := settingsInput{}
	if err := json.Unmarshal(c.Body(), &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
	update, err := input.toUpdate()
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid cycle override")
	}

	userID := currentUserID(c)
	settings, err := handler.settings.UpdateSettings(c.UserContext(), userID, update)
	switch {
	case errors.Is(err, services.ErrSettingsCycleOverrideOutOfRange):
		return apiError(c, fiber.StatusBadRequest, "cycle override must be between 15 and 90 days")
	case errors.Is(err, services.ErrSettingsNotifyDaysOutOfRange):
		return apiError(c, fiber.StatusBadRequest, "notify days must be between 1 and 5")
	case err != nil:
		return apiError(c, fiber.StatusInternalServerError, "failed to save settings")
	}
	handler.settingCache.InvalidateSettings(userID)
	return c.JSON(settings)
}

func (input settingsInput) toUpdate() (services.SettingsUpdate, error) {
	update := services.SettingsUpdate{NotifyLeadDays: input.NotifyDays}
	if len(input.CycleOverride) == 0 {
		return update, nil
	}

	raw := string(input.CycleOverride)
	if raw == "null" || raw == `""` {
		update.ClearCycleOverride = true
		return update, nil
	}

	var override int
	if err := json.Unmarshal(input.CycleOverride, &override); err != nil {
		return services.SettingsUpdate{}, err
	}
	update.CycleOverrideDays = &override
	return update, nil
}
