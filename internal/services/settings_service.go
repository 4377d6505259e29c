package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/terraincognita07/cyclecal/internal/cycle"
	"github.com/terraincognita07/cyclecal/internal/models"
	"gorm.io/gorm"
)

var (
	ErrSettingsCycleOverrideOutOfRange = errors.New("cycle override out of range")
	ErrSettingsNotifyDaysOutOfRange    = errors.New("notify days out of range")
)

type SettingsUserRepository interface {
	LoadSettingsByID(ctx context.Context, userID uint) (models.User, error)
	UpdateSettings(ctx context.Context, userID uint, cycleOverrideDays *int, notifyLeadDays int) error
}

// SettingsUpdate carries a settings change. A nil field keeps the stored
// value; ClearCycleOverride removes the override.
type SettingsUpdate struct {
	CycleOverrideDays  *int
	ClearCycleOverride bool
	NotifyLeadDays     *int
}

type SettingsService struct {
	users SettingsUserRepository
}

func NewSettingsService(users SettingsUserRepository) *SettingsService {
	return &SettingsService{users: users}
}

func (service *SettingsService) GetSettings(ctx context.Context, userID uint) (cycle.Settings, error) {
	user, err := service.users.LoadSettingsByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cycle.Settings{}, ErrUserNotFound
	}
	if err != nil {
		return cycle.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return SettingsFromUser(user), nil
}

func (service *SettingsService) UpdateSettings(ctx context.Context, userID uint, update SettingsUpdate) (cycle.Settings, error) {
	current, err := service.GetSettings(ctx, userID)
	if err != nil {
		return cycle.Settings{}, err
	}

	next, err := service.ApplyUpdate(current, update)
	if err != nil {
		return cycle.Settings{}, err
	}
	if err := service.users.UpdateSettings(ctx, userID, next.CycleOverrideDays, next.NotifyLeadDays); err != nil {
		return cycle.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return next, nil
}

// ApplyUpdate validates update against the accepted ranges and merges it
// into current. A non-positive override counts as clearing it.
func (service *SettingsService) ApplyUpdate(current cycle.Settings, update SettingsUpdate) (cycle.Settings, error) {
	next := current
	switch {
	case update.ClearCycleOverride:
		next.CycleOverrideDays = nil
	case update.CycleOverrideDays != nil && *update.CycleOverrideDays <= 0:
		next.CycleOverrideDays = nil
	case update.CycleOverrideDays != nil:
		if !cycle.IsValidCycleOverrideDays(*update.CycleOverrideDays) {
			return cycle.Settings{}, ErrSettingsCycleOverrideOutOfRange
		}
		override := *update.CycleOverrideDays
		next.CycleOverrideDays = &override
	}

	if update.NotifyLeadDays != nil {
		if !cycle.IsValidNotifyLeadDays(*update.NotifyLeadDays) {
			return cycle.Settings{}, ErrSettingsNotifyDaysOutOfRange
		}
		next.NotifyLeadDays = *update.NotifyLeadDays
	}
	next.NotifyLeadDays = next.LeadDays()
	return next, nil
}

func SettingsFromUser(user models.User) cycle.Settings {
	settings := cycle.Settings{NotifyLeadDays: user.NotifyLeadDays}
	if user.CycleOverrideDays != nil && *user.CycleOverrideDays > 0 {
		override := *user.CycleOverrideDays
		settings.CycleOverrideDays = &override
	}
	settings.NotifyLeadDays = settings.LeadDays()
	return settings
}
