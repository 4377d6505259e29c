package services

import (
	"context"
	"fmt"
	"time"

	"github.com/terraincognita07/cyclecal/internal/cycle"
	"github.com/terraincognita07/cyclecal/internal/metrics"
	"github.com/terraincognita07/cyclecal/internal/models"
	"go.uber.org/zap"
)

type PeriodRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.PeriodStart, error)
	Insert(ctx context.Context, userID uint, day time.Time) (bool, error)
	DeleteByUserAndDayRange(ctx context.Context, userID uint, dayStart time.Time, dayEnd time.Time) (int64, error)
	DeleteAllByUser(ctx context.Context, userID uint) (int64, error)
}

type SettingsReader interface {
	GetSettings(ctx context.Context, userID uint) (cycle.Settings, error)
}

// PeriodService is the server-side store of logged start dates. It
// satisfies calendar.PeriodStore so the controller can run directly on top
// of the database.
type PeriodService struct {
	periods  PeriodRepository
	settings SettingsReader
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewPeriodService(periods PeriodRepository, settings SettingsReader, location *time.Location, logger *zap.Logger) *PeriodService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{
		periods:  periods,
		settings: settings,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces the time source used to resolve "today".
func (service *PeriodService) SetClock(now func() time.Time) {
	if now != nil {
		service.now = now
	}
}

func (service *PeriodService) FetchDates(ctx context.Context, userID uint) ([]cycle.Date, error) {
	starts, err := service.periods.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list period starts: %w", err)
	}
	values := make([]time.Time, 0, len(starts))
	for _, start := range starts {
		values = append(values, start.StartDate.UTC())
	}
	return cycle.NormalizeTimes(values), nil
}

func (service *PeriodService) AddDate(ctx context.Context, userID uint, day cycle.Date) error {
	if day.IsZero() {
		return cycle.ErrInvalidDate
	}
	created, err := service.periods.Insert(ctx, userID, day.Time())
	if err != nil {
		return fmt.Errorf("insert period start: %w", err)
	}
	if created {
		metrics.ObservePeriodMutation("add")
		service.logger.Debug("period start added", zap.Uint("user_id", userID), zap.Stringer("date", day))
	}
	return nil
}

func (service *PeriodService) RemoveDate(ctx context.Context, userID uint, day cycle.Date) error {
	if day.IsZero() {
		return cycle.ErrInvalidDate
	}
	removed, err := service.periods.DeleteByUserAndDayRange(ctx, userID, day.Time(), day.AddDays(1).Time())
	if err != nil {
		return fmt.Errorf("delete period start: %w", err)
	}
	if removed > 0 {
		metrics.ObservePeriodMutation("remove")
		service.logger.Debug("period start removed", zap.Uint("user_id", userID), zap.Stringer("date", day))
	}
	return nil
}

func (service *PeriodService) ClearAll(ctx context.Context, userID uint) error {
	removed, err := service.periods.DeleteAllByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("clear period starts: %w", err)
	}
	metrics.ObservePeriodMutation("clear_all")
	service.logger.Info("period starts cleared", zap.Uint("user_id", userID), zap.Int64("removed", removed))
	return nil
}

// Today is the current date in the service location.
func (service *PeriodService) Today() cycle.Date {
	return cycle.DateIn(service.now(), service.location)
}

// Summary runs the prediction pipeline over the stored dates and settings.
func (service *PeriodService) Summary(ctx context.Context, userID uint) (cycle.View, error) {
	dates, err := service.FetchDates(ctx, userID)
	if err != nil {
		return cycle.View{}, err
	}
	return service.SummaryOf(ctx, userID, dates)
}

// SummaryOf is Summary for dates the caller already fetched, for example
// through a cache.
func (service *PeriodService) SummaryOf(ctx context.Context, userID uint, dates []cycle.Date) (cycle.View, error) {
	settings := cycle.DefaultSettings()
	if service.settings != nil {
		var err error
		settings, err = service.settings.GetSettings(ctx, userID)
		if err != nil {
			return cycle.View{}, err
		}
	}
	return cycle.Compute(dates, settings, service.Today()), nil
}
