package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/terraincognita07/cyclecal/internal/cycle"
	"github.com/terraincognita07/cyclecal/internal/metrics"
	"github.com/terraincognita07/cyclecal/internal/models"
	"go.uber.org/zap"
)

type ReminderUserRepository interface {
	ListReminderCandidates(ctx context.Context, day time.Time) ([]models.User, error)
	MarkReminderSent(ctx context.Context, userID uint, day time.Time) error
}

type DateFetcher interface {
	FetchDates(ctx context.Context, userID uint) ([]cycle.Date, error)
}

// ReminderService sends the reminder of each user on its reminder day and
// an "expected today" notice on the predicted day. Each user is notified at
// most once per day.
type ReminderService struct {
	users    ReminderUserRepository
	periods  DateFetcher
	notifier Notifier
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

func NewReminderService(users ReminderUserRepository, periods DateFetcher, notifier Notifier, location *time.Location, logger *zap.Logger) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderService{
		users:    users,
		periods:  periods,
		notifier: notifier,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// Start schedules Run on a cron schedule in the service location.
// Cancelling ctx stops the scheduler and waits for a running job.
func (service *ReminderService) Start(ctx context.Context, schedule string) error {
	scheduler := cron.New(cron.WithLocation(service.location))
	if _, err := scheduler.AddFunc(schedule, func() {
		if _, err := service.Run(ctx); err != nil {
			service.logger.Warn("reminder run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule reminders %q: %w", schedule, err)
	}

	scheduler.Start()
	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()
	service.logger.Info("reminder scheduler started", zap.String("schedule", schedule), zap.String("location", service.location.String()))
	return nil
}

// Run checks every candidate once and returns how many notifications were
// delivered.
func (service *ReminderService) Run(ctx context.Context) (int, error) {
	today := cycle.DateIn(service.now(), service.location)
	candidates, err := service.users.ListReminderCandidates(ctx, today.Time())
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}

	sent := 0
	for _, user := range candidates {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}

		notification, due, err := service.notificationFor(ctx, user, today)
		if err != nil {
			service.logger.Warn("reminder check failed", zap.Uint("user_id", user.ID), zap.Error(err))
			continue
		}
		if !due {
			continue
		}

		if err := service.notifier.Notify(ctx, notification); err != nil {
			metrics.ObserveReminder(string(notification.Kind), "failed")
			service.logger.Warn("reminder delivery failed", zap.Uint("user_id", user.ID), zap.Error(err))
			continue
		}
		metrics.ObserveReminder(string(notification.Kind), "sent")
		if err := service.users.MarkReminderSent(ctx, user.ID, today.Time()); err != nil {
			service.logger.Warn("mark reminder sent failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
		sent++
	}
	return sent, nil
}

func (service *ReminderService) notificationFor(ctx context.Context, user models.User, today cycle.Date) (Notification, bool, error) {
	dates, err := service.periods.FetchDates(ctx, user.ID)
	if err != nil {
		return Notification{}, false, err
	}

	view := cycle.Compute(dates, SettingsFromUser(user), today)
	reminder := view.Reminder
	if !reminder.Available() {
		return Notification{}, false, nil
	}

	notification := Notification{
		UserID:        user.ID,
		Email:         user.Email,
		PredictedDate: *reminder.PredictedDate,
	}
	switch {
	case reminder.DueOn(today):
		notification.Kind = NotificationReminder
		notification.Message = "Period reminder: " + reminder.PredictionMessage
	case reminder.DaysUntilNext == 0:
		notification.Kind = NotificationExpectedToday
		notification.Message = "Period expected today: " + reminder.PredictionMessage
	default:
		return Notification{}, false, nil
	}
	return notification, true, nil
}
