package cycle

import "fmt"

type ReminderStatus string

const (
	ReminderScheduled     ReminderStatus = "scheduled"
	ReminderNotEnoughData ReminderStatus = "not_enough_data"
)

const NotEnoughDataMessage = "Log at least 2 periods to get predictions."

type Reminder struct {
	Status            ReminderStatus `json:"status"`
	PredictedDate     *Date          `json:"predicted_date,omitempty"`
	ReminderDate      *Date          `json:"reminder_date,omitempty"`
	LeadDays          int            `json:"lead_days,omitempty"`
	DaysUntilNext     int            `json:"days_until_next"`
	Countdown         string         `json:"countdown,omitempty"`
	PredictionMessage string         `json:"prediction_message,omitempty"`
	ReminderMessage   string         `json:"reminder_message,omitempty"`
	Message           string         `json:"message,omitempty"`
}

// BuildReminder derives the reminder date and the signed countdown to the
// predicted start. An overdue prediction keeps its negative countdown.
func BuildReminder(predicted *Date, today Date, leadDays int) Reminder {
	if predicted == nil || predicted.IsZero() {
		return Reminder{
			Status:  ReminderNotEnoughData,
			Message: NotEnoughDataMessage,
		}
	}
	if !IsValidNotifyLeadDays(leadDays) {
		leadDays = DefaultNotifyLeadDays
	}

	next := *predicted
	reminderDate := next.AddDays(-leadDays)
	daysUntil := next.DaysSince(today)
	countdown := CountdownText(daysUntil)

	return Reminder{
		Status:            ReminderScheduled,
		PredictedDate:     &next,
		ReminderDate:      &reminderDate,
		LeadDays:          leadDays,
		DaysUntilNext:     daysUntil,
		Countdown:         countdown,
		PredictionMessage: fmt.Sprintf("Expected around %s (%s)", next.DisplayString(), countdown),
		ReminderMessage:   fmt.Sprintf("We'll remind you on %s (%s before)", reminderDate.DisplayString(), pluralDays(leadDays)),
	}
}

func (reminder Reminder) Available() bool {
	return reminder.Status == ReminderScheduled
}

// DueOn reports whether the reminder fires on day.
func (reminder Reminder) DueOn(day Date) bool {
	return reminder.Available() && reminder.ReminderDate != nil && *reminder.ReminderDate == day
}

func CountdownText(daysUntil int) string {
	switch {
	case daysUntil == 0:
		return "due today"
	case daysUntil < 0:
		return fmt.Sprintf("%s overdue", pluralDays(-daysUntil))
	default:
		return fmt.Sprintf("%s left", pluralDays(daysUntil))
	}
}

func pluralDays(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
