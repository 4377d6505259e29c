package services

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/terraincognita07/cyclecal/internal/cycle"
)

const (
	calendarProductID = "-//cyclecal//Cycle Calendar//EN"
	calendarName      = "Cycle calendar"
)

// ExportService renders a summary as an iCalendar feed of all-day events.
type ExportService struct {
	now func() time.Time
}

func NewExportService() *ExportService {
	return &ExportService{now: time.Now}
}

// BuildCalendarICS emits one event per logged start, per highlighted day,
// plus the predicted start and the reminder day. Event UIDs are stable
// for a given user, kind and date so clients update events in place.
func (service *ExportService) BuildCalendarICS(userID uint, view cycle.View) string {
	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId(calendarProductID)
	calendar.SetName(calendarName)

	stamp := service.now().UTC()
	for _, event := range view.Events() {
		uid := fmt.Sprintf("%s-%s-%d@cyclecal", event.Kind, event.Date, userID)
		entry := calendar.AddEvent(uid)
		entry.SetDtStampTime(stamp)
		entry.SetAllDayStartAt(event.Date.Time())
		entry.SetAllDayEndAt(event.Date.AddDays(1).Time())
		entry.SetSummary(event.Title)
		entry.SetProperty(ics.ComponentPropertyCategories, string(event.Kind))
		if event.Kind == cycle.EventPredicted && view.Reminder.Available() {
			entry.SetDescription(view.Reminder.PredictionMessage)
		}
	}
	return calendar.Serialize()
}
