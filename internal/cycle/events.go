package cycle

type EventKind string

const (
	EventPeriod    EventKind = "period"
	EventWindow    EventKind = "window"
	EventPredicted EventKind = "predicted"
	EventReminder  EventKind = "reminder"
)

// Event is one all-day calendar entry derived from a view.
type Event struct {
	Date  Date      `json:"date"`
	Kind  EventKind `json:"kind"`
	Title string    `json:"title"`
}

// Events lists logged starts first, then window background days, the
// predicted start and the reminder day.
func (view View) Events() []Event {
	events := make([]Event, 0, len(view.Dates)+len(view.HighlightWindow)+2)
	for _, day := range view.Dates {
		events = append(events, Event{Date: day, Kind: EventPeriod, Title: "Period"})
	}
	if view.Prediction == nil {
		return events
	}

	for _, day := range view.HighlightWindow {
		events = append(events, Event{Date: day, Kind: EventWindow, Title: "Prediction window"})
	}
	events = append(events, Event{Date: *view.Prediction, Kind: EventPredicted, Title: "Predicted"})
	if view.Reminder.ReminderDate != nil {
		events = append(events, Event{Date: *view.Reminder.ReminderDate, Kind: EventReminder, Title: "Period reminder"})
	}
	return events
}
