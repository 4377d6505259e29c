package cycle

// View is everything the calendar renders for one date set.
type View struct {
	Dates           []Date   `json:"dates"`
	Average         *int     `json:"average"`
	Prediction      *Date    `json:"prediction"`
	HighlightWindow []Date   `json:"highlight_window"`
	Reminder        Reminder `json:"reminder"`
}

// Compute runs the whole pipeline: normalize, average, predict, window and
// reminder. It never fails; missing data shows up as nil fields.
func Compute(dates []Date, settings Settings, today Date) View {
	normalized := Normalize(dates)
	view := View{
		Dates:           normalized,
		HighlightWindow: []Date{},
	}

	average, hasAverage := AverageCycleLength(normalized)
	if hasAverage {
		view.Average = &average
	}

	cycleLength, hasLength := EffectiveCycleLength(settings, average, hasAverage)
	if hasLength {
		if predicted, ok := PredictNext(normalized, cycleLength); ok {
			view.Prediction = &predicted
		}
	}

	view.HighlightWindow = HighlightWindow(view.Prediction)
	view.Reminder = BuildReminder(view.Prediction, today, settings.LeadDays())
	return view
}

func (view View) Contains(day Date) bool {
	return Contains(view.Dates, day)
}

func (view View) IsHighlighted(day Date) bool {
	return Contains(view.HighlightWindow, day)
}

// Clone returns a copy that shares no slices or pointers with view.
func (view View) Clone() View {
	cloned := View{
		Dates:           append([]Date{}, view.Dates...),
		HighlightWindow: append([]Date{}, view.HighlightWindow...),
		Reminder:        view.Reminder,
	}
	if view.Average != nil {
		average := *view.Average
		cloned.Average = &average
	}
	if view.Prediction != nil {
		prediction := *view.Prediction
		cloned.Prediction = &prediction
	}
	if view.Reminder.PredictedDate != nil {
		predicted := *view.Reminder.PredictedDate
		cloned.Reminder.PredictedDate = &predicted
	}
	if view.Reminder.ReminderDate != nil {
		reminderDate := *view.Reminder.ReminderDate
		cloned.Reminder.ReminderDate = &reminderDate
	}
	return cloned
}
