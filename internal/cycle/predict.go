package cycle

// PredictNext adds cycleLength days to the latest date. It reports false
// when there are no dates or no positive cycle length.
func PredictNext(dates []Date, cycleLength int) (Date, bool) {
	if cycleLength <= 0 || len(dates) == 0 {
		return Date{}, false
	}

	latest := dates[0]
	for _, day := range dates[1:] {
		if day.After(latest) {
			latest = day
		}
	}
	return latest.AddDays(cycleLength), true
}

const (
	WindowStartOffset = -3
	WindowEndOffset   = 1
)

// HighlightWindow lists the days from predicted-3 to predicted+1.
func HighlightWindow(predicted *Date) []Date {
	if predicted == nil || predicted.IsZero() {
		return []Date{}
	}

	window := make([]Date, 0, WindowEndOffset-WindowStartOffset+1)
	for offset := WindowStartOffset; offset <= WindowEndOffset; offset++ {
		window = append(window, predicted.AddDays(offset))
	}
	return window
}
