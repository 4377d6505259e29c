package cycle

const (
	DefaultNotifyLeadDays = 3
	MinNotifyLeadDays     = 1
	MaxNotifyLeadDays     = 5

	MinCycleOverrideDays = 15
	MaxCycleOverrideDays = 90
)

type Settings struct {
	CycleOverrideDays *int `json:"cycle_override"`
	NotifyLeadDays    int  `json:"notify_days"`
}

func DefaultSettings() Settings {
	return Settings{NotifyLeadDays: DefaultNotifyLeadDays}
}

func IsValidNotifyLeadDays(days int) bool {
	return days >= MinNotifyLeadDays && days <= MaxNotifyLeadDays
}

func IsValidCycleOverrideDays(days int) bool {
	return days >= MinCycleOverrideDays && days <= MaxCycleOverrideDays
}

// LeadDays falls back to the default when the stored value is out of range.
func (settings Settings) LeadDays() int {
	if !IsValidNotifyLeadDays(settings.NotifyLeadDays) {
		return DefaultNotifyLeadDays
	}
	return settings.NotifyLeadDays
}

func (settings Settings) OverrideDays() (int, bool) {
	if settings.CycleOverrideDays == nil || *settings.CycleOverrideDays <= 0 {
		return 0, false
	}
	return *settings.CycleOverrideDays, true
}

// EffectiveCycleLength prefers a positive override over the computed average.
func EffectiveCycleLength(settings Settings, average int, hasAverage bool) (int, bool) {
	if override, ok := settings.OverrideDays(); ok {
		return override, true
	}
	if hasAverage && average > 0 {
		return average, true
	}
	return 0, false
}
