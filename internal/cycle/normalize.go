package cycle

import (
	"sort"
	"time"
)

// Normalize returns the unique days of dates in ascending order.
func Normalize(dates []Date) []Date {
	seen := make(map[Date]struct{}, len(dates))
	normalized := make([]Date, 0, len(dates))
	for _, day := range dates {
		if _, exists := seen[day]; exists {
			continue
		}
		seen[day] = struct{}{}
		normalized = append(normalized, day)
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Before(normalized[j])
	})
	return normalized
}

// NormalizeTimes drops the time of day of every value before normalizing.
// Each value keeps the calendar day of its own location.
func NormalizeTimes(values []time.Time) []Date {
	dates := make([]Date, 0, len(values))
	for _, value := range values {
		dates = append(dates, DateOf(value))
	}
	return Normalize(dates)
}

func Contains(dates []Date, needle Date) bool {
	for _, day := range dates {
		if day == needle {
			return true
		}
	}
	return false
}
