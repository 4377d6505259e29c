package cycle

// CycleGaps returns the whole-day gaps between chronologically adjacent
// start dates.
func CycleGaps(dates []Date) []int {
	normalized := Normalize(dates)
	if len(normalized) < 2 {
		return nil
	}

	gaps := make([]int, 0, len(normalized)-1)
	for index := 1; index < len(normalized); index++ {
		gaps = append(gaps, normalized[index].DaysSince(normalized[index-1]))
	}
	return gaps
}

// AverageCycleLength is the arithmetic mean of consecutive gaps rounded
// half up. It reports false with fewer than two distinct dates.
func AverageCycleLength(dates []Date) (int, bool) {
	gaps := CycleGaps(dates)
	if len(gaps) == 0 {
		return 0, false
	}

	total := 0
	for _, gap := range gaps {
		total += gap
	}
	return roundHalfUp(total, len(gaps)), true
}

// roundHalfUp divides non-negative numerator by a positive denominator,
// rounding exact halves up, without going through float64.
func roundHalfUp(numerator int, denominator int) int {
	return (2*numerator + denominator) / (2 * denominator)
}
