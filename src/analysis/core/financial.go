package core

import "math"

// -----------------------------------------------------------------------------

// CalculateChangePercent returns the fractional change from previous to current.
func CalculateChangePercent(current, previous float64) float64 {
	if previous == 0 {
		return 0.0
	}
	return (current - previous) / previous
}

// -----------------------------------------------------------------------------

// PriceRange returns the lowest low and highest high over the bars.
// Empty input yields (0, 0).
func PriceRange(lows, highs []float64) (float64, float64) {
	if len(lows) == 0 || len(highs) == 0 {
		return 0, 0
	}

	low := math.MaxFloat64
	high := -math.MaxFloat64
	for _, v := range lows {
		if v < low {
			low = v
		}
	}
	for _, v := range highs {
		if v > high {
			high = v
		}
	}
	return low, high
}

// -----------------------------------------------------------------------------

// AverageVolume is the arithmetic mean of volumes.
func AverageVolume(volumes []float64) float64 {
	mean, _ := CalculateMeanStd(volumes)
	return mean
}
