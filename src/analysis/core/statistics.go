package core

import "math"

// -----------------------------------------------------------------------------

// CalculateMeanStd computes mean and population standard deviation.
func CalculateMeanStd(data []float64) (float64, float64) {
	if len(data) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	if len(data) == 1 {
		return mean, 0
	}

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	std := math.Sqrt(varianceSum / float64(len(data)))
	return mean, std
}

// -----------------------------------------------------------------------------

// CalculateCorrelation computes the Pearson correlation coefficient.
// Mismatched, too short or zero-variance inputs yield 0.
func CalculateCorrelation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}

	n := float64(len(x))

	_, stdX := CalculateMeanStd(x)
	_, stdY := CalculateMeanStd(y)
	if stdX == 0 || stdY == 0 {
		return 0
	}

	sumX, sumY, sumXY, sumX2, sumY2 := 0.0, 0.0, 0.0, 0.0, 0.0
	for i := 0; i < len(x); i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := (n * sumXY) - (sumX * sumY)
	denominator := math.Sqrt(((n * sumX2) - (sumX * sumX)) * ((n * sumY2) - (sumY * sumY)))
	if denominator == 0 {
		return 0
	}

	result := numerator / denominator
	if math.IsNaN(result) {
		return 0
	}
	return result
}

// -----------------------------------------------------------------------------

// LinearFit is an ordinary least-squares line y = Intercept + Slope*x.
type LinearFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// FitLine fits y against x. The slope is derived from the correlation and the
// two standard deviations, so a flat series gives slope 0 and R² 0.
func FitLine(x, y []float64) LinearFit {
	if len(x) != len(y) || len(x) == 0 {
		return LinearFit{}
	}

	meanX, stdX := CalculateMeanStd(x)
	meanY, stdY := CalculateMeanStd(y)
	if stdX == 0 {
		return LinearFit{Intercept: meanY}
	}

	r := CalculateCorrelation(x, y)
	slope := r * stdY / stdX
	return LinearFit{
		Slope:     slope,
		Intercept: meanY - slope*meanX,
		RSquared:  r * r,
	}
}

// At evaluates the line at x.
func (f LinearFit) At(x float64) float64 {
	return f.Intercept + f.Slope*x
}
