package analysis

import (
	"fmt"
	"time"

	"stock-watchlist/src/analysis/core"
)

// MinTrendPoints is the shortest close series PredictNextClose accepts.
const MinTrendPoints = 5

// TrendPrediction is the next-session projection of a close series.
type TrendPrediction struct {
	Price    float64
	Date     time.Time
	Accuracy float64 // R² of the fit, 0..1
}

// -----------------------------------------------------------------------------

// PredictNextClose projects the next close with a least-squares line over the
// series index. lastDate is the date of the final close; the prediction date is
// the next weekday after it.
func PredictNextClose(closes []float64, lastDate time.Time) (TrendPrediction, error) {
	if len(closes) < MinTrendPoints {
		return TrendPrediction{}, fmt.Errorf("need at least %d closes, got %d", MinTrendPoints, len(closes))
	}

	x := make([]float64, len(closes))
	for i := range closes {
		x[i] = float64(i)
	}

	fit := core.FitLine(x, closes)
	price := fit.At(float64(len(closes)))
	if price < 0 {
		price = 0
	}

	return TrendPrediction{
		Price:    price,
		Date:     NextWeekday(lastDate),
		Accuracy: fit.RSquared,
	}, nil
}

// -----------------------------------------------------------------------------

// NextWeekday returns the first Monday-Friday date strictly after t.
func NextWeekday(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
