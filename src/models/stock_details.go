package models

import "github.com/shopspring/decimal"

// MPricePoint is one daily bar of the details price history.
type MPricePoint struct {
	Date       string          `json:"date"`
	OpenPrice  decimal.Decimal `json:"open_price"`
	HighPrice  decimal.Decimal `json:"high_price"`
	LowPrice   decimal.Decimal `json:"low_price"`
	ClosePrice decimal.Decimal `json:"close_price"`
	Volume     int64           `json:"volume"`
}

// MStockDetails is the full details payload: the entry fields, the recent
// price history and the derived metrics shown by the detail view.
type MStockDetails struct {
	MWatchlistEntry

	PriceHistory  []MPricePoint       `json:"price_history"`
	MarketCap     decimal.NullDecimal `json:"marketCap"`
	PERatio       decimal.NullDecimal `json:"peRatio"`
	DayLow        decimal.NullDecimal `json:"dayLow"`
	DayHigh       decimal.NullDecimal `json:"dayHigh"`
	YearLow       decimal.NullDecimal `json:"yearLow"`
	YearHigh      decimal.NullDecimal `json:"yearHigh"`
	Volume        decimal.NullDecimal `json:"volume"`
	AvgVolume     decimal.NullDecimal `json:"avgVolume"`
	DividendYield decimal.NullDecimal `json:"dividendYield"`
	Sector        string              `json:"sector,omitempty"`
	Industry      string              `json:"industry,omitempty"`
}

// Prediction extracts the prediction triple carried by a details response, if any.
func (d MStockDetails) Prediction() MPrediction {
	return MPrediction{
		PredictedPrice: d.PredictedPrice,
		PredictionDate: d.PredictionDate,
		ModelAccuracy:  d.ModelAccuracy,
	}
}
