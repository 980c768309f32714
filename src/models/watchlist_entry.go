package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// StockID is the opaque identifier assigned by the remote source.
// The stocks API serves integer ids, the Yahoo gateway uses the symbol itself,
// so both JSON numbers and strings are accepted.
type StockID string

func (id *StockID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StockID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("stock id: %w", err)
	}
	*id = StockID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers so the backend sees what it issued.
func (id StockID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id StockID) String() string {
	return string(id)
}

// -----------------------------------------------------------------------------

// MWatchlistEntry is one tracked instrument. Quote and prediction fields stay
// invalid (null) until the remote source populates them.
type MWatchlistEntry struct {
	ID             StockID             `json:"id"`
	Symbol         string              `json:"symbol"`
	Name           string              `json:"name,omitempty"`
	LastPrice      decimal.NullDecimal `json:"last_price"`
	PriceChange    decimal.NullDecimal `json:"priceChange"`
	PercentChange  decimal.NullDecimal `json:"percentChange"`
	PredictedPrice decimal.NullDecimal `json:"predicted_price"`
	PredictionDate string              `json:"prediction_date,omitempty"`
	ModelAccuracy  decimal.NullDecimal `json:"model_accuracy"`
	UpdatedAt      string              `json:"updated_at,omitempty"`
}

// HasPrediction reports whether a prediction was ever merged into the entry.
func (e MWatchlistEntry) HasPrediction() bool {
	return e.PredictedPrice.Valid
}

// ApplyQuote overwrites the quote fields the details response carries and
// keeps prior values for the ones it omits.
func (e *MWatchlistEntry) ApplyQuote(d MStockDetails) {
	if d.Name != "" {
		e.Name = d.Name
	}
	if d.LastPrice.Valid {
		e.LastPrice = d.LastPrice
	}
	if d.PriceChange.Valid {
		e.PriceChange = d.PriceChange
	}
	if d.PercentChange.Valid {
		e.PercentChange = d.PercentChange
	}
	if d.UpdatedAt != "" {
		e.UpdatedAt = d.UpdatedAt
	}
	e.ApplyPrediction(d.Prediction())
}

// ApplyPrediction merges the prediction triple, skipping absent parts.
func (e *MWatchlistEntry) ApplyPrediction(p MPrediction) {
	if p.PredictedPrice.Valid {
		e.PredictedPrice = p.PredictedPrice
	}
	if p.PredictionDate != "" {
		e.PredictionDate = p.PredictionDate
	}
	if p.ModelAccuracy.Valid {
		e.ModelAccuracy = p.ModelAccuracy
	}
}

// -----------------------------------------------------------------------------

// MPrediction is the response of the predict_price endpoint.
type MPrediction struct {
	PredictedPrice decimal.NullDecimal `json:"predicted_price"`
	PredictionDate string              `json:"prediction_date"`
	ModelAccuracy  decimal.NullDecimal `json:"model_accuracy"`
}
