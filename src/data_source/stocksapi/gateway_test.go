package stocksapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
	"stock-watchlist/src/network"
)

const detailsJSON = `{
	"id": 7,
	"symbol": "AAPL",
	"name": "Apple Inc.",
	"last_price": "189.84",
	"updated_at": "2026-10-15T14:30:00Z",
	"price_history": [
		{"date": "2026-10-15", "open_price": "188.00", "high_price": "190.10", "low_price": "187.50", "close_price": "189.84", "volume": 51234000}
	],
	"marketCap": 2950000000000,
	"peRatio": 29.4,
	"priceChange": 1.23,
	"percentChange": 0.0065,
	"sector": "Technology",
	"industry": null
}`

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewWithWriter(io.Discard, "Gateway", logger.LevelDebug)
	cfg := &models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 5}}
	return NewGateway(srv.URL+"/api/", network.NewHTTPNetworkManager(cfg, log), log)
}

func TestSearch(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stocks/search/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if q := r.URL.Query().Get("q"); q != "AAPL" {
			t.Errorf("q = %q; want upper-cased AAPL", q)
		}
		w.Write([]byte(`[{"id": 7, "symbol": "AAPL", "name": "Apple Inc.", "last_price": "189.84"}, {"id": 8, "symbol": ""}]`))
	})

	got, err := g.Search(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("Search() = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d; want 1 (symbol-less result dropped)", len(got))
	}
	if got[0].ID != "7" || got[0].LastPrice.Decimal.String() != "189.84" {
		t.Fatalf("entry = %+v", got[0])
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called for an empty query")
	})
	if _, err := g.Search(context.Background(), "   "); !helpers.IsValidation(err) {
		t.Fatalf("err = %v; want validation error", err)
	}
}

func TestFetchDetails(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stocks/7/details/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(detailsJSON))
	})

	d, err := g.FetchDetails(context.Background(), "7")
	if err != nil {
		t.Fatalf("FetchDetails() = %v", err)
	}
	if d.Symbol != "AAPL" || d.LastPrice.Decimal.String() != "189.84" {
		t.Errorf("entry fields = %+v", d.MWatchlistEntry)
	}
	if len(d.PriceHistory) != 1 || d.PriceHistory[0].Volume != 51234000 {
		t.Errorf("history = %+v", d.PriceHistory)
	}
	if !d.PriceChange.Valid || d.PriceChange.Decimal.String() != "1.23" {
		t.Errorf("priceChange = %+v", d.PriceChange)
	}
	if d.Sector != "Technology" || d.Industry != "" {
		t.Errorf("sector/industry = %q/%q", d.Sector, d.Industry)
	}
	if d.PredictedPrice.Valid {
		t.Errorf("predicted price should be absent")
	}
}

func TestFetchDetailsError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "No data found, symbol may be delisted"}`))
	})

	_, err := g.FetchDetails(context.Background(), "9")
	re, ok := err.(*helpers.RemoteError)
	if !ok {
		t.Fatalf("err = %T %v; want *RemoteError", err, err)
	}
	if re.Operation != "details" || re.StatusCode != 500 || re.Message != "No data found, symbol may be delisted" {
		t.Fatalf("RemoteError = %+v", re)
	}
}

func TestRequestPrediction(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/stocks/7/predict_price/" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"predicted_price": 192.5, "prediction_date": "2026-10-16", "model_accuracy": 0.87}`))
	})

	p, err := g.RequestPrediction(context.Background(), "7")
	if err != nil {
		t.Fatalf("RequestPrediction() = %v", err)
	}
	if p.PredictedPrice.Decimal.String() != "192.5" || p.PredictionDate != "2026-10-16" || p.ModelAccuracy.Decimal.String() != "0.87" {
		t.Fatalf("prediction = %+v", p)
	}
}

func TestRequestPredictionWithoutPrice(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prediction_date": "2026-10-16"}`))
	})
	if _, err := g.RequestPrediction(context.Background(), "7"); !helpers.IsRemote(err) {
		t.Fatalf("err = %v; want RemoteError", err)
	}
}
