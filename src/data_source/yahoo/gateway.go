package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"stock-watchlist/src/analysis"
	"stock-watchlist/src/analysis/core"
	"stock-watchlist/src/helpers"
	"stock-watchlist/src/interfaces"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Gateway serves quotes straight from Yahoo Finance and computes predictions
// locally from a trend fit. Ids are the symbols themselves.
type Gateway struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewGateway(baseURL string, netMgr interfaces.INetworkManager, log *logger.Logger) *Gateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Gateway{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (g *Gateway) Name() string {
	return "yahoo"
}

// -----------------------------------------------------------------------------

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search lists matching equities and ETFs.
func (g *Gateway) Search(ctx context.Context, query string) ([]models.MWatchlistEntry, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil, helpers.NewValidationError("search query is required")
	}

	body, err := g.Network.Get(ctx, g.BaseURL+"/v1/finance/search", map[string]string{
		"q":           query,
		"quotesCount": "10",
		"newsCount":   "0",
	})
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, helpers.NewRemoteError("search", 200, "malformed search response", err)
	}

	var out []models.MWatchlistEntry
	for _, q := range resp.Quotes {
		if q.Symbol == "" || (q.QuoteType != "" && q.QuoteType != "EQUITY" && q.QuoteType != "ETF") {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		out = append(out, models.MWatchlistEntry{
			ID:     models.StockID(q.Symbol),
			Symbol: q.Symbol,
			Name:   name,
		})
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// FetchDetails builds the details payload from one month of daily bars.
func (g *Gateway) FetchDetails(ctx context.Context, id models.StockID) (*models.MStockDetails, error) {
	cd, err := g.fetchChart(ctx, id, "1mo")
	if err != nil {
		return nil, err
	}

	d := &models.MStockDetails{
		MWatchlistEntry: models.MWatchlistEntry{
			ID:        id,
			Symbol:    cd.symbol,
			Name:      cd.name,
			LastPrice: nullDecimal(cd.price),
		},
	}
	if cd.marketTime > 0 {
		d.UpdatedAt = time.Unix(cd.marketTime, 0).UTC().Format(time.RFC3339)
	}

	if prev := cd.previousClose(); prev > 0 {
		d.PriceChange = nullDecimal(cd.price-prev)
		d.PercentChange = nullDecimal(core.CalculateChangePercent(cd.price, prev))
	}

	lows := make([]float64, len(cd.bars))
	highs := make([]float64, len(cd.bars))
	volumes := make([]float64, len(cd.bars))
	for i, b := range cd.bars {
		lows[i], highs[i], volumes[i] = b.low, b.high, b.volume
		d.PriceHistory = append(d.PriceHistory, models.MPricePoint{
			Date:       cd.barDate(b).Format("2006-01-02"),
			OpenPrice:  decimal.NewFromFloat(b.open).Round(2),
			HighPrice:  decimal.NewFromFloat(b.high).Round(2),
			LowPrice:   decimal.NewFromFloat(b.low).Round(2),
			ClosePrice: decimal.NewFromFloat(b.close).Round(2),
			Volume:     int64(b.volume),
		})
	}

	if len(cd.bars) > 0 {
		last := cd.bars[len(cd.bars)-1]
		d.DayLow = pickDecimal(cd.dayLow, last.low)
		d.DayHigh = pickDecimal(cd.dayHigh, last.high)
		d.Volume = pickDecimal(cd.volume, last.volume)
		low, high := core.PriceRange(lows, highs)
		d.YearLow = pickDecimal(cd.yearLow, low)
		d.YearHigh = pickDecimal(cd.yearHigh, high)
		d.AvgVolume = nullDecimal(core.AverageVolume(volumes))
	}

	return d, nil
}

// -----------------------------------------------------------------------------

// RequestPrediction fits a line through three months of closes.
func (g *Gateway) RequestPrediction(ctx context.Context, id models.StockID) (*models.MPrediction, error) {
	cd, err := g.fetchChart(ctx, id, "3mo")
	if err != nil {
		return nil, err
	}
	if len(cd.bars) == 0 {
		return nil, helpers.NewRemoteError("predict_price", 0, fmt.Sprintf("no history for %s", id), nil)
	}

	lastDate := cd.barDate(cd.bars[len(cd.bars)-1])
	trend, err := analysis.PredictNextClose(cd.closes(), lastDate)
	if err != nil {
		return nil, helpers.NewRemoteError("predict_price", 0, fmt.Sprintf("cannot predict %s", id), err)
	}

	return &models.MPrediction{
		PredictedPrice: nullDecimal(trend.Price),
		PredictionDate: trend.Date.Format("2006-01-02"),
		ModelAccuracy:  decimal.NewNullDecimal(decimal.NewFromFloat(trend.Accuracy).Round(4)),
	}, nil
}

// -----------------------------------------------------------------------------

func (g *Gateway) fetchChart(ctx context.Context, id models.StockID, rangeStr string) (*chartData, error) {
	if id == "" {
		return nil, helpers.NewValidationError("stock id is required")
	}
	symbol := id.String()

	params := map[string]string{
		"interval":       "1d",
		"range":          rangeStr,
		"includePrePost": "false",
	}
	body, err := g.Network.Get(ctx, fmt.Sprintf("%s/v8/finance/chart/%s", g.BaseURL, url.PathEscape(symbol)), params)
	if err != nil {
		return nil, err
	}

	cd, err := parseChartResponse(symbol, body)
	if err != nil {
		return nil, helpers.NewRemoteError("chart", 200, err.Error(), nil)
	}
	g.Logger.Debug("Fetched %s: %d daily bars", symbol, len(cd.bars))
	return cd, nil
}

// -----------------------------------------------------------------------------

func nullDecimal(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(4))
}

func pickDecimal(preferred *float64, fallback float64) decimal.NullDecimal {
	if preferred != nil {
		return nullDecimal(*preferred)
	}
	return nullDecimal(fallback)
}
