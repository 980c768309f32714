package stocksapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/interfaces"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

// Gateway talks to the stocks backend:
//
//	GET  {base}/stocks/search/?q={query}
//	GET  {base}/stocks/{id}/details/
//	POST {base}/stocks/{id}/predict_price/
type Gateway struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewGateway(baseURL string, netMgr interfaces.INetworkManager, log *logger.Logger) *Gateway {
	return &Gateway{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (g *Gateway) Name() string {
	return "stocks-api"
}

// -----------------------------------------------------------------------------

// Search queries the backend. The backend upper-cases the query itself; doing it
// here keeps logs consistent.
func (g *Gateway) Search(ctx context.Context, query string) ([]models.MWatchlistEntry, error) {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil, helpers.NewValidationError("search query is required")
	}

	body, err := g.Network.Get(ctx, g.BaseURL+"/stocks/search/", map[string]string{"q": query})
	if err != nil {
		return nil, annotate(err, "search", query)
	}

	var results []models.MWatchlistEntry
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, helpers.NewRemoteError("search", 200, "malformed search response", err)
	}

	// Drop results without a symbol, they cannot be tracked.
	out := results[:0]
	for _, r := range results {
		if r.Symbol != "" {
			out = append(out, r)
		}
	}
	g.Logger.Debug("Search %q returned %d candidates", query, len(out))
	return out, nil
}

// -----------------------------------------------------------------------------

func (g *Gateway) FetchDetails(ctx context.Context, id models.StockID) (*models.MStockDetails, error) {
	if id == "" {
		return nil, helpers.NewValidationError("stock id is required")
	}

	body, err := g.Network.Get(ctx, g.stockURL(id, "details"), nil)
	if err != nil {
		return nil, annotate(err, "details", id.String())
	}

	var details models.MStockDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, helpers.NewRemoteError("details", 200, "malformed details response", err)
	}
	if details.ID == "" {
		details.ID = id
	}
	return &details, nil
}

// -----------------------------------------------------------------------------

func (g *Gateway) RequestPrediction(ctx context.Context, id models.StockID) (*models.MPrediction, error) {
	if id == "" {
		return nil, helpers.NewValidationError("stock id is required")
	}

	body, err := g.Network.Post(ctx, g.stockURL(id, "predict_price"))
	if err != nil {
		return nil, annotate(err, "predict_price", id.String())
	}

	var prediction models.MPrediction
	if err := json.Unmarshal(body, &prediction); err != nil {
		return nil, helpers.NewRemoteError("predict_price", 200, "malformed prediction response", err)
	}
	if !prediction.PredictedPrice.Valid {
		return nil, helpers.NewRemoteError("predict_price", 200, "prediction response has no predicted_price", nil)
	}
	return &prediction, nil
}

// -----------------------------------------------------------------------------

func (g *Gateway) stockURL(id models.StockID, action string) string {
	return fmt.Sprintf("%s/stocks/%s/%s/", g.BaseURL, url.PathEscape(id.String()), action)
}

// annotate fills the operation of a RemoteError coming from the network layer.
func annotate(err error, operation, subject string) error {
	if re, ok := err.(*helpers.RemoteError); ok {
		re.Operation = operation
		if re.StatusCode == 0 {
			re.Message = fmt.Sprintf("%s %s: %s", operation, subject, re.Message)
		}
		return re
	}
	return helpers.NewRemoteError(operation, 0, fmt.Sprintf("%s %s failed", operation, subject), err)
}
