package interfaces

import (
	"context"

	"stock-watchlist/src/models"
)

// -----------------------------------------------------------------------------
// IRemoteGateway is the quote and prediction service. Every call is single-shot
// and fails with a *helpers.RemoteError.
// -----------------------------------------------------------------------------

type IRemoteGateway interface {

	// Name identifies the gateway in logs
	Name() string

	// -----------------------------------------------------------------------------

	// Search returns candidate entries for query, possibly none.
	Search(ctx context.Context, query string) ([]models.MWatchlistEntry, error)

	// -----------------------------------------------------------------------------

	// FetchDetails returns current quote fields and the recent price history.
	FetchDetails(ctx context.Context, id models.StockID) (*models.MStockDetails, error)

	// -----------------------------------------------------------------------------

	// RequestPrediction asks the model service for a predicted price. Not idempotent.
	RequestPrediction(ctx context.Context, id models.StockID) (*models.MPrediction, error)
}
