package interfaces

import "stock-watchlist/src/models"

// -----------------------------------------------------------------------------
// IWatchlistStore defines the contract for durable watchlist snapshots.
// -----------------------------------------------------------------------------

type IWatchlistStore interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the backing storage and creates its schema if needed.
	Initialize() error

	// -----------------------------------------------------------------------------

	// Load returns the last saved watchlist in order. A store that was never
	// written returns an empty slice and no error.
	Load() ([]models.MWatchlistEntry, error)

	// -----------------------------------------------------------------------------

	// Save overwrites the snapshot with entries.
	Save(entries []models.MWatchlistEntry) error

	// -----------------------------------------------------------------------------

	// Close the underlying connection or file handles
	Close() error
}
