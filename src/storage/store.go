package storage

import (
	"fmt"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/interfaces"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

// NewStore picks the backend named by cfg.Storage.DBType. The store still
// needs Initialize.
func NewStore(cfg *models.MConfig, log *logger.Logger) (interfaces.IWatchlistStore, error) {
	switch cfg.Storage.DBType {
	case "file", "":
		return NewFileStore(cfg, log), nil
	case "sqlite":
		return NewSQLiteStore(cfg, log), nil
	case "postgres":
		return NewPostgresStore(cfg, log)
	default:
		return nil, fmt.Errorf("unknown database type: %q", cfg.Storage.DBType)
	}
}

// -----------------------------------------------------------------------------

// LoadOrEmpty returns the stored watchlist. Unreadable or corrupt data yields
// an empty list and a *helpers.PersistenceError the caller may report; the
// process keeps going either way.
func LoadOrEmpty(store interfaces.IWatchlistStore, log *logger.Logger) ([]models.MWatchlistEntry, error) {
	entries, err := store.Load()
	if err != nil {
		log.Warning("Stored watchlist unreadable, starting empty: %v", err)
		return []models.MWatchlistEntry{}, helpers.NewPersistenceError("failed to load watchlist", err)
	}

	out := Dedupe(entries)
	if dropped := len(entries) - len(out); dropped > 0 {
		log.Warning("Dropped %d duplicate or symbol-less entries from stored watchlist", dropped)
	}
	log.Info("Loaded %d watchlist entries", len(out))
	return out, nil
}

// -----------------------------------------------------------------------------

// Dedupe keeps the first entry per symbol and drops entries without a symbol.
func Dedupe(entries []models.MWatchlistEntry) []models.MWatchlistEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]models.MWatchlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.Symbol == "" {
			continue
		}
		if _, ok := seen[e.Symbol]; ok {
			continue
		}
		seen[e.Symbol] = struct{}{}
		out = append(out, e)
	}
	return out
}
