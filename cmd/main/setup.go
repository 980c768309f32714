package main

import (
	"time"

	datasource "stock-watchlist/src/data_source"
	"stock-watchlist/src/interfaces"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
	"stock-watchlist/src/network"
	"stock-watchlist/src/scheduler"
	"stock-watchlist/src/storage"
	"stock-watchlist/src/watchlist"
)

// -----------------------------------------------------------------------------

// setupStore opens the configured store and loads the saved watchlist. A
// store that cannot be opened or read leaves the session ephemeral.
func setupStore(config *models.MConfig, appLogger *logger.Logger) (interfaces.IWatchlistStore, []models.MWatchlistEntry) {
	storeLogger := logger.NewLogger(config, "Store")

	store, err := storage.NewStore(config, storeLogger)
	if err != nil {
		appLogger.Error("Failed to create store: %v", err)
		return nil, nil
	}
	if err := store.Initialize(); err != nil {
		appLogger.Error("Failed to open store, changes will not be saved: %v", err)
		store.Close()
		return nil, nil
	}

	entries, err := storage.LoadOrEmpty(store, storeLogger)
	if err != nil {
		appLogger.Warning("%v", err)
	}
	return store, entries
}

// -----------------------------------------------------------------------------

// setupGateway wires the HTTP client and the configured quote gateway.
func setupGateway(config *models.MConfig) (interfaces.IRemoteGateway, error) {
	netManager := network.NewHTTPNetworkManager(config, logger.NewLogger(config, "Network"))
	return datasource.NewGateway(config, netManager, logger.NewLogger(config, "Gateway"))
}

// -----------------------------------------------------------------------------

// setupScheduler builds the refresh controller for core.
func setupScheduler(config *models.MConfig, core *watchlist.Core) (*scheduler.RefreshController, error) {
	schedLogger := logger.NewLogger(config, "Scheduler")
	hours, err := scheduler.NewMarketHours(config, schedLogger)
	if err != nil {
		return nil, err
	}
	interval := time.Duration(config.Refresh.IntervalSeconds) * time.Second
	return scheduler.NewRefreshController(core, scheduler.RealClock{}, hours, interval, schedLogger), nil
}
