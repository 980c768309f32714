package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-watchlist/src/config"
	"stock-watchlist/src/helpers"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/server"
	"stock-watchlist/src/watchlist"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file, .env and WATCHLIST_* variables
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger.Setup(config.MConfig)
	defer logger.Close()
	appLogger := logger.NewLogger(config.MConfig, config.Name)

	// 1. Persistent store and saved watchlist
	store, entries := setupStore(config.MConfig, appLogger)
	if store != nil {
		defer store.Close()
	}

	// 2. Remote gateway
	gateway, err := setupGateway(config.MConfig)
	if err != nil {
		appLogger.Critical("Failed to set up gateway: %v", err)
		os.Exit(1)
	}

	// 3. Watchlist core. The server becomes the notifier once it exists.
	reporter := helpers.NewErrorReporter(logger.NewLogger(config.MConfig, "Reporter"), nil)
	core := watchlist.NewCore(gateway, store, entries, reporter,
		logger.NewLogger(config.MConfig, "Watchlist"), watchlist.OptionsFromConfig(config.MConfig))

	// 4. Server
	srv := server.NewAPIServer(config.MConfig, core, logger.NewLogger(config.MConfig, "Server"))
	reporter.Notifier = srv
	core.Subscribe(srv.PublishSnapshot)

	// 5. Refresh controller, armed from the loaded watchlist
	controller, err := setupScheduler(config.MConfig, core)
	if err != nil {
		appLogger.Critical("Failed to set up scheduler: %v", err)
		os.Exit(1)
	}
	core.Subscribe(controller.OnWatchlistChange)
	controller.OnWatchlistChange(core.Snapshot())

	appLogger.Info("Initialization complete: %d entries, refresh every %ds",
		len(entries), config.Refresh.IntervalSeconds)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		appLogger.Info("Shutting down...")
	case err := <-serverErr:
		if err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}

	controller.Close()
	core.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Warning("Server shutdown: %v", err)
	}
}
