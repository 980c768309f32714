package datasource

import (
	"fmt"

	"stock-watchlist/src/data_source/stocksapi"
	"stock-watchlist/src/data_source/yahoo"
	"stock-watchlist/src/interfaces"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

// NewGateway returns the remote gateway named by cfg.Gateway.Type.
func NewGateway(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) (interfaces.IRemoteGateway, error) {
	var gw interfaces.IRemoteGateway
	switch cfg.Gateway.Type {
	case "api", "":
		gw = stocksapi.NewGateway(cfg.Gateway.BaseURL, netMgr, log)
	case "yahoo":
		gw = yahoo.NewGateway(cfg.Gateway.BaseURL, netMgr, log)
	default:
		return nil, fmt.Errorf("unknown gateway type: %q", cfg.Gateway.Type)
	}
	log.Info("Using %s gateway", gw.Name())
	return gw, nil
}
