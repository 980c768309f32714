package datasource

import (
	"io"
	"testing"

	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

func TestNewGatewayByType(t *testing.T) {
	log := logger.NewWithWriter(io.Discard, "Gateway", logger.LevelDebug)

	cases := map[string]string{
		"api":   "stocks-api",
		"":      "stocks-api",
		"yahoo": "yahoo",
	}
	for typ, want := range cases {
		cfg := &models.MConfig{Gateway: models.MGatewayConfig{Type: typ, BaseURL: "http://127.0.0.1:8000/api"}}
		gw, err := NewGateway(cfg, nil, log)
		if err != nil {
			t.Fatalf("NewGateway(%q) = %v", typ, err)
		}
		if gw.Name() != want {
			t.Errorf("NewGateway(%q).Name() = %q; want %q", typ, gw.Name(), want)
		}
	}

	if _, err := NewGateway(&models.MConfig{Gateway: models.MGatewayConfig{Type: "bloomberg"}}, nil, log); err == nil {
		t.Error("expected an error for an unknown gateway")
	}
}
