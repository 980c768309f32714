package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

func newTestManager() *HTTPNetworkManager {
	cfg := &models.MConfig{Network: models.MNetworkConfig{RequestTimeout: 5, UserAgent: "watchlist-test"}}
	return NewHTTPNetworkManager(cfg, logger.NewWithWriter(io.Discard, "Network", logger.LevelDebug))
}

func TestGetEncodesParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "BRK B" {
			t.Errorf("q = %q", r.URL.Query().Get("q"))
		}
		if ua := r.Header.Get("User-Agent"); ua != "watchlist-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	body, err := newTestManager().Get(context.Background(), srv.URL+"/search/", map[string]string{"q": "BRK B"})
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if string(body) != "[]" {
		t.Fatalf("body = %q", body)
	}
}

func TestNon2xxBecomesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "model not trained"}`))
	}))
	defer srv.Close()

	_, err := newTestManager().Post(context.Background(), srv.URL)
	var re *helpers.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v; want RemoteError", err)
	}
	if re.StatusCode != 500 || re.Message != "model not trained" {
		t.Fatalf("RemoteError = %+v", re)
	}
}

func TestTransportFailureIsRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestManager().Get(context.Background(), url, nil)
	if !helpers.IsRemote(err) {
		t.Fatalf("err = %v; want RemoteError", err)
	}
}

func TestErrorMessageFallback(t *testing.T) {
	if got := ErrorMessage(404, []byte("<html>not found</html>")); got != "bad status: 404 Not Found" {
		t.Fatalf("ErrorMessage() = %q", got)
	}
	if got := ErrorMessage(404, []byte(`{"detail": "Not found."}`)); got != "Not found." {
		t.Fatalf("ErrorMessage() = %q", got)
	}
}
