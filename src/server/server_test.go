package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
	"stock-watchlist/src/watchlist"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type stubGateway struct{}

func (stubGateway) Name() string { return "stub" }

func (stubGateway) Search(ctx context.Context, q string) ([]models.MWatchlistEntry, error) {
	if q == "NONE" {
		return nil, nil
	}
	return []models.MWatchlistEntry{{ID: "1", Symbol: "AAPL", Name: "Apple Inc."}}, nil
}

func (stubGateway) FetchDetails(ctx context.Context, id models.StockID) (*models.MStockDetails, error) {
	if id == "404" {
		return nil, helpers.NewRemoteError("details", 404, "Stock not found", nil)
	}
	return &models.MStockDetails{MWatchlistEntry: models.MWatchlistEntry{
		ID:        id,
		Symbol:    "AAPL",
		LastPrice: decimal.NewNullDecimal(decimal.RequireFromString("187.5")),
	}}, nil
}

func (stubGateway) RequestPrediction(ctx context.Context, id models.StockID) (*models.MPrediction, error) {
	return &models.MPrediction{
		PredictedPrice: decimal.NewNullDecimal(decimal.RequireFromString("190")),
		PredictionDate: "2026-10-19",
	}, nil
}

func newTestServer(t *testing.T) *APIServer {
	t.Helper()
	log := logger.NewWithWriter(io.Discard, "Server", logger.LevelDebug)
	reporter := helpers.NewErrorReporter(log, nil)
	core := watchlist.NewCore(stubGateway{}, nil, nil, reporter, log, watchlist.Options{Concurrency: 2})

	s := NewAPIServer(&models.MConfig{Host: "127.0.0.1", Port: 8765}, core, log)
	reporter.Notifier = s
	unsubscribe := core.Subscribe(s.PublishSnapshot)
	t.Cleanup(func() {
		unsubscribe()
		core.Close()
		s.Shutdown(context.Background())
	})
	return s
}

func do(t *testing.T, s *APIServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// -----------------------------------------------------------------------------

func TestAddAndRemoveOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/watchlist", `{"id": 1, "symbol": "AAPL", "name": "Apple Inc."}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("first add = %d %s", w.Code, w.Body)
	}
	w = do(t, s, http.MethodPost, "/api/watchlist", `{"id": 1, "symbol": "AAPL"}`)
	var added struct {
		Outcome  string                    `json:"outcome"`
		Snapshot models.MWatchlistSnapshot `json:"snapshot"`
	}
	decode(t, w, &added)
	if w.Code != http.StatusOK || added.Outcome != "already_present" || len(added.Snapshot.Entries) != 1 {
		t.Fatalf("duplicate add = %d %+v", w.Code, added)
	}

	w = do(t, s, http.MethodDelete, "/api/watchlist/AAPL", "")
	var removed struct {
		Removed bool `json:"removed"`
	}
	decode(t, w, &removed)
	if !removed.Removed {
		t.Errorf("remove = %s", w.Body)
	}

	w = do(t, s, http.MethodDelete, "/api/watchlist/AAPL", "")
	decode(t, w, &removed)
	if w.Code != http.StatusOK || removed.Removed {
		t.Errorf("second remove = %d %s", w.Code, w.Body)
	}
}

func TestAddRejectsBadBody(t *testing.T) {
	s := newTestServer(t)
	if w := do(t, s, http.MethodPost, "/api/watchlist", `{"id": 1}`); w.Code != http.StatusBadRequest {
		t.Errorf("symbol-less add = %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/api/watchlist", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("malformed add = %d", w.Code)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	s := newTestServer(t)
	do(t, s, http.MethodPost, "/api/watchlist", `{"id": 1, "symbol": "AAPL"}`)

	w := do(t, s, http.MethodPost, "/api/watchlist/refresh", "")
	var report models.MRefreshReport
	decode(t, w, &report)
	if len(report.Refreshed) != 1 || report.Skipped {
		t.Fatalf("report = %+v", report)
	}

	w = do(t, s, http.MethodGet, "/api/watchlist", "")
	var snap models.MWatchlistSnapshot
	decode(t, w, &snap)
	if snap.Entries[0].LastPrice.Decimal.String() != "187.5" {
		t.Errorf("last price = %v", snap.Entries[0].LastPrice)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/stocks/search?q=", "")
	var body map[string]string
	decode(t, w, &body)
	if w.Code != http.StatusBadRequest || body["error"] == "" {
		t.Errorf("empty query = %d %s", w.Code, w.Body)
	}

	w = do(t, s, http.MethodGet, "/api/stocks/search?q=NONE", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("no results = %d %s", w.Code, w.Body)
	}

	w = do(t, s, http.MethodGet, "/api/stocks/search?q=aap", "")
	var results []models.MWatchlistEntry
	decode(t, w, &results)
	if len(results) != 1 || results[0].Symbol != "AAPL" {
		t.Errorf("results = %+v", results)
	}
}

func TestDetailsNotFound(t *testing.T) {
	s := newTestServer(t)
	if w := do(t, s, http.MethodGet, "/api/stocks/404/details", ""); w.Code != http.StatusNotFound {
		t.Errorf("details = %d %s", w.Code, w.Body)
	}
	if w := do(t, s, http.MethodGet, "/api/stocks/7/details", ""); w.Code != http.StatusOK {
		t.Errorf("details = %d %s", w.Code, w.Body)
	}
}

func TestSelectionEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodPut, "/api/selected", `{"id": 1, "symbol": "AAPL"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("select = %d %s", w.Code, w.Body)
	}
	s.Core.Wait()

	w = do(t, s, http.MethodGet, "/api/selected", "")
	var sel struct {
		Selected *models.MWatchlistEntry `json:"selected"`
	}
	decode(t, w, &sel)
	if sel.Selected == nil || sel.Selected.PredictedPrice.Decimal.String() != "190" {
		t.Fatalf("selected = %+v", sel.Selected)
	}

	if w := do(t, s, http.MethodDelete, "/api/selected", ""); w.Code != http.StatusNoContent {
		t.Errorf("clear = %d", w.Code)
	}
	if s.Core.Selected() != nil {
		t.Error("selection not cleared")
	}
}

func TestWebsocketPushesSnapshots(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg models.MServerMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != models.MessageSnapshot {
		t.Fatalf("initial message = %+v, %v", msg, err)
	}

	// Wait until the hub has registered the client before mutating.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.stateMutex.RLock()
		n := s.connected
		s.stateMutex.RUnlock()
		if n == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/api/watchlist", "application/json", bytes.NewBufferString(`{"id": 1, "symbol": "AAPL"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	msg = models.MServerMessage{}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != models.MessageSnapshot || msg.Snapshot == nil || len(msg.Snapshot.Entries) != 1 {
		t.Fatalf("pushed message = %+v", msg)
	}

	// Removal confirmation arrives as a notification after the snapshot.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/watchlist/AAPL", nil)
	if err != nil {
		t.Fatal(err)
	}
	if r, err := http.DefaultClient.Do(req); err == nil {
		r.Body.Close()
	}

	var sawNotification bool
	for i := 0; i < 2; i++ {
		var next models.MServerMessage
		if err := conn.ReadJSON(&next); err != nil {
			t.Fatalf("read: %v", err)
		}
		if next.Type == models.MessageNotification && next.Notification.Symbol == "AAPL" {
			sawNotification = true
		}
	}
	if !sawNotification {
		t.Error("no removal notification")
	}
}

func TestWebsocketSnapshotCommand(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial models.MServerMessage
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("initial read: %v", err)
	}

	// Mutate without going through the hub, then ask for a resync.
	if _, err := s.Core.Add(models.MWatchlistEntry{ID: "1", Symbol: "AAPL"}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(models.MClientCommand{Command: "snapshot"}); err != nil {
		t.Fatal(err)
	}

	// The push from Add and the resync reply may both arrive; either way the
	// latest snapshot carries AAPL.
	for i := 0; i < 2; i++ {
		var msg models.MServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != models.MessageSnapshot || msg.Snapshot == nil || len(msg.Snapshot.Entries) != 1 {
			t.Fatalf("message = %+v", msg)
		}
	}

	// Malformed commands drop the connection.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	for {
		var msg models.MServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
	}
}
