package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"stock-watchlist/src/helpers"
	"stock-watchlist/src/interfaces"
	"stock-watchlist/src/logger"
	"stock-watchlist/src/models"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

type HTTPNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Logger       *logger.Logger

	mu     sync.Mutex
	client *http.Client
}

// -----------------------------------------------------------------------------

func NewHTTPNetworkManager(cfg *models.MConfig, log *logger.Logger) *HTTPNetworkManager {
	var proxies []string
	if cfg.Network.Enabled {
		proxies = cfg.Network.Proxies
	}

	nm := &HTTPNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent, log),
		Logger:       log,
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *HTTPNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// rotateProxy switches the client to the next proxy for subsequent requests.
func (nm *HTTPNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	nm.mu.Lock()
	nm.client = nm.createClient()
	nm.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Get performs a single GET request.
func (nm *HTTPNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewRemoteError("GET", 0, fmt.Sprintf("invalid url %q", urlStr), err)
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	return nm.do(ctx, http.MethodGet, reqURL.String())
}

// -----------------------------------------------------------------------------

// Post performs a single body-less POST request.
func (nm *HTTPNetworkManager) Post(ctx context.Context, urlStr string) ([]byte, error) {
	return nm.do(ctx, http.MethodPost, urlStr)
}

// -----------------------------------------------------------------------------

func (nm *HTTPNetworkManager) do(ctx context.Context, method, finalURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, finalURL, nil)
	if err != nil {
		return nil, helpers.NewRemoteError(method, 0, "failed to build request", err)
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	nm.mu.Lock()
	client := nm.client
	nm.mu.Unlock()

	resp, err := client.Do(req)
	if err != nil {
		nm.Logger.Info("Request %s %s failed: %v", method, finalURL, err)
		return nil, helpers.NewRemoteError(method, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, helpers.NewRemoteError(method, resp.StatusCode, "failed to read response", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		nm.Logger.Info("Request blocked (%d). Rotating proxy.", resp.StatusCode)
		nm.rotateProxy()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, helpers.NewRemoteError(method, resp.StatusCode, ErrorMessage(resp.StatusCode, body), nil)
	}

	return body, nil
}

// -----------------------------------------------------------------------------

// ErrorMessage extracts the human-readable message of an error response.
// The backend answers {"error": "..."}; anything else falls back to the status.
func ErrorMessage(status int, body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Detail); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("bad status: %d %s", status, http.StatusText(status))
}
