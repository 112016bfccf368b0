// Package gateway forwards storefront requests to the Shopware Store
// API. It exists so the sales channel access key never reaches the
// kiosk frontend: browsers call /api/shopware/{path}, the gateway
// injects the key and relays the session token in both directions.
package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/winni-bit/sw-demo-kiosk/internal/session"
	"github.com/winni-bit/sw-demo-kiosk/internal/transport"
)

const storeAPIPath = "/store-api"

const accessKeyHeader = "sw-access-key"

// userAgent identifies the gateway to the Store API backend.
const userAgent = "sw-demo-kiosk/1.0"

// Handler proxies /api/shopware/{path...} to the Store API.
type Handler struct {
	httpClient *http.Client
	backendURL string
	accessKey  string
	logger     *slog.Logger
}

// Config holds the gateway settings.
type Config struct {
	BackendURL string
	AccessKey  string
	Logger     *slog.Logger

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client
}

// New creates a gateway handler.
func New(cfg Config) (*Handler, error) {
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("access key is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		}
	}

	return &Handler{
		httpClient: httpClient,
		backendURL: strings.TrimSuffix(cfg.BackendURL, "/"),
		accessKey:  cfg.AccessKey,
		logger:     cfg.Logger,
	}, nil
}

// Forward handles one proxied Store API call. Register it on a mux as
// "/api/shopware/{path...}".
func (h *Handler) Forward(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	targetURL := h.backendURL + storeAPIPath + "/" + path
	if r.URL.RawQuery != "" {
		// Relay the query string verbatim so repeated keys like
		// ids[] reach the backend unchanged.
		targetURL += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL, body)
	if err != nil {
		h.writeTransportError(w, err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(accessKeyHeader, h.accessKey)
	if tok := session.FromRequest(r); tok != "" {
		req.Header.Set(session.TokenHeader, tok)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.writeTransportError(w, err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		h.writeTransportError(w, err)
		return
	}

	// Rotated tokens go back on both channels so browser and API
	// clients stay on the same session.
	session.Write(w, resp.Header.Get(session.TokenHeader))

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if resp.StatusCode >= 400 {
		h.logger.Warn("store api error",
			"path", path,
			"method", r.Method,
			"status", resp.StatusCode)
	}
	// Backend errors pass through with their original status and
	// body; the frontend owns the interpretation.
	w.WriteHeader(resp.StatusCode)
	w.Write(respBody)
}

// writeTransportError reports a failure to reach the backend at all.
func (h *Handler) writeTransportError(w http.ResponseWriter, err error) {
	h.logger.Error("store api unreachable", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "failed to connect to store API",
	})
}
