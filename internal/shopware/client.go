// Package shopware implements a session-bound client for the Shopware 6
// Store API. Every request carries the sales channel access key and the
// context token of its session; token rotations announced by the backend
// are written back to the session store transparently.
package shopware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/session"
	"github.com/winni-bit/sw-demo-kiosk/internal/transport"
)

// storeAPIPath is the base path for Shopware Store API endpoints.
const storeAPIPath = "/store-api"

// userAgent identifies this client to upstream servers.
// Hosted Shopware instances rate-limit requests without a User-Agent.
const userAgent = "sw-demo-kiosk/1.0"

// accessKeyHeader authenticates the sales channel on every request.
const accessKeyHeader = "sw-access-key"

// Config holds the Store API connection settings for one session.
type Config struct {
	BaseURL   string
	AccessKey string
	Session   *session.Store

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client
}

// Client talks to the Shopware Store API on behalf of one session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	session    *session.Store
}

// New creates a Store API client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("access key is required")
	}
	if cfg.Session == nil {
		cfg.Session = session.New("")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Chrome TLS fingerprint transport avoids JA3-based rate
		// limiting. See internal/transport for rationale.
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		accessKey:  cfg.AccessKey,
		session:    cfg.Session,
	}, nil
}

// Session exposes the session store bound to this client.
func (c *Client) Session() *session.Store {
	return c.session
}

// Request executes a Store API call and returns the raw response body.
// The endpoint is relative to /store-api (e.g. "checkout/cart"). Query
// values are encoded as given, so repeated keys like "ids[]" survive.
// Non-2xx responses are returned as *model.StoreError when the backend
// sent its error envelope, or as *model.APIError otherwise.
func (c *Client) Request(ctx context.Context, method, endpoint string, query url.Values, body any) ([]byte, error) {
	reqURL := c.baseURL + storeAPIPath + "/" + strings.TrimPrefix(endpoint, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, model.NewInternalError(fmt.Errorf("encoding request body: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("building request: %w", err))
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("Shopware", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewUpstreamError("Shopware", fmt.Errorf("reading response: %w", err))
	}

	// The backend may rotate the context token on any response.
	c.session.Set(resp.Header.Get(session.TokenHeader))

	if resp.StatusCode >= 400 {
		return nil, c.parseErrorResponse(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// RequestJSON executes a Store API call and decodes the response into out.
// Pass nil out to discard the body.
func (c *Client) RequestJSON(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	respBody, err := c.Request(ctx, method, endpoint, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return model.NewUpstreamError("Shopware", fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// setHeaders sets the Store API headers: the access key authenticates
// the sales channel, the context token binds the session.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(accessKeyHeader, c.accessKey)

	if tok := c.session.Get(); tok != "" {
		req.Header.Set(session.TokenHeader, tok)
	}
}

// parseErrorResponse converts a Store API error into a typed error.
// The envelope is preferred because orchestrators branch on Shopware
// error codes; the status switch is the fallback for non-JSON bodies.
func (c *Client) parseErrorResponse(statusCode int, body []byte) error {
	var se model.StoreError
	if err := json.Unmarshal(body, &se); err == nil && len(se.Errors) > 0 {
		se.StatusCode = statusCode
		return &se
	}

	switch statusCode {
	case 404:
		return model.NewNotFoundError("resource")
	case 401, 403:
		return model.NewUnauthorizedError("Shopware authentication failed")
	case 400:
		return model.NewValidationError("request", strings.TrimSpace(string(body)))
	case 429:
		return model.NewRateLimitError("Shopware")
	default:
		return model.NewUpstreamError("Shopware",
			fmt.Errorf("status %d: %s", statusCode, strings.TrimSpace(string(body))))
	}
}
