// Package frontstack implements the client for the Frontstack content
// API, which serves the kiosk's product catalog, category tree and
// content pages. Listings and blocks are POST endpoints; the regional
// context travels in the fs-context header.
package frontstack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/transport"
)

const (
	versionHeader    = "fs-version"
	contextHeader    = "fs-context"
	requestURLHeader = "fs-request-url"
)

const userAgent = "sw-demo-kiosk/1.0"

// Endpoint paths of the content API.
const (
	epAllProducts        = "/listing/allproductslisting"
	epProductsByCategory = "/listing/productsbycategorylisting"
	epCategoryListing    = "/listing/categorylisting"
	epProductCard        = "/block/productcard/"
	epCategoryCard       = "/block/categorycard/"
	epPage               = "/page/"
	epContext            = "/context"
	epContextToken       = "/context/token"
)

// Config holds the content API connection settings.
type Config struct {
	BaseURL string
	Version string // fs-version environment token

	// RequestURL, when set, is sent as fs-request-url for content
	// analytics attribution.
	RequestURL string

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client
}

// Client talks to the Frontstack content API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	requestURL string
}

// New creates a content API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("version token is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport.NewChromeTransport(30 * time.Second),
		}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		version:    cfg.Version,
		requestURL: cfg.RequestURL,
	}, nil
}

// AllProducts fetches the full product listing.
func (c *Client) AllProducts(ctx context.Context, contextKey string, q *Query) (*ProductListing, error) {
	var out ProductListing
	if err := c.invoke(ctx, http.MethodPost, epAllProducts, contextKey, listingPayload(nil, q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductsByCategory fetches the product listing of one category.
func (c *Client) ProductsByCategory(ctx context.Context, contextKey, categoryID string, q *Query) (*ProductListing, error) {
	var out ProductListing
	params := map[string]any{"categoryId": categoryID}
	if err := c.invoke(ctx, http.MethodPost, epProductsByCategory, contextKey, listingPayload(params, q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories fetches the category listing.
func (c *Client) Categories(ctx context.Context, contextKey string, q *Query) (*CategoryListing, error) {
	var out CategoryListing
	if err := c.invoke(ctx, http.MethodPost, epCategoryListing, contextKey, listingPayload(nil, q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProductCard fetches a single product by key.
func (c *Client) ProductCard(ctx context.Context, contextKey, key string) (*ProductCard, error) {
	var out ProductCard
	if err := c.invoke(ctx, http.MethodPost, epProductCard+key, contextKey, blockPayload(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CategoryCard fetches a single category by key.
func (c *Client) CategoryCard(ctx context.Context, contextKey, key string) (*CategoryCard, error) {
	var out CategoryCard
	if err := c.invoke(ctx, http.MethodPost, epCategoryCard+key, contextKey, blockPayload(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Page resolves a content page by its URL slug.
func (c *Client) Page(ctx context.Context, contextKey, slug string) (*Page, error) {
	var out Page
	if err := c.invoke(ctx, http.MethodGet, epPage+slug, contextKey, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Context fetches the regional context bound to a token.
func (c *Client) Context(ctx context.Context, token string) (*Context, error) {
	var out Context
	if err := c.invoke(ctx, http.MethodGet, epContextToken, token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ContextList fetches the selectable contexts. The API mints a token
// when none is provided; the (possibly new) token of the session is
// returned alongside the options.
func (c *Client) ContextList(ctx context.Context, token string) ([]ContextOption, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, epContext, token, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", model.NewUpstreamError("Frontstack", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", model.NewUpstreamError("Frontstack", fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode >= 400 {
		return nil, "", c.errorFromStatus(resp.StatusCode, body)
	}

	var options []ContextOption
	if err := json.Unmarshal(body, &options); err != nil {
		return nil, "", model.NewUpstreamError("Frontstack", fmt.Errorf("decoding response: %w", err))
	}
	return options, resp.Header.Get(contextHeader), nil
}

// ContextUpdate switches region and locale of a context token.
func (c *Client) ContextUpdate(ctx context.Context, region, locale, token string) (*Context, error) {
	var out Context
	body := map[string]string{"region": region, "locale": locale}
	if err := c.invoke(ctx, http.MethodPatch, epContext, token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// listingPayload wraps listing parameters and flattens the query into
// the request body the way the content API expects:
// {"param": {...}, "filter": [...], "limit": n, ...}.
func listingPayload(params map[string]any, q *Query) map[string]any {
	if params == nil {
		params = map[string]any{}
	}
	payload := map[string]any{"param": params}
	if q == nil {
		return payload
	}
	if len(q.Filter) > 0 {
		payload["filter"] = q.Filter
	}
	if len(q.Sort) > 0 {
		payload["sort"] = q.Sort
	}
	if q.Search != "" {
		payload["search"] = q.Search
	}
	if q.Limit > 0 {
		payload["limit"] = q.Limit
	}
	if q.Page > 0 {
		payload["page"] = q.Page
	}
	return payload
}

// blockPayload is the fixed body of block endpoints.
func blockPayload() map[string]any {
	return map[string]any{"param": map[string]any{}}
}

func (c *Client) newRequest(ctx context.Context, method, path, contextKey string, body any) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, model.NewInternalError(fmt.Errorf("encoding request body: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("building request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(versionHeader, c.version)
	if contextKey != "" {
		req.Header.Set(contextHeader, contextKey)
	}
	if c.requestURL != "" {
		req.Header.Set(requestURLHeader, c.requestURL)
	}
	return req, nil
}

func (c *Client) invoke(ctx context.Context, method, path, contextKey string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, contextKey, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUpstreamError("Frontstack", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewUpstreamError("Frontstack", fmt.Errorf("reading response: %w", err))
	}
	if resp.StatusCode >= 400 {
		return c.errorFromStatus(resp.StatusCode, respBody)
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return model.NewUpstreamError("Frontstack", fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c *Client) errorFromStatus(status int, body []byte) error {
	switch status {
	case 404:
		return model.NewNotFoundError("content")
	case 401, 403:
		return model.NewUnauthorizedError("Frontstack authentication failed")
	case 429:
		return model.NewRateLimitError("Frontstack")
	default:
		return model.NewUpstreamError("Frontstack",
			fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body))))
	}
}
