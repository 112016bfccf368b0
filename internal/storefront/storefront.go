// Package storefront wires the session-scoped services of the kiosk
// together. A Factory holds the shared pieces (content client, locale
// state, configuration); Session binds a full service set to one
// context token.
package storefront

import (
	"log/slog"
	"net/http"

	"github.com/winni-bit/sw-demo-kiosk/internal/account"
	"github.com/winni-bit/sw-demo-kiosk/internal/cart"
	"github.com/winni-bit/sw-demo-kiosk/internal/checkout"
	"github.com/winni-bit/sw-demo-kiosk/internal/config"
	"github.com/winni-bit/sw-demo-kiosk/internal/frontstack"
	"github.com/winni-bit/sw-demo-kiosk/internal/locale"
	"github.com/winni-bit/sw-demo-kiosk/internal/recommend"
	"github.com/winni-bit/sw-demo-kiosk/internal/session"
	"github.com/winni-bit/sw-demo-kiosk/internal/shopware"
)

// Factory builds session-bound storefronts. The content client and
// the locale state are shared: the kiosk has one screen language, not
// one per shopper session.
type Factory struct {
	store   config.StoreConfig
	content *frontstack.Client
	locale  *locale.Service
	logger  *slog.Logger

	// httpClient overrides the outbound client, used by tests.
	httpClient *http.Client
}

// Option customizes a Factory.
type Option func(*Factory)

// WithHTTPClient overrides the outbound HTTP client for both the
// Store API and the content API.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Factory) { f.httpClient = c }
}

// NewFactory creates the shared storefront infrastructure.
func NewFactory(store config.StoreConfig, logger *slog.Logger, opts ...Option) (*Factory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Factory{store: store, logger: logger}
	for _, opt := range opts {
		opt(f)
	}

	content, err := frontstack.New(frontstack.Config{
		BaseURL:    store.FrontstackURL,
		Version:    store.FrontstackVersion,
		RequestURL: store.StorefrontURL,
		HTTPClient: f.httpClient,
	})
	if err != nil {
		return nil, err
	}
	f.content = content
	f.locale = locale.NewService(content, locale.Parse(store.DefaultLanguage), logger)
	return f, nil
}

// Content returns the shared content API client.
func (f *Factory) Content() *frontstack.Client {
	return f.content
}

// Locale returns the shared locale state.
func (f *Factory) Locale() *locale.Service {
	return f.locale
}

// Storefront is the full service set of one shopper session.
type Storefront struct {
	Session   *session.Store
	Shopware  *shopware.Client
	Content   *frontstack.Client
	Locale    *locale.Service
	Cart      *cart.Service
	Checkout  *checkout.Service
	Account   *account.Service
	Recommend *recommend.Service
}

// Session binds a storefront to the given context token. An empty
// token starts an anonymous session; Shopware mints a token on the
// first Store API call.
func (f *Factory) Session(token string) (*Storefront, error) {
	store := session.New(token)
	client, err := shopware.New(shopware.Config{
		BaseURL:    f.store.ShopwareURL,
		AccessKey:  f.store.AccessKey,
		Session:    store,
		HTTPClient: f.httpClient,
	})
	if err != nil {
		return nil, err
	}

	cartSvc := cart.New(client, f.logger)
	accountSvc := account.New(client, cartSvc, f.store.StorefrontURL, f.logger)
	return &Storefront{
		Session:   store,
		Shopware:  client,
		Content:   f.content,
		Locale:    f.locale,
		Cart:      cartSvc,
		Checkout:  checkout.New(client, cartSvc, f.locale, f.logger),
		Account:   accountSvc,
		Recommend: recommend.New(f.content, accountSvc, f.locale.ContextKey, f.logger),
	}, nil
}
