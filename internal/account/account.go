// Package account handles customer authentication and order history
// against the Store API. A logged-in state is carried entirely by the
// session context token; this service caches the customer entity and
// the master data the registration form needs.
package account

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/winni-bit/sw-demo-kiosk/internal/cart"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/shopware"
)

const (
	msgLoginFailed    = "Login fehlgeschlagen. Bitte überprüfen Sie Ihre Zugangsdaten."
	msgRegisterFailed = "Registrierung fehlgeschlagen. Bitte versuchen Sie es erneut."
)

// addressAssociations pulls the related entities the kiosk renders
// alongside an address.
var addressAssociations = map[string]any{
	"country":      map[string]any{},
	"countryState": map[string]any{},
	"salutation":   map[string]any{},
}

// Service is the per-session account state.
type Service struct {
	client        *shopware.Client
	cart          *cart.Service
	storefrontURL string
	logger        *slog.Logger

	mu          sync.Mutex
	customer    *model.Customer
	countries   []model.Country
	salutations []model.Salutation
	initialized bool
	lastErr     string
}

// New creates an account service. The storefront URL must match a
// configured sales channel domain, Shopware rejects registrations for
// unknown domains.
func New(client *shopware.Client, cartSvc *cart.Service, storefrontURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:        client,
		cart:          cartSvc,
		storefrontURL: storefrontURL,
		logger:        logger,
	}
}

// Customer returns the cached customer entity, or nil when nobody is
// logged in.
func (s *Service) Customer() *model.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// IsLoggedIn reports whether a full (non-guest) customer is signed in.
func (s *Service) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer != nil && !s.customer.Guest
}

// Countries returns the active countries loaded by Init.
func (s *Service) Countries() []model.Country {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countries
}

// Salutations returns the salutations loaded by Init.
func (s *Service) Salutations() []model.Salutation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.salutations
}

// Err returns the message of the last failed auth operation.
func (s *Service) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr resets the error state.
func (s *Service) ClearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Init restores the session on startup: with an existing context token
// the customer is refetched, and the form master data is loaded. Safe
// to call more than once.
func (s *Service) Init(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.mu.Unlock()

	if s.client.Session().Get() != "" {
		s.FetchCustomer(ctx)
	}
	s.loadCountries(ctx)
	s.loadSalutations(ctx)
}

// Login authenticates with email and password. Shopware answers with a
// fresh context token; the customer entity and the cart are refetched
// under it.
func (s *Service) Login(ctx context.Context, email, password string) bool {
	body := map[string]any{"email": email, "password": password}
	if _, err := s.client.Request(ctx, http.MethodPost, "account/login", nil, body); err != nil {
		s.logger.Warn("login failed", "email", email, "error", err)
		s.setErr(authErrorMessage(err, msgLoginFailed))
		return false
	}

	s.FetchCustomer(ctx)
	s.syncCart(ctx)
	s.ClearErr()
	return true
}

// Register creates a customer account, guest or full. The storefront
// URL is filled in from the service configuration when the caller
// leaves it empty.
func (s *Service) Register(ctx context.Context, reg model.Registration) bool {
	if reg.StorefrontURL == "" {
		reg.StorefrontURL = s.storefrontURL
	}

	var customer model.Customer
	if err := s.client.RequestJSON(ctx, http.MethodPost, "account/register", nil, reg, &customer); err != nil {
		s.logger.Warn("registration failed", "email", reg.Email, "error", err)
		s.setErr(authErrorMessage(err, msgRegisterFailed))
		return false
	}

	if customer.ID != "" {
		s.mu.Lock()
		s.customer = &customer
		s.mu.Unlock()
	} else {
		s.FetchCustomer(ctx)
	}
	s.syncCart(ctx)
	s.ClearErr()
	return true
}

// Logout ends the session. Local state and the context token are
// cleared even when the backend call fails, so the kiosk never stays
// stuck in a half logged-in state.
func (s *Service) Logout(ctx context.Context) bool {
	if _, err := s.client.Request(ctx, http.MethodPost, "account/logout", nil, map[string]any{}); err != nil {
		s.logger.Warn("logout request failed", "error", err)
	}

	s.mu.Lock()
	s.customer = nil
	s.lastErr = ""
	s.mu.Unlock()
	s.client.Session().Clear()

	// The next cart fetch mints a fresh guest token.
	s.syncCart(ctx)
	return true
}

// FetchCustomer loads the customer behind the current context token,
// including addresses. A failure just means nobody is logged in.
func (s *Service) FetchCustomer(ctx context.Context) *model.Customer {
	body := map[string]any{
		"associations": map[string]any{
			"addresses":              map[string]any{"associations": addressAssociations},
			"defaultBillingAddress":  map[string]any{"associations": addressAssociations},
			"defaultShippingAddress": map[string]any{"associations": addressAssociations},
			"salutation":             map[string]any{},
		},
	}

	var customer model.Customer
	err := s.client.RequestJSON(ctx, http.MethodPost, "account/customer", nil, body, &customer)
	if err != nil || customer.ID == "" {
		if err != nil && !errors.Is(err, model.ErrUnauthorized) {
			s.logger.Debug("no customer session", "error", err)
		}
		s.mu.Lock()
		s.customer = nil
		s.mu.Unlock()
		return nil
	}

	s.mu.Lock()
	s.customer = &customer
	s.mu.Unlock()
	return &customer
}

// orderEnvelope is the /order response. The entity list sits nested
// under "orders".
type orderEnvelope struct {
	Orders model.OrderList `json:"orders"`
}

// orderAssociations pulls everything the order history screen shows.
var orderAssociations = map[string]any{
	"lineItems": map[string]any{
		"associations": map[string]any{"cover": map[string]any{}},
	},
	"deliveries": map[string]any{
		"associations": map[string]any{
			"shippingMethod": map[string]any{},
			"shippingOrderAddress": map[string]any{
				"associations": addressAssociations,
			},
		},
	},
	"transactions": map[string]any{
		"associations": map[string]any{
			"paymentMethod":     map[string]any{},
			"stateMachineState": map[string]any{},
		},
	},
	"billingAddress": map[string]any{
		"associations": addressAssociations,
	},
	"stateMachineState": map[string]any{},
	"currency":          map[string]any{},
	"orderCustomer":     map[string]any{},
}

// Orders fetches a page of the customer's order history.
func (s *Service) Orders(ctx context.Context, page, limit int) (*model.OrderList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	body := map[string]any{
		"page":         page,
		"limit":        limit,
		"associations": orderAssociations,
	}

	var env orderEnvelope
	if err := s.client.RequestJSON(ctx, http.MethodPost, "order", nil, body, &env); err != nil {
		s.logger.Error("fetching orders", "page", page, "error", err)
		return nil, err
	}
	if env.Orders.Elements == nil {
		env.Orders.Elements = []model.Order{}
	}
	return &env.Orders, nil
}

// Order fetches a single order by id.
func (s *Service) Order(ctx context.Context, orderID string) (*model.Order, error) {
	body := map[string]any{
		"filter": []map[string]any{
			{"type": "equals", "field": "id", "value": orderID},
		},
		"associations": orderAssociations,
	}

	var env orderEnvelope
	if err := s.client.RequestJSON(ctx, http.MethodPost, "order", nil, body, &env); err != nil {
		s.logger.Error("fetching order", "orderId", orderID, "error", err)
		return nil, err
	}
	if len(env.Orders.Elements) == 0 {
		return nil, model.NewNotFoundError("order")
	}
	return &env.Orders.Elements[0], nil
}

func (s *Service) loadCountries(ctx context.Context) {
	body := map[string]any{
		"filter": []map[string]any{
			{"type": "equals", "field": "active", "value": true},
		},
		"sort": []map[string]any{
			{"field": "name", "order": "ASC"},
		},
	}
	var list model.MethodList[model.Country]
	if err := s.client.RequestJSON(ctx, http.MethodPost, "country", nil, body, &list); err != nil {
		s.logger.Error("loading countries", "error", err)
		return
	}
	s.mu.Lock()
	s.countries = list.Elements
	s.mu.Unlock()
}

func (s *Service) loadSalutations(ctx context.Context) {
	var list model.MethodList[model.Salutation]
	if err := s.client.RequestJSON(ctx, http.MethodPost, "salutation", nil, map[string]any{}, &list); err != nil {
		s.logger.Error("loading salutations", "error", err)
		return
	}
	s.mu.Lock()
	s.salutations = list.Elements
	s.mu.Unlock()
}

// syncCart refetches the cart snapshot after an auth transition, since
// Shopware merges or replaces the cart when the token changes.
func (s *Service) syncCart(ctx context.Context) {
	if s.cart != nil {
		s.cart.Fetch(ctx)
	}
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// authErrorMessage prefers the backend's own human-readable messages
// over the generic fallback.
func authErrorMessage(err error, fallback string) string {
	var se *model.StoreError
	if errors.As(err, &se) {
		var parts []string
		for _, e := range se.Errors {
			if e.Detail != "" {
				parts = append(parts, e.Detail)
			} else if e.Title != "" {
				parts = append(parts, e.Title)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ". ")
		}
	}
	return fallback
}
