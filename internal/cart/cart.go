// Package cart keeps a session-scoped snapshot of the Shopware cart
// and orchestrates the line item mutations against the Store API.
// Mutations report success as a bool; the localized failure reason is
// held in a service-local error field so the UI layer can render it
// without unwrapping transport errors.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/shopware"
)

const lineItemEndpoint = "checkout/cart/line-item"

// Kiosk-facing messages. The catalog is German-first, matching the
// store's default sales channel language.
const (
	msgProductUnavailable = "Dieses Produkt ist leider nicht mehr verfügbar."
	msgCartLoadFailed     = "Der Warenkorb konnte nicht geladen werden."
	msgMutationFailed     = "Der Warenkorb konnte nicht aktualisiert werden."
	msgItemNotInCart      = "Dieser Artikel befindet sich nicht im Warenkorb."
	msgProductNotAdded    = "Produkt konnte nicht hinzugefügt werden. Bitte versuchen Sie es später erneut."
)

// productPlaceholder fills the %s slot Shopware leaves in some cart
// error messages when the product label is unknown.
const productPlaceholder = "dieses Produkt"

// Service holds the cart state for one storefront session.
type Service struct {
	client *shopware.Client
	logger *slog.Logger

	mu      sync.Mutex
	cart    *model.Cart
	lastErr string
}

// New creates a cart service on top of a session-bound Store API client.
func New(client *shopware.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, logger: logger}
}

// Cart returns the last fetched snapshot, or nil before the first
// successful fetch.
func (s *Service) Cart() *model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// Err returns the localized message of the last failed operation, or
// "" when the last operation succeeded.
func (s *Service) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr resets the error state, e.g. when the kiosk dismisses the
// error banner.
func (s *Service) ClearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// ItemCount returns the summed quantity of goods in the snapshot.
func (s *Service) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return 0
	}
	return s.cart.ItemCount()
}

// Fetch loads the cart from the backend and replaces the snapshot.
// Returns nil and keeps the previous snapshot when the backend is
// unavailable.
func (s *Service) Fetch(ctx context.Context) *model.Cart {
	var cart model.Cart
	if err := s.client.RequestJSON(ctx, http.MethodGet, "checkout/cart", nil, nil, &cart); err != nil {
		s.logger.Error("fetching cart", "error", err)
		s.setErr(msgCartLoadFailed)
		return nil
	}
	cart.Normalize()

	// The error field stays untouched: Fetch doubles as the resync
	// step after a failed mutation and must not wipe its message.
	s.mu.Lock()
	s.cart = &cart
	s.mu.Unlock()
	return &cart
}

// Add puts a product into the cart. The product id is accepted in
// UUID form with or without dashes; Shopware expects it stripped.
func (s *Service) Add(ctx context.Context, productID string, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	id := strings.ReplaceAll(productID, "-", "")
	body := map[string]any{
		"items": []map[string]any{
			{
				"id":           id,
				"referencedId": id,
				"type":         "product",
				"quantity":     quantity,
			},
		},
	}
	if !s.mutate(ctx, http.MethodPost, lineItemEndpoint, nil, body) {
		return false
	}

	// Shopware sometimes drops an unsellable item without reporting a
	// cart error. An add that leaves the cart without positions did
	// not add anything.
	s.mu.Lock()
	added := s.cart != nil && len(s.cart.LineItems) > 0
	s.mu.Unlock()
	if !added {
		s.logger.Warn("item silently dropped by backend", "productId", id)
		s.setErr(msgProductNotAdded)
		return false
	}
	return true
}

// UpdateQuantity sets the quantity of an existing position. Quantities
// below one remove the position instead, so the two operations stay
// equivalent for the UI. Unknown line item ids fail fast without a
// backend call.
func (s *Service) UpdateQuantity(ctx context.Context, lineItemID string, quantity int) bool {
	if quantity < 1 {
		return s.Remove(ctx, lineItemID)
	}

	s.mu.Lock()
	known := s.cart != nil && s.cart.FindLineItem(lineItemID) != nil
	s.mu.Unlock()
	if !known {
		s.setErr(msgItemNotInCart)
		return false
	}

	body := map[string]any{
		"items": []map[string]any{
			{"id": lineItemID, "quantity": quantity},
		},
	}
	return s.mutate(ctx, http.MethodPatch, lineItemEndpoint, nil, body)
}

// Remove deletes one position from the cart.
func (s *Service) Remove(ctx context.Context, lineItemID string) bool {
	q := url.Values{}
	q.Add("ids[]", lineItemID)
	return s.mutate(ctx, http.MethodDelete, lineItemEndpoint, q, nil)
}

// Clear removes every position one by one and refetches. Shopware has
// no bulk clear on the line item route, and a partial failure should
// still leave the snapshot in sync with the backend.
func (s *Service) Clear(ctx context.Context) bool {
	s.mu.Lock()
	var ids []string
	if s.cart != nil {
		for _, li := range s.cart.LineItems {
			ids = append(ids, li.ID)
		}
	}
	s.mu.Unlock()

	ok := true
	for _, id := range ids {
		q := url.Values{}
		q.Add("ids[]", id)
		if _, err := s.client.Request(ctx, http.MethodDelete, lineItemEndpoint, q, nil); err != nil {
			s.logger.Error("clearing cart position", "lineItemId", id, "error", err)
			s.setErr(msgMutationFailed)
			ok = false
		}
	}

	if s.Fetch(ctx) == nil {
		return false
	}
	if ok {
		s.ClearErr()
	}
	return ok
}

// mutate runs one line item mutation and applies the response. Failed
// mutations resync the snapshot from the backend so the kiosk never
// renders a cart the backend rejected.
func (s *Service) mutate(ctx context.Context, method, endpoint string, query url.Values, body any) bool {
	var cart model.Cart
	err := s.client.RequestJSON(ctx, method, endpoint, query, body, &cart)
	if err != nil {
		s.logger.Error("cart mutation failed", "method", method, "error", err)
		s.Fetch(ctx)
		s.setErr(translateError(err))
		return false
	}
	cart.Normalize()

	if msgs := cart.ErrorMessages(); len(msgs) > 0 {
		s.logger.Warn("cart mutation rejected", "method", method, "reason", msgs[0])
		s.Fetch(ctx)
		s.setErr(translateCartMessage(msgs[0]))
		return false
	}

	s.mu.Lock()
	s.cart = &cart
	s.lastErr = ""
	s.mu.Unlock()
	return true
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// translateError maps a transport or envelope error to a kiosk message.
func translateError(err error) string {
	var se *model.StoreError
	if errors.As(err, &se) {
		if d := se.Detail(); d != "" {
			return translateCartMessage(d)
		}
	}
	if errors.Is(err, model.ErrNotFound) {
		return msgProductUnavailable
	}
	return msgMutationFailed
}

// translateCartMessage cleans up backend-provided cart messages.
// Shopware leaves a literal %s where it could not resolve the product
// label, and reports missing products in English on some channels.
func translateCartMessage(msg string) string {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "not found") || strings.Contains(lower, "nicht gefunden") {
		return msgProductUnavailable
	}
	return strings.ReplaceAll(msg, "%s", productPlaceholder)
}
