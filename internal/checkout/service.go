// Package checkout drives the kiosk checkout flow: address form
// validation, step progression, shipping and payment method selection
// and finally placing the order through the Store API.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/winni-bit/sw-demo-kiosk/internal/cart"
	"github.com/winni-bit/sw-demo-kiosk/internal/locale"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/shopware"
)

// Checkout flow messages. Like the cart, the flow reports German-first
// since that is the store's default channel language.
const (
	msgNoShippingMethods = "Keine Versandmethoden verfügbar"
	msgNoPaymentMethods  = "Keine Zahlungsmethoden verfügbar"
	msgPrepareFailed     = "Fehler bei der Checkout-Vorbereitung"
	msgOrderFailed       = "Fehler beim Aufgeben der Bestellung"
	msgMethodFailed      = "Die Auswahl konnte nicht gespeichert werden."
)

// orderErrorMessages maps Store API checkout error codes to messages
// the kiosk shows on the confirmation screen.
var orderErrorMessages = map[string]string{
	"CHECKOUT__CUSTOMER_NOT_LOGGED_IN": "Bitte melden Sie sich an, um die Bestellung abzuschließen.",
	"CHECKOUT__CART_EMPTY":             "Der Warenkorb ist leer.",
	"CHECKOUT__CART_INVALID":           "Der Warenkorb enthält ungültige Artikel.",
}

// Service orchestrates one session's checkout. It owns the address
// form, the step state and the fetched method lists.
type Service struct {
	client *shopware.Client
	cart   *cart.Service
	locale *locale.Service
	logger *slog.Logger

	Form  *Form
	Steps *Steps

	mu               sync.Mutex
	shippingMethods  []model.ShippingMethod
	paymentMethods   []model.PaymentMethod
	selectedShipping string
	selectedPayment  string
	lastErr          string
}

// New creates a checkout service bound to a session client and its
// cart. The locale service may be nil; form messages then default to
// German.
func New(client *shopware.Client, cartSvc *cart.Service, localeSvc *locale.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	lang := func() locale.Language { return locale.German }
	if localeSvc != nil {
		lang = localeSvc.Language
	}
	return &Service{
		client: client,
		cart:   cartSvc,
		locale: localeSvc,
		logger: logger,
		Form:   NewForm(lang),
		Steps:  NewSteps(),
	}
}

// Err returns the message of the last failed checkout operation.
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

// ShippingMethods returns the last fetched shipping methods.
func (s *Service) ShippingMethods() []model.ShippingMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shippingMethods
}

// PaymentMethods returns the last fetched payment methods.
func (s *Service) PaymentMethods() []model.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paymentMethods
}

// SelectedShippingMethod returns the id of the selected shipping
// method, or "".
func (s *Service) SelectedShippingMethod() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedShipping
}

// SelectedPaymentMethod returns the id of the selected payment method,
// or "".
func (s *Service) SelectedPaymentMethod() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedPayment
}

// Resume rebuilds form and step state from the session. Step progress
// is not persisted between requests; a session that already belongs
// to a customer with a complete billing address is past the address
// step.
func (s *Service) Resume(customer *model.Customer) {
	s.Steps.Reset()
	if customer == nil {
		return
	}
	s.Form.Prefill(customer)
	if s.Form.IsComplete() {
		s.Steps.Next()
	}
}

// IsCurrentStepValid reports whether the active step may be left via
// Next. The address step requires a complete form; the payment and
// confirmation steps gate on backend state checked at order time.
func (s *Service) IsCurrentStepValid() bool {
	switch s.Steps.Current() {
	case StepAddress:
		return s.Form.IsComplete()
	case StepPayment, StepConfirmation:
		return true
	}
	return false
}

// FetchShippingMethods loads the available shipping methods and
// selects the first one when nothing is selected yet. Failures are
// soft: the kiosk keeps whatever list it has.
func (s *Service) FetchShippingMethods(ctx context.Context) []model.ShippingMethod {
	var list model.MethodList[model.ShippingMethod]
	body := map[string]any{"onlyAvailable": true}
	if err := s.client.RequestJSON(ctx, http.MethodPost, "shipping-method", nil, body, &list); err != nil {
		s.logger.Error("fetching shipping methods", "error", err)
		return nil
	}

	s.mu.Lock()
	s.shippingMethods = list.Elements
	if s.selectedShipping == "" && len(list.Elements) > 0 {
		s.selectedShipping = list.Elements[0].ID
	}
	s.mu.Unlock()
	return list.Elements
}

// FetchPaymentMethods loads the available payment methods and selects
// the first one when nothing is selected yet.
func (s *Service) FetchPaymentMethods(ctx context.Context) []model.PaymentMethod {
	var list model.MethodList[model.PaymentMethod]
	body := map[string]any{"onlyAvailable": true}
	if err := s.client.RequestJSON(ctx, http.MethodPost, "payment-method", nil, body, &list); err != nil {
		s.logger.Error("fetching payment methods", "error", err)
		return nil
	}

	s.mu.Lock()
	s.paymentMethods = list.Elements
	if s.selectedPayment == "" && len(list.Elements) > 0 {
		s.selectedPayment = list.Elements[0].ID
	}
	s.mu.Unlock()
	return list.Elements
}

// SetShippingMethod switches the session context to the given shipping
// method and refetches the cart, as shipping costs may change.
func (s *Service) SetShippingMethod(ctx context.Context, methodID string) bool {
	body := map[string]any{"shippingMethodId": methodID}
	if _, err := s.client.Request(ctx, http.MethodPatch, "context", nil, body); err != nil {
		s.logger.Error("setting shipping method", "shippingMethodId", methodID, "error", err)
		s.setErr(msgMethodFailed)
		return false
	}
	s.mu.Lock()
	s.selectedShipping = methodID
	s.lastErr = ""
	s.mu.Unlock()

	if s.cart != nil {
		s.cart.Fetch(ctx)
	}
	return true
}

// SetPaymentMethod switches the session context to the given payment
// method.
func (s *Service) SetPaymentMethod(ctx context.Context, methodID string) bool {
	body := map[string]any{"paymentMethodId": methodID}
	if _, err := s.client.Request(ctx, http.MethodPatch, "context", nil, body); err != nil {
		s.logger.Error("setting payment method", "paymentMethodId", methodID, "error", err)
		s.setErr(msgMethodFailed)
		return false
	}
	s.mu.Lock()
	s.selectedPayment = methodID
	s.lastErr = ""
	s.mu.Unlock()
	return true
}

// Prepare fetches shipping and payment methods concurrently and makes
// sure both a shipping and a payment method are selected. PlaceOrder
// runs this first so an order never hits the backend with an
// incomplete context.
func (s *Service) Prepare(ctx context.Context) bool {
	g, gctx := errgroup.WithContext(ctx)
	var shipping []model.ShippingMethod
	var payment []model.PaymentMethod
	g.Go(func() error {
		shipping = s.FetchShippingMethods(gctx)
		return nil
	})
	g.Go(func() error {
		payment = s.FetchPaymentMethods(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("preparing checkout", "error", err)
		s.setErr(msgPrepareFailed)
		return false
	}

	if len(shipping) == 0 {
		s.setErr(msgNoShippingMethods)
		return false
	}
	if len(payment) == 0 {
		s.setErr(msgNoPaymentMethods)
		return false
	}
	return true
}

// PlaceOrder prepares the checkout and submits the order. On success
// the cart is cleared server-side by Shopware, so the snapshot is
// refetched. Returns nil and sets Err on failure.
func (s *Service) PlaceOrder(ctx context.Context) *model.Order {
	if !s.Prepare(ctx) {
		return nil
	}

	var order model.Order
	if err := s.client.RequestJSON(ctx, http.MethodPost, "checkout/order", nil, map[string]any{}, &order); err != nil {
		s.logger.Error("placing order", "error", err)
		s.setErr(orderErrorMessage(err))
		return nil
	}

	if s.cart != nil {
		s.cart.Fetch(ctx)
		s.cart.ClearErr()
	}
	s.ClearErr()
	return &order
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// orderErrorMessage translates an order submission failure. Known
// Store API error codes get a specific message; several errors are
// joined into one banner line.
func orderErrorMessage(err error) string {
	var se *model.StoreError
	if !errors.As(err, &se) || len(se.Errors) == 0 {
		return msgOrderFailed
	}

	var parts []string
	for _, e := range se.Errors {
		parts = append(parts, translateOrderError(e))
	}
	return strings.Join(parts, " ")
}

func translateOrderError(e model.StoreErrorDetail) string {
	if msg, ok := orderErrorMessages[e.Code]; ok {
		return msg
	}
	switch {
	case strings.Contains(e.Code, "SHIPPING"):
		return "Bitte wählen Sie eine gültige Versandmethode."
	case strings.Contains(e.Code, "PAYMENT"):
		return "Bitte wählen Sie eine gültige Zahlungsmethode."
	case strings.Contains(e.Code, "ADDRESS"):
		return "Bitte überprüfen Sie Ihre Adressdaten."
	}
	if e.Detail != "" {
		return e.Detail
	}
	if e.Title != "" {
		return e.Title
	}
	return msgOrderFailed
}
