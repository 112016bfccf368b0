// Package handler provides the HTTP API of the kiosk backend. Every
// request binds a storefront to the caller's context token and relays
// the (possibly rotated) token back in the response.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/winni-bit/sw-demo-kiosk/internal/checkout"
	"github.com/winni-bit/sw-demo-kiosk/internal/frontstack"
	"github.com/winni-bit/sw-demo-kiosk/internal/gateway"
	"github.com/winni-bit/sw-demo-kiosk/internal/locale"
	"github.com/winni-bit/sw-demo-kiosk/internal/model"
	"github.com/winni-bit/sw-demo-kiosk/internal/session"
	"github.com/winni-bit/sw-demo-kiosk/internal/storefront"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	factory *storefront.Factory
	gateway *gateway.Handler
	logger  *slog.Logger
}

// New creates a new Handler. The gateway may be nil to disable the
// raw Store API passthrough.
func New(factory *storefront.Factory, gw *gateway.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{factory: factory, gateway: gw, logger: logger}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Raw Store API passthrough for the frontend
	if h.gateway != nil {
		mux.HandleFunc("/api/shopware/{path...}", h.gateway.Forward)
	}

	// Cart
	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("DELETE /api/cart", h.handleClearCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.handleRemoveItem)

	// Checkout
	mux.HandleFunc("POST /api/checkout/address", h.handleCheckoutAddress)
	mux.HandleFunc("GET /api/checkout/steps", h.handleCheckoutSteps)
	mux.HandleFunc("GET /api/checkout/shipping-methods", h.handleShippingMethods)
	mux.HandleFunc("GET /api/checkout/payment-methods", h.handlePaymentMethods)
	mux.HandleFunc("PUT /api/checkout/shipping-method", h.handleSetShippingMethod)
	mux.HandleFunc("PUT /api/checkout/payment-method", h.handleSetPaymentMethod)
	mux.HandleFunc("POST /api/checkout/order", h.handlePlaceOrder)

	// Account
	mux.HandleFunc("POST /api/account/login", h.handleLogin)
	mux.HandleFunc("POST /api/account/register", h.handleRegister)
	mux.HandleFunc("POST /api/account/logout", h.handleLogout)
	mux.HandleFunc("GET /api/account/customer", h.handleCustomer)
	mux.HandleFunc("GET /api/account/orders", h.handleOrders)
	mux.HandleFunc("GET /api/account/orders/{id}", h.handleOrder)
	mux.HandleFunc("GET /api/account/countries", h.handleCountries)
	mux.HandleFunc("GET /api/account/salutations", h.handleSalutations)

	// Catalog and content
	mux.HandleFunc("GET /api/products", h.handleProducts)
	mux.HandleFunc("GET /api/products/{key}", h.handleProduct)
	mux.HandleFunc("GET /api/categories", h.handleCategories)
	mux.HandleFunc("GET /api/categories/{id}/products", h.handleCategoryProducts)
	mux.HandleFunc("GET /api/pages/{slug}", h.handlePage)

	// Recommendations
	mux.HandleFunc("GET /api/recommendations", h.handleRecommendations)

	// Language
	mux.HandleFunc("GET /api/language", h.handleGetLanguage)
	mux.HandleFunc("PUT /api/language", h.handleSetLanguage)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// bind creates the storefront for the request's context token.
func (h *Handler) bind(r *http.Request) (*storefront.Storefront, error) {
	return h.factory.Session(session.FromRequest(r))
}

// finish relays the session token back to the caller before the body
// is written.
func finish(w http.ResponseWriter, sf *storefront.Storefront) {
	session.Write(w, sf.Session.Get())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// === Cart ===

// cartResponse pairs the snapshot with the item count the kiosk badge
// shows.
type cartResponse struct {
	Cart      *model.Cart `json:"cart"`
	ItemCount int         `json:"itemCount"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	cart := sf.Cart.Fetch(r.Context())
	finish(w, sf)
	if cart == nil {
		h.writeError(w, model.NewUpstreamError("store API", errors.New(sf.Cart.Err())))
		return
	}
	h.writeJSON(w, http.StatusOK, cartResponse{Cart: cart, ItemCount: cart.ItemCount()})
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ProductID == "" {
		h.writeError(w, model.NewValidationError("productId", "must not be empty"))
		return
	}

	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ok := sf.Cart.Add(r.Context(), req.ProductID, req.Quantity)
	h.writeCartResult(w, sf, ok)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// The update path needs the snapshot to know the position exists.
	sf.Cart.Fetch(r.Context())
	ok := sf.Cart.UpdateQuantity(r.Context(), r.PathValue("id"), req.Quantity)
	h.writeCartResult(w, sf, ok)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ok := sf.Cart.Remove(r.Context(), r.PathValue("id"))
	h.writeCartResult(w, sf, ok)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sf.Cart.Fetch(r.Context())
	ok := sf.Cart.Clear(r.Context())
	h.writeCartResult(w, sf, ok)
}

// writeCartResult renders the snapshot after a mutation, or the
// service's localized error when it failed.
func (h *Handler) writeCartResult(w http.ResponseWriter, sf *storefront.Storefront, ok bool) {
	finish(w, sf)
	if !ok {
		h.writeError(w, model.NewCartError(sf.Cart.Err()))
		return
	}
	cart := sf.Cart.Cart()
	h.writeJSON(w, http.StatusOK, cartResponse{Cart: cart, ItemCount: cart.ItemCount()})
}

// === Checkout ===

// addressResponse reports the form validation outcome. On failure the
// per-field messages let the kiosk highlight the inputs inline.
type addressResponse struct {
	Valid    bool                      `json:"valid"`
	Errors   map[checkout.Field]string `json:"errors,omitempty"`
	Step     int                       `json:"step,omitempty"`
	Customer *model.Customer           `json:"customer,omitempty"`
}

func (h *Handler) handleCheckoutAddress(w http.ResponseWriter, r *http.Request) {
	var data checkout.FormData
	if err := decodeJSON(r, &data); err != nil {
		h.writeError(w, err)
		return
	}

	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sf.Checkout.Form.Data = data
	if !sf.Checkout.Form.Validate() {
		finish(w, sf)
		h.writeJSON(w, http.StatusBadRequest, addressResponse{
			Valid:  false,
			Errors: sf.Checkout.Form.Errors(),
		})
		return
	}

	// Logged-in customers already have an account; walk-up shoppers
	// check out as guests.
	if sf.Account.FetchCustomer(r.Context()) == nil {
		if !sf.Account.Register(r.Context(), sf.Checkout.Form.Registration()) {
			finish(w, sf)
			h.writeError(w, model.NewValidationError("address", sf.Account.Err()))
			return
		}
	}

	sf.Checkout.Steps.Next()
	finish(w, sf)
	h.writeJSON(w, http.StatusOK, addressResponse{
		Valid:    true,
		Step:     sf.Checkout.Steps.Current(),
		Customer: sf.Account.Customer(),
	})
}

// stepsResponse drives the kiosk checkout progress bar.
type stepsResponse struct {
	Current   int   `json:"current"`
	Completed []int `json:"completed"`
	Valid     bool  `json:"valid"`
}

func (h *Handler) handleCheckoutSteps(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sf.Checkout.Resume(sf.Account.FetchCustomer(r.Context()))
	finish(w, sf)

	completed := []int{}
	for step := checkout.StepAddress; step <= checkout.StepConfirmation; step++ {
		if sf.Checkout.Steps.IsCompleted(step) {
			completed = append(completed, step)
		}
	}
	h.writeJSON(w, http.StatusOK, stepsResponse{
		Current:   sf.Checkout.Steps.Current(),
		Completed: completed,
		Valid:     sf.Checkout.IsCurrentStepValid(),
	})
}

func (h *Handler) handleShippingMethods(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	methods := sf.Checkout.FetchShippingMethods(r.Context())
	finish(w, sf)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"methods":  methods,
		"selected": sf.Checkout.SelectedShippingMethod(),
	})
}

func (h *Handler) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	methods := sf.Checkout.FetchPaymentMethods(r.Context())
	finish(w, sf)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"methods":  methods,
		"selected": sf.Checkout.SelectedPaymentMethod(),
	})
}

type selectMethodRequest struct {
	ID string `json:"id"`
}

func (h *Handler) handleSetShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req selectMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ID == "" {
		h.writeError(w, model.NewValidationError("id", "must not be empty"))
		return
	}

	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ok := sf.Checkout.SetShippingMethod(r.Context(), req.ID)
	finish(w, sf)
	if !ok {
		h.writeError(w, model.NewCartError(sf.Checkout.Err()))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"selected": req.ID})
}

func (h *Handler) handleSetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req selectMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ID == "" {
		h.writeError(w, model.NewValidationError("id", "must not be empty"))
		return
	}

	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ok := sf.Checkout.SetPaymentMethod(r.Context(), req.ID)
	finish(w, sf)
	if !ok {
		h.writeError(w, model.NewCartError(sf.Checkout.Err()))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"selected": req.ID})
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	order := sf.Checkout.PlaceOrder(r.Context())
	finish(w, sf)
	if order == nil {
		h.writeError(w, model.NewCartError(sf.Checkout.Err()))
		return
	}
	h.writeJSON(w, http.StatusCreated, order)
}

// === Account ===

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, model.NewValidationError("credentials", "email and password are required"))
		return
	}

	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ok := sf.Account.Login(r.Context(), req.Email, req.Password)
	finish(w, sf)
	if !ok {
		h.writeError(w, model.NewUnauthorizedError(sf.Account.Err()))
		return
	}
	h.writeJSON(w, http.StatusOK, sf.Account.Customer())
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := decodeJSON(r, &reg); err != nil {
		h.writeError(w, err)
		return
	}
	if reg.Email == "" {
		h.writeError(w, model.NewValidationError("email", "must not be empty"))
		return
	}

	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	ok := sf.Account.Register(r.Context(), reg)
	finish(w, sf)
	if !ok {
		h.writeError(w, model.NewValidationError("registration", sf.Account.Err()))
		return
	}
	h.writeJSON(w, http.StatusCreated, sf.Account.Customer())
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sf.Account.Logout(r.Context())
	finish(w, sf)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) handleCustomer(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	customer := sf.Account.FetchCustomer(r.Context())
	finish(w, sf)
	if customer == nil {
		h.writeError(w, model.NewUnauthorizedError("no customer session"))
		return
	}
	h.writeJSON(w, http.StatusOK, customer)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := sf.Account.Orders(r.Context(), page, limit)
	finish(w, sf)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleOrder(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	order, err := sf.Account.Order(r.Context(), r.PathValue("id"))
	finish(w, sf)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleCountries(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sf.Account.Init(r.Context())
	finish(w, sf)
	h.writeJSON(w, http.StatusOK, map[string]any{"elements": sf.Account.Countries()})
}

func (h *Handler) handleSalutations(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sf.Account.Init(r.Context())
	finish(w, sf)
	h.writeJSON(w, http.StatusOK, map[string]any{"elements": sf.Account.Salutations()})
}

// === Catalog ===

// listingQuery builds a content API query from URL parameters.
func listingQuery(r *http.Request) *frontstack.Query {
	q := &frontstack.Query{Search: r.URL.Query().Get("search")}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		q.Limit = limit
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		q.Page = page
	}
	return q
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.factory.Content().AllProducts(r.Context(), h.factory.Locale().ContextKey(), listingQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	card, err := h.factory.Content().ProductCard(r.Context(), h.factory.Locale().ContextKey(), r.PathValue("key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, card)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	listing, err := h.factory.Content().Categories(r.Context(), h.factory.Locale().ContextKey(), listingQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) handleCategoryProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.factory.Content().ProductsByCategory(
		r.Context(), h.factory.Locale().ContextKey(), r.PathValue("id"), listingQuery(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := h.factory.Content().Page(r.Context(), h.factory.Locale().ContextKey(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// === Recommendations ===

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	sf, err := h.bind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	keys, products := h.cartCatalogState(r, sf)
	recs := sf.Recommend.Recommendations(r.Context(), keys, products, limit)
	finish(w, sf)
	if recs == nil {
		recs = []frontstack.ProductCard{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": recs})
}

// cartCatalogState resolves the cart positions into catalog keys and
// cards, so the category stage can see what the shopper is buying.
// Failures just shrink the input.
func (h *Handler) cartCatalogState(r *http.Request, sf *storefront.Storefront) ([]string, []frontstack.ProductCard) {
	cart := sf.Cart.Fetch(r.Context())
	if cart == nil {
		return nil, nil
	}

	var keys []string
	var products []frontstack.ProductCard
	for _, li := range cart.LineItems {
		if !li.Good || li.ReferencedID == "" {
			continue
		}
		keys = append(keys, li.ReferencedID)
		card, err := sf.Content.ProductCard(r.Context(), sf.Locale.ContextKey(), li.ReferencedID)
		if err != nil {
			continue
		}
		products = append(products, *card)
	}
	return keys, products
}

// === Language ===

func (h *Handler) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	h.factory.Locale().Init(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]string{
		"language": string(h.factory.Locale().Language()),
	})
}

type setLanguageRequest struct {
	Language string `json:"language"`
}

func (h *Handler) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var req setLanguageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.factory.Locale().Init(r.Context())
	if !h.factory.Locale().SetLanguage(r.Context(), locale.Parse(req.Language)) {
		h.writeError(w, model.NewUpstreamError("content API", errors.New("context switch failed")))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"language": string(h.factory.Locale().Language()),
	})
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if errors.As(err, &apiErr) {
		// Found APIError in error chain - use it
	} else {
		var storeErr *model.StoreError
		if errors.As(err, &storeErr) {
			apiErr = &model.APIError{
				Code:       "STORE_API_ERROR",
				Message:    storeErr.Detail(),
				StatusCode: storeErr.StatusCode,
			}
		} else {
			// Wrap unexpected errors
			apiErr = &model.APIError{
				Code:       "INTERNAL_ERROR",
				Message:    "an internal error occurred",
				StatusCode: http.StatusInternalServerError,
			}
			h.logger.Error("internal error", slog.String("error", err.Error()))
		}
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
