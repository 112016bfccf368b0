package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/winni-bit/sw-demo-kiosk/internal/checkout"
	"github.com/winni-bit/sw-demo-kiosk/internal/config"
	"github.com/winni-bit/sw-demo-kiosk/internal/session"
	"github.com/winni-bit/sw-demo-kiosk/internal/storefront"
)

// fakeBackends stands in for the Store API and the content API at
// once. Routes are keyed by "METHOD path"; unknown routes answer with
// an empty object.
type fakeBackends struct {
	mu       sync.Mutex
	requests []string
	routes   map[string]http.HandlerFunc
}

func newFakeBackends() *fakeBackends {
	return &fakeBackends{routes: make(map[string]http.HandlerFunc)}
}

func (f *fakeBackends) route(key string, fn http.HandlerFunc) {
	f.routes[key] = fn
}

func (f *fakeBackends) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fn, ok := f.routes[key]; ok {
		fn(w, r)
		return
	}
	w.Write([]byte(`{}`))
}

func (f *fakeBackends) seen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range f.requests {
		if k == key {
			return true
		}
	}
	return false
}

const testCartJSON = `{
	"token": "cart-token",
	"price": {"netPrice": 10, "totalPrice": 11.9, "positionPrice": 10},
	"lineItems": [
		{"id": "li-1", "referencedId": "prod-1", "label": "Brezel", "quantity": 2, "type": "product", "good": true}
	]
}`

// testHandler wires a Handler against the fake backends and returns
// the mux it registered on.
func testHandler(t *testing.T, backend *fakeBackends) (*Handler, *http.ServeMux) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory, err := storefront.NewFactory(config.StoreConfig{
		ShopwareURL:       srv.URL,
		AccessKey:         "SWSC-TEST",
		StorefrontURL:     "https://kiosk.example.com",
		FrontstackURL:     srv.URL,
		FrontstackVersion: "fs-test-token",
		DefaultLanguage:   "de",
	}, logger, storefront.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewFactory() error: %v", err)
	}

	h := New(factory, nil, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

func doJSON(mux *http.ServeMux, method, target, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set(session.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestGetCart(t *testing.T) {
	backend := newFakeBackends()
	backend.route("GET /store-api/checkout/cart", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get(session.TokenHeader); got != "shopper-1" {
			t.Errorf("backend token = %q, want shopper-1", got)
		}
		if got := r.Header.Get("sw-access-key"); got != "SWSC-TEST" {
			t.Errorf("sw-access-key = %q", got)
		}
		w.Write([]byte(testCartJSON))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/cart", "shopper-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Cart struct {
			LineItems []struct {
				ID string `json:"id"`
			} `json:"lineItems"`
		} `json:"cart"`
		ItemCount int `json:"itemCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ItemCount != 2 {
		t.Errorf("itemCount = %d, want 2", resp.ItemCount)
	}
	if len(resp.Cart.LineItems) != 1 || resp.Cart.LineItems[0].ID != "li-1" {
		t.Errorf("lineItems = %+v", resp.Cart.LineItems)
	}
}

func TestGetCart_RelaysRotatedToken(t *testing.T) {
	backend := newFakeBackends()
	backend.route("GET /store-api/checkout/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(session.TokenHeader, "minted-token")
		w.Write([]byte(testCartJSON))
	})
	_, mux := testHandler(t, backend)

	// Anonymous request: Shopware mints a token, the kiosk relays it.
	w := doJSON(mux, "GET", "/api/cart", "", nil)
	if got := w.Header().Get(session.TokenHeader); got != "minted-token" {
		t.Errorf("response token header = %q, want minted-token", got)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != "minted-token" {
		t.Fatalf("token cookie missing or wrong: %+v", cookie)
	}
}

func TestAddItem(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/checkout/cart/line-item", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"type":"product"`) {
			t.Errorf("line item body = %s", body)
		}
		w.Write([]byte(testCartJSON))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/cart/items", "shopper-1", addItemRequest{ProductID: "prod-1", Quantity: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
}

func TestAddItem_ValidatesInput(t *testing.T) {
	backend := newFakeBackends()
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/cart/items", "shopper-1", addItemRequest{Quantity: 1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
	if backend.seen("POST /store-api/checkout/cart/line-item") {
		t.Error("invalid input should not reach the backend")
	}
}

func TestAddItem_BackendRejection(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/checkout/cart/line-item", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"t","lineItems":[],"errors":{"x":{"message":"Das Produkt %s ist nicht verfügbar"}}}`))
	})
	backend.route("GET /store-api/checkout/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"t","lineItems":[]}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/cart/items", "shopper-1", addItemRequest{ProductID: "prod-9", Quantity: 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("Status = %d, want 409\nBody: %s", w.Code, w.Body.String())
	}

	var resp errorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "CART_INVALID" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Message, "dieses Produkt") {
		t.Errorf("error message = %q, want product placeholder filled", resp.Error.Message)
	}
}

func TestUpdateItem(t *testing.T) {
	backend := newFakeBackends()
	backend.route("GET /store-api/checkout/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testCartJSON))
	})
	backend.route("PATCH /store-api/checkout/cart/line-item", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testCartJSON))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "PATCH", "/api/cart/items/li-1", "shopper-1", updateItemRequest{Quantity: 3})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
	if !backend.seen("PATCH /store-api/checkout/cart/line-item") {
		t.Error("update should hit the line item route")
	}
}

func TestUpdateItem_UnknownPosition(t *testing.T) {
	backend := newFakeBackends()
	backend.route("GET /store-api/checkout/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"t","lineItems":[]}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "PATCH", "/api/cart/items/ghost", "shopper-1", updateItemRequest{Quantity: 3})
	if w.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", w.Code)
	}
	if backend.seen("PATCH /store-api/checkout/cart/line-item") {
		t.Error("unknown position should not reach the backend")
	}
}

func TestRemoveItem(t *testing.T) {
	backend := newFakeBackends()
	backend.route("DELETE /store-api/checkout/cart/line-item", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query()["ids[]"]; len(got) != 1 || got[0] != "li-1" {
			t.Errorf("ids[] = %v", got)
		}
		w.Write([]byte(`{"token":"t","lineItems":[]}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "DELETE", "/api/cart/items/li-1", "shopper-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
}

func TestShippingMethods(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/shipping-method", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[{"id":"ship-1","name":"Abholung"}],"total":1}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/checkout/shipping-methods", "shopper-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Methods []struct {
			ID string `json:"id"`
		} `json:"methods"`
		Selected string `json:"selected"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Methods) != 1 || resp.Selected != "ship-1" {
		t.Errorf("resp = %+v, first method should be auto-selected", resp)
	}
}

func TestPlaceOrder(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/shipping-method", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[{"id":"ship-1","name":"Abholung"}],"total":1}`))
	})
	backend.route("POST /store-api/payment-method", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[{"id":"pay-1","name":"Rechnung"}],"total":1}`))
	})
	backend.route("POST /store-api/checkout/order", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"order-1","orderNumber":"10001","amountTotal":11.9}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/checkout/order", "shopper-1", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var order struct {
		OrderNumber string `json:"orderNumber"`
	}
	json.Unmarshal(w.Body.Bytes(), &order)
	if order.OrderNumber != "10001" {
		t.Errorf("orderNumber = %q", order.OrderNumber)
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/shipping-method", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[{"id":"ship-1"}],"total":1}`))
	})
	backend.route("POST /store-api/payment-method", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[{"id":"pay-1"}],"total":1}`))
	})
	backend.route("POST /store-api/checkout/order", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"status":"400","code":"CHECKOUT__CART_EMPTY"}]}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/checkout/order", "shopper-1", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("Status = %d, want 409\nBody: %s", w.Code, w.Body.String())
	}

	var resp errorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Message != "Der Warenkorb ist leer." {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

// kioskFormData is a complete, valid checkout address form.
var kioskFormData = checkout.FormData{
	Email:        "gast@example.com",
	FirstName:    "Erika",
	LastName:     "Musterfrau",
	Street:       "Musterstraße 1",
	Zipcode:      "10115",
	City:         "Berlin",
	CountryID:    "country-de",
	SalutationID: "sal-1",
}

func TestCheckoutAddress_GuestRegistration(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/account/register", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"guest":true`) {
			t.Errorf("register body = %s, want guest registration", body)
		}
		if !strings.Contains(string(body), `"storefrontUrl":"https://kiosk.example.com"`) {
			t.Errorf("register body = %s, want storefront url filled in", body)
		}
		w.Write([]byte(`{"id":"cust-2","email":"gast@example.com","firstName":"Erika","lastName":"Musterfrau","guest":true}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/checkout/address", "shopper-1", kioskFormData)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
	if !backend.seen("POST /store-api/account/register") {
		t.Fatal("walk-up shopper should be registered as guest")
	}

	var resp struct {
		Valid    bool `json:"valid"`
		Step     int  `json:"step"`
		Customer struct {
			Guest bool `json:"guest"`
		} `json:"customer"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Valid || resp.Step != checkout.StepPayment {
		t.Errorf("resp = %+v, want valid form on the payment step", resp)
	}
	if !resp.Customer.Guest {
		t.Error("customer should be a guest account")
	}
}

func TestCheckoutAddress_InvalidForm(t *testing.T) {
	backend := newFakeBackends()
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/checkout/address", "shopper-1", checkout.FormData{Email: "kein-at-zeichen"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Status = %d, want 400\nBody: %s", w.Code, w.Body.String())
	}
	if backend.seen("POST /store-api/account/register") {
		t.Error("invalid form should not reach the backend")
	}

	var resp struct {
		Valid  bool              `json:"valid"`
		Errors map[string]string `json:"errors"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Valid {
		t.Error("valid = true, want false")
	}
	if resp.Errors["email"] == "" || resp.Errors["firstName"] == "" {
		t.Errorf("errors = %+v, want per-field messages", resp.Errors)
	}
}

func TestCheckoutAddress_LoggedInSkipsRegistration(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/account/customer", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cust-1","email":"kunde@example.com","firstName":"Max","lastName":"Mustermann","guest":false}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/checkout/address", "customer-token", kioskFormData)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
	if backend.seen("POST /store-api/account/register") {
		t.Error("logged-in session should not register again")
	}
}

func TestCheckoutSteps_Anonymous(t *testing.T) {
	backend := newFakeBackends()
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/checkout/steps", "shopper-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var resp stepsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Current != checkout.StepAddress {
		t.Errorf("current = %d, want address step", resp.Current)
	}
	if resp.Valid {
		t.Error("empty form should not pass the address step")
	}
	if len(resp.Completed) != 0 {
		t.Errorf("completed = %v, want none", resp.Completed)
	}
}

func TestCheckoutSteps_CustomerPastAddress(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/account/customer", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "cust-1",
			"email": "kunde@example.com",
			"firstName": "Max",
			"lastName": "Mustermann",
			"salutationId": "sal-1",
			"guest": false,
			"defaultBillingAddress": {
				"firstName": "Max", "lastName": "Mustermann",
				"street": "Musterstraße 1", "zipcode": "10115",
				"city": "Berlin", "countryId": "country-de"
			}
		}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/checkout/steps", "customer-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var resp stepsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Current != checkout.StepPayment {
		t.Errorf("current = %d, want payment step", resp.Current)
	}
	if len(resp.Completed) != 1 || resp.Completed[0] != checkout.StepAddress {
		t.Errorf("completed = %v, want the address step", resp.Completed)
	}
	if !resp.Valid {
		t.Error("payment step should be valid")
	}
}

func TestLogin(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/account/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(session.TokenHeader, "customer-token")
		w.Write([]byte(`{"contextToken":"customer-token"}`))
	})
	backend.route("POST /store-api/account/customer", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cust-1","email":"kunde@example.com","firstName":"Max","lastName":"Mustermann","guest":false}`))
	})
	backend.route("GET /store-api/checkout/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"customer-token","lineItems":[]}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/account/login", "guest-token", loginRequest{Email: "kunde@example.com", Password: "geheim"})
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(session.TokenHeader); got != "customer-token" {
		t.Errorf("token header = %q, want rotated customer token", got)
	}

	var customer struct {
		Email string `json:"email"`
	}
	json.Unmarshal(w.Body.Bytes(), &customer)
	if customer.Email != "kunde@example.com" {
		t.Errorf("email = %q", customer.Email)
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/account/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"status":"401","code":"CHECKOUT__CUSTOMER_AUTH_BAD_CREDENTIALS","detail":"Invalid username and/or password."}]}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "POST", "/api/account/login", "", loginRequest{Email: "a@b.de", Password: "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", w.Code)
	}

	var resp errorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "UNAUTHORIZED" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestCustomer_NotLoggedIn(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/account/customer", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"status":"403","code":"CHECKOUT__CUSTOMER_NOT_LOGGED_IN"}]}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/account/customer", "guest-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", w.Code)
	}
}

func TestOrders(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/order", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"page":2`) || !strings.Contains(string(body), `"limit":5`) {
			t.Errorf("order body = %s", body)
		}
		w.Write([]byte(`{"orders":{"elements":[{"id":"o-1","orderNumber":"10001"}],"total":1,"page":2,"limit":5}}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/account/orders?page=2&limit=5", "customer-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}
}

func TestOrder_NotFound(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /store-api/order", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orders":{"elements":[],"total":0}}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/account/orders/missing", "customer-token", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", w.Code)
	}
}

func TestProducts(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /listing/allproductslisting", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("fs-version"); got != "fs-test-token" {
			t.Errorf("fs-version = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"search":"brezel"`) {
			t.Errorf("listing body = %s", body)
		}
		w.Write([]byte(`{"items":[{"id":"p-1","key":"p-1","name":"Brezel"}],"total":1}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/products?search=brezel&limit=10", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var listing struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &listing)
	if len(listing.Items) != 1 || listing.Items[0].Name != "Brezel" {
		t.Errorf("items = %+v", listing.Items)
	}
}

func TestProduct_NotFound(t *testing.T) {
	backend := newFakeBackends()
	backend.route("POST /block/productcard/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/products/missing", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want 404", w.Code)
	}
}

func TestRecommendations(t *testing.T) {
	backend := newFakeBackends()
	backend.route("GET /store-api/checkout/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"t","lineItems":[]}`))
	})
	backend.route("POST /store-api/order", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":[{"status":"403","code":"CHECKOUT__CUSTOMER_NOT_LOGGED_IN"}]}`))
	})
	backend.route("POST /listing/allproductslisting", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"id":"p-1","key":"p-1","name":"Brezel"},{"id":"p-2","key":"p-2","name":"Cola"}],"total":2}`))
	})
	_, mux := testHandler(t, backend)

	w := doJSON(mux, "GET", "/api/recommendations?limit=2", "shopper-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d\nBody: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Items []struct {
			Key string `json:"key"`
		} `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Items) != 2 {
		t.Errorf("items = %+v, want 2 fallback recommendations", resp.Items)
	}
}

func TestHealth(t *testing.T) {
	_, mux := testHandler(t, newFakeBackends())

	for _, path := range []string{"/health", "/healthz"} {
		w := doJSON(mux, "GET", path, "", nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, mux := testHandler(t, newFakeBackends())

	w := doJSON(mux, "PUT", "/api/cart", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want 405", w.Code)
	}
}

func TestDecodeJSONInvalidBody(t *testing.T) {
	_, mux := testHandler(t, newFakeBackends())

	req := httptest.NewRequest("POST", "/api/cart/items", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}

	var resp errorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}
