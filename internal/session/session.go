// Package session owns the Shopware context token for one storefront
// session. The token identifies the cart and login state on the Store
// API side; all clients read it from here and write rotations back.
package session

import (
	"net/http"
	"sync"
	"time"
)

// TokenHeader is the header Shopware uses to carry the context token
// in both directions.
const TokenHeader = "sw-context-token"

// CookieName persists the token across kiosk page loads.
const CookieName = "sw-context-token"

// cookieMaxAge keeps the session for 30 days, matching the Shopware
// default context token lifetime.
const cookieMaxAge = int(30 * 24 * time.Hour / time.Second)

// Store holds the context token for a session. Safe for concurrent
// use; the Store API may rotate the token on any response, so writers
// and readers can race.
type Store struct {
	mu    sync.Mutex
	token string
}

// New returns a Store primed with an existing token, or an anonymous
// one when token is empty. Anonymous stores acquire their token from
// the first Store API response.
func New(token string) *Store {
	return &Store{token: token}
}

// Get returns the current token, or "" for anonymous sessions.
func (s *Store) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set stores a rotated token. Empty values are ignored so a response
// without a token header never wipes an established session.
func (s *Store) Set(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the token, detaching the session from its cart and
// login state.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// FromRequest extracts the context token from an incoming request.
// The header wins over the cookie so API clients can override a stale
// browser cookie.
func FromRequest(r *http.Request) string {
	if tok := r.Header.Get(TokenHeader); tok != "" {
		return tok
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Write relays a token to the client on both channels: the response
// header for API consumers and a cookie for browsers.
func Write(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	w.Header().Set(TokenHeader, token)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}
