package locale

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/winni-bit/sw-demo-kiosk/internal/frontstack"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Language
	}{
		{"de", German},
		{"de-DE", German},
		{"en", English},
		{"en-GB", English},
		{"EN", English},
		{"", German},
		{"fr", German},
	}
	for _, tt := range tests {
		if got := Parse(tt.input); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func newLocaleService(t *testing.T, handler http.Handler, lang Language) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	content, err := frontstack.New(frontstack.Config{
		BaseURL:    srv.URL,
		Version:    "v1",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("frontstack.New() error: %v", err)
	}
	return NewService(content, lang, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func contextListHandler(t *testing.T, patched *map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/context" && r.Method == http.MethodGet:
			w.Header().Set("fs-context", "ctx-token")
			w.Write([]byte(`[{"region":"de","currency":"EUR","locales":[{"key":"de-DE"},{"key":"en-GB"}]}]`))
		case r.URL.Path == "/context" && r.Method == http.MethodPatch:
			if patched != nil {
				b, _ := io.ReadAll(r.Body)
				json.Unmarshal(b, patched)
			}
			w.Write([]byte(`{"region":"de","locale":"en-GB","token":"ctx-token"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestInit_IsIdempotent(t *testing.T) {
	calls := 0
	s := newLocaleService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("fs-context", "ctx-token")
		w.Write([]byte(`[]`))
	}), German)

	s.Init(context.Background())
	s.Init(context.Background())

	if calls != 1 {
		t.Errorf("context list calls = %d, want 1", calls)
	}
	if s.ContextKey() != "ctx-token" {
		t.Errorf("ContextKey() = %q, want ctx-token", s.ContextKey())
	}
}

func TestInit_ConcurrentFirstRequests(t *testing.T) {
	var calls atomic.Int32
	s := newLocaleService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("fs-context", "ctx-token")
		w.Write([]byte(`[]`))
	}), German)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Init(context.Background())
		}()
	}
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("context list calls = %d, want 1", got)
	}
	if s.ContextKey() != "ctx-token" {
		t.Errorf("ContextKey() = %q, want ctx-token", s.ContextKey())
	}
}

func TestInit_SoftFailure(t *testing.T) {
	s := newLocaleService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}), German)

	s.Init(context.Background())

	if s.ContextKey() != "" {
		t.Error("failed init should leave no token")
	}
	if s.Language() != German {
		t.Error("language should stay at default")
	}
}

func TestSetLanguage_PatchesContext(t *testing.T) {
	var patched map[string]string
	s := newLocaleService(t, contextListHandler(t, &patched), German)
	s.Init(context.Background())

	if !s.SetLanguage(context.Background(), English) {
		t.Fatal("SetLanguage() failed")
	}

	if s.Language() != English {
		t.Errorf("Language() = %q, want en", s.Language())
	}
	if patched["region"] != "de" || patched["locale"] != "en-GB" {
		t.Errorf("patched context = %v, want region de locale en-GB", patched)
	}
}

func TestSetLanguage_NoTokenStillSwitches(t *testing.T) {
	s := newLocaleService(t, http.NewServeMux(), German)

	if !s.SetLanguage(context.Background(), English) {
		t.Fatal("SetLanguage() without token should succeed")
	}
	if s.Language() != English {
		t.Errorf("Language() = %q, want en", s.Language())
	}
}

func TestT_FollowsLanguage(t *testing.T) {
	s := newLocaleService(t, http.NewServeMux(), German)

	if got := s.T().NoProducts; got != "Keine Produkte verfügbar" {
		t.Errorf("german NoProducts = %q", got)
	}
	s.SetLanguage(context.Background(), English)
	if got := s.T().NoProducts; got != "No products available" {
		t.Errorf("english NoProducts = %q", got)
	}
}
