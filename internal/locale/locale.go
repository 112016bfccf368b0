// Package locale manages the kiosk display language and keeps the
// content API context in sync with it. The catalog is served per
// region/locale context; switching the kiosk language patches that
// context so listings come back localized.
package locale

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/winni-bit/sw-demo-kiosk/internal/frontstack"
)

// Language is a kiosk display language.
type Language string

const (
	German  Language = "de"
	English Language = "en"
)

// Parse maps arbitrary language input ("en", "en-GB") to a supported
// Language, defaulting to German.
func Parse(s string) Language {
	if strings.HasPrefix(strings.ToLower(s), "en") {
		return English
	}
	return German
}

// Strings holds the static UI texts of one language.
type Strings struct {
	ShopName              string `json:"shopName"`
	NoProducts            string `json:"noProducts"`
	NoProductsDescription string `json:"noProductsDescription"`
	Category              string `json:"category"`
	Product               string `json:"product"`
}

var translations = map[Language]Strings{
	German: {
		ShopName:              "Kiosk Shop",
		NoProducts:            "Keine Produkte verfügbar",
		NoProductsDescription: "Derzeit sind keine Produkte vorhanden.",
		Category:              "Kategorie",
		Product:               "Produkt",
	},
	English: {
		ShopName:              "Kiosk Shop",
		NoProducts:            "No products available",
		NoProductsDescription: "There are currently no products available.",
		Category:              "Category",
		Product:               "Product",
	},
}

// Service tracks the session language and the content API context
// bound to it.
type Service struct {
	content *frontstack.Client
	logger  *slog.Logger

	// initMu serializes Init so concurrent first requests make one
	// backend call. A plain once does not fit: failed attempts must
	// stay retryable.
	initMu sync.Mutex

	mu          sync.Mutex
	lang        Language
	token       string
	options     []frontstack.ContextOption
	initialized bool
}

// NewService creates a locale service starting in the given language.
func NewService(content *frontstack.Client, defaultLang Language, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLang == "" {
		defaultLang = German
	}
	return &Service{content: content, logger: logger, lang: defaultLang}
}

// Init acquires a content context token and the selectable contexts.
// Idempotent; failures are soft so the kiosk starts even when the
// content API is down.
func (s *Service) Init(ctx context.Context) {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	done := s.initialized
	s.mu.Unlock()
	if done {
		return
	}

	options, token, err := s.content.ContextList(ctx, "")
	if err != nil {
		s.logger.Error("initializing content context", "error", err)
		return
	}

	s.mu.Lock()
	s.options = options
	s.token = token
	s.initialized = true
	s.mu.Unlock()
	s.logger.Info("content context initialized", "token", token, "contexts", len(options))
}

// Language returns the current display language.
func (s *Service) Language() Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lang
}

// ContextKey returns the content context token, or "" before Init
// succeeded. Listing calls pass it as fs-context.
func (s *Service) ContextKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// T returns the UI strings of the current language.
func (s *Service) T() Strings {
	return translations[s.Language()]
}

// SetLanguage switches the display language and patches the content
// context to a matching region/locale. The language switch itself
// always succeeds; only the context patch can fail, and that is
// reported but not fatal.
func (s *Service) SetLanguage(ctx context.Context, lang Language) bool {
	s.mu.Lock()
	if s.lang == lang && s.initialized {
		s.mu.Unlock()
		return true
	}
	s.lang = lang
	token := s.token
	s.mu.Unlock()

	if token == "" {
		return true
	}

	region, localeKey, ok := s.matchContext(lang)
	if !ok {
		s.logger.Warn("no matching content context for language", "language", lang)
		return true
	}

	if _, err := s.content.ContextUpdate(ctx, region, localeKey, token); err != nil {
		s.logger.Error("updating content context", "language", lang, "error", err)
		return false
	}
	s.logger.Info("content context updated", "region", region, "locale", localeKey)
	return true
}

// matchContext finds the locale whose key starts with the language
// code. The region of the first context option is the default; the
// store runs a single region per kiosk.
func (s *Service) matchContext(lang Language) (region, localeKey string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.options) == 0 {
		return "", "", false
	}
	region = s.options[0].Region

	for _, opt := range s.options {
		for _, loc := range opt.Locales {
			if strings.HasPrefix(strings.ToLower(loc.Key), string(lang)) {
				return region, loc.Key, true
			}
		}
	}
	return "", "", false
}
