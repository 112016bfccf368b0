// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Per-client rate limit for the public gateway endpoints
	RateLimitRPS   float64
	RateLimitBurst int

	// Store-specific configuration (loaded from secrets)
	Store StoreConfig
}

// StoreConfig contains the Shopware and content API settings for one
// kiosk deployment.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type StoreConfig struct {
	ShopwareURL   string `json:"shopware_url"`
	StoreDomain   string `json:"store_domain"` // Derived from ShopwareURL if not set
	AccessKey     string `json:"access_key"`   // sw-access-key of the sales channel
	StorefrontURL string `json:"storefront_url,omitempty"`

	// Frontstack content API
	FrontstackURL     string `json:"frontstack_url"`
	FrontstackVersion string `json:"frontstack_version"`

	ShopName        string `json:"shop_name,omitempty"`
	DefaultLanguage string `json:"default_language,omitempty"` // "de" or "en"
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Otherwise, use ENV vars / Secret Manager approach
	cfg := &Config{
		Port:           envOrDefault("PORT", "8080"),
		Environment:    envOrDefault("ENVIRONMENT", "development"),
		LogLevel:       envOrDefault("LOG_LEVEL", "info"),
		GCPProject:     os.Getenv("GCP_PROJECT"),
		StoreID:        os.Getenv("STORE_ID"),
		RateLimitRPS:   envFloatOrDefault("RATE_LIMIT_RPS", 10),
		RateLimitBurst: envIntOrDefault("RATE_LIMIT_BURST", 20),
	}

	// StoreID required in all environments
	if cfg.StoreID == "" {
		return nil, fmt.Errorf("STORE_ID environment variable required")
	}

	// Load store config based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	cfg.applyDefaults()

	// Validate required store fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port           string      `json:"port"`
		Environment    string      `json:"environment"`
		LogLevel       string      `json:"log_level"`
		StoreID        string      `json:"store_id"`
		RateLimitRPS   float64     `json:"rate_limit_rps"`
		RateLimitBurst int         `json:"rate_limit_burst"`
		Store          StoreConfig `json:"store"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:           withDefault(fileConfig.Port, "8080"),
		Environment:    withDefault(fileConfig.Environment, "development"),
		LogLevel:       withDefault(fileConfig.LogLevel, "info"),
		StoreID:        fileConfig.StoreID,
		RateLimitRPS:   fileConfig.RateLimitRPS,
		RateLimitBurst: fileConfig.RateLimitBurst,
		Store:          fileConfig.Store,
	}

	if cfg.StoreID == "" {
		return nil, fmt.Errorf("store_id is required")
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 20
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Store); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads store config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		ShopwareURL:       os.Getenv("SHOPWARE_URL"),
		StoreDomain:       os.Getenv("STORE_DOMAIN"),
		AccessKey:         os.Getenv("SHOPWARE_ACCESS_KEY"),
		StorefrontURL:     os.Getenv("STOREFRONT_URL"),
		FrontstackURL:     os.Getenv("FRONTSTACK_URL"),
		FrontstackVersion: os.Getenv("FRONTSTACK_VERSION"),
		ShopName:          os.Getenv("SHOP_NAME"),
		DefaultLanguage:   os.Getenv("DEFAULT_LANGUAGE"),
	}
	return nil
}

// applyDefaults fills derived and optional fields after loading.
func (c *Config) applyDefaults() {
	// Derive store domain from URL if not explicitly set
	if c.Store.StoreDomain == "" && c.Store.ShopwareURL != "" {
		c.Store.StoreDomain = extractDomain(c.Store.ShopwareURL)
	}
	// Shopware requires a storefrontUrl on registration; headless
	// channels conventionally use a synthetic default domain.
	if c.Store.StorefrontURL == "" && c.Store.StoreDomain != "" {
		c.Store.StorefrontURL = "https://default.headless0." + c.Store.StoreDomain
	}
	if c.Store.DefaultLanguage == "" {
		c.Store.DefaultLanguage = "de"
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.ShopwareURL == "" {
		return fmt.Errorf("shopware_url is required")
	}
	if c.Store.AccessKey == "" {
		return fmt.Errorf("access_key is required")
	}
	if c.Store.FrontstackURL == "" {
		return fmt.Errorf("frontstack_url is required")
	}
	if c.Store.FrontstackVersion == "" {
		return fmt.Errorf("frontstack_version is required")
	}

	// Validate URLs are well-formed
	if _, err := url.Parse(c.Store.ShopwareURL); err != nil {
		return fmt.Errorf("invalid shopware_url: %w", err)
	}
	if _, err := url.Parse(c.Store.FrontstackURL); err != nil {
		return fmt.Errorf("invalid frontstack_url: %w", err)
	}

	return nil
}

// extractDomain parses the domain from a URL string.
func extractDomain(storeURL string) string {
	u, err := url.Parse(storeURL)
	if err != nil {
		// Fallback: strip protocol prefix manually
		domain := strings.TrimPrefix(storeURL, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// envIntOrDefault parses an integer environment variable, falling back
// to the default on absence or parse failure.
func envIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

// envFloatOrDefault parses a float environment variable, falling back
// to the default on absence or parse failure.
func envFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
