package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/paybridge/internal/common"
)

// Config holds application configuration loaded from the environment. Each
// setting has exactly one canonical environment variable name.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	MetricsBucketsCSV  string
	TracingEnabled     bool
	TracingEndpoint    string
	TracingSampleRatio float64

	// Defaults applied to inbound payloads.
	CurrencyCode    string
	ShippingLabel   string
	SharedToken     string
	MaxBodyBytes    int64
	RateLimitMax    int
	RateLimitWindow time.Duration

	// Commerce platform (Shopify Admin API).
	ShopifyShopDomain string
	ShopifyAdminToken string
	ShopifyAPIVersion string
	SubmitMode        string

	// Payment processor (PayPal REST API). Optional: when unset, requests
	// must carry the captured total inline.
	PayPalClientID string
	PayPalSecret   string
	PayPalBaseURL  string

	// Outbound HTTP behaviour shared by both upstream clients.
	UpstreamTimeout     time.Duration
	UpstreamMaxAttempts int
	UpstreamBackoffBase time.Duration
}

// SubmitMode values selecting the commerce submission shape.
const (
	SubmitModeOrder = "order"
	SubmitModeDraft = "draft"
)

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),

		MetricsBucketsCSV:  k.String("HTTP_METRICS_BUCKETS_MS"),
		TracingEnabled:     boolValue(k.String("TRACING_ENABLED")),
		TracingEndpoint:    strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingSampleRatio: floatOrDefault(k.String("TRACING_SAMPLE_RATIO"), 1),

		CurrencyCode:    strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		ShippingLabel:   valueOrDefault(k.String("DEFAULT_SHIPPING_LABEL"), "Standard Shipping"),
		SharedToken:     strings.TrimSpace(k.String("BRIDGE_SHARED_TOKEN")),
		MaxBodyBytes:    int64(intOrDefault(k.String("MAX_BODY_BYTES"), 1<<20)),
		RateLimitMax:    intOrDefault(k.String("RATE_LIMIT_MAX"), 60),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),

		ShopifyShopDomain: strings.TrimSpace(k.String("SHOPIFY_SHOP_DOMAIN")),
		ShopifyAdminToken: strings.TrimSpace(k.String("SHOPIFY_ADMIN_TOKEN")),
		ShopifyAPIVersion: valueOrDefault(k.String("SHOPIFY_API_VERSION"), "2024-07"),
		SubmitMode:        strings.ToLower(valueOrDefault(k.String("COMMERCE_SUBMIT_MODE"), SubmitModeDraft)),

		PayPalClientID: strings.TrimSpace(k.String("PAYPAL_CLIENT_ID")),
		PayPalSecret:   strings.TrimSpace(k.String("PAYPAL_CLIENT_SECRET")),
		PayPalBaseURL:  valueOrDefault(k.String("PAYPAL_BASE_URL"), "https://api-m.paypal.com"),

		UpstreamTimeout:     parseDuration(k.String("UPSTREAM_TIMEOUT"), "10s"),
		UpstreamMaxAttempts: intOrDefault(k.String("UPSTREAM_MAX_ATTEMPTS"), 3),
		UpstreamBackoffBase: parseDuration(k.String("UPSTREAM_BACKOFF_BASE"), "200ms"),
	}

	if cfg.ShopifyShopDomain == "" {
		return nil, errors.New("SHOPIFY_SHOP_DOMAIN is required")
	}
	if cfg.ShopifyAdminToken == "" {
		return nil, errors.New("SHOPIFY_ADMIN_TOKEN is required")
	}
	if cfg.SubmitMode != SubmitModeOrder && cfg.SubmitMode != SubmitModeDraft {
		return nil, fmt.Errorf("COMMERCE_SUBMIT_MODE must be %q or %q", SubmitModeOrder, SubmitModeDraft)
	}

	return cfg, nil
}

// PayPalConfigured reports whether processor credentials are present.
func (c *Config) PayPalConfigured() bool {
	return c.PayPalClientID != "" && c.PayPalSecret != ""
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value string, fallback int) int {
	return common.AtoiDefault(strings.TrimSpace(value), fallback)
}

func floatOrDefault(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolValue(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
