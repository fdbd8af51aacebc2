package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
//
// The three gateway values are deliberately separate: the buy-link secret
// signs outbound checkout links, the INS secret verifies inbound payment
// notifications, and the seller id is the public merchant identifier that
// must match the vendor account exactly.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	SellerID        string
	BuyLinkSecret   string
	INSSecret       string
	CheckoutBaseURL string
	LinkVariant     string
	ReturnURL       string
	CancelURL       string

	IdempotencyTTL   time.Duration
	WebhookReplayTTL time.Duration
	WebhookRateLimit string

	MigrationsDir string
	AutoMigrate   bool
}

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
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		JWTSecret:          k.String("JWT_SECRET"),
		JWTIssuer:          valueOrDefault(k.String("JWT_ISSUER"), "storefront-api"),
		JWTAudience:        strings.TrimSpace(k.String("JWT_AUDIENCE")),
		SellerID:           strings.TrimSpace(k.String("TWOCHECKOUT_SELLER_ID")),
		BuyLinkSecret:      k.String("TWOCHECKOUT_BUYLINK_SECRET"),
		INSSecret:          k.String("TWOCHECKOUT_INS_SECRET"),
		CheckoutBaseURL:    strings.TrimSpace(k.String("TWOCHECKOUT_CHECKOUT_BASE_URL")),
		LinkVariant:        valueOrDefault(k.String("TWOCHECKOUT_LINK_VARIANT"), "buylink"),
		ReturnURL:          strings.TrimSpace(k.String("PAYMENT_RETURN_URL")),
		CancelURL:          strings.TrimSpace(k.String("PAYMENT_CANCEL_URL")),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		WebhookReplayTTL:   parseDuration(k.String("WEBHOOK_REPLAY_TTL"), "48h"),
		WebhookRateLimit:   valueOrDefault(k.String("WEBHOOK_RATE_LIMIT"), "120-M"),
		MigrationsDir:      valueOrDefault(k.String("MIGRATIONS_DIR"), "migrations"),
		AutoMigrate:        parseBool(valueOrDefault(k.String("AUTO_MIGRATE"), "true")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.SellerID == "" {
		return nil, errors.New("TWOCHECKOUT_SELLER_ID is required")
	}
	if cfg.BuyLinkSecret == "" {
		return nil, errors.New("TWOCHECKOUT_BUYLINK_SECRET is required")
	}
	if cfg.INSSecret == "" {
		return nil, errors.New("TWOCHECKOUT_INS_SECRET is required")
	}
	if cfg.ReturnURL == "" || cfg.CancelURL == "" {
		return nil, errors.New("PAYMENT_RETURN_URL and PAYMENT_CANCEL_URL are required")
	}

	return cfg, nil
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
		if trimmed := strings.TrimSpace(part); trimmed != "" {
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

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadForTests overrides environment variables for the duration of a Load call.
func LoadForTests(envOverrides map[string]string) (*Config, error) {
	original := make(map[string]string, len(envOverrides))
	for key := range envOverrides {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, envOverrides[key]); err != nil {
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
