package internal

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// BaseURL is where this server is reachable; defaults to localhost:Port.
	BaseURL string

	// Users API the sign-up form posts to
	UsersAPIURL     string
	UsersAPITimeout time.Duration

	// In-memory users API for local development
	DevAPIEnabled bool
	DevAPIDelay   time.Duration

	// Form sessions
	FormTTL time.Duration

	// Rate limit for POST /signup, per client IP
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		UsersAPIURL:     strings.TrimRight(getEnv("USERS_API_URL", ""), "/"),
		UsersAPITimeout: getEnvDuration("USERS_API_TIMEOUT", 30*time.Second),

		DevAPIEnabled: getEnvBool("DEV_API_ENABLED", false),
		DevAPIDelay:   getEnvDuration("DEV_API_DELAY", 0),

		FormTTL: getEnvDuration("FORM_TTL", 30*time.Minute),

		SubmitRateLimit:  getEnvInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: getEnvDuration("SUBMIT_RATE_WINDOW", time.Minute),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")

	// The dev API is served by this process, so it is the default target.
	if cfg.UsersAPIURL == "" {
		if !cfg.DevAPIEnabled {
			return nil, fmt.Errorf("USERS_API_URL is required unless DEV_API_ENABLED is true")
		}
		cfg.UsersAPIURL = cfg.BaseURL
	}
	if u, err := url.Parse(cfg.UsersAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("USERS_API_URL must be an absolute URL, got: %q", cfg.UsersAPIURL)
	}

	if cfg.UsersAPITimeout <= 0 {
		return nil, fmt.Errorf("USERS_API_TIMEOUT must be positive, got: %s", cfg.UsersAPITimeout)
	}
	if cfg.SubmitRateLimit < 1 {
		return nil, fmt.Errorf("SUBMIT_RATE_LIMIT must be at least 1, got: %d", cfg.SubmitRateLimit)
	}

	return cfg, nil
}

// IsSecure reports whether cookies and HSTS should assume HTTPS.
func (c *Config) IsSecure() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
