// ABOUTME: Configuration loader for the auth proxy service
// ABOUTME: Loads settings from .env and environment variables with defaults

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Mode selects how the SDK reaches the auth service.
type Mode string

const (
	// ModeProxy relays every operation through the same-origin proxy
	// endpoints served by this repository's handlers.
	ModeProxy Mode = "proxy"
	// ModeDirect calls the external auth service straight from the caller.
	ModeDirect Mode = "direct"
)

type Config struct {
	// Server
	Port               string
	CORSAllowedOrigins []string // allowed CORS origins (empty = block all cross-origin)
	CookieSecure       bool     // Set Secure flag on session cookies (default: true)

	// Auth service
	AuthEndpoint string // external auth service base URL
	SignEndpoint string // signed-URL prefix for challenge verification
	AuthMode     Mode   // proxy or direct (default: proxy)

	// Refresh replay window
	ReplayTTL int // seconds a consumed refresh token still answers duplicates (default 30)

	// Rate Limiting
	RateLimitEnabled bool // Enable rate limiting (default: true)
	RateLimitAuth    int  // Requests per minute for login/register/password (default: 5)
	RateLimitRefresh int  // Requests per minute for refresh endpoint (default: 10)
	RateLimitDefault int  // Requests per minute for all other endpoints (default: 100)
}

// Load reads configuration from a .env file (if present) and the
// environment. Environment variables win over .env values.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env config is the common deployment.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowedOrigins: getEnvStringList("CORS_ALLOWED_ORIGINS"),
		CookieSecure:       getEnvBool("COOKIE_SECURE", true),

		AuthEndpoint: ensureScheme(os.Getenv("AUTH_ENDPOINT")),
		SignEndpoint: ensureScheme(os.Getenv("SIGN_ENDPOINT")),

		ReplayTTL: getEnvInt("REFRESH_REPLAY_TTL", 30),

		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitAuth:    getEnvInt("RATE_LIMIT_AUTH", 5),
		RateLimitRefresh: getEnvInt("RATE_LIMIT_REFRESH", 10),
		RateLimitDefault: getEnvInt("RATE_LIMIT_DEFAULT", 100),
	}

	mode, err := ValidateMode(os.Getenv("AUTH_MODE"))
	if err != nil {
		return nil, err
	}
	cfg.AuthMode = mode

	// Validate required fields
	if cfg.AuthEndpoint == "" {
		return nil, fmt.Errorf("AUTH_ENDPOINT is required")
	}
	if cfg.SignEndpoint == "" {
		return nil, fmt.Errorf("SIGN_ENDPOINT is required")
	}

	// Validate rate limit values
	for _, rl := range []struct {
		name  string
		value int
	}{
		{"RATE_LIMIT_AUTH", cfg.RateLimitAuth},
		{"RATE_LIMIT_REFRESH", cfg.RateLimitRefresh},
		{"RATE_LIMIT_DEFAULT", cfg.RateLimitDefault},
	} {
		if rl.value < 1 || rl.value > 10000 {
			return nil, fmt.Errorf("%s must be between 1 and 10000, got %d", rl.name, rl.value)
		}
	}

	return cfg, nil
}

// ValidateMode validates an auth mode string. Empty defaults to proxy.
func ValidateMode(mode string) (Mode, error) {
	switch mode {
	case "", "proxy":
		return ModeProxy, nil
	case "direct":
		return ModeDirect, nil
	default:
		return "", fmt.Errorf("invalid auth mode: %q (must be proxy or direct)", mode)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
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

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}
