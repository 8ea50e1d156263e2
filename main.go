// ABOUTME: Entry point for the shopauth session proxy service
// ABOUTME: Serves the same-origin auth endpoints with logging, CORS, rate limits, and metrics

package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/commercekit/shopauth/config"
	"github.com/commercekit/shopauth/handlers"
	"github.com/commercekit/shopauth/logger"
	"github.com/commercekit/shopauth/middleware"
)

func main() {
	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting shopauth session proxy")
	slog.Info("Upstream configured", "auth", cfg.AuthEndpoint, "sign", cfg.SignEndpoint, "mode", cfg.AuthMode)

	middleware.InitMetrics()

	// Replay cache keeps answered refresh rotations around briefly
	replay := handlers.NewReplayCache(cfg)
	defer replay.Stop()
	slog.Info("Refresh replay cache initialized", "ttl", time.Duration(cfg.ReplayTTL)*time.Second)

	h := handlers.NewHandler(cfg, replay)

	// Per-group limiters: tight on credential endpoints, looser on refresh
	authLimiter := middleware.NewRateLimiter(cfg.RateLimitAuth, time.Minute)
	refreshLimiter := middleware.NewRateLimiter(cfg.RateLimitRefresh, time.Minute)
	defaultLimiter := middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)

	limiterFor := func(path string) middleware.Middleware {
		if !cfg.RateLimitEnabled {
			return func(next http.HandlerFunc) http.HandlerFunc { return next }
		}
		switch path {
		case "/api/auth/login", "/api/auth/register", "/api/auth/password":
			return middleware.RateLimit(authLimiter, middleware.ClientIP)
		case "/api/auth/refresh":
			return middleware.RateLimit(refreshLimiter, middleware.SessionKey)
		default:
			return middleware.RateLimit(defaultLimiter, middleware.ClientIP)
		}
	}

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(
			route.Handler,
			middleware.LogRequest,
			middleware.Metrics,
			middleware.CORS(cfg.CORSAllowedOrigins),
			limiterFor(route.Path),
		))
	}
	mux.Handle("/metrics", middleware.MetricsHandler())

	addr := ":" + cfg.Port
	slog.Info("Server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
