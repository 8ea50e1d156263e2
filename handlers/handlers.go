// ABOUTME: HTTP handlers for the same-origin auth proxy endpoints
// ABOUTME: Wraps upstream auth results in the proxy envelope and manages session cookies

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/commercekit/shopauth/cache"
	"github.com/commercekit/shopauth/config"
	"github.com/commercekit/shopauth/models"
	"github.com/commercekit/shopauth/services"
)

// replayEntry remembers the outcome of a refresh exchange so a duplicate
// request carrying an already-consumed refresh token gets the same answer
// instead of a hard failure from the upstream.
type replayEntry struct {
	Response models.AuthResponse
	User     string
	MaxAge   int
}

type Handler struct {
	cfg     *config.Config
	cookies *services.CookieStore
	replay  *cache.Cache[replayEntry]

	// newService builds the per-request auth service. Tests override
	// endpoints through cfg, so the default constructor is enough.
	newService func() *services.AuthService
}

func NewHandler(cfg *config.Config, replay *cache.Cache[replayEntry]) *Handler {
	h := &Handler{
		cfg:     cfg,
		cookies: services.NewCookieStore(cfg.CookieSecure),
		replay:  replay,
	}
	h.newService = func() *services.AuthService {
		return services.NewAuthService(cfg.AuthEndpoint, cfg.SignEndpoint)
	}
	return h
}

// NewReplayCache builds the refresh-replay cache with the configured TTL.
func NewReplayCache(cfg *config.Config) *cache.Cache[replayEntry] {
	return cache.New[replayEntry](time.Duration(cfg.ReplayTTL) * time.Second)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeProxy wraps an auth result in the proxy envelope. The HTTP status is
// mirrored into the envelope so browser clients can read it from the body.
func (h *Handler) writeProxy(w http.ResponseWriter, status int, resp models.AuthResponse) {
	body := models.ProxyBody{Data: &resp}
	if !resp.Succeeded {
		body.Error = true
		if resp.Error != nil {
			body.Message = resp.Error.Message
		}
	}
	h.writeJSON(w, status, models.ProxyResponse{Status: status, Body: body})
}

// writeProxyError answers with a bare message envelope, for failures that
// happen before any auth exchange runs (bad JSON, missing cookies).
func (h *Handler) writeProxyError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, models.ProxyResponse{
		Status: status,
		Body:   models.ProxyBody{Message: message, Error: true},
	})
}
