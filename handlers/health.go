// ABOUTME: Health check endpoint reporting upstream auth configuration
// ABOUTME: Used by load balancers and the CLI to verify the proxy is up

package handlers

import "net/http"

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":        "ok",
		"mode":          string(h.cfg.AuthMode),
		"auth_endpoint": h.cfg.AuthEndpoint != "",
		"sign_endpoint": h.cfg.SignEndpoint != "",
	}
	h.writeJSON(w, http.StatusOK, resp)
}
