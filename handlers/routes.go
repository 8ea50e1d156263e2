// ABOUTME: Declarative route table for the auth proxy endpoints
// ABOUTME: Defines all routes with their HTTP methods and handlers

package handlers

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/api/auth/login")
	Handler http.HandlerFunc // Handler function
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health & Status
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health},

		// Auth
		{Method: http.MethodPost, Path: "/api/auth/login", Handler: h.Login},
		{Method: http.MethodPost, Path: "/api/auth/logout", Handler: h.Logout},
		{Method: http.MethodPost, Path: "/api/auth/refresh", Handler: h.Refresh},
		{Method: http.MethodPost, Path: "/api/auth/password", Handler: h.ChangePassword},
		{Method: http.MethodPost, Path: "/api/auth/register", Handler: h.Register},
		{Method: http.MethodGet, Path: "/api/auth/user", Handler: h.User},
	}
}
