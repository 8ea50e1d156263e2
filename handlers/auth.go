// ABOUTME: Auth proxy handlers for login, logout, refresh, password, register, and user
// ABOUTME: Sessions live in four httpOnly-backed cookies; tokens never reach page scripts

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/commercekit/shopauth/middleware"
	"github.com/commercekit/shopauth/models"
)

// Login runs the full challenge handshake upstream and installs the
// session cookies on success.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeProxyError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		h.writeProxyError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	svc := h.newService()
	resp := svc.Login(r.Context(), creds)
	if !resp.Succeeded {
		slog.Warn("Login failed", "username", creds.Username)
		middleware.AuthOperations.WithLabelValues("login", "failure").Inc()
		h.writeProxy(w, http.StatusUnauthorized, resp)
		return
	}

	maxAge := sessionMaxAge(creds.RememberUser)
	h.cookies.Write(w, creds.Username, resp.Tokens.Token, svc.RefreshTokenValue(), maxAge)
	middleware.AuthOperations.WithLabelValues("login", "success").Inc()
	h.writeProxy(w, http.StatusOK, resp)
}

// Register creates an account upstream; the exchange mirrors login, so a
// successful registration also signs the user in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeProxyError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		h.writeProxyError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	svc := h.newService()
	resp := svc.Register(r.Context(), creds)
	if !resp.Succeeded {
		middleware.AuthOperations.WithLabelValues("register", "failure").Inc()
		h.writeProxy(w, http.StatusUnauthorized, resp)
		return
	}

	maxAge := sessionMaxAge(creds.RememberUser)
	h.cookies.Write(w, creds.Username, resp.Tokens.Token, svc.RefreshTokenValue(), maxAge)
	middleware.AuthOperations.WithLabelValues("register", "success").Inc()
	h.writeProxy(w, http.StatusOK, resp)
}

// Logout tells the upstream to drop the session, then clears the cookies.
// The cookies are cleared even when the upstream call fails.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sc := h.cookies.Read(r)
	svc := h.newService()
	svc.Seed(sc.RefreshToken, sc.MaxAge)
	resp := svc.Logout(r.Context())

	h.cookies.Clear(w)
	middleware.AuthOperations.WithLabelValues("logout", "success").Inc()
	h.writeProxy(w, http.StatusOK, resp)
}

// Refresh exchanges the refresh cookie for a new token pair. A refresh token
// that was just consumed still answers from the replay cache, so a burst of
// concurrent tabs all land on the same rotation.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	sc := h.cookies.Read(r)
	if sc.RefreshToken == "" {
		h.writeProxyError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if prev, ok := h.replay.Get(sc.RefreshToken); ok {
		slog.Debug("Refresh replay hit")
		h.cookies.Write(w, prev.User, prev.Response.Tokens.Token, prev.Response.Tokens.RefreshToken, prev.MaxAge)
		h.writeProxy(w, http.StatusOK, prev.Response)
		return
	}

	svc := h.newService()
	svc.Seed(sc.RefreshToken, sc.MaxAge)
	// A failed refresh leaves the cookies alone: the refresh token may be
	// perfectly good once the upstream recovers, and only an expired token
	// ends the session.
	resp := svc.Refresh(r.Context(), "")
	if !resp.Succeeded {
		slog.Warn("Token refresh failed")
		middleware.AuthOperations.WithLabelValues("refresh", "failure").Inc()
		h.writeProxy(w, http.StatusUnauthorized, resp)
		return
	}

	resp.Tokens.RefreshToken = svc.RefreshTokenValue()
	h.replay.Set(sc.RefreshToken, replayEntry{Response: resp, User: sc.User, MaxAge: sc.MaxAge})
	h.cookies.Write(w, sc.User, resp.Tokens.Token, resp.Tokens.RefreshToken, sc.MaxAge)
	middleware.AuthOperations.WithLabelValues("refresh", "success").Inc()
	h.writeProxy(w, http.StatusOK, resp)
}

// ChangePassword rotates the password upstream. The exchange returns a fresh
// token pair, so the session cookies are rewritten on success.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeProxyError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if creds.NewPassword == "" {
		h.writeProxyError(w, http.StatusBadRequest, "New password is required")
		return
	}

	sc := h.cookies.Read(r)
	svc := h.newService()
	svc.Seed(sc.RefreshToken, sc.MaxAge)
	resp := svc.ChangePassword(r.Context(), creds)
	if !resp.Succeeded {
		middleware.AuthOperations.WithLabelValues("password", "failure").Inc()
		h.writeProxy(w, http.StatusUnauthorized, resp)
		return
	}

	h.cookies.Write(w, creds.Username, resp.Tokens.Token, svc.RefreshTokenValue(), sessionMaxAge(creds.RememberUser))
	middleware.AuthOperations.WithLabelValues("password", "success").Inc()
	h.writeProxy(w, http.StatusOK, resp)
}

// User reports the current session. Only a token that is explicitly expired
// with no refresh left to try clears the cookies; any other failure answers
// with the error envelope and keeps the session intact. A token close to
// expiry is refreshed in place so the answer carries the rotated pair.
func (h *Handler) User(w http.ResponseWriter, r *http.Request) {
	sc := h.cookies.Read(r)
	if sc.AccessToken == "" && sc.RefreshToken == "" {
		h.writeProxyError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	svc := h.newService()
	svc.Seed(sc.RefreshToken, sc.MaxAge)
	resp := svc.GetUser(r.Context(), sc.AccessToken)
	if resp.Tokens != nil && resp.Tokens.Expired {
		h.cookies.Clear(w)
		h.writeProxy(w, http.StatusUnauthorized, resp)
		return
	}
	if !resp.Succeeded {
		h.writeProxy(w, http.StatusUnauthorized, resp)
		return
	}

	if resp.Tokens != nil && resp.Tokens.ExpiresSoon {
		if refreshed := svc.Refresh(r.Context(), ""); refreshed.Succeeded {
			resp = refreshed
		}
	}

	rotated := svc.RefreshTokenValue()
	if resp.Tokens.Token != sc.AccessToken || (rotated != "" && rotated != sc.RefreshToken) {
		h.cookies.Write(w, sc.User, resp.Tokens.Token, rotated, sc.MaxAge)
	}
	h.writeProxy(w, http.StatusOK, resp)
}

func sessionMaxAge(remember bool) int {
	if remember {
		return models.SessionMaxAgeRemembered
	}
	return models.SessionMaxAgeDefault
}
