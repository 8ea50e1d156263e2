// ABOUTME: AuthClient façade exposing the auth operations in proxy and direct modes
// ABOUTME: Proxy mode relays to the same-origin endpoints; direct mode owns an AuthService

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/commercekit/shopauth/config"
	"github.com/commercekit/shopauth/models"
	"github.com/commercekit/shopauth/services"
)

// Options configures an AuthClient. Proxy mode needs BaseURL; direct mode
// needs AuthEndpoint and SignEndpoint.
type Options struct {
	Mode         config.Mode
	BaseURL      string
	AuthEndpoint string
	SignEndpoint string
	CookieSecure bool
	HTTPClient   *http.Client
}

// AuthClient is the single entry point callers use for auth operations.
// Operations take the caller's ResponseWriter and Request so the session
// cookies travel with the caller's own request context.
type AuthClient struct {
	mode       config.Mode
	baseURL    string
	httpClient *http.Client
	cookies    *services.CookieStore

	svc          *services.AuthService
	refreshGroup singleflight.Group
	refreshWG    sync.WaitGroup
}

func New(opts Options) (*AuthClient, error) {
	c := &AuthClient{
		mode:       opts.Mode,
		baseURL:    opts.BaseURL,
		httpClient: opts.HTTPClient,
		cookies:    services.NewCookieStore(opts.CookieSecure),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	switch opts.Mode {
	case config.ModeProxy:
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("proxy mode requires a base URL")
		}
	case config.ModeDirect:
		if opts.AuthEndpoint == "" || opts.SignEndpoint == "" {
			return nil, fmt.Errorf("direct mode requires auth and sign endpoints")
		}
		c.svc = services.NewAuthService(opts.AuthEndpoint, opts.SignEndpoint)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", opts.Mode)
	}
	return c, nil
}

// Login authenticates and installs the session cookies. The returned
// response never carries a transport error as a Go error; failures are
// reported through the Error field.
func (c *AuthClient) Login(w http.ResponseWriter, r *http.Request, creds models.Credentials) models.AuthResponse {
	if c.mode == config.ModeProxy {
		return c.relay(w, r, http.MethodPost, "/api/auth/login", creds)
	}

	resp := c.svc.Login(r.Context(), creds)
	if resp.Succeeded {
		c.cookies.Write(w, creds.Username, resp.Tokens.Token, c.svc.RefreshTokenValue(), sessionMaxAge(creds.RememberUser))
	}
	return resp
}

// Register creates an account and, like login, signs the user in on success.
func (c *AuthClient) Register(w http.ResponseWriter, r *http.Request, creds models.Credentials) models.AuthResponse {
	if c.mode == config.ModeProxy {
		return c.relay(w, r, http.MethodPost, "/api/auth/register", creds)
	}

	resp := c.svc.Register(r.Context(), creds)
	if resp.Succeeded {
		c.cookies.Write(w, creds.Username, resp.Tokens.Token, c.svc.RefreshTokenValue(), sessionMaxAge(creds.RememberUser))
	}
	return resp
}

// Logout drops the session upstream and clears the cookies. Reports true
// when the cookies were cleared, which is always.
func (c *AuthClient) Logout(w http.ResponseWriter, r *http.Request) bool {
	if c.mode == config.ModeProxy {
		resp := c.relay(w, r, http.MethodPost, "/api/auth/logout", nil)
		return resp.Succeeded
	}

	sc := c.cookies.Read(r)
	c.svc.Seed(sc.RefreshToken, sc.MaxAge)
	c.svc.Logout(r.Context())
	c.cookies.Clear(w)
	return true
}

// ChangePassword rotates the password and rewrites the session cookies with
// the fresh token pair.
func (c *AuthClient) ChangePassword(w http.ResponseWriter, r *http.Request, creds models.Credentials) bool {
	if c.mode == config.ModeProxy {
		resp := c.relay(w, r, http.MethodPost, "/api/auth/password", creds)
		return resp.Succeeded
	}

	sc := c.cookies.Read(r)
	c.svc.Seed(sc.RefreshToken, sc.MaxAge)
	resp := c.svc.ChangePassword(r.Context(), creds)
	if resp.Succeeded {
		c.cookies.Write(w, creds.Username, resp.Tokens.Token, c.svc.RefreshTokenValue(), sessionMaxAge(creds.RememberUser))
	}
	return resp.Succeeded
}

// Refresh forces a token exchange and rewrites the cookies with the rotated
// pair.
func (c *AuthClient) Refresh(w http.ResponseWriter, r *http.Request) models.AuthResponse {
	if c.mode == config.ModeProxy {
		return c.relay(w, r, http.MethodPost, "/api/auth/refresh", nil)
	}

	sc := c.cookies.Read(r)
	if sc.RefreshToken == "" && c.svc.RefreshTokenValue() == "" {
		return models.Failure("no session to refresh", services.ErrNoRefreshToken)
	}
	if sc.RefreshToken != "" {
		c.svc.Seed(sc.RefreshToken, sc.MaxAge)
	}
	resp := c.svc.Refresh(r.Context(), "")
	if resp.Succeeded {
		c.cookies.Write(w, sc.User, resp.Tokens.Token, c.svc.RefreshTokenValue(), sc.MaxAge)
	}
	return resp
}

// GetUser reports the current session. Only an explicitly expired session
// clears the cookies; a transient refresh failure keeps them so the session
// survives an upstream hiccup. A session close to expiry is returned as-is
// while one background refresh rotates the pair; the rotated tokens are
// written back to the cookie store on the next call.
func (c *AuthClient) GetUser(w http.ResponseWriter, r *http.Request) models.AuthResponse {
	if c.mode == config.ModeProxy {
		return c.relay(w, r, http.MethodGet, "/api/auth/user", nil)
	}

	sc := c.cookies.Read(r)
	if sc.AccessToken == "" && sc.RefreshToken == "" && c.svc.RefreshTokenValue() == "" {
		return models.Failure("not authenticated", nil)
	}
	if sc.RefreshToken != "" && c.svc.RefreshTokenValue() == "" {
		c.svc.Seed(sc.RefreshToken, sc.MaxAge)
	}

	token := c.currentToken(sc.AccessToken)
	resp := c.svc.GetUser(r.Context(), token)
	if resp.Tokens != nil && resp.Tokens.Expired {
		c.cookies.Clear(w)
		return resp
	}
	if !resp.Succeeded {
		return resp
	}

	rotated := c.svc.RefreshTokenValue()
	if resp.Tokens.Token != sc.AccessToken || (rotated != "" && rotated != sc.RefreshToken) {
		// The pair rotated since these cookies were issued (an implicit or
		// background refresh); persist it before the stale refresh token
		// outlives its server-side validity.
		c.cookies.Write(w, sc.User, resp.Tokens.Token, rotated, sc.MaxAge)
	} else if resp.Tokens.ExpiresSoon {
		c.refreshInBackground()
	}
	return resp
}

// currentToken prefers a token rotated by a background refresh over the one
// still sitting in the request's cookie.
func (c *AuthClient) currentToken(cookieToken string) string {
	if t := c.svc.TokenValue(); t != "" && t != cookieToken {
		return t
	}
	return cookieToken
}

func (c *AuthClient) refreshInBackground() {
	c.refreshWG.Add(1)
	go func() {
		defer c.refreshWG.Done()
		c.refreshGroup.Do("refresh", func() (interface{}, error) {
			res := c.svc.Refresh(context.Background(), "")
			if !res.Succeeded {
				slog.Debug("Background refresh failed", "message", res.Error.Message)
			}
			return nil, nil
		})
	}()
}

// relay forwards the operation to the proxy endpoints, carrying the
// caller's cookies upstream and the proxy's Set-Cookie headers back.
func (c *AuthClient) relay(w http.ResponseWriter, r *http.Request, method, path string, body interface{}) models.AuthResponse {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return models.Failure("encode request", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(r.Context(), method, c.baseURL+path, buf)
	if err != nil {
		return models.Failure("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range r.Cookies() {
		req.AddCookie(ck)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Failure("auth proxy unreachable", err)
	}
	defer resp.Body.Close()

	for _, sc := range resp.Header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", sc)
	}

	var envelope models.ProxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.Failure("decode proxy response", err)
	}
	if envelope.Body.Data != nil {
		return *envelope.Body.Data
	}
	if envelope.Body.Error {
		return models.Failure(envelope.Body.Message, nil)
	}
	return models.AuthResponse{Succeeded: true}
}

func sessionMaxAge(remember bool) int {
	if remember {
		return models.SessionMaxAgeRemembered
	}
	return models.SessionMaxAgeDefault
}
