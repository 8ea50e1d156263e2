// ABOUTME: Token exchange transport against the external auth service
// ABOUTME: Holds the current token/refresh/maxAge triple for one session

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/commercekit/shopauth/models"
)

// RefreshTokenHeader carries the refresh token on both requests and
// responses. It is a dedicated header, not a cookie attribute.
const RefreshTokenHeader = "Refresh-Token"

// AuthTransport performs the HTTP exchange that turns credentials (or a held
// refresh token) into a new access/refresh token pair. One instance holds
// the state of one authenticated session; logout discards the instance.
type AuthTransport struct {
	authEndpoint string
	challenge    *ChallengeClient
	httpClient   *http.Client

	mu           sync.Mutex
	token        string
	refreshToken string
	maxAge       int
}

// NewAuthTransport creates a transport for the given endpoints.
func NewAuthTransport(authEndpoint, signEndpoint string) *AuthTransport {
	return &AuthTransport{
		authEndpoint: authEndpoint,
		challenge:    NewChallengeClient(authEndpoint, signEndpoint),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Token returns the currently held access token.
func (t *AuthTransport) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// RefreshToken returns the currently held refresh token.
func (t *AuthTransport) RefreshToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.refreshToken
}

// MaxAge returns the session max-age from the last exchange, in seconds.
func (t *AuthTransport) MaxAge() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxAge
}

// SetRefreshToken installs a refresh token, e.g. one recovered from the
// session cookies, as the starting point for the next exchange.
func (t *AuthTransport) SetRefreshToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshToken = token
}

// SetMaxAge installs a session max-age recovered from the session cookies so
// a refresh keeps the original session length.
func (t *AuthTransport) SetMaxAge(maxAge int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.maxAge = maxAge
}

// Connect performs one exchange with the auth service. With credentials it
// runs the full challenge handshake and posts the signed body to /{action};
// without credentials it issues a refresh GET carrying the held refresh
// token. A nil result with nil error means the server answered without a
// usable body; callers treat that as failed auth, not as a crash.
func (t *AuthTransport) Connect(ctx context.Context, creds *models.Credentials, action models.Action) (*models.ConnectResponse, error) {
	var (
		resp *http.Response
		err  error
	)
	if creds != nil {
		resp, err = t.connectWithCredentials(ctx, creds, action)
	} else {
		resp, err = t.connectWithRefreshToken(ctx, action)
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The server may rotate the refresh token even on failed exchanges, so
	// capture it before inspecting the status or body.
	t.captureRefreshToken(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrTransport, action, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	var result models.ConnectResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: invalid body: %v", ErrTransport, err)
	}

	t.mu.Lock()
	t.token = result.Token
	if result.MaxAge > 0 {
		t.maxAge = result.MaxAge
	}
	t.mu.Unlock()

	return &result, nil
}

func (t *AuthTransport) connectWithCredentials(ctx context.Context, creds *models.Credentials, action models.Action) (*http.Response, error) {
	challenge, err := t.challenge.RequestChallenge(ctx, creds.Username)
	if err != nil {
		return nil, err
	}
	sig, err := t.challenge.VerifyChallenge(ctx, challenge)
	if err != nil {
		return nil, err
	}

	body := models.ConnectRequest{
		Username:  creds.Username,
		Signature: sig,
		Password:  Digest(creds.Password),
	}
	if !creds.RememberUser {
		body.SessionLifetime = 30
	}
	if action == models.ActionPassword {
		if creds.NewPassword == "" {
			return nil, fmt.Errorf("%w: password change requires a new password", ErrTransport)
		}
		body.NewPassword = Digest(creds.NewPassword)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.authEndpoint+"/"+string(action), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return resp, nil
}

func (t *AuthTransport) connectWithRefreshToken(ctx context.Context, action models.Action) (*http.Response, error) {
	t.mu.Lock()
	refreshToken := t.refreshToken
	t.mu.Unlock()

	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	path := "/login"
	if action == models.ActionLogout {
		path = "/logout"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.authEndpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set(RefreshTokenHeader, refreshToken)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return resp, nil
}

// captureRefreshToken overwrites the held refresh token with any value found
// on the response: the dedicated header first, then a refresh= cookie from
// Set-Cookie. The cookie fallback predates the header and may be dead on
// current servers; behavior is preserved.
func (t *AuthTransport) captureRefreshToken(resp *http.Response) {
	token := resp.Header.Get(RefreshTokenHeader)
	if token == "" {
		token = refreshTokenFromCookies(resp.Header.Values("Set-Cookie"))
	}
	if token == "" {
		return
	}

	t.mu.Lock()
	if token != t.refreshToken {
		slog.Debug("Refresh token rotated")
	}
	t.refreshToken = token
	t.mu.Unlock()
}

func refreshTokenFromCookies(setCookies []string) string {
	for _, raw := range setCookies {
		for _, part := range strings.Split(raw, ";") {
			part = strings.TrimSpace(part)
			if value, ok := strings.CutPrefix(part, "refresh="); ok {
				return value
			}
		}
	}
	return ""
}
