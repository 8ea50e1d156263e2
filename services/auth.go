// ABOUTME: Auth orchestration service combining transport and claims decoding
// ABOUTME: Exposes login, logout, refresh, register, and password change

package services

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/commercekit/shopauth/models"
)

// AuthService orchestrates the auth operations for one session. Every public
// method returns a models.AuthResponse and never a Go error: failures are
// converted to {Succeeded:false, Error} at this boundary.
type AuthService struct {
	authEndpoint string
	signEndpoint string

	mu        sync.Mutex
	transport *AuthTransport

	// Concurrent refreshes race on a single-use rotating token; collapse
	// them so every caller shares one upstream exchange.
	refreshGroup singleflight.Group
}

// NewAuthService creates a service for the given auth endpoints.
func NewAuthService(authEndpoint, signEndpoint string) *AuthService {
	return &AuthService{
		authEndpoint: authEndpoint,
		signEndpoint: signEndpoint,
		transport:    NewAuthTransport(authEndpoint, signEndpoint),
	}
}

// Seed installs session state recovered from cookies (refresh token and the
// original session max-age) so the next exchange continues that session.
func (s *AuthService) Seed(refreshToken string, maxAge int) {
	tr := s.currentTransport()
	if refreshToken != "" {
		tr.SetRefreshToken(refreshToken)
	}
	if maxAge > 0 {
		tr.SetMaxAge(maxAge)
	}
}

// RefreshTokenValue returns the refresh token currently held by the session
// transport. Callers must persist this newest value after every operation.
func (s *AuthService) RefreshTokenValue() string {
	return s.currentTransport().RefreshToken()
}

// TokenValue returns the access token currently held by the session
// transport, empty until an exchange has run.
func (s *AuthService) TokenValue() string {
	return s.currentTransport().Token()
}

// MaxAge returns the session max-age in seconds from the last exchange.
func (s *AuthService) MaxAge() int {
	return s.currentTransport().MaxAge()
}

// Login runs the challenge handshake with the given credentials and returns
// the normalized session on success.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) models.AuthResponse {
	return s.connectAndDecode(ctx, &creds, models.ActionLogin)
}

// Register creates an account; same exchange shape as login.
func (s *AuthService) Register(ctx context.Context, creds models.Credentials) models.AuthResponse {
	return s.connectAndDecode(ctx, &creds, models.ActionRegister)
}

// ChangePassword exchanges the old password digest plus the new one for a
// fresh token pair. Fails fast without a new password. Returns tokens only;
// callers re-fetch the user if they need it.
func (s *AuthService) ChangePassword(ctx context.Context, creds models.Credentials) models.AuthResponse {
	if creds.NewPassword == "" {
		return models.Failure("new password is required", nil)
	}

	tr := s.currentTransport()
	result, err := tr.Connect(ctx, &creds, models.ActionPassword)
	if err != nil {
		return models.Failure("password change failed", err)
	}
	if result == nil || result.Token == "" {
		return models.Failure("password change failed", nil)
	}

	resp := ToSession(result.Token, tr.RefreshToken(), tr.MaxAge())
	resp.User = nil
	return resp
}

// Refresh exchanges the held (or supplied) refresh token for a new pair.
// Never returns an error shape other than Succeeded:false.
func (s *AuthService) Refresh(ctx context.Context, token string) models.AuthResponse {
	tr := s.currentTransport()
	if token != "" {
		tr.SetRefreshToken(token)
	}

	if err := s.refreshOnce(ctx, tr); err != nil {
		return models.Failure("refresh failed", err)
	}
	accessToken := tr.Token()
	if accessToken == "" {
		return models.Failure("refresh produced no token", nil)
	}
	return ToSession(accessToken, tr.RefreshToken(), tr.MaxAge())
}

// GetUser returns the session for the given access token. With no token it
// falls back to the transport's token, and failing that performs an implicit
// refresh from the stored refresh token: "who am I" and "refresh if needed"
// are deliberately the same operation.
func (s *AuthService) GetUser(ctx context.Context, token string) models.AuthResponse {
	tr := s.currentTransport()
	if token == "" {
		token = tr.Token()
	}
	if token == "" {
		if err := s.refreshOnce(ctx, tr); err != nil {
			return models.Failure("no session", err)
		}
		token = tr.Token()
	}
	if token == "" {
		return models.Failure("no session", nil)
	}

	resp := ToSession(token, tr.RefreshToken(), tr.MaxAge())
	if (!resp.Succeeded || resp.Tokens.Expired) && tr.RefreshToken() != "" {
		if err := s.refreshOnce(ctx, tr); err != nil {
			return models.Failure("session expired", err)
		}
		if t := tr.Token(); t != "" {
			resp = ToSession(t, tr.RefreshToken(), tr.MaxAge())
		}
	}
	return resp
}

// Logout invalidates the session upstream and discards the transport
// instance entirely so a stale object cannot keep making authenticated
// calls. Best-effort: with no held refresh token the session is treated as
// already logged out.
func (s *AuthService) Logout(ctx context.Context) models.AuthResponse {
	tr := s.currentTransport()

	if tr.RefreshToken() != "" {
		if _, err := tr.Connect(ctx, nil, models.ActionLogout); err != nil {
			slog.Warn("Upstream logout failed", "error", err)
		}
	}

	s.mu.Lock()
	s.transport = NewAuthTransport(s.authEndpoint, s.signEndpoint)
	s.mu.Unlock()

	return models.AuthResponse{Succeeded: true}
}

func (s *AuthService) connectAndDecode(ctx context.Context, creds *models.Credentials, action models.Action) models.AuthResponse {
	tr := s.currentTransport()

	result, err := tr.Connect(ctx, creds, action)
	if err != nil {
		return models.Failure(string(action)+" failed", err)
	}
	if result == nil || result.Token == "" {
		return models.Failure(string(action)+" failed", nil)
	}

	return s.GetUser(ctx, result.Token)
}

// refreshOnce performs a single-flighted refresh exchange on the given
// transport. Concurrent callers block on the same in-flight exchange and
// share its outcome.
func (s *AuthService) refreshOnce(ctx context.Context, tr *AuthTransport) error {
	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		result, err := tr.Connect(ctx, nil, models.ActionRefresh)
		if err != nil {
			return nil, err
		}
		if result == nil {
			return nil, ErrTransport
		}
		return result, nil
	})
	return err
}

func (s *AuthService) currentTransport() *AuthTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}
