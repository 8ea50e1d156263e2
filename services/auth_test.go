// ABOUTME: Tests for the auth orchestration service
// ABOUTME: Covers login, implicit refresh, password change, logout, and refresh collapsing

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/commercekit/shopauth/models"
)

func newTestService(serverURL string) *AuthService {
	return NewAuthService(serverURL, serverURL+"/sign/")
}

func TestAuthService_Login(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	server := newUpstreamServer(t, upstream)

	svc := newTestService(server.URL)
	resp := svc.Login(context.Background(), models.Credentials{Username: "alice", Password: "abc123"})
	if !resp.Succeeded {
		t.Fatalf("Login failed: %+v", resp.Error)
	}
	if resp.User == nil || resp.User.Name != "alice" {
		t.Errorf("User = %+v, want name alice", resp.User)
	}
	if !resp.User.Authenticated {
		t.Error("User.Authenticated = false, want true")
	}
	if resp.Tokens == nil || resp.Tokens.Token == "" {
		t.Fatal("Tokens missing from login response")
	}
	if svc.RefreshTokenValue() == "" {
		t.Error("service holds no refresh token after login")
	}
}

func TestAuthService_LoginFailure(t *testing.T) {
	// Nothing listening: the failure must come back as a response, not a panic.
	svc := newTestService("http://127.0.0.1:1")
	resp := svc.Login(context.Background(), models.Credentials{Username: "alice", Password: "bad"})
	if resp.Succeeded {
		t.Fatal("Login succeeded against dead upstream")
	}
	if resp.Error == nil || resp.Error.Message == "" {
		t.Error("failure response carries no error message")
	}
}

func TestAuthService_GetUser_ImplicitRefresh(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	server := newUpstreamServer(t, upstream)

	// Only a refresh token survives (e.g. recovered from cookies).
	svc := newTestService(server.URL)
	svc.Seed("rt-seed", 1800)

	resp := svc.GetUser(context.Background(), "")
	if !resp.Succeeded {
		t.Fatalf("GetUser failed: %+v", resp.Error)
	}
	if upstream.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", upstream.refreshCalls)
	}
	if resp.User == nil || !resp.User.Authenticated {
		t.Error("implicit refresh did not produce an authenticated user")
	}
}

func TestAuthService_GetUser_ExpiredTokenRefreshes(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	server := newUpstreamServer(t, upstream)

	svc := newTestService(server.URL)
	svc.Seed("rt-seed", 1800)

	expired := tokenWithExp(time.Now().Add(-time.Minute))
	resp := svc.GetUser(context.Background(), expired)
	if !resp.Succeeded {
		t.Fatalf("GetUser failed: %+v", resp.Error)
	}
	if resp.Tokens.Expired {
		t.Error("session still expired after implicit refresh")
	}
	if upstream.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", upstream.refreshCalls)
	}
}

func TestAuthService_GetUser_ExpiredWithoutRefreshToken(t *testing.T) {
	svc := newTestService("http://127.0.0.1:1")
	expired := tokenWithExp(time.Now().Add(-time.Minute))

	resp := svc.GetUser(context.Background(), expired)
	// No refresh token held: the expired session is reported as-is.
	if !resp.Succeeded {
		t.Fatalf("GetUser failed: %+v", resp.Error)
	}
	if !resp.Tokens.Expired {
		t.Error("Expired = false, want true")
	}
	if resp.User.Authenticated {
		t.Error("User.Authenticated = true for expired session")
	}
}

func TestAuthService_GetUser_NoSession(t *testing.T) {
	svc := newTestService("http://127.0.0.1:1")
	resp := svc.GetUser(context.Background(), "")
	if resp.Succeeded {
		t.Fatal("GetUser succeeded with no token and no refresh token")
	}
}

func TestAuthService_Refresh(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	server := newUpstreamServer(t, upstream)

	svc := newTestService(server.URL)
	resp := svc.Refresh(context.Background(), "rt-seed")
	if !resp.Succeeded {
		t.Fatalf("Refresh failed: %+v", resp.Error)
	}
	if resp.Tokens.RefreshToken == "rt-seed" {
		t.Error("refresh did not rotate the token pair")
	}
}

func TestAuthService_Refresh_Collapses(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	upstream.delay = 50 * time.Millisecond
	server := newUpstreamServer(t, upstream)

	svc := newTestService(server.URL)
	svc.Seed("rt-seed", 1800)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]models.AuthResponse, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Refresh(context.Background(), "")
		}(i)
	}
	wg.Wait()

	for i, resp := range results {
		if !resp.Succeeded {
			t.Errorf("caller %d failed: %+v", i, resp.Error)
		}
	}
	// All callers share one upstream exchange.
	if upstream.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", upstream.refreshCalls)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	server := newUpstreamServer(t, upstream)

	svc := newTestService(server.URL)
	creds := models.Credentials{Username: "alice", Password: "abc123", NewPassword: "xyz789"}
	resp := svc.ChangePassword(context.Background(), creds)
	if !resp.Succeeded {
		t.Fatalf("ChangePassword failed: %+v", resp.Error)
	}
	if resp.User != nil {
		t.Error("ChangePassword returned a user; it must return tokens only")
	}
	if resp.Tokens == nil || resp.Tokens.Token == "" {
		t.Error("ChangePassword returned no tokens")
	}
}

func TestAuthService_ChangePassword_RequiresNewPassword(t *testing.T) {
	svc := newTestService("http://127.0.0.1:1")
	resp := svc.ChangePassword(context.Background(), models.Credentials{Username: "alice", Password: "abc123"})
	if resp.Succeeded {
		t.Fatal("ChangePassword succeeded without a new password")
	}
}

func TestAuthService_Logout(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	server := newUpstreamServer(t, upstream)

	svc := newTestService(server.URL)
	svc.Seed("rt-seed", 1800)

	resp := svc.Logout(context.Background())
	if !resp.Succeeded {
		t.Fatalf("Logout failed: %+v", resp.Error)
	}
	if upstream.logoutCalls != 1 {
		t.Errorf("logout calls = %d, want 1", upstream.logoutCalls)
	}
	// The transport state must be gone.
	if svc.RefreshTokenValue() != "" {
		t.Error("refresh token survived logout")
	}
	if svc.TokenValue() != "" {
		t.Error("access token survived logout")
	}
}

func TestAuthService_Logout_BestEffort(t *testing.T) {
	// Upstream unreachable: logout still succeeds and drops local state.
	svc := newTestService("http://127.0.0.1:1")
	svc.Seed("rt-seed", 1800)

	resp := svc.Logout(context.Background())
	if !resp.Succeeded {
		t.Fatal("Logout failed when upstream unreachable")
	}
	if svc.RefreshTokenValue() != "" {
		t.Error("refresh token survived best-effort logout")
	}
}

func TestAuthService_Register(t *testing.T) {
	upstream := newFakeUpstream(tokenWithExp(time.Now().Add(time.Hour)))
	server := newUpstreamServer(t, upstream)

	svc := newTestService(server.URL)
	resp := svc.Register(context.Background(), models.Credentials{Username: "bob", Password: "abc123"})
	if !resp.Succeeded {
		t.Fatalf("Register failed: %+v", resp.Error)
	}
	if resp.User == nil {
		t.Fatal("Register returned no user")
	}
}
