// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Verifies defaults, required fields, mode parsing, and env helpers

package config

import (
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AUTH_ENDPOINT", "auth.example.com")
	t.Setenv("SIGN_ENDPOINT", "https://sign.example.com/sign/")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure = false, want true by default")
	}
	if cfg.AuthMode != ModeProxy {
		t.Errorf("AuthMode = %q, want proxy", cfg.AuthMode)
	}
	if cfg.ReplayTTL != 30 {
		t.Errorf("ReplayTTL = %d, want 30", cfg.ReplayTTL)
	}
	if cfg.RateLimitAuth != 5 || cfg.RateLimitRefresh != 10 || cfg.RateLimitDefault != 100 {
		t.Errorf("rate limits = %d/%d/%d, want 5/10/100",
			cfg.RateLimitAuth, cfg.RateLimitRefresh, cfg.RateLimitDefault)
	}
	// Scheme added to the bare host.
	if cfg.AuthEndpoint != "https://auth.example.com" {
		t.Errorf("AuthEndpoint = %q, want https:// prefix added", cfg.AuthEndpoint)
	}
	if cfg.SignEndpoint != "https://sign.example.com/sign/" {
		t.Errorf("SignEndpoint = %q, existing scheme must be kept", cfg.SignEndpoint)
	}
}

func TestLoad_MissingEndpoints(t *testing.T) {
	t.Setenv("AUTH_ENDPOINT", "")
	t.Setenv("SIGN_ENDPOINT", "")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded without AUTH_ENDPOINT")
	}

	t.Setenv("AUTH_ENDPOINT", "auth.example.com")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded without SIGN_ENDPOINT")
	}
}

func TestLoad_InvalidMode(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_MODE", "peer-to-peer")
	if _, err := Load(); err == nil {
		t.Error("Load succeeded with invalid AUTH_MODE")
	}
}

func TestLoad_DirectMode(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_MODE", "direct")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AuthMode != ModeDirect {
		t.Errorf("AuthMode = %q, want direct", cfg.AuthMode)
	}
}

func TestLoad_RateLimitBounds(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_AUTH", "0")
	if _, err := Load(); err == nil {
		t.Error("Load accepted RATE_LIMIT_AUTH=0")
	}

	t.Setenv("RATE_LIMIT_AUTH", "20000")
	if _, err := Load(); err == nil {
		t.Error("Load accepted RATE_LIMIT_AUTH=20000")
	}
}

func TestLoad_CORSList(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("got %d origins, want 2", len(cfg.CORSAllowedOrigins))
	}
	if cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("origin[1] = %q, want trimmed value", cfg.CORSAllowedOrigins[1])
	}
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "", want: ModeProxy},
		{input: "proxy", want: ModeProxy},
		{input: "direct", want: ModeDirect},
		{input: "Direct", wantErr: true},
		{input: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ValidateMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ValidateMode(%q) succeeded, want error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateMode(%q) failed: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ValidateMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "auth.example.com", want: "https://auth.example.com"},
		{input: "http://auth.example.com", want: "http://auth.example.com"},
		{input: "https://auth.example.com", want: "https://auth.example.com"},
	}
	for _, tt := range tests {
		if got := ensureScheme(tt.input); got != tt.want {
			t.Errorf("ensureScheme(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
