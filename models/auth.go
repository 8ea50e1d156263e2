// ABOUTME: Auth data model shared by the SDK, proxy handlers, and CLI
// ABOUTME: Defines credentials, token records, and the AuthResponse currency

package models

import "time"

// Action identifies which auth-service operation a transport exchange performs.
type Action string

const (
	ActionLogin    Action = "login"
	ActionLogout   Action = "logout"
	ActionRefresh  Action = "refresh"
	ActionPassword Action = "password"
	ActionRegister Action = "register"
)

// Session lifetimes in seconds. RememberUser selects the long lifetime;
// everything else gets the short one.
const (
	SessionMaxAgeRemembered = 604800 // 7 days
	SessionMaxAgeDefault    = 1800   // 30 minutes
)

// Credentials carries a login/register/password-change attempt.
// Transient: never persisted, never logged.
type Credentials struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	NewPassword  string `json:"newPassword,omitempty"`
	RememberUser bool   `json:"rememberUser,omitempty"`
}

// Challenge is the opaque server-issued token returned by the first
// handshake step. Single-use and short-lived.
type Challenge string

// Signature is the signed proof returned by the challenge verify step.
type Signature struct {
	Identity  string `json:"identity"`
	Signature string `json:"signature"`
	Timestamp string `json:"timestamp"`
}

// User is the normalized identity decoded from an access token's claims.
type User struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CustomerType  string `json:"customerType"`
	MemberNumber  string `json:"memberNumber"`
	Authenticated bool   `json:"authenticated"`
}

// TokenInfo is the derived view of one access/refresh token pair.
// Expired and ExpiresSoon are computed from wall-clock time at decode time.
type TokenInfo struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	MaxAge       int       `json:"maxAge"`
	Expires      time.Time `json:"expires"`
	ExpiresIn    int       `json:"expiresIn"`
	Expired      bool      `json:"expired"`
	ExpiresSoon  bool      `json:"expiresSoon"`
}

// AuthError is the caller-facing failure description. Services convert every
// internal error into this shape rather than letting it escape.
type AuthError struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AuthError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// AuthResponse is the single currency returned by every auth operation:
// login, logout, refresh, register, password change, and get-user all
// produce this shape so callers need no operation-specific branches.
type AuthResponse struct {
	Succeeded bool       `json:"succeeded"`
	User      *User      `json:"user,omitempty"`
	Tokens    *TokenInfo `json:"tokens,omitempty"`
	Error     *AuthError `json:"error,omitempty"`
}

// Failure builds a failed AuthResponse from an error.
func Failure(message string, err error) AuthResponse {
	ae := &AuthError{Message: message}
	if err != nil {
		ae.Details = err.Error()
	}
	return AuthResponse{Succeeded: false, Error: ae}
}
