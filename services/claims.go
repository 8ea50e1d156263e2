// ABOUTME: Access-token claims decoding and session record derivation
// ABOUTME: Decodes the JWT payload without signature verification

package services

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/commercekit/shopauth/models"
)

// expiresSoonWindow is the lead time before true expiry during which a
// proactive refresh should be triggered.
const expiresSoonWindow = 90 * time.Second

// Claims are the fields this subsystem reads from an access token's payload.
// The token is opaque apart from this decode; no signature verification is
// performed client-side (the issuing service is the trust boundary).
type Claims struct {
	Subject      string `json:"sub"`
	Name         string `json:"name"`
	CustomerType string `json:"customerType"`
	MemberNumber string `json:"memberNumber"`
	jwt.RegisteredClaims
}

// DecodeClaims extracts the claims map from an access token. Returns nil for
// any malformed input -- callers treat nil as "cannot establish session",
// never as a crash.
func DecodeClaims(accessToken string) *Claims {
	if accessToken == "" {
		return nil
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return nil
	}
	return claims
}

// ToSession derives the normalized AuthResponse for a token pair. Expiry
// arithmetic is evaluated against wall-clock time at call time. Missing or
// unknown claim fields degrade to placeholder values rather than failing.
func ToSession(accessToken, refreshToken string, maxAge int) models.AuthResponse {
	return toSessionAt(accessToken, refreshToken, maxAge, time.Now())
}

func toSessionAt(accessToken, refreshToken string, maxAge int, now time.Time) models.AuthResponse {
	claims := DecodeClaims(accessToken)
	if claims == nil {
		return models.Failure("cannot decode access token", nil)
	}

	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	expired := !now.Before(expires)
	expiresIn := int(expires.Sub(now).Seconds())

	tokens := &models.TokenInfo{
		Token:        accessToken,
		RefreshToken: refreshToken,
		MaxAge:       maxAge,
		Expires:      expires,
		ExpiresIn:    expiresIn,
		Expired:      expired,
		ExpiresSoon:  expires.Sub(now) < expiresSoonWindow,
	}

	user := &models.User{
		ID:            orUnknown(claims.Subject),
		Name:          orUnknown(claims.Name),
		CustomerType:  orUnknown(claims.CustomerType),
		MemberNumber:  orZero(claims.MemberNumber),
		Authenticated: !expired,
	}

	return models.AuthResponse{Succeeded: true, User: user, Tokens: tokens}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
