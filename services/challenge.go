// ABOUTME: Challenge/response handshake client for the external auth service
// ABOUTME: Requests a challenge, exchanges it for a signature, digests passwords

package services

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/commercekit/shopauth/models"
)

// passwordSalt is the fixed application salt prepended to passwords before
// digesting. It must match the value baked into the auth service; changing it
// breaks every existing account. The digest is transport obfuscation over
// TLS, not a substitute for server-side hashing.
const passwordSalt = "kYv7mwQd50BhNFJW"

// ChallengeClient performs the two-step challenge/sign handshake.
// It holds no state beyond its endpoints and HTTP client.
type ChallengeClient struct {
	authEndpoint string
	signEndpoint string
	httpClient   *http.Client
}

// NewChallengeClient creates a handshake client for the given endpoints.
// authEndpoint is the auth service base URL; signEndpoint is the signed-URL
// prefix the challenge is appended to.
func NewChallengeClient(authEndpoint, signEndpoint string) *ChallengeClient {
	return &ChallengeClient{
		authEndpoint: authEndpoint,
		signEndpoint: signEndpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RequestChallenge posts the username to the login endpoint and returns the
// server-issued challenge. The upstream body shape has drifted over time, so
// the sign field is probed leniently rather than decoded into a rigid struct.
func (c *ChallengeClient) RequestChallenge(ctx context.Context, username string) (models.Challenge, error) {
	payload, err := json.Marshal(models.ChallengeRequest{Username: username})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrChallenge, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authEndpoint+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChallenge, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChallenge, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrChallenge, err)
	}

	sign := gjson.GetBytes(body, "sign")
	if !sign.Exists() || sign.String() == "" {
		if msg := gjson.GetBytes(body, "message"); msg.Exists() {
			return "", fmt.Errorf("%w: %s", ErrChallenge, msg.String())
		}
		return "", fmt.Errorf("%w: response has no sign (status %d)", ErrChallenge, resp.StatusCode)
	}

	return models.Challenge(sign.String()), nil
}

// VerifyChallenge exchanges a challenge for its signature by fetching the
// signed URL built from the sign endpoint prefix.
func (c *ChallengeClient) VerifyChallenge(ctx context.Context, challenge models.Challenge) (models.Signature, error) {
	verifyURL := c.signEndpoint + url.QueryEscape(string(challenge))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, verifyURL, nil)
	if err != nil {
		return models.Signature{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Signature{}, fmt.Errorf("%w: %v", ErrSignature, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Signature{}, fmt.Errorf("%w: status %d", ErrSignature, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Signature{}, fmt.Errorf("%w: read body: %v", ErrSignature, err)
	}
	if len(body) == 0 {
		return models.Signature{}, fmt.Errorf("%w: empty body", ErrSignature)
	}

	var sig models.Signature
	if err := json.Unmarshal(body, &sig); err != nil {
		return models.Signature{}, fmt.Errorf("%w: invalid body: %v", ErrSignature, err)
	}
	if sig.Signature == "" {
		return models.Signature{}, fmt.Errorf("%w: body has no signature", ErrSignature)
	}

	slog.Debug("Challenge verified", "identity", sig.Identity)
	return sig, nil
}

// Digest salts and hashes a password for transmission. SHA-384 over the
// fixed salt plus the password, base64 encoded. Deterministic across
// implementations; the server compares digests, not raw passwords.
func Digest(password string) string {
	sum := sha512.Sum384([]byte(passwordSalt + password))
	return base64.StdEncoding.EncodeToString(sum[:])
}
