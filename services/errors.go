// ABOUTME: Sentinel errors for the auth exchange taxonomy
// ABOUTME: Challenge, signature, and transport failures wrap these values

package services

import "errors"

var (
	// ErrChallenge indicates the challenge request failed or the response
	// carried no sign field.
	ErrChallenge = errors.New("challenge request failed")

	// ErrSignature indicates the challenge verify step returned non-2xx or
	// an empty/invalid body.
	ErrSignature = errors.New("challenge verification failed")

	// ErrTransport indicates the final token exchange returned non-2xx or
	// an unusable body.
	ErrTransport = errors.New("auth transport failed")

	// ErrNoRefreshToken indicates a refresh was attempted without a held
	// refresh token.
	ErrNoRefreshToken = errors.New("no refresh token held")
)
