// ABOUTME: Wire-level request/response bodies for the auth service and proxy
// ABOUTME: Typed per-action structs validated at the transport boundary

package models

// ChallengeRequest starts the handshake: the username is posted alone and the
// server answers with a challenge to sign.
type ChallengeRequest struct {
	Username string `json:"username"`
}

// ConnectRequest is the credentialed exchange body for login, register, and
// password-change actions. Password and NewPassword carry digests, never the
// raw secret. SessionLifetime is only set (to 30, minutes) when the user did
// not ask to be remembered.
type ConnectRequest struct {
	Username        string    `json:"username"`
	Signature       Signature `json:"signature"`
	Password        string    `json:"password"`
	NewPassword     string    `json:"newPassword,omitempty"`
	SessionLifetime int       `json:"sessionLifetime,omitempty"`
}

// ConnectResponse is the auth service's token grant body. The refresh token
// travels in a response header, not here.
type ConnectResponse struct {
	Token  string `json:"token"`
	MaxAge int    `json:"maxAge"`
}

// ProxyBody is the inner payload of every proxy-mode endpoint response.
// Data is set on success, Message on failure.
type ProxyBody struct {
	Data    *AuthResponse `json:"data,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   bool          `json:"error,omitempty"`
}

// ProxyResponse is the envelope returned by the same-origin auth endpoints.
type ProxyResponse struct {
	Status int       `json:"status"`
	Body   ProxyBody `json:"body"`
}
