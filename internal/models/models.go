package models

import "time"

// SessionCredential is the Spotify credential carried inside the signed session artifact.
//
// It is created once when sign-in completes and is read-only afterwards.
type SessionCredential struct {
	AccessToken  string
	RefreshToken string // kept for later use, never used to renew
	ExpiresAt    *int64 // unix seconds; nil means unknown expiry
}

// Expired reports whether the credential carries an expiry at or before now.
//
// A credential without an expiry is never considered expired locally.
func (c SessionCredential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && *c.ExpiresAt <= now.Unix()
}

// ErrorCode is the machine-checkable code returned alongside every error body.
type ErrorCode string

const (
	CodeNotAuthenticated    ErrorCode = "not_authenticated"
	CodeMissingAccessToken  ErrorCode = "missing_access_token"
	CodeTokenExpired        ErrorCode = "token_expired"
	CodeSpotifyUnauthorized ErrorCode = "spotify_unauthorized"
	CodeSpotifyAPIError     ErrorCode = "spotify_api_error"
	CodeRateLimited         ErrorCode = "rate_limited"
	CodeInvalidState        ErrorCode = "invalid_state"
	CodeSignInFailed        ErrorCode = "sign_in_failed"
)

// Reauthenticate reports whether the code belongs to the 401 family that a fresh sign-in resolves.
func (c ErrorCode) Reauthenticate() bool {
	switch c {
	case CodeNotAuthenticated, CodeMissingAccessToken, CodeTokenExpired, CodeSpotifyUnauthorized:
		return true
	}
	return false
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string    `json:"error"`
	Code    ErrorCode `json:"code,omitempty"`
	Details any       `json:"details,omitempty"`
}
