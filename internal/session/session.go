package session

import (
	"encoding/json"
	"math"
	"time"

	"github.com/desertthunder/listenlog/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the verified content of a session artifact.
type Session struct {
	Subject  string // Spotify user id
	Name     string // display name
	IssuedAt time.Time
	Expiry   time.Time

	// Credential is nil when the artifact holds no string access_token.
	Credential *models.SessionCredential
}

// PublicUser is the user part of [PublicSession].
type PublicUser struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// PublicSession is the only session shape that may be sent to client code.
type PublicSession struct {
	User    PublicUser `json:"user"`
	Expires string     `json:"expires"`
}

// Public strips the credential from the session.
func (s Session) Public() PublicSession {
	p := PublicSession{User: PublicUser{ID: s.Subject, Name: s.Name}}
	if !s.Expiry.IsZero() {
		p.Expires = s.Expiry.UTC().Format(time.RFC3339)
	}
	return p
}

// claims is the artifact payload. Token fields are untyped so corrupted values decode instead of failing the whole
// artifact; credentialFromClaims type-checks them.
type claims struct {
	Name         string `json:"name,omitempty"`
	AccessToken  any    `json:"access_token,omitempty"`
	RefreshToken any    `json:"refresh_token,omitempty"`
	TokenExpiry  any    `json:"expires_at,omitempty"`
	jwt.RegisteredClaims
}

func credentialFromClaims(c claims) *models.SessionCredential {
	accessToken, ok := c.AccessToken.(string)
	if !ok {
		return nil
	}

	cred := &models.SessionCredential{AccessToken: accessToken}
	if refreshToken, ok := c.RefreshToken.(string); ok {
		cred.RefreshToken = refreshToken
	}
	if expiresAt, ok := unixSeconds(c.TokenExpiry); ok {
		cred.ExpiresAt = &expiresAt
	}
	return cred
}

func unixSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return floatSeconds(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return floatSeconds(f)
		}
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

// floatSeconds truncates f to whole seconds, rejecting values int64 cannot hold.
func floatSeconds(f float64) (int64, bool) {
	// -2^63 is exact in float64; 2^63 is the first value past MaxInt64.
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
