package session

import (
	"strings"

	"github.com/desertthunder/listenlog/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Extractor verifies session artifacts and recovers the credential.
//
// It only reads: nothing is written back and tokens are never logged.
type Extractor struct {
	key  []byte
	opts options
}

// NewExtractor creates an [Extractor] for artifacts signed by a [Store] with the same secret.
//
// An empty secret returns [shared.ErrMissingSecret]; callers treat it as a startup failure.
func NewExtractor(secret []byte, opts ...Option) (*Extractor, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &Extractor{key: key, opts: buildOptions(opts)}, nil
}

// Session verifies the artifact found in src.
//
// It reports false when there is no artifact or it fails verification.
func (e *Extractor) Session(src Source) (*Session, bool) {
	raw := e.artifact(src)
	if raw == "" {
		return nil, false
	}

	var c claims
	token, err := jwt.ParseWithClaims(raw, &c,
		func(*jwt.Token) (any, error) { return e.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(e.opts.now),
	)
	if err != nil || !token.Valid {
		return nil, false
	}

	sess := &Session{
		Subject:    c.Subject,
		Name:       c.Name,
		Credential: credentialFromClaims(c),
	}
	if c.IssuedAt != nil {
		sess.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		sess.Expiry = c.ExpiresAt.Time
	}
	return sess, true
}

// Extract returns the credential from a verified session, or false when there is none.
func (e *Extractor) Extract(src Source) (*models.SessionCredential, bool) {
	sess, ok := e.Session(src)
	if !ok || sess.Credential == nil {
		return nil, false
	}
	return sess.Credential, true
}

// artifact reads the session cookie, falling back to a bearer Authorization header.
func (e *Extractor) artifact(src Source) string {
	if src == nil {
		return ""
	}
	if c, err := src.Cookie(e.opts.cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	auth := src.Header().Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
