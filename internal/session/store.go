package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/listenlog/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Store issues and clears the session cookie.
type Store struct {
	key  []byte
	opts options
}

// NewStore creates a [Store] signing with a key derived from secret.
//
// An empty secret returns [shared.ErrMissingSecret].
func NewStore(secret []byte, opts ...Option) (*Store, error) {
	key, err := deriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &Store{key: key, opts: buildOptions(opts)}, nil
}

// CookieName returns the session cookie name.
func (s *Store) CookieName() string {
	return s.opts.cookieName
}

// Encode signs sess into an artifact valid for the configured max age.
func (s *Store) Encode(sess Session) (string, error) {
	now := s.opts.now()
	c := claims{
		Name: sess.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.maxAge)),
			ID:        shared.GenerateID(),
		},
	}

	if cred := sess.Credential; cred != nil {
		if cred.AccessToken != "" {
			c.AccessToken = cred.AccessToken
		}
		if cred.RefreshToken != "" {
			c.RefreshToken = cred.RefreshToken
		}
		if cred.ExpiresAt != nil {
			c.TokenExpiry = *cred.ExpiresAt
		}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Issue writes sess as an httpOnly, SameSite=Lax cookie.
func (s *Store) Issue(w http.ResponseWriter, sess Session) error {
	value, err := s.Encode(sess)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.opts.maxAge / time.Second),
		Expires:  s.opts.now().Add(s.opts.maxAge),
		HttpOnly: true,
		Secure:   s.opts.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Store) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.opts.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
