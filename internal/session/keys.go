package session

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/desertthunder/listenlog/internal/shared"
	"golang.org/x/crypto/hkdf"
)

const (
	// DefaultCookieName is the session cookie name when none is configured.
	DefaultCookieName = "listenlog.session-token"
	// DefaultMaxAge is the session lifetime when none is configured.
	DefaultMaxAge = 30 * 24 * time.Hour

	keyInfo = "listenlog session signing key"
	keySize = 32
)

// deriveKey stretches the configured secret into the HS256 signing key.
func deriveKey(secret []byte) ([]byte, error) {
	if len(strings.TrimSpace(string(secret))) == 0 {
		return nil, shared.ErrMissingSecret
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return key, nil
}

type options struct {
	cookieName string
	maxAge     time.Duration
	secure     bool
	now        func() time.Time
}

// Option configures a [Store] or [Extractor].
type Option func(*options)

// WithCookieName overrides [DefaultCookieName].
func WithCookieName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.cookieName = name
		}
	}
}

// WithMaxAge overrides [DefaultMaxAge].
func WithMaxAge(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxAge = d
		}
	}
}

// WithSecure marks issued cookies Secure.
func WithSecure(secure bool) Option {
	return func(o *options) { o.secure = secure }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		cookieName: DefaultCookieName,
		maxAge:     DefaultMaxAge,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
