package session

import (
	"context"
	"net/http"
)

// Source is anything that can supply request cookies and headers.
type Source interface {
	Cookie(name string) (*http.Cookie, error)
	Header() http.Header
}

type requestSource struct {
	r *http.Request
}

// FromRequest adapts an inbound request.
func FromRequest(r *http.Request) Source {
	return requestSource{r: r}
}

func (s requestSource) Cookie(name string) (*http.Cookie, error) { return s.r.Cookie(name) }
func (s requestSource) Header() http.Header                      { return s.r.Header }

type headerSource struct {
	h http.Header
}

// FromHeader adapts a bare header set; cookies are read from its Cookie lines.
func FromHeader(h http.Header) Source {
	if h == nil {
		h = http.Header{}
	}
	return headerSource{h: h}
}

func (s headerSource) Cookie(name string) (*http.Cookie, error) {
	return (&http.Request{Header: s.h}).Cookie(name)
}

func (s headerSource) Header() http.Header { return s.h }

type sourceKey struct{}

// WithSource returns a copy of ctx carrying src.
func WithSource(ctx context.Context, src Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, src)
}

// FromContext returns the ambient source installed by [Ambient] or [WithSource].
//
// Without one it returns an empty source, which never yields a session.
func FromContext(ctx context.Context) Source {
	if src, ok := ctx.Value(sourceKey{}).(Source); ok {
		return src
	}
	return FromHeader(nil)
}

// Ambient installs the request as the ambient [Source] for downstream handlers.
func Ambient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithSource(r.Context(), FromRequest(r))))
	})
}
