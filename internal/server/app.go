package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenlog/internal/services"
	"github.com/desertthunder/listenlog/internal/session"
)

// AppOptions collects the dependencies of the HTTP application.
type AppOptions struct {
	Sessions SessionReader
	Upstream services.Upstream
	Logger   *log.Logger

	// Auth and Store enable the sign-in routes. Either being nil leaves them unregistered.
	Auth  AuthProvider
	Store SessionIssuer

	RateLimit float64
	RateBurst int
	Secure    bool

	// Now overrides the clock used for token expiry checks.
	Now func() time.Time
}

// NewApp builds the router with the middleware stack and every route registered.
func NewApp(opts AppOptions) *BasicRouter {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	r := NewBasicRouter()
	r.Use(
		RequestID(),
		Logging(logger),
		Recover(logger),
		RateLimit("/api/", opts.RateLimit, opts.RateBurst),
		session.Ambient,
	)

	r.Handle(http.MethodGet, "/healthz", http.HandlerFunc(health))
	proxy := NewProxyHandler(opts.Sessions, opts.Upstream, logger)
	if opts.Now != nil {
		proxy.Now = opts.Now
	}
	r.Handler(proxy)

	if opts.Auth != nil && opts.Store != nil {
		auth := NewAuthHandler(opts.Auth, opts.Store, opts.Sessions, opts.Upstream, logger)
		auth.Secure = opts.Secure
		r.Handler(auth)
	} else {
		logger.Warn("spotify credentials not configured, sign-in routes disabled")
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
