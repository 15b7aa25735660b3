package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenlog/internal/models"
	"github.com/desertthunder/listenlog/internal/services"
	"github.com/desertthunder/listenlog/internal/session"
	"github.com/desertthunder/listenlog/internal/stats"
)

const (
	ProfilePath        = "/api/spotify/profile"
	RecentlyPlayedPath = "/api/spotify/recently-played"
	ActivityPath       = "/api/spotify/activity"
)

// SessionReader verifies the session artifact carried by a [session.Source].
type SessionReader interface {
	Session(src session.Source) (*session.Session, bool)
}

// ProxyHandler serves the Spotify-backed resources for the signed-in user.
type ProxyHandler struct {
	sessions SessionReader
	upstream services.Upstream
	logger   *log.Logger

	// Now is the clock used for the token expiry check.
	Now func() time.Time
}

// NewProxyHandler creates a [ProxyHandler]. A nil logger discards output.
func NewProxyHandler(sessions SessionReader, upstream services.Upstream, logger *log.Logger) *ProxyHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ProxyHandler{
		sessions: sessions,
		upstream: upstream,
		logger:   logger.WithPrefix("proxy"),
		Now:      time.Now,
	}
}

// Routes returns the HTTP routes this handler serves.
func (p *ProxyHandler) Routes() []string {
	return []string{ProfilePath, RecentlyPlayedPath, ActivityPath}
}

// ServeHTTP dispatches on the request path. Only GET is accepted.
func (p *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	switch r.URL.Path {
	case ProfilePath:
		p.Profile(w, r)
	case RecentlyPlayedPath:
		p.RecentlyPlayed(w, r)
	case ActivityPath:
		p.Activity(w, r)
	default:
		http.NotFound(w, r)
	}
}

// authenticate resolves the request's usable credential or writes the matching 401.
func (p *ProxyHandler) authenticate(w http.ResponseWriter, r *http.Request, resource string) (*models.SessionCredential, bool) {
	sess, ok := p.sessions.Session(session.FromRequest(r))
	if !ok {
		writeError(w, http.StatusUnauthorized, models.CodeNotAuthenticated,
			fmt.Sprintf("You must be authenticated to view %s.", resource))
		return nil, false
	}

	cred := sess.Credential
	if cred == nil || cred.AccessToken == "" {
		writeError(w, http.StatusUnauthorized, models.CodeMissingAccessToken,
			"Your session is missing a Spotify access token. Please sign out and sign in again.")
		return nil, false
	}

	if cred.Expired(p.now()) {
		writeError(w, http.StatusUnauthorized, models.CodeTokenExpired,
			"Your Spotify access token has expired. Please sign out and sign in again.")
		return nil, false
	}

	return cred, true
}

func (p *ProxyHandler) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// recoverUpstream maps a panic during the upstream stage to 502 spotify_api_error.
func (p *ProxyHandler) recoverUpstream(w http.ResponseWriter, fallback string) {
	if v := recover(); v != nil {
		p.logger.Error("unexpected failure", "panic", v)
		writeError(w, http.StatusBadGateway, models.CodeSpotifyAPIError, fallback)
	}
}

// upstreamFailed writes the response for a failed primary fetch.
func (p *ProxyHandler) upstreamFailed(w http.ResponseWriter, err error, op, fallback string) {
	var upstreamErr *services.UpstreamError
	if !errors.As(err, &upstreamErr) {
		p.logger.Error("unexpected error", "op", op, "err", err)
		writeError(w, http.StatusBadGateway, models.CodeSpotifyAPIError, fallback)
		return
	}

	p.logger.Error("spotify fetch failed", "op", op, "status", upstreamErr.Status, "body", upstreamErr.Body)
	if upstreamErr.Status == http.StatusUnauthorized {
		writeError(w, http.StatusUnauthorized, models.CodeSpotifyUnauthorized,
			"Spotify authorization failed. Please re-authenticate.")
		return
	}
	writeError(w, http.StatusBadGateway, models.CodeSpotifyAPIError, "Spotify API error. Please try again later.")
}

// Profile returns the upstream profile payload unchanged.
func (p *ProxyHandler) Profile(w http.ResponseWriter, r *http.Request) {
	cred, ok := p.authenticate(w, r, "your Spotify profile")
	if !ok {
		return
	}

	const fallback = "Failed to fetch Spotify profile."
	defer p.recoverUpstream(w, fallback)

	body, err := p.upstream.FetchProfile(r.Context(), cred.AccessToken)
	if err != nil {
		p.upstreamFailed(w, err, "profile", fallback)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// RecentlyPlayed returns the 50 most recent plays, each marked with whether the track is liked.
func (p *ProxyHandler) RecentlyPlayed(w http.ResponseWriter, r *http.Request) {
	cred, ok := p.authenticate(w, r, "recent activity")
	if !ok {
		return
	}

	const fallback = "Failed to fetch recently played tracks."
	defer p.recoverUpstream(w, fallback)

	page, err := services.History(r.Context(), p.upstream, cred.AccessToken, p.logger)
	if err != nil {
		p.upstreamFailed(w, err, "recently-played", fallback)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Activity summarizes the recent plays for the activity charts.
//
// The optional tz query parameter names an IANA zone for the day buckets; unknown zones fall back to UTC.
func (p *ProxyHandler) Activity(w http.ResponseWriter, r *http.Request) {
	cred, ok := p.authenticate(w, r, "recent activity")
	if !ok {
		return
	}

	const fallback = "Failed to fetch recently played tracks."
	defer p.recoverUpstream(w, fallback)

	page, err := services.History(r.Context(), p.upstream, cred.AccessToken, p.logger)
	if err != nil {
		p.upstreamFailed(w, err, "activity", fallback)
		return
	}

	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		} else {
			p.logger.Debug("ignoring unknown time zone", "tz", tz)
		}
	}
	writeJSON(w, http.StatusOK, stats.Summarize(page.Items, loc))
}
