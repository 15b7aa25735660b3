package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenlog/internal/models"
	"github.com/desertthunder/listenlog/internal/session"
	"github.com/desertthunder/listenlog/internal/shared"
)

const (
	SignInPath   = "/api/auth/signin"
	CallbackPath = "/api/auth/callback/spotify"
	SignOutPath  = "/api/auth/signout"
	SessionPath  = "/api/auth/session"

	stateCookie    = "listenlog.oauth-state"
	callbackCookie = "listenlog.callback-url"
	stateTTL       = 10 * time.Minute
)

// AuthProvider runs the OAuth2 authorization code flow.
type AuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*models.SessionCredential, error)
}

// SessionIssuer writes and clears the session cookie.
type SessionIssuer interface {
	Issue(w http.ResponseWriter, sess session.Session) error
	Clear(w http.ResponseWriter)
}

// ProfileFetcher loads the signed-in user's profile after the code exchange.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (json.RawMessage, error)
}

// AuthHandler serves sign-in, the OAuth callback, sign-out and the public session view.
type AuthHandler struct {
	provider AuthProvider
	store    SessionIssuer
	sessions SessionReader
	profiles ProfileFetcher
	logger   *log.Logger

	// Secure marks the short-lived state cookies Secure.
	Secure bool
}

// NewAuthHandler creates an [AuthHandler]. A nil logger discards output.
func NewAuthHandler(provider AuthProvider, store SessionIssuer, sessions SessionReader, profiles ProfileFetcher, logger *log.Logger) *AuthHandler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &AuthHandler{
		provider: provider,
		store:    store,
		sessions: sessions,
		profiles: profiles,
		logger:   logger.WithPrefix("auth"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{SignInPath, CallbackPath, SignOutPath, SessionPath}
}

// ServeHTTP dispatches on the request path.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := http.MethodGet
	if r.URL.Path == SignOutPath {
		method = http.MethodPost
	}
	if r.Method != method {
		methodNotAllowed(w, method)
		return
	}

	switch r.URL.Path {
	case SignInPath:
		h.SignIn(w, r)
	case CallbackPath:
		h.Callback(w, r)
	case SignOutPath:
		h.SignOut(w, r)
	case SessionPath:
		h.Session(w, r)
	default:
		http.NotFound(w, r)
	}
}

// SignIn redirects to the Spotify authorize page with a fresh state value.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	state := shared.GenerateID()
	h.setShortCookie(w, stateCookie, state)
	h.setShortCookie(w, callbackCookie, localPath(r.URL.Query().Get("callback_url")))

	noStore(w)
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the authorization code flow and issues the session cookie.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	expected, err := r.Cookie(stateCookie)
	if err != nil || expected.Value == "" || q.Get("state") != expected.Value {
		h.logger.Warn("state mismatch on callback")
		writeError(w, http.StatusBadRequest, models.CodeInvalidState, "Sign-in state did not match. Please try again.")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.logger.Warn("authorization denied", "error", q.Get("error"), "description", q.Get("error_description"))
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
			Error:   "Spotify authorization was not granted.",
			Code:    models.CodeSignInFailed,
			Details: q.Get("error"),
		})
		return
	}

	cred, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "err", err)
		writeError(w, http.StatusBadGateway, models.CodeSignInFailed, "Could not complete Spotify sign-in. Please try again.")
		return
	}

	sess := session.Session{Credential: cred}
	h.loadIdentity(r.Context(), &sess)

	if err := h.store.Issue(w, sess); err != nil {
		h.logger.Error("failed to issue session", "err", err)
		writeError(w, http.StatusInternalServerError, models.CodeSignInFailed, "Could not create a session.")
		return
	}

	target := "/"
	if c, err := r.Cookie(callbackCookie); err == nil {
		target = localPath(c.Value)
	}
	h.clearShortCookie(w, stateCookie)
	h.clearShortCookie(w, callbackCookie)

	h.logger.Info("signed in", "user", sess.Subject)
	noStore(w)
	http.Redirect(w, r, target, http.StatusFound)
}

// loadIdentity fills the subject and name from the profile. Sign-in proceeds without them on failure.
func (h *AuthHandler) loadIdentity(ctx context.Context, sess *session.Session) {
	if h.profiles == nil {
		return
	}

	raw, err := h.profiles.FetchProfile(ctx, sess.Credential.AccessToken)
	if err != nil {
		h.logger.Warn("profile lookup after sign-in failed", "err", err)
		return
	}

	var profile models.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		h.logger.Warn("profile lookup returned unexpected body", "err", err)
		return
	}
	sess.Subject = profile.ID
	sess.Name = profile.DisplayName
}

// SignOut clears the session cookie. Tokens are not revoked upstream.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(w)
	noStore(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the public view of the ambient session, or {} when there is none.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessions.Session(session.FromContext(r.Context()))
	if !ok {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, sess.Public())
}

func (h *AuthHandler) setShortCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   int(stateTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearShortCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// localPath keeps redirect targets on this origin.
func localPath(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}
