package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/listenlog/internal/models"
	"github.com/desertthunder/listenlog/internal/services"
	"github.com/desertthunder/listenlog/internal/session"
	"github.com/desertthunder/listenlog/internal/shared"
	tu "github.com/desertthunder/listenlog/internal/testing"
)

var testSecret = []byte("server-test-secret")

type fixture struct {
	store     *session.Store
	extractor *session.Extractor
	upstream  *tu.MockUpstream
	app       *BasicRouter
}

func newFixture(t *testing.T, up *tu.MockUpstream) *fixture {
	t.Helper()

	store, err := session.NewStore(testSecret)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	extractor, err := session.NewExtractor(testSecret)
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	if up == nil {
		up = &tu.MockUpstream{}
	}

	return &fixture{
		store:     store,
		extractor: extractor,
		upstream:  up,
		app:       NewApp(AppOptions{Sessions: extractor, Upstream: up}),
	}
}

func (f *fixture) cookie(t *testing.T, sess session.Session) *http.Cookie {
	t.Helper()
	value, err := f.store.Encode(sess)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return &http.Cookie{Name: f.store.CookieName(), Value: value}
}

func (f *fixture) signedIn(t *testing.T, cred *models.SessionCredential) *http.Cookie {
	return f.cookie(t, session.Session{Subject: "user-1", Name: "Listener", Credential: cred})
}

func (f *fixture) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.app.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code models.ErrorCode) {
	t.Helper()
	if rec.Code != status {
		t.Errorf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	body := decodeError(t, rec)
	if body.Code != code {
		t.Errorf("expected code %q, got %q", code, body.Code)
	}
	if body.Error == "" {
		t.Error("expected a human readable message")
	}
}

func ptr[T any](v T) *T { return &v }

func TestBasicRouter(t *testing.T) {
	t.Run("Applies Middleware In Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		}))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		want := []string{"first", "second", "handler"}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("expected %v, got %v", want, order)
			}
		}
	})

	t.Run("Rejects Other Methods", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/x", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
		if rec.Header().Get("Allow") != http.MethodGet {
			t.Errorf("expected Allow: GET, got %q", rec.Header().Get("Allow"))
		}
	})

	t.Run("Lists Routes", func(t *testing.T) {
		f := newFixture(t, nil)
		routes := f.app.Routes()
		want := map[string]bool{"GET /healthz": true, ProfilePath: true, RecentlyPlayedPath: true, ActivityPath: true}
		for _, r := range routes {
			delete(want, r)
		}
		if len(want) != 0 {
			t.Errorf("missing routes %v in %v", want, routes)
		}
	})
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	t.Run("Request Id Is Generated And Echoed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RequestID()(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a generated request id")
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rec = httptest.NewRecorder()
		RequestID()(ok).ServeHTTP(rec, req)
		if got := rec.Header().Get(RequestIDHeader); got != "abc" {
			t.Errorf("expected inbound id to be kept, got %q", got)
		}
	})

	t.Run("Recover Returns 500", func(t *testing.T) {
		boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
		rec := httptest.NewRecorder()
		Recover(tu.DiscardLogger())(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Rate Limit Applies To The Prefix Only", func(t *testing.T) {
		h := RateLimit("/api/", 1, 1)(ok)

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/a", nil))
		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/a", nil))
		other := httptest.NewRecorder()
		h.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if first.Code != http.StatusOK {
			t.Errorf("expected first request through, got %d", first.Code)
		}
		expectError(t, second, http.StatusTooManyRequests, models.CodeRateLimited)
		if other.Code != http.StatusOK {
			t.Errorf("expected unprefixed path through, got %d", other.Code)
		}
	})

	t.Run("Rate Limit Keeps A Bucket Per Client", func(t *testing.T) {
		h := RateLimit("/api/", 1, 1)(ok)

		send := func(addr string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/api/a", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		if rec := send("10.0.0.1:5000"); rec.Code != http.StatusOK {
			t.Fatalf("expected first client through, got %d", rec.Code)
		}
		expectError(t, send("10.0.0.1:5001"), http.StatusTooManyRequests, models.CodeRateLimited)
		if rec := send("10.0.0.2:5000"); rec.Code != http.StatusOK {
			t.Errorf("expected a second client to have its own bucket, got %d", rec.Code)
		}
	})

	t.Run("Idle Clients Are Forgotten", func(t *testing.T) {
		clients := newClientLimiters(1, 1)
		start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

		clients.allow("10.0.0.1", start)
		clients.allow("10.0.0.2", start.Add(4*time.Minute))

		if _, ok := clients.clients["10.0.0.1"]; ok {
			t.Error("expected the idle client to be dropped")
		}
		if len(clients.clients) != 1 {
			t.Errorf("expected one tracked client, got %d", len(clients.clients))
		}
	})

	t.Run("Rate Limit Disabled", func(t *testing.T) {
		h := RateLimit("/api/", 0, 0)(ok)
		for range 5 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/a", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
		}
	})
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.get("/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected Cache-Control: no-store")
	}
}

func TestNewApp(t *testing.T) {
	t.Run("Sign-in Routes Need Auth And Store", func(t *testing.T) {
		f := newFixture(t, nil)
		rec := f.get(SignInPath)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 without auth configured, got %d", rec.Code)
		}
	})

	t.Run("Clock Override Reaches The Proxy", func(t *testing.T) {
		up := &tu.MockUpstream{Profile: json.RawMessage(`{}`)}
		f := newFixture(t, up)
		future := time.Now().Add(time.Hour)
		f.app = NewApp(AppOptions{Sessions: f.extractor, Upstream: up, Now: func() time.Time { return future.Add(time.Minute) }})

		rec := f.get(ProfilePath, f.signedIn(t, &models.SessionCredential{AccessToken: "tok", ExpiresAt: ptr(future.Unix())}))
		expectError(t, rec, http.StatusUnauthorized, models.CodeTokenExpired)
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDefaultLimitsKeepErrorCodes(t *testing.T) {
	limits := shared.DefaultConfig().Server

	t.Run("Signed Out Requests Stay 401", func(t *testing.T) {
		extractor, err := session.NewExtractor(testSecret)
		if err != nil {
			t.Fatalf("NewExtractor: %v", err)
		}
		app := NewApp(AppOptions{
			Sessions:  extractor,
			Upstream:  &tu.MockUpstream{},
			RateLimit: limits.RateLimit,
			RateBurst: limits.RateBurst,
		})

		codes := map[int]int{}
		for range 30 {
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ProfilePath, nil))
			codes[rec.Code]++
		}
		if codes[http.StatusUnauthorized] != 30 {
			t.Errorf("expected every request to be 401, got %v", codes)
		}
	})

	t.Run("Upstream Failures Stay 502", func(t *testing.T) {
		f := newFixture(t, &tu.MockUpstream{RecentErr: &services.UpstreamError{Status: http.StatusInternalServerError}})
		f.app = NewApp(AppOptions{
			Sessions:  f.extractor,
			Upstream:  f.upstream,
			RateLimit: limits.RateLimit,
			RateBurst: limits.RateBurst,
		})
		c := f.signedIn(t, &models.SessionCredential{AccessToken: "tok"})

		for range 30 {
			req := httptest.NewRequest(http.MethodGet, RecentlyPlayedPath, nil)
			req.AddCookie(c)
			rec := httptest.NewRecorder()
			f.app.ServeHTTP(rec, req)
			expectError(t, rec, http.StatusBadGateway, models.CodeSpotifyAPIError)
		}
	})
}
