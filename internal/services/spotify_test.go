package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/listenlog/internal/shared"
	tu "github.com/desertthunder/listenlog/internal/testing"
)

func TestSpotifyClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL And Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewSpotifyClient("http://example.com/v1/", customClient)

			if srv.baseURL != "http://example.com/v1" {
				t.Errorf("expected trailing slash trimmed, got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("Defaults", func(t *testing.T) {
			srv := NewSpotifyClient("", nil)

			if srv.baseURL != "https://api.spotify.com/v1" {
				t.Errorf("expected default baseURL, got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("FetchProfile", func(t *testing.T) {
		t.Run("Passes Body Through", func(t *testing.T) {
			payload := `{"id":"user-1","display_name":"Listener","followers":{"href":null,"total":3},"unmodeled":"kept"}`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/me" {
					t.Errorf("expected path /me, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("expected bearer token, got %q", got)
				}
				if got := r.Header.Get("Cache-Control"); got != "no-cache" {
					t.Errorf("expected Cache-Control no-cache, got %q", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(payload))
			}))
			defer server.Close()

			raw, err := NewSpotifyClient(server.URL, nil).FetchProfile(context.Background(), "tok")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(raw) != payload {
				t.Errorf("expected verbatim payload, got %s", raw)
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"status":401,"message":"The access token expired"}}`))
			}))
			defer server.Close()

			_, err := NewSpotifyClient(server.URL, nil).FetchProfile(context.Background(), "tok")

			var upstreamErr *UpstreamError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upstreamErr.Status != http.StatusUnauthorized {
				t.Errorf("expected status 401, got %d", upstreamErr.Status)
			}
			body, ok := upstreamErr.Body.(map[string]any)
			if !ok {
				t.Fatalf("expected decoded JSON body, got %T", upstreamErr.Body)
			}
			if _, ok := body["error"]; !ok {
				t.Errorf("expected error key in body, got %v", body)
			}
		})

		t.Run("Malformed Error Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("<html>upstream exploded</html>"))
			}))
			defer server.Close()

			_, err := NewSpotifyClient(server.URL, nil).FetchProfile(context.Background(), "tok")

			var upstreamErr *UpstreamError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upstreamErr.Status != http.StatusInternalServerError {
				t.Errorf("expected status 500, got %d", upstreamErr.Status)
			}
			if upstreamErr.Body != nil {
				t.Errorf("expected nil body for non-JSON error, got %v", upstreamErr.Body)
			}
		})

		t.Run("Unreadable Error Body", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusTooManyRequests,
				Header:     http.Header{},
				Body:       &tu.FCloser{},
			}, nil)

			_, err := NewSpotifyClient("http://spotify.test", &http.Client{Transport: rt}).FetchProfile(context.Background(), "tok")

			var upstreamErr *UpstreamError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upstreamErr.Status != http.StatusTooManyRequests || upstreamErr.Body != nil {
				t.Errorf("unexpected error %+v", upstreamErr)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(nil, errors.New("connection reset"))

			_, err := NewSpotifyClient("http://spotify.test", &http.Client{Transport: rt}).FetchProfile(context.Background(), "tok")

			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			var upstreamErr *UpstreamError
			if errors.As(err, &upstreamErr) {
				t.Error("transport failures carry no HTTP status")
			}
		})
	})

	t.Run("FetchRecentlyPlayed", func(t *testing.T) {
		t.Run("Requests Fifty Items", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/me/player/recently-played" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("limit"); got != "50" {
					t.Errorf("expected limit=50, got %q", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{
					"href": "https://api.spotify.com/v1/me/player/recently-played?limit=50",
					"limit": 50,
					"next": null,
					"cursors": {"after": "1714567890000", "before": "1714560000000"},
					"items": [
						{"played_at": "2024-05-01T12:00:00.000Z", "track": {"id": "t1", "name": "One", "artists": [{"id": "a1", "name": "A"}], "album": {"id": "al1", "name": "Album", "images": [{"url": "https://i.scdn.co/x", "height": 640, "width": 640}]}, "duration_ms": 200000}},
						{"played_at": "2024-05-01T11:55:00.000Z", "track": {"id": "t2", "name": "Two", "artists": [], "album": {"id": "al2", "name": "Other", "images": []}}}
					]
				}`))
			}))
			defer server.Close()

			page, err := NewSpotifyClient(server.URL, nil).FetchRecentlyPlayed(context.Background(), "tok")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(page.Items) != 2 {
				t.Fatalf("expected 2 items, got %d", len(page.Items))
			}
			if page.Items[0].Track.ID != "t1" || page.Items[1].Track.ID != "t2" {
				t.Errorf("unexpected item order %v", page.TrackIDs())
			}
			if page.Items[0].Track.DurationMS == nil || *page.Items[0].Track.DurationMS != 200000 {
				t.Error("expected duration_ms to decode")
			}
			if page.Cursors == nil || page.Cursors.After == nil {
				t.Error("expected cursors to decode")
			}
			if page.Items[0].Liked {
				t.Error("liked is never supplied upstream")
			}
		})

		t.Run("Empty History Encodes As Array", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"limit":50,"next":null}`))
			}))
			defer server.Close()

			page, err := NewSpotifyClient(server.URL, nil).FetchRecentlyPlayed(context.Background(), "tok")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			data, _ := json.Marshal(page)
			if !strings.Contains(string(data), `"items":[]`) {
				t.Errorf("expected empty items array, got %s", data)
			}
		})

		t.Run("Bad Gateway", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			_, err := NewSpotifyClient(server.URL, nil).FetchRecentlyPlayed(context.Background(), "tok")

			var upstreamErr *UpstreamError
			if !errors.As(err, &upstreamErr) || upstreamErr.Status != http.StatusBadGateway {
				t.Errorf("expected 502 UpstreamError, got %v", err)
			}
			if upstreamErr != nil && upstreamErr.Body != nil {
				t.Errorf("expected nil body for empty response, got %v", upstreamErr.Body)
			}
		})

		t.Run("Malformed Success Body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items": [`))
			}))
			defer server.Close()

			if _, err := NewSpotifyClient(server.URL, nil).FetchRecentlyPlayed(context.Background(), "tok"); err == nil {
				t.Error("expected decode error")
			}
		})
	})

	t.Run("FetchLikedStatus", func(t *testing.T) {
		t.Run("Empty IDs Skip The Network", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
			}))
			defer server.Close()

			liked, err := NewSpotifyClient(server.URL, nil).FetchLikedStatus(context.Background(), "tok", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if liked == nil || len(liked) != 0 {
				t.Errorf("expected empty non-nil slice, got %v", liked)
			}
			if hits.Load() != 0 {
				t.Errorf("expected no request, got %d", hits.Load())
			}
		})

		t.Run("Joins IDs In Order", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/me/tracks/contains" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("ids"); got != "a,b,c" {
					t.Errorf("expected ids=a,b,c, got %q", got)
				}
				w.Write([]byte(`[true,false,true]`))
			}))
			defer server.Close()

			liked, err := NewSpotifyClient(server.URL, nil).FetchLikedStatus(context.Background(), "tok", []string{"a", "b", "c"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			want := []bool{true, false, true}
			if len(liked) != len(want) {
				t.Fatalf("expected %d results, got %d", len(want), len(liked))
			}
			for i := range want {
				if liked[i] != want[i] {
					t.Errorf("liked[%d] = %v, want %v", i, liked[i], want[i])
				}
			}
		})

		t.Run("Too Many IDs", func(t *testing.T) {
			ids := make([]string, MaxLikedIDs+1)
			for i := range ids {
				ids[i] = "id"
			}
			rt := tu.NewMockRoundTripper(nil, errors.New("must not be called"))

			_, err := NewSpotifyClient("http://spotify.test", &http.Client{Transport: rt}).FetchLikedStatus(context.Background(), "tok", ids)
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if len(rt.Requests) != 0 {
				t.Error("expected no request")
			}
		})

		t.Run("Forbidden", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusForbidden,
				Header:     http.Header{},
				Body:       io.NopCloser(strings.NewReader(`{"error":{"status":403,"message":"Insufficient client scope"}}`)),
			}, nil)

			_, err := NewSpotifyClient("http://spotify.test", &http.Client{Transport: rt}).FetchLikedStatus(context.Background(), "tok", []string{"a"})

			var upstreamErr *UpstreamError
			if !errors.As(err, &upstreamErr) || upstreamErr.Status != http.StatusForbidden {
				t.Errorf("expected 403 UpstreamError, got %v", err)
			}
			if upstreamErr != nil && upstreamErr.Error() != "spotify API error: status 403" {
				t.Errorf("unexpected message %q", upstreamErr.Error())
			}
		})
	})

	t.Run("Context Cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewSpotifyClient(server.URL, nil).FetchProfile(ctx, "tok")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for a cancelled request, got %v", err)
		}
	})
}

func TestUpstreamInterface(t *testing.T) {
	var _ Upstream = NewSpotifyClient("", nil)
	var _ Upstream = &tu.MockUpstream{}
}
