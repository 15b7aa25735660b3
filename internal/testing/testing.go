// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenlog/internal/models"
)

// MockUpstream is a test double for [services.Upstream] that records every call.
type MockUpstream struct {
	mu sync.Mutex

	Profile    json.RawMessage
	ProfileErr error

	Recent    *models.RecentlyPlayed
	RecentErr error

	Liked    []bool
	LikedErr error

	// Panic makes the primary fetches panic with this value when non-nil.
	Panic any

	Calls    []string
	Tokens   []string
	LikedIDs [][]string
}

func (m *MockUpstream) record(call, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	m.Tokens = append(m.Tokens, token)
}

// CallCount returns how many upstream calls were made.
func (m *MockUpstream) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *MockUpstream) FetchProfile(ctx context.Context, accessToken string) (json.RawMessage, error) {
	m.record("profile", accessToken)
	if m.Panic != nil {
		panic(m.Panic)
	}
	return m.Profile, m.ProfileErr
}

func (m *MockUpstream) FetchRecentlyPlayed(ctx context.Context, accessToken string) (*models.RecentlyPlayed, error) {
	m.record("recently-played", accessToken)
	if m.Panic != nil {
		panic(m.Panic)
	}
	if m.RecentErr != nil {
		return nil, m.RecentErr
	}
	if m.Recent == nil {
		return &models.RecentlyPlayed{Items: []models.RecentlyPlayedItem{}}, nil
	}
	// hand out a copy so enrichment never mutates the fixture
	page := *m.Recent
	page.Items = append([]models.RecentlyPlayedItem(nil), m.Recent.Items...)
	return &page, nil
}

func (m *MockUpstream) FetchLikedStatus(ctx context.Context, accessToken string, trackIDs []string) ([]bool, error) {
	m.record("liked", accessToken)
	m.mu.Lock()
	m.LikedIDs = append(m.LikedIDs, append([]string(nil), trackIDs...))
	m.mu.Unlock()
	return m.Liked, m.LikedErr
}

// RecentlyPlayedFixture builds a page with one item per track id, played a minute apart.
func RecentlyPlayedFixture(ids ...string) *models.RecentlyPlayed {
	items := make([]models.RecentlyPlayedItem, 0, len(ids))
	for i, id := range ids {
		items = append(items, models.RecentlyPlayedItem{
			PlayedAt: fmt.Sprintf("2024-05-01T12:%02d:00.000Z", i%60),
			Track: models.Track{
				ID:      id,
				Name:    "Track " + id,
				Artists: []models.Artist{{ID: "artist-" + id, Name: "Artist " + id}},
				Album:   models.Album{ID: "album-" + id, Name: "Album " + id},
			},
		})
	}
	return &models.RecentlyPlayed{Limit: 50, Items: items}
}

// DiscardLogger returns a logger that writes nowhere.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	Requests []*http.Request
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)
