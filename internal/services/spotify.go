// Spotify Web API client

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/listenlog/internal/models"
	"github.com/desertthunder/listenlog/internal/shared"
)

const (
	spotifyBaseURL = "https://api.spotify.com/v1"

	// RecentlyPlayedLimit is the page size of the history request, also the API maximum.
	RecentlyPlayedLimit = 50
	// MaxLikedIDs is the most ids the contains endpoint accepts per call.
	MaxLikedIDs = 50

	maxErrorBody = 64 << 10
)

// SpotifyClient calls the Spotify Web API on behalf of a user's access token.
//
// It holds no per-user state, so one instance serves every request. Responses are never cached.
type SpotifyClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyClient creates a client for baseURL, defaulting to the public API and [http.DefaultClient].
func NewSpotifyClient(baseURL string, client *http.Client) *SpotifyClient {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// doRequest performs an authenticated GET and decodes a 2xx body into result.
func (s *SpotifyClient) doRequest(ctx context.Context, accessToken, endpoint string, query url.Values, result any) error {
	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Status: resp.StatusCode, Body: errorBody(resp.Body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// errorBody decodes an error response for diagnostics. Anything unreadable or non-JSON yields nil.
func errorBody(r io.Reader) any {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return nil
	}

	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil
	}
	return body
}

// FetchProfile retrieves the current user's profile without reshaping it.
func (s *SpotifyClient) FetchProfile(ctx context.Context, accessToken string) (json.RawMessage, error) {
	var profile json.RawMessage
	if err := s.doRequest(ctx, accessToken, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// FetchRecentlyPlayed retrieves the most recent [RecentlyPlayedLimit] plays. Older history is not paged.
func (s *SpotifyClient) FetchRecentlyPlayed(ctx context.Context, accessToken string) (*models.RecentlyPlayed, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(RecentlyPlayedLimit))

	var page models.RecentlyPlayed
	if err := s.doRequest(ctx, accessToken, "/me/player/recently-played", query, &page); err != nil {
		return nil, err
	}

	if page.Items == nil {
		page.Items = []models.RecentlyPlayedItem{}
	}
	return &page, nil
}

// FetchLikedStatus checks the user's library for trackIDs (up to [MaxLikedIDs]).
//
// The result is positional. An empty trackIDs returns an empty slice without a request.
func (s *SpotifyClient) FetchLikedStatus(ctx context.Context, accessToken string, trackIDs []string) ([]bool, error) {
	if len(trackIDs) == 0 {
		return []bool{}, nil
	}
	if len(trackIDs) > MaxLikedIDs {
		return nil, fmt.Errorf("%w: maximum %d track IDs allowed", shared.ErrInvalidArgument, MaxLikedIDs)
	}

	query := url.Values{}
	query.Set("ids", strings.Join(trackIDs, ","))

	var liked []bool
	if err := s.doRequest(ctx, accessToken, "/me/tracks/contains", query, &liked); err != nil {
		return nil, err
	}
	return liked, nil
}
