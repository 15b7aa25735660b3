// package services defines the Spotify Web API client used by the proxy handlers
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/listenlog/internal/models"
)

// Upstream is the slice of the Spotify Web API the proxy handlers call.
type Upstream interface {
	// FetchProfile returns the raw GET /me payload.
	FetchProfile(ctx context.Context, accessToken string) (json.RawMessage, error)

	// FetchRecentlyPlayed returns the 50 most recent listening events.
	FetchRecentlyPlayed(ctx context.Context, accessToken string) (*models.RecentlyPlayed, error)

	// FetchLikedStatus reports, per id and in the same order, whether the track is in the user's library.
	FetchLikedStatus(ctx context.Context, accessToken string, trackIDs []string) ([]bool, error)
}

// UpstreamError is returned for every non-2xx Spotify response.
//
// Body holds the decoded JSON error body, or nil when the body was not JSON.
type UpstreamError struct {
	Status int
	Body   any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("spotify API error: status %d", e.Status)
}
