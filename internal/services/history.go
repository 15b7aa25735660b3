package services

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listenlog/internal/models"
)

// History fetches the recent plays and marks each one with whether the track is liked.
//
// Only a failed recently-played fetch is returned as an error. A failed liked lookup is logged and leaves every item
// unliked.
func History(ctx context.Context, up Upstream, accessToken string, logger *log.Logger) (*models.RecentlyPlayed, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	page, err := up.FetchRecentlyPlayed(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &models.RecentlyPlayed{}
	}
	if page.Items == nil {
		page.Items = []models.RecentlyPlayedItem{}
	}

	ids := page.TrackIDs()
	liked, err := up.FetchLikedStatus(ctx, accessToken, ids)
	if err != nil {
		logger.Warn("failed to fetch liked status for tracks", "tracks", len(ids), "err", err)
		liked = nil
	}
	page.ApplyLiked(liked)
	return page, nil
}
