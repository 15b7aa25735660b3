// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/

package models

import (
	"strings"
	"time"
)

// Image represents an image resource. Spotify sends null dimensions for some user images.
type Image struct {
	URL    string `json:"url"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
}

// Followers is the follower summary of a profile.
type Followers struct {
	Href  *string `json:"href"`
	Total int     `json:"total"`
}

// Profile represents the current user's Spotify profile (GET /me).
type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"` // premium, free, etc.
	Type        string    `json:"type"`
	URI         string    `json:"uri"`
	Followers   Followers `json:"followers"`
	Images      []Image   `json:"images"`
}

// Artist is the simplified artist object embedded in tracks.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Album is the simplified album object embedded in tracks.
type Album struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track represents a Spotify track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	DurationMS *int     `json:"duration_ms,omitempty"`
	Popularity *int     `json:"popularity,omitempty"`
	Explicit   bool     `json:"explicit"`
	URI        string   `json:"uri,omitempty"`
}

// ArtistNames joins the track's artist names the way they are displayed.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// PlayContext describes where a track was played from (playlist, album, artist).
type PlayContext struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
	Href string `json:"href,omitempty"`
}

// RecentlyPlayedItem is a single listening event.
type RecentlyPlayedItem struct {
	PlayedAt string       `json:"played_at"`
	Track    Track        `json:"track"`
	Context  *PlayContext `json:"context,omitempty"`
	Liked    bool         `json:"liked"`
}

// PlayedTime parses PlayedAt. Malformed timestamps report false.
func (i RecentlyPlayedItem) PlayedTime() (time.Time, bool) {
	if i.PlayedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, i.PlayedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Cursors are the recently-played pagination cursors.
type Cursors struct {
	After  *string `json:"after,omitempty"`
	Before *string `json:"before,omitempty"`
}

// RecentlyPlayed is the cursor-paged listening history response.
type RecentlyPlayed struct {
	Href    string               `json:"href,omitempty"`
	Limit   int                  `json:"limit"`
	Next    *string              `json:"next"`
	Cursors *Cursors             `json:"cursors,omitempty"`
	Total   *int                 `json:"total,omitempty"`
	Items   []RecentlyPlayedItem `json:"items"`
}

// TrackIDs returns the track id of every item, in item order.
func (r *RecentlyPlayed) TrackIDs() []string {
	ids := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		ids = append(ids, item.Track.ID)
	}
	return ids
}

// ApplyLiked zips liked onto the items by position. Items past the end of liked are set to false.
func (r *RecentlyPlayed) ApplyLiked(liked []bool) {
	for i := range r.Items {
		r.Items[i].Liked = i < len(liked) && liked[i]
	}
}
