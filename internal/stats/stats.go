// Package stats computes the aggregates behind the activity charts from a page of listening history.
package stats

import (
	"sort"
	"time"

	"github.com/desertthunder/listenlog/internal/models"
)

// TopArtists is how many artist groups are listed before the rest fold into [OthersLabel].
const TopArtists = 8

// OthersLabel names the folded tail of the artist breakdown.
const OthersLabel = "Others"

const unknownArtist = "Unknown artist"

// Summarize counts plays per calendar day in loc and per artist group.
//
// Items whose played_at does not parse are left out of the day counts and reported in Skipped.
// A nil loc means UTC.
func Summarize(items []models.RecentlyPlayedItem, loc *time.Location) models.ActivitySummary {
	if loc == nil {
		loc = time.UTC
	}

	summary := models.ActivitySummary{
		Total:    len(items),
		Days:     []models.DayCount{},
		Artists:  []models.ArtistCount{},
		Timezone: loc.String(),
	}

	days := map[string]int{}
	artists := map[string]int{}
	for _, item := range items {
		if item.Liked {
			summary.Liked++
		}

		if played, ok := item.PlayedTime(); ok {
			days[played.In(loc).Format(time.DateOnly)]++
		} else {
			summary.Skipped++
		}

		name := item.Track.ArtistNames()
		if name == "" {
			name = unknownArtist
		}
		artists[name]++
	}

	for date, count := range days {
		summary.Days = append(summary.Days, models.DayCount{Date: date, Count: count})
	}
	sort.Slice(summary.Days, func(i, j int) bool { return summary.Days[i].Date < summary.Days[j].Date })

	summary.Artists = topArtists(artists)
	return summary
}

func topArtists(counts map[string]int) []models.ArtistCount {
	sorted := make([]models.ArtistCount, 0, len(counts))
	for name, count := range counts {
		sorted = append(sorted, models.ArtistCount{Name: name, Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})

	if len(sorted) <= TopArtists {
		return sorted
	}

	others := 0
	for _, a := range sorted[TopArtists:] {
		others += a.Count
	}
	return append(sorted[:TopArtists:TopArtists], models.ArtistCount{Name: OthersLabel, Count: others})
}

// SortNewestFirst returns a copy of items ordered by played_at, newest first.
//
// Unparseable timestamps sort last, keeping their relative order.
func SortNewestFirst(items []models.RecentlyPlayedItem) []models.RecentlyPlayedItem {
	sorted := append([]models.RecentlyPlayedItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, iok := sorted[i].PlayedTime()
		tj, jok := sorted[j].PlayedTime()
		switch {
		case iok && jok:
			return ti.After(tj)
		case iok:
			return true
		default:
			return false
		}
	})
	return sorted
}
