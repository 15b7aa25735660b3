// package formatter renders listening history as plain text, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/listenlog/internal/models"
	"github.com/desertthunder/listenlog/internal/shared"
)

// Format names an output format accepted by [Export].
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts text, csv, markdown and the md shorthand.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Export renders items in the given format. now anchors relative timestamps.
func Export(items []models.RecentlyPlayedItem, format Format, now time.Time) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(items)
	case FormatMarkdown:
		return ExportToMarkdown(items, now)
	case FormatText, "":
		return ExportToText(items, now)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
}

// ExportToCSV writes one row per play with columns: Played At, Track ID, Title, Artists, Album, Duration, Liked
//
// Played At is left exactly as the upstream sent it.
func ExportToCSV(items []models.RecentlyPlayedItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Played At", "Track ID", "Title", "Artists", "Album", "Duration", "Liked"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		duration := ""
		if item.Track.DurationMS != nil {
			duration = strconv.Itoa(*item.Track.DurationMS / 1000)
		}
		record := []string{
			item.PlayedAt,
			item.Track.ID,
			item.Track.Name,
			item.Track.ArtistNames(),
			item.Track.Album.Name,
			duration,
			strconv.FormatBool(item.Liked),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a table of plays under a heading.
func ExportToMarkdown(items []models.RecentlyPlayedItem, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Recently Played\n\n")
	fmt.Fprintf(&buf, "**Plays**: %d\n", len(items))
	fmt.Fprintf(&buf, "**Liked**: %d\n\n", countLiked(items))

	if len(items) == 0 {
		buf.WriteString("_No listening history yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Track | Artists | Album | Duration | Played | Liked |\n")
	buf.WriteString("|---|-------|---------|-------|----------|--------|-------|\n")
	for i, item := range items {
		liked := ""
		if item.Liked {
			liked = "♥"
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s | %s |\n",
			i+1,
			escapeCell(item.Track.Name),
			escapeCell(item.Track.ArtistNames()),
			escapeCell(item.Track.Album.Name),
			FormatDuration(item.Track.DurationMS),
			FormatPlayedAt(item.PlayedAt, now),
			liked,
		)
	}

	return buf.Bytes(), nil
}

// ExportToText renders one numbered line per play.
func ExportToText(items []models.RecentlyPlayedItem, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Recently played: %d tracks (%d liked)\n\n", len(items), countLiked(items))

	for i, item := range items {
		marker := " "
		if item.Liked {
			marker = "♥"
		}
		fmt.Fprintf(&buf, "%2d. %s %s - %s (%s)\n",
			i+1, marker, item.Track.ArtistNames(), item.Track.Name, FormatPlayedAt(item.PlayedAt, now))
	}

	return buf.Bytes(), nil
}

// WriteExport renders items and writes them to path.
func WriteExport(items []models.RecentlyPlayedItem, format Format, path string, now time.Time) error {
	data, err := Export(items, format, now)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// FormatPlayedAt describes a played_at timestamp relative to now, in now's location.
//
// Unparseable timestamps are returned unchanged.
func FormatPlayedAt(playedAt string, now time.Time) string {
	played, err := time.Parse(time.RFC3339Nano, playedAt)
	if err != nil {
		return playedAt
	}
	played = played.In(now.Location())

	diff := now.Sub(played)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute") + " ago"
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch {
	case !played.Before(today):
		return plural(int(diff/time.Hour), "hour") + " ago"
	case !played.Before(today.AddDate(0, 0, -1)):
		return "Yesterday at " + played.Format("3:04 PM")
	}
	return played.Format("Jan 2, 2006 at 3:04 PM")
}

// FormatDuration renders milliseconds as m:ss. A nil duration renders as an empty string.
func FormatDuration(ms *int) string {
	if ms == nil || *ms < 0 {
		return ""
	}
	seconds := *ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func countLiked(items []models.RecentlyPlayedItem) int {
	n := 0
	for _, item := range items {
		if item.Liked {
			n++
		}
	}
	return n
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
