package models

// DayCount is the number of plays on one calendar day (YYYY-MM-DD).
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// ArtistCount is the number of plays credited to an artist group.
type ArtistCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ActivitySummary holds the aggregates behind the activity charts.
type ActivitySummary struct {
	Total    int           `json:"total"`
	Liked    int           `json:"liked"`
	Skipped  int           `json:"skipped"` // items with an unparseable played_at
	Days     []DayCount    `json:"days"`
	Artists  []ArtistCount `json:"artists"`
	Timezone string        `json:"timezone"`
}
