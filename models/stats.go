package models

// GenreCount pairs a genre name with how many watched films carry it.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// HeatmapCell aggregates the films watched on a single calendar day.
type HeatmapCell struct {
	Count  int      `json:"count"`
	Titles []string `json:"titles"`
}

// ProfileStats is derived from the current collection on every query and is
// never persisted.
type ProfileStats struct {
	TotalFilms    int                    `json:"totalFilms"` // count after year filtering
	GrandTotal    int                    `json:"grandTotal"` // unfiltered collection size
	UndatedCount  int                    `json:"undatedCount"`
	AverageRating float64                `json:"averageRating"`
	TopGenres     []GenreCount           `json:"topGenres"`
	Heatmap       map[string]HeatmapCell `json:"heatmapData"` // YYYY-MM-DD -> cell
}

// GenreEvolution buckets genre counts over time. Without a year filter the
// outer key is the year, with a filter it is the calendar month name and all
// twelve months are present even when empty.
type GenreEvolution map[string]map[string]int

// QuizQuestion is a single rating-guess trivia question.
type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	MovieTitle   string   `json:"movieTitle"`
	PosterURL    string   `json:"posterUrl"`
}

// SyncResult reports the outcome of merging one scraped page into a user's
// collection.
type SyncResult struct {
	Status     string   `json:"status"`
	Entries    []Entry  `json:"entries"` // truly-new entries only
	HasNext    bool     `json:"hasNext"`
	Years      []string `json:"years"`
	LatestYear string   `json:"latestYear,omitempty"`
}
