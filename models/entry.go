package models

import "time"

// UncategorizedGenre is the placeholder genre carried by entries that have
// not been hydrated from the catalog yet.
const UncategorizedGenre = "Uncategorized"

// Entry represents a single watched-film record scraped from the source site.
type Entry struct {
	Title       string   `json:"title"`
	Year        string   `json:"year"`   // release year as displayed, may be empty
	Rating      float64  `json:"rating"` // half-star lattice 0.0..5.0, 0 = unrated
	Date        *string  `json:"date"`   // ISO YYYY-MM-DD watch date, nil for undated entries
	Genre       []string `json:"genre"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"` // filled by hydration, fallback ordering key
}

// Hydrated reports whether the entry already carries authoritative catalog
// data. Hydrated entries are never re-queried.
func (e *Entry) Hydrated() bool {
	if e.PosterURL == "" {
		return false
	}
	if len(e.Genre) == 0 {
		return false
	}
	return !(len(e.Genre) == 1 && e.Genre[0] == UncategorizedGenre)
}

// WatchedDate returns the entry's watch date, or the empty string when the
// entry is undated.
func (e *Entry) WatchedDate() string {
	if e.Date == nil {
		return ""
	}
	return *e.Date
}

// Collection is the per-user ordered sequence of entries, newest-first by
// construction: source pages are emitted newest-first and later pages are
// strictly older.
type Collection struct {
	Username  string    `json:"username"`
	Entries   []Entry   `json:"entries"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CatalogEntry is a static reference record from the local fallback database,
// used both for hydration fallback and as the recommendation candidate pool.
type CatalogEntry struct {
	Title     string   `json:"title"`
	Year      string   `json:"year"`
	Genre     []string `json:"genre"`
	PosterURL string   `json:"posterUrl"`
}
