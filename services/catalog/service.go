// Package catalog enriches scraped entries with authoritative metadata from
// TMDB, falling back to a local static database when the service is
// unconfigured or a lookup fails.
package catalog

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"statsboxd/models"
)

const defaultHydrationWorkers = 20

// Service is the metadata-hydration engine.
type Service struct {
	tmdb     *tmdbClient
	fallback *FallbackDB
	workers  int
}

// Options configures the catalog service.
type Options struct {
	TMDBAPIKey  string
	TMDBBaseURL string // override for tests, empty means production
	HTTPClient  *http.Client
	Workers     int
}

// NewService builds a catalog service. An empty API key is valid: hydration
// becomes a no-op and only the fallback database is consulted.
func NewService(opts Options, fallback *FallbackDB) *Service {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultHydrationWorkers
	}
	return &Service{
		tmdb:     newTMDBClient(opts.TMDBAPIKey, opts.TMDBBaseURL, opts.HTTPClient),
		fallback: fallback,
		workers:  workers,
	}
}

// Fallback exposes the local database for recommendation candidates and
// quiz material.
func (s *Service) Fallback() *FallbackDB {
	return s.fallback
}

// Hydrate fills missing genre and poster data on the given entries in place.
// Only entries lacking complete data are candidates; already-hydrated
// entries are never re-queried, which bounds API cost as the collection
// grows across repeated syncs. Lookups for independent candidates run on a
// bounded worker pool; each worker writes only the fields of the single
// entry it was assigned, so no locking is needed. A failed lookup leaves
// its entry with prior fallback data and never aborts the batch.
func (s *Service) Hydrate(ctx context.Context, entries []*models.Entry) {
	if !s.tmdb.isConfigured() || len(entries) == 0 {
		return
	}

	candidates := make([]*models.Entry, 0, len(entries))
	for _, e := range entries {
		if e != nil && !e.Hydrated() {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return
	}

	genreTable, err := s.tmdb.genreTable(ctx)
	if err != nil {
		// Posters and release dates still hydrate; only genre names degrade.
		log.Printf("[catalog] genre table unavailable: %v", err)
		genreTable = nil
	}

	p := pool.New().WithMaxGoroutines(s.workers)
	for _, entry := range candidates {
		p.Go(func() {
			s.hydrateOne(ctx, entry, genreTable)
		})
	}
	p.Wait()

	log.Printf("[catalog] hydrated batch of %d candidate(s)", len(candidates))
}

func (s *Service) hydrateOne(ctx context.Context, entry *models.Entry, genreTable map[int]string) {
	results, err := s.tmdb.searchMovie(ctx, entry.Title)
	if err != nil {
		log.Printf("[catalog] lookup %q failed: %v", entry.Title, err)
		return
	}
	if len(results) == 0 {
		return
	}

	match := pickResult(results, entry.Year)

	if url := buildPosterURL(match.PosterPath); url != "" {
		entry.PosterURL = url
	}
	if match.ReleaseDate != "" {
		entry.ReleaseDate = match.ReleaseDate
	}
	if genreTable != nil {
		var genres []string
		for _, id := range match.GenreIDs {
			if name, ok := genreTable[id]; ok {
				genres = append(genres, name)
			}
		}
		if len(genres) > 0 {
			entry.Genre = genres
		}
	}
}

// pickResult prefers a result whose release date contains the entry's
// release year, falling back to the first result.
func pickResult(results []tmdbMovieResult, year string) tmdbMovieResult {
	year = strings.TrimSpace(year)
	if year != "" {
		for _, r := range results {
			if strings.Contains(r.ReleaseDate, year) {
				return r
			}
		}
	}
	return results[0]
}

// ResolvePoster returns a fresh poster URL for a title: live catalog first,
// local database second, empty string when neither knows the film.
func (s *Service) ResolvePoster(ctx context.Context, title string) string {
	if s.tmdb.isConfigured() {
		if results, err := s.tmdb.searchMovie(ctx, title); err == nil && len(results) > 0 {
			if url := buildPosterURL(results[0].PosterPath); url != "" {
				return url
			}
		}
	}
	if e, ok := s.fallback.Lookup(title); ok {
		return e.PosterURL
	}
	return ""
}
