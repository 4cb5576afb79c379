package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://letterboxd.com"

// PageFetcher fetches one URL and returns the HTTP status and body.
type PageFetcher interface {
	Get(ctx context.Context, url string) (int, []byte, error)
}

// GenreSource resolves first-pass genres for a title from the local fallback
// database. It returns nil when the title is unknown.
type GenreSource interface {
	GenresFor(title string) []string
}

// Service composes the fetcher and parser across one page at a time. The
// caller drives pagination; a failed fetch or parse simply yields an empty
// result with HasNext=false, halting further pagination for that run.
type Service struct {
	fetcher PageFetcher
	genres  GenreSource
	baseURL string
}

// NewService creates a scraper for the given source site base URL. Passing
// an empty baseURL uses the production site.
func NewService(fetcher PageFetcher, genres GenreSource, baseURL string) *Service {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Service{
		fetcher: fetcher,
		genres:  genres,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchDiaryPage scrapes one diary page for a user. Diary entries carry
// exact watch dates.
func (s *Service) FetchDiaryPage(ctx context.Context, username string, page int) PageResult {
	url := fmt.Sprintf("%s/%s/films/diary/page/%d/", s.baseURL, username, page)
	return s.fetchPage(ctx, "diary", username, page, url, ParseDiaryPage)
}

// FetchFilmsPage scrapes one films page (the all-watched grid, undated) for
// a user.
func (s *Service) FetchFilmsPage(ctx context.Context, username string, page int) PageResult {
	var url string
	if page <= 1 {
		url = fmt.Sprintf("%s/%s/films/", s.baseURL, username)
	} else {
		url = fmt.Sprintf("%s/%s/films/page/%d/", s.baseURL, username, page)
	}
	return s.fetchPage(ctx, "films", username, page, url, ParseFilmsPage)
}

func (s *Service) fetchPage(ctx context.Context, kind, username string, page int, url string, parse func([]byte) PageResult) PageResult {
	status, body, err := s.fetcher.Get(ctx, url)
	if err != nil {
		log.Printf("[scraper] %s page %d for %s: fetch failed: %v", kind, page, username, err)
		return PageResult{}
	}
	if status == http.StatusNotFound {
		// Past the last page.
		return PageResult{}
	}
	if status != http.StatusOK {
		log.Printf("[scraper] %s page %d for %s: unexpected status %d", kind, page, username, status)
		return PageResult{}
	}

	result := parse(body)
	s.assignFallbackGenres(&result)

	if len(result.Skipped) > 0 {
		log.Printf("[scraper] %s page %d for %s: skipped %d of %d items", kind, page, username, len(result.Skipped), len(result.Skipped)+len(result.Entries))
	}
	log.Printf("[scraper] %s page %d for %s: %d entries, hasNext=%v", kind, page, username, len(result.Entries), result.HasNext)
	return result
}

// assignFallbackGenres performs the cheap first-pass genre assignment from
// the local database. The hydrator later supersedes it with authoritative
// catalog data when available.
func (s *Service) assignFallbackGenres(result *PageResult) {
	if s.genres == nil {
		return
	}
	for i := range result.Entries {
		if genres := s.genres.GenresFor(result.Entries[i].Title); len(genres) > 0 {
			result.Entries[i].Genre = genres
		}
	}
}

// CheckConnection probes the source site root. It exists so deployments can
// diagnose whether their egress IP is blocked before blaming the parser.
func (s *Service) CheckConnection(ctx context.Context) (int, error) {
	status, _, err := s.fetcher.Get(ctx, s.baseURL+"/")
	return status, err
}
