package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

const (
	tmdbDefaultBaseURL = "https://api.themoviedb.org/3"
	tmdbImageBaseURL   = "https://image.tmdb.org/t/p"
	// w500 is plenty for poster cards; "original" wastes bandwidth.
	tmdbPosterSize = "w500"
)

var errTMDBNotConfigured = errors.New("tmdb api key not configured")

type tmdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client

	// Rate limiting
	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, baseURL string, httpc *http.Client) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = tmdbDefaultBaseURL
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpc:       httpc,
		minInterval: 20 * time.Millisecond, // TMDB has generous rate limits
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c != nil && c.apiKey != ""
}

type tmdbMovieResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
	GenreIDs    []int  `json:"genre_ids"`
}

type tmdbSearchResponse struct {
	Results []tmdbMovieResult `json:"results"`
}

type tmdbGenreListResponse struct {
	Genres []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// doGET performs a throttled GET and decodes the JSON response.
func (c *tmdbClient) doGET(ctx context.Context, endpoint string, query url.Values, v any) error {
	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return err
	}
	query.Set("api_key", c.apiKey)
	req.URL.RawQuery = query.Encode()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("tmdb request %s failed: %s", endpoint, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// searchMovie queries the catalog by title and returns the raw result list.
func (c *tmdbClient) searchMovie(ctx context.Context, title string) ([]tmdbMovieResult, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}

	query := url.Values{}
	query.Set("query", title)
	query.Set("include_adult", "false")

	var payload tmdbSearchResponse
	if err := c.doGET(ctx, "/search/movie", query, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// genreTable fetches the genre id -> name mapping. Fetched once per
// hydration batch.
func (c *tmdbClient) genreTable(ctx context.Context) (map[int]string, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}

	var payload tmdbGenreListResponse
	if err := c.doGET(ctx, "/genre/movie/list", url.Values{}, &payload); err != nil {
		return nil, err
	}

	table := make(map[int]string, len(payload.Genres))
	for _, g := range payload.Genres {
		table[g.ID] = g.Name
	}
	return table, nil
}

func buildPosterURL(posterPath string) string {
	trimmed := strings.TrimSpace(posterPath)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", tmdbImageBaseURL, path.Join(tmdbPosterSize, strings.TrimPrefix(trimmed, "/")))
}
