// Package analytics derives profile statistics, genre evolution, trivia and
// recommendations from a hydrated collection snapshot.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"statsboxd/models"
	"statsboxd/services/catalog"
	"statsboxd/utils/titles"
)

var ErrNoQuizMaterial = errors.New("no watched films or fallback entries to build a quiz from")

const (
	// tasteWindow is the positional prefix of the newest-first collection
	// used as the recommendation taste signal. Not a date sort: undated
	// entries count too.
	tasteWindow        = 25
	topTasteGenres     = 5
	maxRecommendations = 10
	topProfileGenres   = 3

	placeholderPoster = "https://via.placeholder.com/300x450?text=No+Poster"
)

// synthesizedRatings is the pool a pretend rating is drawn from when the
// quiz has to fall back to an unwatched catalog film.
var synthesizedRatings = []float64{3.0, 3.5, 4.0, 4.5, 5.0}

// PosterResolver refreshes a poster URL for a title, returning "" when the
// film is unknown.
type PosterResolver interface {
	ResolvePoster(ctx context.Context, title string) string
}

// QuestionWriter produces the quiz prompt for a film. The default is a fixed
// template; a generative text service can be dropped in behind this
// interface without touching the engine.
type QuestionWriter interface {
	RatingQuestion(title string) string
}

type fixedQuestionWriter struct{}

func (fixedQuestionWriter) RatingQuestion(title string) string {
	return fmt.Sprintf("You watched '%s'. What star rating did you give it?", title)
}

// Service computes analytics over collection snapshots. The computations are
// pure; the only external calls are poster refreshes for recommendations and
// quiz questions.
type Service struct {
	fallback  *catalog.FallbackDB
	posters   PosterResolver
	questions QuestionWriter
}

// NewService builds the analytics engine over the given fallback database
// and poster resolver.
func NewService(fallback *catalog.FallbackDB, posters PosterResolver) *Service {
	return &Service{fallback: fallback, posters: posters, questions: fixedQuestionWriter{}}
}

// SetQuestionWriter replaces the fixed quiz prompt template.
func (s *Service) SetQuestionWriter(w QuestionWriter) {
	if w != nil {
		s.questions = w
	}
}

// AnalyzeProfile computes profile statistics over the collection, optionally
// restricted to a watch year. With includeUndated set, entries without a
// watch date fall back to their hydrated release date for filtering and the
// heatmap; entries with neither stay in the totals but out of the heatmap.
func (s *Service) AnalyzeProfile(entries []models.Entry, yearFilter string, includeUndated bool) models.ProfileStats {
	stats := models.ProfileStats{
		GrandTotal: len(entries),
		TopGenres:  []models.GenreCount{},
		Heatmap:    make(map[string]models.HeatmapCell),
	}
	for _, e := range entries {
		if e.Date == nil {
			stats.UndatedCount++
		}
	}

	filtered := filterByYear(entries, yearFilter, includeUndated)
	stats.TotalFilms = len(filtered)
	if len(filtered) == 0 {
		return stats
	}

	var totalRating float64
	for _, e := range filtered {
		totalRating += e.Rating
	}
	stats.AverageRating = round2(totalRating / float64(len(filtered)))

	stats.TopGenres = genreCounts(filtered, topProfileGenres, false)

	for _, e := range filtered {
		key := heatmapKey(e, includeUndated)
		if key == "" {
			continue
		}
		cell := stats.Heatmap[key]
		cell.Count++
		cell.Titles = append(cell.Titles, e.Title)
		stats.Heatmap[key] = cell
	}

	return stats
}

// GenreEvolution buckets genre counts by year, or by calendar month when a
// year filter is given. All twelve months are pre-seeded in the filtered
// form so charts show gaps instead of missing keys. Entries without a
// parsable watch date are skipped.
func (s *Service) GenreEvolution(entries []models.Entry, yearFilter string) models.GenreEvolution {
	evolution := make(models.GenreEvolution)
	if yearFilter != "" {
		for m := time.January; m <= time.December; m++ {
			evolution[m.String()] = make(map[string]int)
		}
	}

	for _, e := range entries {
		date := e.WatchedDate()
		if date == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}

		var bucket string
		if yearFilter == "" {
			bucket = date[:4]
		} else {
			if !strings.HasPrefix(date, yearFilter) {
				continue
			}
			bucket = t.Month().String()
		}

		if evolution[bucket] == nil {
			evolution[bucket] = make(map[string]int)
		}
		for _, g := range e.Genre {
			evolution[bucket][g]++
		}
	}

	return evolution
}

// Recommendations picks up to ten unwatched films from the fallback catalog
// that share a genre with the user's recent taste. Selection is
// intentionally randomized, not ranked. Posters are refreshed via the live
// catalog, keeping the local URL when the lookup fails.
func (s *Service) Recommendations(ctx context.Context, entries []models.Entry) []models.CatalogEntry {
	recent := entries
	if len(recent) > tasteWindow {
		recent = recent[:tasteWindow]
	}

	top := make(map[string]struct{})
	for _, gc := range genreCounts(recent, topTasteGenres, true) {
		top[gc.Genre] = struct{}{}
	}

	watched := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		watched[titles.MatchKey(e.Title)] = struct{}{}
	}

	var candidates []models.CatalogEntry
	for _, ce := range s.fallback.All() {
		if _, seen := watched[titles.MatchKey(ce.Title)]; seen {
			continue
		}
		if len(top) == 0 {
			candidates = append(candidates, ce)
			continue
		}
		for _, g := range ce.Genre {
			if _, ok := top[g]; ok {
				candidates = append(candidates, ce)
				break
			}
		}
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > maxRecommendations {
		candidates = candidates[:maxRecommendations]
	}

	for i := range candidates {
		if url := s.posters.ResolvePoster(ctx, candidates[i].Title); url != "" {
			candidates[i].PosterURL = url
		}
	}

	return candidates
}

// QuizQuestion builds a rating-guess question from a random watched entry,
// or from a random catalog film with a synthesized rating when nothing has
// been synced yet.
func (s *Service) QuizQuestion(ctx context.Context, entries []models.Entry) (models.QuizQuestion, error) {
	var title string
	var rating float64

	if len(entries) > 0 {
		e := entries[rand.Intn(len(entries))]
		title = e.Title
		rating = e.Rating
	} else {
		pool := s.fallback.All()
		if len(pool) == 0 {
			return models.QuizQuestion{}, ErrNoQuizMaterial
		}
		ce := pool[rand.Intn(len(pool))]
		title = ce.Title
		rating = synthesizedRatings[rand.Intn(len(synthesizedRatings))]
	}

	poster := s.posters.ResolvePoster(ctx, title)
	if poster == "" {
		poster = placeholderPoster
	}

	options := []float64{rating}
	for len(options) < 4 {
		distractor := float64(rand.Intn(10)+1) / 2.0
		if !containsFloat(options, distractor) {
			options = append(options, distractor)
		}
	}
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	question := models.QuizQuestion{
		Question:   s.questions.RatingQuestion(title),
		Options:    make([]string, len(options)),
		MovieTitle: title,
		PosterURL:  poster,
	}
	for i, opt := range options {
		question.Options[i] = formatStars(opt)
		if opt == rating {
			question.CorrectIndex = i
		}
	}

	return question, nil
}

// filterByYear applies the optional year filter. Undated entries qualify via
// their release date only when includeUndated is set.
func filterByYear(entries []models.Entry, yearFilter string, includeUndated bool) []models.Entry {
	if yearFilter == "" {
		return entries
	}
	var out []models.Entry
	for _, e := range entries {
		if date := e.WatchedDate(); date != "" {
			if strings.HasPrefix(date, yearFilter) {
				out = append(out, e)
			}
			continue
		}
		if includeUndated && strings.HasPrefix(e.ReleaseDate, yearFilter) {
			out = append(out, e)
		}
	}
	return out
}

// genreCounts tallies genres in first-encounter order and returns up to max
// of them sorted descending by count. The stable sort keeps ties in
// encounter order. skipUncategorized drops the placeholder genre, which
// carries no taste signal when selecting recommendations.
func genreCounts(entries []models.Entry, max int, skipUncategorized bool) []models.GenreCount {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		for _, g := range e.Genre {
			if skipUncategorized && g == models.UncategorizedGenre {
				continue
			}
			if _, seen := counts[g]; !seen {
				order = append(order, g)
			}
			counts[g]++
		}
	}

	out := make([]models.GenreCount, 0, len(order))
	for _, g := range order {
		out = append(out, models.GenreCount{Genre: g, Count: counts[g]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > max {
		out = out[:max]
	}
	return out
}

func heatmapKey(e models.Entry, includeUndated bool) string {
	if date := e.WatchedDate(); date != "" {
		return date
	}
	if includeUndated && len(e.ReleaseDate) >= 10 {
		return e.ReleaseDate[:10]
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatStars(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + " stars"
}

func containsFloat(values []float64, v float64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
