package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"statsboxd/handlers"
	"statsboxd/models"
)

type fakeAnalytics struct {
	stats     models.ProfileStats
	evolution models.GenreEvolution
	recs      []models.CatalogEntry
	quiz      models.QuizQuestion
	quizErr   error

	lastYear           string
	lastIncludeUndated bool
	lastEntries        []models.Entry
}

func (f *fakeAnalytics) AnalyzeProfile(entries []models.Entry, yearFilter string, includeUndated bool) models.ProfileStats {
	f.lastEntries = entries
	f.lastYear = yearFilter
	f.lastIncludeUndated = includeUndated
	return f.stats
}

func (f *fakeAnalytics) GenreEvolution(entries []models.Entry, yearFilter string) models.GenreEvolution {
	f.lastEntries = entries
	f.lastYear = yearFilter
	return f.evolution
}

func (f *fakeAnalytics) Recommendations(ctx context.Context, entries []models.Entry) []models.CatalogEntry {
	f.lastEntries = entries
	return f.recs
}

func (f *fakeAnalytics) QuizQuestion(ctx context.Context, entries []models.Entry) (models.QuizQuestion, error) {
	f.lastEntries = entries
	return f.quiz, f.quizErr
}

func TestGetStatsPassesFilters(t *testing.T) {
	date := "2024-03-15"
	librarySvc := &fakeLibrary{
		active:   "someuser",
		snapshot: models.Collection{Username: "someuser", Entries: []models.Entry{{Title: "Oldboy", Date: &date}}},
	}
	analyticsSvc := &fakeAnalytics{stats: models.ProfileStats{TotalFilms: 1}}
	handler := handlers.NewStatsHandler(librarySvc, analyticsSvc, &fakeHydrator{})

	r := mux.NewRouter()
	r.HandleFunc("/api/stats", handler.GetStats).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/stats?year=2024&includeUndated=true", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if analyticsSvc.lastYear != "2024" || !analyticsSvc.lastIncludeUndated {
		t.Fatalf("filters not forwarded: year=%q undated=%v", analyticsSvc.lastYear, analyticsSvc.lastIncludeUndated)
	}
	if len(analyticsSvc.lastEntries) != 1 {
		t.Fatalf("expected snapshot entries forwarded, got %d", len(analyticsSvc.lastEntries))
	}

	var stats models.ProfileStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalFilms != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestGetStatsHydrateParam(t *testing.T) {
	librarySvc := &fakeLibrary{
		active:   "someuser",
		snapshot: models.Collection{Username: "someuser", Entries: []models.Entry{{Title: "Oldboy"}}},
	}
	hydrator := &fakeHydrator{}
	handler := handlers.NewStatsHandler(librarySvc, &fakeAnalytics{}, hydrator)

	r := mux.NewRouter()
	r.HandleFunc("/api/stats", handler.GetStats).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/stats?hydrate=true", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if len(hydrator.batches) != 1 {
		t.Fatalf("expected a hydration pass, got %d", len(hydrator.batches))
	}
}

func TestGetStatsUnknownUserIsEmpty(t *testing.T) {
	handler := handlers.NewStatsHandler(&fakeLibrary{}, &fakeAnalytics{}, &fakeHydrator{})

	r := mux.NewRouter()
	r.HandleFunc("/api/stats", handler.GetStats).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("stats for no synced user must still answer, got %d", rec.Code)
	}
}

func TestGetEvolutionForwardsYear(t *testing.T) {
	analyticsSvc := &fakeAnalytics{evolution: models.GenreEvolution{"March": {"Thriller": 1}}}
	handler := handlers.NewStatsHandler(&fakeLibrary{active: "someuser"}, analyticsSvc, &fakeHydrator{})

	r := mux.NewRouter()
	r.HandleFunc("/api/evolution", handler.GetEvolution).Methods(http.MethodGet)

	req := httptest.NewRequest(http.MethodGet, "/api/evolution?year=2024", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if analyticsSvc.lastYear != "2024" {
		t.Fatalf("year filter not forwarded, got %q", analyticsSvc.lastYear)
	}
}
