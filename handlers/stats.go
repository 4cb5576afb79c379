package handlers

import (
	"context"
	"net/http"
	"strings"

	"statsboxd/models"
	"statsboxd/services/analytics"
)

type analyticsService interface {
	AnalyzeProfile(entries []models.Entry, yearFilter string, includeUndated bool) models.ProfileStats
	GenreEvolution(entries []models.Entry, yearFilter string) models.GenreEvolution
	Recommendations(ctx context.Context, entries []models.Entry) []models.CatalogEntry
	QuizQuestion(ctx context.Context, entries []models.Entry) (models.QuizQuestion, error)
}

var _ analyticsService = (*analytics.Service)(nil)

// StatsHandler serves profile statistics and the genre-evolution series.
// Stats are recomputed from the collection snapshot on every request, never
// cached.
type StatsHandler struct {
	Library   libraryService
	Analytics analyticsService
	Hydrator  hydrationService
}

func NewStatsHandler(librarySvc libraryService, analyticsSvc analyticsService, hydrator hydrationService) *StatsHandler {
	return &StatsHandler{Library: librarySvc, Analytics: analyticsSvc, Hydrator: hydrator}
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	username := resolveUsername(r, h.Library)
	entries := snapshotEntries(h.Library, username)

	// hydrate=true tops up missing catalog data before computing, bounded
	// by the already-hydrated check.
	if strings.EqualFold(r.URL.Query().Get("hydrate"), "true") && len(entries) > 0 {
		pending := make([]*models.Entry, len(entries))
		for i := range entries {
			pending[i] = &entries[i]
		}
		h.Hydrator.Hydrate(r.Context(), pending)
		if err := h.Library.ApplyHydration(username, entries); err == nil {
			entries = snapshotEntries(h.Library, username)
		}
	}

	year := strings.TrimSpace(r.URL.Query().Get("year"))
	includeUndated := strings.EqualFold(r.URL.Query().Get("includeUndated"), "true")

	writeJSON(w, h.Analytics.AnalyzeProfile(entries, year, includeUndated))
}

func (h *StatsHandler) GetEvolution(w http.ResponseWriter, r *http.Request) {
	username := resolveUsername(r, h.Library)
	entries := snapshotEntries(h.Library, username)
	year := strings.TrimSpace(r.URL.Query().Get("year"))

	writeJSON(w, h.Analytics.GenreEvolution(entries, year))
}
