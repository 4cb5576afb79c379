package handlers

import (
	"errors"
	"net/http"

	"statsboxd/models"
	"statsboxd/services/analytics"
)

// GamesHandler serves the trivia quiz and the recommendation shelf.
type GamesHandler struct {
	Library   libraryService
	Analytics analyticsService
}

func NewGamesHandler(librarySvc libraryService, analyticsSvc analyticsService) *GamesHandler {
	return &GamesHandler{Library: librarySvc, Analytics: analyticsSvc}
}

func (h *GamesHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	username := resolveUsername(r, h.Library)
	entries := snapshotEntries(h.Library, username)

	question, err := h.Analytics.QuizQuestion(r.Context(), entries)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analytics.ErrNoQuizMaterial) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, question)
}

func (h *GamesHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	username := resolveUsername(r, h.Library)
	entries := snapshotEntries(h.Library, username)

	recs := h.Analytics.Recommendations(r.Context(), entries)
	if recs == nil {
		recs = []models.CatalogEntry{}
	}

	writeJSON(w, recs)
}
