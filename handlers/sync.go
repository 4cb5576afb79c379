package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"statsboxd/models"
	"statsboxd/services/library"
	"statsboxd/services/scraper"
)

type scraperService interface {
	FetchDiaryPage(ctx context.Context, username string, page int) scraper.PageResult
	FetchFilmsPage(ctx context.Context, username string, page int) scraper.PageResult
	CheckConnection(ctx context.Context) (int, error)
}

type libraryService interface {
	Reset(username string) error
	Merge(username string, entries []models.Entry) ([]models.Entry, error)
	ApplyHydration(username string, entries []models.Entry) error
	Snapshot(username string) (models.Collection, error)
	AvailableYears(username string) []string
	ActiveUsername() string
}

type hydrationService interface {
	Hydrate(ctx context.Context, entries []*models.Entry)
}

var _ scraperService = (*scraper.Service)(nil)
var _ libraryService = (*library.Service)(nil)

// SyncHandler drives one page of the scrape -> merge -> hydrate pipeline per
// request. The frontend calls it repeatedly, diary pages first, then films
// pages, which is what gives dated entries merge precedence.
type SyncHandler struct {
	Scraper  scraperService
	Library  libraryService
	Hydrator hydrationService
}

func NewSyncHandler(scraperSvc scraperService, librarySvc libraryService, hydrator hydrationService) *SyncHandler {
	return &SyncHandler{Scraper: scraperSvc, Library: librarySvc, Hydrator: hydrator}
}

type syncBatchRequest struct {
	Username string `json:"username"`
	Page     int    `json:"page"`
	Source   string `json:"source"` // "diary" or "films"
}

func (h *SyncHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req syncBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		http.Error(w, "username is required", http.StatusBadRequest)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	source := req.Source
	if source != "films" {
		source = "diary"
	}

	runID := uuid.NewString()[:8]
	start := time.Now()
	log.Printf("[sync %s] start %s %s page %d", runID, req.Username, source, req.Page)

	var page scraper.PageResult
	if source == "films" {
		page = h.Scraper.FetchFilmsPage(r.Context(), req.Username, req.Page)
	} else {
		page = h.Scraper.FetchDiaryPage(r.Context(), req.Username, req.Page)
	}

	// Page 1 of a diary sync starts a full resync: the stored collection is
	// replaced wholesale, not merged into.
	if source == "diary" && req.Page == 1 {
		if err := h.Library.Reset(req.Username); err != nil {
			h.writeLibraryError(w, err)
			return
		}
	}

	added, err := h.Library.Merge(req.Username, page.Entries)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}

	// Hydrate only the truly-new entries, then fold the catalog data back
	// into the stored collection.
	if len(added) > 0 {
		pending := make([]*models.Entry, len(added))
		for i := range added {
			pending[i] = &added[i]
		}
		h.Hydrator.Hydrate(r.Context(), pending)
		if err := h.Library.ApplyHydration(req.Username, added); err != nil {
			log.Printf("[sync %s] apply hydration: %v", runID, err)
		}
	}

	years := h.Library.AvailableYears(req.Username)
	result := models.SyncResult{
		Status:  "success",
		Entries: added,
		HasNext: page.HasNext,
		Years:   years,
	}
	if result.Entries == nil {
		result.Entries = []models.Entry{}
	}
	if result.Years == nil {
		result.Years = []string{}
	}
	if len(years) > 0 {
		result.LatestYear = years[0]
	}

	log.Printf("[sync %s] done %s %s page %d: %d new, %d skipped, hasNext=%v, took %s",
		runID, req.Username, source, req.Page, len(added), len(page.Skipped), page.HasNext,
		time.Since(start).Round(time.Millisecond))

	writeJSON(w, result)
}

func (h *SyncHandler) writeLibraryError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, library.ErrUsernameRequired) {
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// resolveUsername picks the username from the query string, falling back to
// the most recently synced user so a single-user frontend can omit it.
func resolveUsername(r *http.Request, lib libraryService) string {
	if username := strings.TrimSpace(r.URL.Query().Get("username")); username != "" {
		return username
	}
	return lib.ActiveUsername()
}

// snapshotEntries loads a copy of the user's entries, tolerating an unknown
// or missing username as an empty collection.
func snapshotEntries(lib libraryService, username string) []models.Entry {
	if username == "" {
		return nil
	}
	col, err := lib.Snapshot(username)
	if err != nil {
		return nil
	}
	return col.Entries
}
