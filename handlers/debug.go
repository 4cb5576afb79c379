package handlers

import (
	"net/http"
)

// DebugHandler exposes deployment diagnostics.
type DebugHandler struct {
	Scraper scraperService
}

func NewDebugHandler(scraperSvc scraperService) *DebugHandler {
	return &DebugHandler{Scraper: scraperSvc}
}

type connectionCheckResponse struct {
	Status   string `json:"status"`
	HTTPCode int    `json:"httpCode,omitempty"`
	Message  string `json:"message,omitempty"`
}

// CheckConnection probes the source site so hosted deployments can tell a
// blocked egress IP apart from a markup change.
func (h *DebugHandler) CheckConnection(w http.ResponseWriter, r *http.Request) {
	status, err := h.Scraper.CheckConnection(r.Context())
	if err != nil {
		writeJSON(w, connectionCheckResponse{Status: "error", Message: err.Error()})
		return
	}

	resp := connectionCheckResponse{Status: "success", HTTPCode: status}
	if status != http.StatusOK {
		resp.Status = "error"
	}
	writeJSON(w, resp)
}
