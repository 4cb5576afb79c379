package api

import (
	"encoding/json"
	"net/http"

	"statsboxd/handlers"

	"github.com/gorilla/mux"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleOptions handles OPTIONS requests for CORS preflight
func handleOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Register mounts API endpoints onto the provided router.
func Register(
	r *mux.Router,
	syncHandler *handlers.SyncHandler,
	statsHandler *handlers.StatsHandler,
	gamesHandler *handlers.GamesHandler,
	debugHandler *handlers.DebugHandler,
) {
	api := r.PathPrefix("/api").Subrouter()

	// Add CORS middleware to API subrouter
	api.Use(corsMiddleware)

	api.HandleFunc("/sync/batch", syncHandler.Batch).Methods(http.MethodPost)
	api.HandleFunc("/sync/batch", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/stats", statsHandler.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/stats", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/evolution", statsHandler.GetEvolution).Methods(http.MethodGet)
	api.HandleFunc("/evolution", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/quiz", gamesHandler.GetQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quiz", handleOptions).Methods(http.MethodOptions)
	api.HandleFunc("/recommendations", gamesHandler.GetRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/debug/connection", debugHandler.CheckConnection).Methods(http.MethodGet)
	api.HandleFunc("/debug/connection", handleOptions).Methods(http.MethodOptions)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
}
