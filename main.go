package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"statsboxd/api"
	"statsboxd/config"
	"statsboxd/handlers"
	"statsboxd/services/analytics"
	"statsboxd/services/catalog"
	"statsboxd/services/library"
	"statsboxd/services/scraper"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {

	portOverride := flag.Int("port", 0, "override server port from config")
	flag.Parse()

	fmt.Println("🚀 statsboxd Backend Starting...")

	// Determine config path (env or default)
	configPath := os.Getenv("STATSBOXD_CONFIG")
	if configPath == "" {
		configPath = filepath.Join("data", "settings.json")
	}

	// Init config manager and load settings (creates defaults if missing)
	cfgManager := config.NewManager(configPath)
	settings, err := cfgManager.Load()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Set up file logging with rotation
	if settings.Log.File != "" {
		// Ensure log directory exists
		logDir := filepath.Dir(settings.Log.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Printf("Warning: could not create log directory %s: %v", logDir, err)
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   settings.Log.File,
				MaxSize:    settings.Log.MaxSize,
				MaxBackups: settings.Log.MaxBackups,
				MaxAge:     settings.Log.MaxAge,
				Compress:   settings.Log.Compress,
			}
			// Redirect standard log to both console and file
			multiWriter := io.MultiWriter(os.Stdout, fileWriter)
			log.SetOutput(multiWriter)
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			log.Printf("Logging to file: %s", settings.Log.File)
		}
	}

	// Apply port override if specified
	if *portOverride > 0 {
		settings.Server.Port = *portOverride
	}

	fsys := afero.NewOsFs()

	// Offline movie catalog (hydration fallback + recommendation pool)
	fallbackDB, err := catalog.LoadFallbackDB(fsys, settings.Catalog.MoviesPath)
	if err != nil {
		log.Fatalf("failed to load movie catalog: %v", err)
	}

	catalogSvc := catalog.NewService(catalog.Options{
		TMDBAPIKey: settings.Metadata.TMDBAPIKey,
		Workers:    settings.Hydration.Workers,
	}, fallbackDB)
	if settings.Metadata.TMDBAPIKey == "" {
		log.Println("[main] no TMDB API key configured, hydration disabled")
	}

	fetcher, err := scraper.NewFetcher(time.Duration(settings.Source.TimeoutSeconds) * time.Second)
	if err != nil {
		log.Fatalf("failed to init page fetcher: %v", err)
	}
	scraperSvc := scraper.NewService(fetcher, fallbackDB, settings.Source.BaseURL)

	librarySvc, err := library.NewService(fsys, settings.Storage.Directory)
	if err != nil {
		log.Fatalf("failed to init library service: %v", err)
	}

	analyticsSvc := analytics.NewService(fallbackDB, catalogSvc)

	syncHandler := handlers.NewSyncHandler(scraperSvc, librarySvc, catalogSvc)
	statsHandler := handlers.NewStatsHandler(librarySvc, analyticsSvc, catalogSvc)
	gamesHandler := handlers.NewGamesHandler(librarySvc, analyticsSvc)
	debugHandler := handlers.NewDebugHandler(scraperSvc)

	r := mux.NewRouter()
	api.Register(r, syncHandler, statsHandler, gamesHandler, debugHandler)

	addr := fmt.Sprintf("%s:%d", settings.Server.Host, settings.Server.Port)
	fmt.Printf("Server starting on %s\n", addr)

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Setup graceful shutdown
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdownChan
	log.Println("🛑 Shutdown signal received, cleaning up...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server gracefully
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
