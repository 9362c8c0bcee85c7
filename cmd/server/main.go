package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cmejia89/fiestabox/internal/config"
	"github.com/cmejia89/fiestabox/internal/httpapp"
	"github.com/cmejia89/fiestabox/internal/indexer"
	"github.com/cmejia89/fiestabox/internal/logger"
	"github.com/cmejia89/fiestabox/internal/media"
	"github.com/cmejia89/fiestabox/internal/pipeline"
	"github.com/cmejia89/fiestabox/internal/playback"
	"github.com/cmejia89/fiestabox/internal/search"
	"github.com/cmejia89/fiestabox/internal/store"
	"github.com/cmejia89/fiestabox/internal/youtube"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Downloads interrupted by the last shutdown can never finish, fail them
	// before workers accept new jobs.
	if n, err := db.ResetStuckDownloads(); err != nil {
		appLogger.Error("Failed to reset stuck downloads", "error", err)
	} else if n > 0 {
		appLogger.Info("Reset stuck downloads", "count", n)
	}

	if err := os.MkdirAll(cfg.MediaDir, 0755); err != nil {
		appLogger.Error("Failed to create media dir", "path", cfg.MediaDir, "error", err)
		os.Exit(1)
	}

	settingsRepo := store.NewSettingsRepo(db)
	if err := settingsRepo.EnsureDefaults(); err != nil {
		appLogger.Error("Failed to seed default settings", "error", err)
		os.Exit(1)
	}

	// Initialize media components
	extractor := media.NewExtractor(media.NewFFProbe())
	ix := indexer.New(db, extractor, cfg.LibraryRoot, appLogger)

	// Initialize download pipeline
	ytClient := youtube.NewClient(youtube.NewRunner(), cfg.MediaDir, cfg.MaxDownloadRetries, appLogger)
	pool := pipeline.NewPool(cfg.DownloadWorkers, appLogger)
	pool.Start()
	defer pool.Stop()

	pl := pipeline.New(db, ytClient, pool, cfg.LibraryRoot, cfg.MediaDir, cfg.LegacyLibraryPrefix, appLogger)
	engine := search.NewEngine(db)
	queue := playback.NewQueue(db, appLogger)

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Routes
	h := httpapp.NewHandler(db, engine, pl, queue, ix, settingsRepo, ytClient, cfg.MediaDir, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
