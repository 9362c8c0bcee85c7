// Package httpapp exposes the guest, player and admin HTTP API
package httpapp

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/form/v4"

	"github.com/cmejia89/fiestabox/internal/domain"
	"github.com/cmejia89/fiestabox/internal/indexer"
	"github.com/cmejia89/fiestabox/internal/logger"
	"github.com/cmejia89/fiestabox/internal/pipeline"
	"github.com/cmejia89/fiestabox/internal/playback"
	"github.com/cmejia89/fiestabox/internal/search"
	"github.com/cmejia89/fiestabox/internal/store"
)

// OnlineSearcher surfaces platform candidates so guests can pick the exact
// video they want before submitting.
type OnlineSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
}

type Handler struct {
	DB       *store.DB
	Search   *search.Engine
	Pipeline *pipeline.Pipeline
	Queue    *playback.Queue
	Indexer  *indexer.Indexer
	Settings *store.SettingsRepo
	Online   OnlineSearcher
	MediaDir string
	Logger   *logger.Logger

	decoder *form.Decoder
}

func NewHandler(db *store.DB, engine *search.Engine, pl *pipeline.Pipeline, queue *playback.Queue, ix *indexer.Indexer, settings *store.SettingsRepo, online OnlineSearcher, mediaDir string, log *logger.Logger) *Handler {
	return &Handler{
		DB:       db,
		Search:   engine,
		Pipeline: pl,
		Queue:    queue,
		Indexer:  ix,
		Settings: settings,
		Online:   online,
		MediaDir: mediaDir,
		Logger:   log.WithComponent("http"),
		decoder:  form.NewDecoder(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/submit", h.SubmitRequest)
		r.Get("/requests", h.ListRequests)
		r.Get("/requests/{id}", h.GetRequest)
		r.Get("/stats", h.RequestStats)

		r.Route("/music", func(r chi.Router) {
			r.Get("/search", h.SearchMusic)
			r.Get("/online", h.SearchOnline)
			r.Post("/keywords", h.SearchKeywords)
			r.Get("/random", h.RandomMusic)
			r.Get("/stats", h.LibraryStats)
		})

		r.Route("/playback", func(r chi.Router) {
			r.Get("/current", h.PlaybackCurrent)
			r.Post("/next", h.PlaybackNext)
			r.Post("/previous", h.PlaybackPrevious)
			r.Get("/queue", h.PlaybackQueue)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/index", h.StartIndex)
			r.Get("/index/progress", h.IndexProgress)
			r.Post("/index/clear", h.ClearIndex)
			r.Post("/requests/{id}/retry", h.RetryRequest)
		})

		r.Get("/settings/{key}", h.GetSetting)
		r.Put("/settings/{key}", h.PutSetting)
	})

	// Downloaded and copied files are served straight off disk for the player.
	fileServer := http.StripPrefix("/media/music/", http.FileServer(http.Dir(h.MediaDir)))
	r.Get("/media/music/*", fileServer.ServeHTTP)

	r.Get("/health", h.Health)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.Logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// queryInt reads an integer query parameter with a fallback.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
