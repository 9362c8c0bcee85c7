package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cmejia89/fiestabox/internal/domain"
	"github.com/cmejia89/fiestabox/internal/indexer"
	"github.com/cmejia89/fiestabox/internal/pipeline"
	"github.com/cmejia89/fiestabox/internal/store"
)

type submitPayload struct {
	GuestID   string `json:"guest_id" form:"guest_id"`
	GuestName string `json:"guest_name" form:"guest_name"`
	Title     string `json:"title" form:"title"`
	Artist    string `json:"artist" form:"artist"`
	Album     string `json:"album" form:"album"`
	Source    string `json:"source" form:"source"`
	TrackID   int    `json:"track_id" form:"track_id"`
	URL       string `json:"url" form:"url"`
}

// SubmitRequest takes a guest's song ask, as JSON or a classic form post.
// Local picks copy synchronously; online picks come back in the downloading
// state and resolve in the background.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var payload submitPayload
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		if err := h.decoder.Decode(&payload, r.PostForm); err != nil {
			h.respondError(w, http.StatusBadRequest, "invalid form fields")
			return
		}
	}

	source := domain.RequestSource(payload.Source)
	if source == "" {
		if payload.TrackID > 0 {
			source = domain.SourceLocal
		} else {
			source = domain.SourceOnline
		}
	}

	switch source {
	case domain.SourceLocal:
		if payload.TrackID <= 0 {
			h.respondError(w, http.StatusBadRequest, "track_id is required for local requests")
			return
		}
		track, err := h.DB.GetTrack(payload.TrackID)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, "failed to look up track")
			return
		}
		if track == nil {
			h.respondError(w, http.StatusNotFound, "track not found")
			return
		}
		req, err := h.Pipeline.SubmitLocal(payload.GuestID, payload.GuestName, track)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.respondJSON(w, http.StatusCreated, req)

	case domain.SourceOnline:
		if strings.TrimSpace(payload.Title) == "" {
			h.respondError(w, http.StatusBadRequest, "title is required")
			return
		}
		if enabled, err := h.Settings.Get(store.SettingDownloadsEnabled); err == nil && enabled == "false" {
			h.respondError(w, http.StatusForbidden, "online requests are disabled for this event")
			return
		}
		req, err := h.Pipeline.SubmitOnline(h.submission(payload))
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.respondJSON(w, http.StatusCreated, req)

	case domain.SourceManual:
		if strings.TrimSpace(payload.Title) == "" {
			h.respondError(w, http.StatusBadRequest, "title is required")
			return
		}
		req, err := h.Pipeline.SubmitManual(h.submission(payload))
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.respondJSON(w, http.StatusCreated, req)

	default:
		h.respondError(w, http.StatusBadRequest, "source must be local, online or manual")
	}
}

func (h *Handler) submission(payload submitPayload) pipeline.Submission {
	return pipeline.Submission{
		GuestID:   payload.GuestID,
		GuestName: payload.GuestName,
		Title:     payload.Title,
		Artist:    payload.Artist,
		Album:     payload.Album,
		URL:       payload.URL,
	}
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := h.DB.GetRequest(id)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if req == nil {
		h.respondError(w, http.StatusNotFound, "request not found")
		return
	}
	h.respondJSON(w, http.StatusOK, req)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	reqs, err := h.DB.ListRequests(limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqs,
		"count":    len(reqs),
	})
}

// RequestStats serves the event-level dashboard: request counts plus the
// library aggregates in one payload.
func (h *Handler) RequestStats(w http.ResponseWriter, r *http.Request) {
	reqStats, err := h.DB.GetRequestStats()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	libStats, err := h.Search.Stats()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"requests": reqStats,
		"library":  libStats,
	})
}

var searchFields = map[string]bool{
	"":       true,
	"all":    true,
	"title":  true,
	"artist": true,
	"album":  true,
	"genre":  true,
}

func (h *Handler) SearchMusic(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	field := r.URL.Query().Get("field")
	if field == "" {
		field = r.URL.Query().Get("type")
	}
	limit := queryInt(r, "limit", 0)

	if !searchFields[field] {
		h.respondError(w, http.StatusBadRequest, "field must be one of: all, title, artist, album, genre")
		return
	}

	// A blank query serves a random sample so the picker is never empty.
	if strings.TrimSpace(query) == "" {
		results, err := h.Search.RandomSample(limit)
		if err != nil {
			h.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"results": results,
			"count":   len(results),
		})
		return
	}

	results, err := h.Search.Search(query, field, limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// SearchOnline surfaces platform candidates with their URLs so a guest can
// submit the exact video instead of trusting the resolver's first pick. An
// empty result set is a normal answer, not an error.
func (h *Handler) SearchOnline(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := queryInt(r, "limit", 0)

	candidates, err := h.Online.Search(r.Context(), query, limit)
	if err != nil && !errors.Is(err, domain.ErrNoOnlineResults) {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": candidates,
		"count":   len(candidates),
	})
}

func (h *Handler) SearchKeywords(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Keywords []string `json:"keywords"`
		Limit    int      `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(payload.Keywords) == 0 {
		h.respondError(w, http.StatusBadRequest, "keywords are required")
		return
	}

	results, err := h.Search.SearchKeywords(payload.Keywords, payload.Limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *Handler) RandomMusic(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	results, err := h.Search.RandomSample(limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *Handler) LibraryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Search.Stats()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, stats)
}

// playbackItem decorates a request with the URL a player can stream it from.
type playbackItem struct {
	*domain.Request
	FileURL string `json:"file_url,omitempty"`
}

func playbackView(req *domain.Request) *playbackItem {
	if req == nil {
		return nil
	}
	item := &playbackItem{Request: req}
	if req.Filename != nil {
		item.FileURL = "/media/music/" + *req.Filename
	}
	return item
}

func (h *Handler) PlaybackCurrent(w http.ResponseWriter, r *http.Request) {
	current, err := h.Queue.Current()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"current": playbackView(current)})
}

func (h *Handler) PlaybackNext(w http.ResponseWriter, r *http.Request) {
	next, err := h.Queue.Advance()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"current": playbackView(next)})
}

func (h *Handler) PlaybackPrevious(w http.ResponseWriter, r *http.Request) {
	current, err := h.Queue.Previous()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"current": playbackView(current)})
}

func (h *Handler) PlaybackQueue(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	upcoming, err := h.Queue.Upcoming(limit)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	queue := make([]*playbackItem, 0, len(upcoming))
	for _, req := range upcoming {
		queue = append(queue, playbackView(req))
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"queue": queue,
		"count": len(queue),
	})
}

func (h *Handler) StartIndex(w http.ResponseWriter, r *http.Request) {
	if h.Indexer.Progress().Running {
		h.respondError(w, http.StatusConflict, "a scan is already running")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	go func() {
		if _, err := h.Indexer.Scan(context.Background(), force); err != nil && err != indexer.ErrScanInProgress {
			h.Logger.Error("background scan failed", "error", err)
		}
	}()

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"force":  force,
	})
}

func (h *Handler) IndexProgress(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.Indexer.Progress())
}

func (h *Handler) ClearIndex(w http.ResponseWriter, r *http.Request) {
	if h.Indexer.Progress().Running {
		h.respondError(w, http.StatusConflict, "a scan is running, try again later")
		return
	}
	if err := h.DB.ClearTracks(); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) RetryRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, err := h.Pipeline.Retry(id)
	if err != nil {
		status := http.StatusBadRequest
		if strings.Contains(err.Error(), "not found") {
			status = http.StatusNotFound
		}
		h.respondError(w, status, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, req)
}

func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := h.Settings.Get(key)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (h *Handler) PutSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var payload struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.Settings.Set(key, payload.Value); err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"key": key, "value": payload.Value})
}
