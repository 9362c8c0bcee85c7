// Package search answers catalog queries for the guest-facing picker
package search

import (
	"strings"

	"github.com/cmejia89/fiestabox/internal/domain"
	"github.com/cmejia89/fiestabox/internal/store"
)

// DefaultLimit caps result sets when the caller doesn't ask for a size.
const DefaultLimit = 50

// dedupeHeadroom is how many extra rows are fetched so the post-dedupe set
// can still fill the requested limit.
const dedupeHeadroom = 3

// Engine wraps the catalog with dedupe and sampling on top of the raw
// substring queries.
type Engine struct {
	db *store.DB
}

func NewEngine(db *store.DB) *Engine {
	return &Engine{db: db}
}

// Search finds tracks whose tags contain the query, case-insensitively.
// field scopes the match to title, artist, album or genre; empty or "all"
// searches every column. Duplicate recordings (same lowered title and
// duration) collapse to the first hit, then the result is cut to limit.
func (e *Engine) Search(query, field string, limit int) ([]*domain.Track, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []*domain.Track{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	fetch := limit * dedupeHeadroom
	var (
		rows []*domain.Track
		err  error
	)
	if field == "" || field == "all" {
		rows, err = e.db.SearchTracksAll(q, fetch)
	} else {
		rows, err = e.db.SearchTracksByField(field, q, fetch)
	}
	if err != nil {
		return nil, err
	}
	return dedupe(rows, limit), nil
}

// SearchKeywords runs one search per keyword and returns the deduplicated
// union, preserving keyword order.
func (e *Engine) SearchKeywords(keywords []string, limit int) ([]*domain.Track, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var combined []*domain.Track
	for _, kw := range keywords {
		q := strings.ToLower(strings.TrimSpace(kw))
		if q == "" {
			continue
		}
		rows, err := e.db.SearchTracksAll(q, limit*dedupeHeadroom)
		if err != nil {
			return nil, err
		}
		combined = append(combined, rows...)
	}
	return dedupe(combined, limit), nil
}

// RandomSample returns up to limit random tracks for the discovery view.
func (e *Engine) RandomSample(limit int) ([]*domain.Track, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return e.db.RandomTracks(limit)
}

// Stats returns catalog aggregates for the library stats endpoint.
func (e *Engine) Stats() (*store.LibraryStats, error) {
	return e.db.GetLibraryStats()
}

type dedupeKey struct {
	title    string
	duration int
}

// dedupe keeps the first occurrence of each (lowered title, duration) pair.
func dedupe(rows []*domain.Track, limit int) []*domain.Track {
	seen := make(map[dedupeKey]bool, len(rows))
	out := make([]*domain.Track, 0, limit)
	for _, row := range rows {
		key := dedupeKey{title: row.TitleLower, duration: row.Duration}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out
}
