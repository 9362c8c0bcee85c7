// Package playback orders ready requests for the venue player
package playback

import (
	"sync"
	"time"

	"github.com/cmejia89/fiestabox/internal/domain"
	"github.com/cmejia89/fiestabox/internal/logger"
	"github.com/cmejia89/fiestabox/internal/store"
)

// Queue derives the play order from request state: the current track is the
// oldest ready request that hasn't been played, and history is whatever
// carries a played_at timestamp. A single mutex serializes Advance and
// Previous so two player screens can't double-advance.
type Queue struct {
	db  *store.DB
	mu  sync.Mutex
	log *logger.Logger
}

func NewQueue(db *store.DB, log *logger.Logger) *Queue {
	return &Queue{db: db, log: log.WithComponent("playback")}
}

// Current returns the request that should be playing now, or nil when the
// queue is drained.
func (q *Queue) Current() (*domain.Request, error) {
	return q.db.FirstReadyUnplayed()
}

// Advance marks the current request as played and returns the new current,
// nil when that was the last one.
func (q *Queue) Advance() (*domain.Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	current, err := q.db.FirstReadyUnplayed()
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	now := time.Now()
	if err := q.db.SetPlayedAt(current.ID, &now); err != nil {
		return nil, err
	}
	q.log.Info("advanced", "request_id", current.ID, "title", current.Title)
	return q.db.FirstReadyUnplayed()
}

// Previous un-plays the most recently played request, which puts it back at
// the head of the queue, and returns it. With no history it just returns the
// current track.
func (q *Queue) Previous() (*domain.Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	last, err := q.db.LastPlayed()
	if err != nil {
		return nil, err
	}
	if last == nil {
		return q.db.FirstReadyUnplayed()
	}

	if err := q.db.SetPlayedAt(last.ID, nil); err != nil {
		return nil, err
	}
	q.log.Info("went back", "request_id", last.ID, "title", last.Title)
	return q.db.FirstReadyUnplayed()
}

// Upcoming returns the queue after the current track, in play order.
func (q *Queue) Upcoming(limit int) ([]*domain.Request, error) {
	rows, err := q.db.ListReadyUnplayed(limit + 1)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return []*domain.Request{}, nil
	}
	return rows[1:], nil
}
