package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cmejia89/fiestabox/internal/domain"
)

// CreateRequest inserts a new guest request.
func (db *DB) CreateRequest(req *domain.Request) error {
	_, err := db.NamedExec(`
		INSERT INTO requests (
			id, guest_id, guest_name, title, artist, album,
			source, status, filename, url, error, submitted_at, played_at
		) VALUES (
			:id, :guest_id, :guest_name, :title, :artist, :album,
			:source, :status, :filename, :url, :error, :submitted_at, :played_at
		)`, req)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetRequest returns a request by id, or nil when no such row exists.
func (db *DB) GetRequest(id string) (*domain.Request, error) {
	var req domain.Request
	err := db.Get(&req, "SELECT * FROM requests WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return &req, nil
}

// UpdateRequestStatus moves a request to a new status. Each call is its own
// transaction so observers see the transition immediately.
func (db *DB) UpdateRequestStatus(id string, status domain.RequestStatus, errMsg string) error {
	res, err := db.Exec(
		"UPDATE requests SET status = ?, error = ? WHERE id = ?",
		status, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return checkRequestAffected(res)
}

// SetRequestReady marks a request ready and records the file that backs it.
func (db *DB) SetRequestReady(id, filename string) error {
	res, err := db.Exec(
		"UPDATE requests SET status = ?, filename = ?, error = '' WHERE id = ?",
		domain.StatusReady, filename, id)
	if err != nil {
		return fmt.Errorf("failed to mark request ready: %w", err)
	}
	return checkRequestAffected(res)
}

// SetRequestResolved marks a request ready with the file it resolved to and
// the source URL it came from.
func (db *DB) SetRequestResolved(id, filename, url string) error {
	res, err := db.Exec(
		"UPDATE requests SET status = ?, filename = ?, url = ?, error = '' WHERE id = ?",
		domain.StatusReady, filename, url, id)
	if err != nil {
		return fmt.Errorf("failed to mark request resolved: %w", err)
	}
	return checkRequestAffected(res)
}

// ResetRequestForRetry sends an errored request back to pending and clears
// the stale filename and candidate URL so the retry searches from scratch.
func (db *DB) ResetRequestForRetry(id string) error {
	res, err := db.Exec(
		"UPDATE requests SET status = ?, error = '', filename = NULL, url = '' WHERE id = ?",
		domain.StatusPending, id)
	if err != nil {
		return fmt.Errorf("failed to reset request: %w", err)
	}
	return checkRequestAffected(res)
}

// SetPlayedAt records or clears the playback timestamp.
func (db *DB) SetPlayedAt(id string, playedAt *time.Time) error {
	res, err := db.Exec("UPDATE requests SET played_at = ? WHERE id = ?", playedAt, id)
	if err != nil {
		return fmt.Errorf("failed to set played_at: %w", err)
	}
	return checkRequestAffected(res)
}

// FirstReadyUnplayed returns the oldest playable request, or nil when the
// queue is drained. Ties on submitted_at break on id so the order is stable.
func (db *DB) FirstReadyUnplayed() (*domain.Request, error) {
	return db.getRequestRow(`
		SELECT * FROM requests
		WHERE status = 'ready' AND filename IS NOT NULL AND played_at IS NULL
		ORDER BY submitted_at ASC, id ASC
		LIMIT 1`)
}

// LastPlayed returns the most recently played request, or nil when nothing
// has been played yet.
func (db *DB) LastPlayed() (*domain.Request, error) {
	return db.getRequestRow(`
		SELECT * FROM requests
		WHERE status = 'ready' AND filename IS NOT NULL AND played_at IS NOT NULL
		ORDER BY played_at DESC, id DESC
		LIMIT 1`)
}

// ListReadyUnplayed returns the playable backlog in play order.
func (db *DB) ListReadyUnplayed(limit int) ([]*domain.Request, error) {
	return db.selectRequests(`
		SELECT * FROM requests
		WHERE status = 'ready' AND filename IS NOT NULL AND played_at IS NULL
		ORDER BY submitted_at ASC, id ASC
		LIMIT ?`, limit)
}

// ListRequests returns the most recent requests regardless of status.
func (db *DB) ListRequests(limit int) ([]*domain.Request, error) {
	return db.selectRequests(
		"SELECT * FROM requests ORDER BY submitted_at DESC, id DESC LIMIT ?", limit)
}

// ListRequestsByStatus returns requests in one status, oldest first.
func (db *DB) ListRequestsByStatus(status domain.RequestStatus, limit int) ([]*domain.Request, error) {
	return db.selectRequests(
		"SELECT * FROM requests WHERE status = ? ORDER BY submitted_at ASC, id ASC LIMIT ?",
		status, limit)
}

// ResetStuckDownloads fails every request left in the downloading state by a
// previous process. Called once at startup before workers accept new jobs.
func (db *DB) ResetStuckDownloads() (int64, error) {
	res, err := db.Exec(
		"UPDATE requests SET status = ?, error = ? WHERE status = ?",
		domain.StatusError, "download interrupted by restart", domain.StatusDownloading)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stuck downloads: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset downloads: %w", err)
	}
	return n, nil
}

// RequestStats counts requests per status.
type RequestStats struct {
	Total       int `json:"total" db:"total"`
	Pending     int `json:"pending" db:"pending"`
	Downloading int `json:"downloading" db:"downloading"`
	Ready       int `json:"ready" db:"ready"`
	Errors      int `json:"errors" db:"errors"`
	Played      int `json:"played" db:"played"`
}

// GetRequestStats aggregates the request table for the admin stats endpoint.
func (db *DB) GetRequestStats() (*RequestStats, error) {
	var stats RequestStats
	err := db.Get(&stats, `
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending,
			COUNT(CASE WHEN status = 'downloading' THEN 1 END) AS downloading,
			COUNT(CASE WHEN status = 'ready' THEN 1 END) AS ready,
			COUNT(CASE WHEN status = 'error' THEN 1 END) AS errors,
			COUNT(CASE WHEN played_at IS NOT NULL THEN 1 END) AS played
		FROM requests`)
	if err != nil {
		return nil, fmt.Errorf("failed to get request stats: %w", err)
	}
	return &stats, nil
}

func (db *DB) getRequestRow(query string, args ...interface{}) (*domain.Request, error) {
	var req domain.Request
	err := db.Get(&req, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request row: %w", err)
	}
	return &req, nil
}

func (db *DB) selectRequests(query string, args ...interface{}) ([]*domain.Request, error) {
	var reqs []*domain.Request
	if err := sqlx.Select(db, &reqs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select requests: %w", err)
	}
	return reqs, nil
}

// checkRequestAffected translates a zero-row update into ErrRequestVanished,
// which background workers hit when a request is deleted mid-download.
func checkRequestAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrRequestVanished
	}
	return nil
}
