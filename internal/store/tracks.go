package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cmejia89/fiestabox/internal/domain"
)

const upsertTrackQuery = `
	INSERT INTO tracks (
		file_path, filename, title, artist, album, genre,
		duration, file_size, file_modified_at, indexed_at,
		index_status, index_error,
		title_lower, artist_lower, album_lower, genre_lower
	) VALUES (
		:file_path, :filename, :title, :artist, :album, :genre,
		:duration, :file_size, :file_modified_at, :indexed_at,
		:index_status, :index_error,
		:title_lower, :artist_lower, :album_lower, :genre_lower
	)
	ON CONFLICT(file_path) DO UPDATE SET
		filename = excluded.filename,
		title = excluded.title,
		artist = excluded.artist,
		album = excluded.album,
		genre = excluded.genre,
		duration = excluded.duration,
		file_size = excluded.file_size,
		file_modified_at = excluded.file_modified_at,
		indexed_at = excluded.indexed_at,
		index_status = excluded.index_status,
		index_error = excluded.index_error,
		title_lower = excluded.title_lower,
		artist_lower = excluded.artist_lower,
		album_lower = excluded.album_lower,
		genre_lower = excluded.genre_lower`

// searchableColumns is the allowlist for field-scoped searches. Keys are the
// API field names, values the lowercase columns they map to.
var searchableColumns = map[string]string{
	"title":  "title_lower",
	"artist": "artist_lower",
	"album":  "album_lower",
	"genre":  "genre_lower",
}

// UpsertTrack inserts or updates a single track keyed by file path.
func (db *DB) UpsertTrack(track *domain.Track) error {
	track.Normalize()
	if _, err := db.NamedExec(upsertTrackQuery, track); err != nil {
		return fmt.Errorf("failed to upsert track %s: %w", track.FilePath, err)
	}
	return nil
}

// UpsertTracks writes a batch of tracks in one transaction so the indexer's
// partial progress survives a crash at batch granularity.
func (db *DB) UpsertTracks(tracks []*domain.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, track := range tracks {
		track.Normalize()
		if _, err := tx.NamedExec(upsertTrackQuery, track); err != nil {
			return fmt.Errorf("failed to upsert track %s: %w", track.FilePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track batch: %w", err)
	}
	return nil
}

// GetTrackByPath returns the track at the given library path, or nil when the
// path has never been indexed.
func (db *DB) GetTrackByPath(filePath string) (*domain.Track, error) {
	var track domain.Track
	err := db.Get(&track, "SELECT * FROM tracks WHERE file_path = ?", filePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track by path: %w", err)
	}
	return &track, nil
}

// GetTrack returns a track by its numeric id.
func (db *DB) GetTrack(id int) (*domain.Track, error) {
	var track domain.Track
	err := db.Get(&track, "SELECT * FROM tracks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &track, nil
}

// ListTrackPaths returns every file path currently in the catalog. The
// indexer uses this to sweep entries whose files disappeared.
func (db *DB) ListTrackPaths() ([]string, error) {
	var paths []string
	if err := db.Select(&paths, "SELECT file_path FROM tracks ORDER BY file_path"); err != nil {
		return nil, fmt.Errorf("failed to list track paths: %w", err)
	}
	return paths, nil
}

// DeleteTrack removes a catalog entry by path.
func (db *DB) DeleteTrack(filePath string) error {
	if _, err := db.Exec("DELETE FROM tracks WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return nil
}

// ClearTracks drops the whole catalog. Used by the admin reindex-from-scratch
// operation.
func (db *DB) ClearTracks() error {
	if _, err := db.Exec("DELETE FROM tracks"); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	return nil
}

// CountTracks returns the number of catalog entries.
func (db *DB) CountTracks() (int, error) {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM tracks"); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

// SearchTracksAll matches the lowered query against every searchable column.
// Only successfully indexed tracks are returned.
func (db *DB) SearchTracksAll(loweredQuery string, limit int) ([]*domain.Track, error) {
	pattern := "%" + loweredQuery + "%"
	return db.selectTracks(
		`SELECT * FROM tracks
		 WHERE index_status = 'indexed'
		   AND (title_lower LIKE ? OR artist_lower LIKE ? OR album_lower LIKE ? OR genre_lower LIKE ?)
		 ORDER BY artist_lower, title_lower
		 LIMIT ?`,
		pattern, pattern, pattern, pattern, limit)
}

// SearchTracksByField matches the lowered query against a single field.
func (db *DB) SearchTracksByField(field, loweredQuery string, limit int) ([]*domain.Track, error) {
	column, ok := searchableColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported search field: %s", field)
	}
	pattern := "%" + loweredQuery + "%"
	return db.selectTracks(
		fmt.Sprintf(
			`SELECT * FROM tracks
			 WHERE index_status = 'indexed' AND %s LIKE ?
			 ORDER BY artist_lower, title_lower
			 LIMIT ?`, column),
		pattern, limit)
}

// RandomTracks returns up to limit random indexed tracks.
func (db *DB) RandomTracks(limit int) ([]*domain.Track, error) {
	return db.selectTracks(
		"SELECT * FROM tracks WHERE index_status = 'indexed' ORDER BY RANDOM() LIMIT ?",
		limit)
}

// LibraryStats summarizes the indexed catalog.
type LibraryStats struct {
	TotalTracks   int   `json:"total_tracks" db:"total_tracks"`
	TotalArtists  int   `json:"total_artists" db:"total_artists"`
	TotalAlbums   int   `json:"total_albums" db:"total_albums"`
	TotalDuration int64 `json:"total_duration" db:"total_duration"`
	TotalSize     int64 `json:"total_size" db:"total_size"`
	ErrorCount    int   `json:"error_count" db:"error_count"`
}

// GetLibraryStats aggregates catalog counts. Placeholder values are excluded
// from the artist and album counts so untagged files don't inflate them.
func (db *DB) GetLibraryStats() (*LibraryStats, error) {
	var stats LibraryStats
	err := db.Get(&stats, `
		SELECT
			COUNT(CASE WHEN index_status = 'indexed' THEN 1 END) AS total_tracks,
			COUNT(DISTINCT CASE WHEN index_status = 'indexed' AND artist != ? THEN artist END) AS total_artists,
			COUNT(DISTINCT CASE WHEN index_status = 'indexed' AND album != ? THEN album END) AS total_albums,
			COALESCE(SUM(CASE WHEN index_status = 'indexed' THEN duration END), 0) AS total_duration,
			COALESCE(SUM(CASE WHEN index_status = 'indexed' THEN file_size END), 0) AS total_size,
			COUNT(CASE WHEN index_status = 'error' THEN 1 END) AS error_count
		FROM tracks`, domain.Unknown, domain.Unknown)
	if err != nil {
		return nil, fmt.Errorf("failed to get library stats: %w", err)
	}
	return &stats, nil
}

// selectTracks runs a query returning track rows.
func (db *DB) selectTracks(query string, args ...interface{}) ([]*domain.Track, error) {
	var tracks []*domain.Track
	if err := sqlx.Select(db, &tracks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select tracks: %w", err)
	}
	return tracks, nil
}
