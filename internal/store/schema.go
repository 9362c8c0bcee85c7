package store

const Schema = `
CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_path TEXT UNIQUE NOT NULL,
	filename TEXT NOT NULL,
	title TEXT NOT NULL,
	artist TEXT NOT NULL DEFAULT 'Unknown',
	album TEXT NOT NULL DEFAULT 'Unknown',
	genre TEXT NOT NULL DEFAULT 'Unknown',
	duration INTEGER NOT NULL DEFAULT 0,
	file_size INTEGER NOT NULL DEFAULT 0,
	file_modified_at DATETIME NOT NULL,
	indexed_at DATETIME NOT NULL,
	index_status TEXT NOT NULL DEFAULT 'indexed',
	index_error TEXT NOT NULL DEFAULT '',

	-- Precomputed lowercase copies for case-insensitive search
	title_lower TEXT NOT NULL DEFAULT '',
	artist_lower TEXT NOT NULL DEFAULT '',
	album_lower TEXT NOT NULL DEFAULT '',
	genre_lower TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tracks_title_lower ON tracks(title_lower);
CREATE INDEX IF NOT EXISTS idx_tracks_artist_lower ON tracks(artist_lower);
CREATE INDEX IF NOT EXISTS idx_tracks_album_lower ON tracks(album_lower);
CREATE INDEX IF NOT EXISTS idx_tracks_status ON tracks(index_status);

CREATE TABLE IF NOT EXISTS requests (
	id TEXT PRIMARY KEY,
	guest_id TEXT NOT NULL DEFAULT '',
	guest_name TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL,
	artist TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	filename TEXT,
	url TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	submitted_at DATETIME NOT NULL,
	played_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_submitted_at ON requests(submitted_at);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
