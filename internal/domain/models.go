package domain

import (
	"strings"
	"time"
)

// Unknown is the placeholder stored for tag fields an audio file doesn't carry.
const Unknown = "Unknown"

// IndexStatus represents the catalog state of a library track.
type IndexStatus string

const (
	IndexStatusIndexed IndexStatus = "indexed"
	IndexStatusError   IndexStatus = "error"
	IndexStatusMissing IndexStatus = "missing"
)

// RequestSource identifies where a guest's song selection came from.
type RequestSource string

const (
	SourceLocal  RequestSource = "local"
	SourceOnline RequestSource = "online"
	SourceManual RequestSource = "manual"
)

// RequestStatus represents the acquisition state of a music request.
//
// Transitions: pending -> downloading -> ready|error for online sources,
// pending -> ready|error for local copies. The only backward transition is
// an admin retry, which resets error -> pending and clears the filename.
type RequestStatus string

const (
	StatusPending     RequestStatus = "pending"
	StatusDownloading RequestStatus = "downloading"
	StatusReady       RequestStatus = "ready"
	StatusError       RequestStatus = "error"
)

// Track is one catalog entry, keyed by its file path within the library.
type Track struct {
	ID             int         `json:"id" db:"id"`
	FilePath       string      `json:"file_path" db:"file_path"`
	Filename       string      `json:"filename" db:"filename"`
	Title          string      `json:"title" db:"title"`
	Artist         string      `json:"artist" db:"artist"`
	Album          string      `json:"album" db:"album"`
	Genre          string      `json:"genre" db:"genre"`
	Duration       int         `json:"duration" db:"duration"`
	FileSize       int64       `json:"file_size" db:"file_size"`
	FileModifiedAt time.Time   `json:"file_modified_at" db:"file_modified_at"`
	IndexedAt      time.Time   `json:"indexed_at" db:"indexed_at"`
	IndexStatus    IndexStatus `json:"index_status" db:"index_status"`
	IndexError     string      `json:"index_error,omitempty" db:"index_error"`
	TitleLower     string      `json:"-" db:"title_lower"`
	ArtistLower    string      `json:"-" db:"artist_lower"`
	AlbumLower     string      `json:"-" db:"album_lower"`
	GenreLower     string      `json:"-" db:"genre_lower"`
}

// Normalize fills placeholder values and refreshes the lowercase search
// columns. The store calls this before every insert/update so the
// title_lower == lower(title) invariant holds after every upsert.
func (t *Track) Normalize() {
	if t.Artist == "" {
		t.Artist = Unknown
	}
	if t.Album == "" {
		t.Album = Unknown
	}
	if t.Genre == "" {
		t.Genre = Unknown
	}
	t.TitleLower = strings.ToLower(t.Title)
	t.ArtistLower = strings.ToLower(t.Artist)
	t.AlbumLower = strings.ToLower(t.Album)
	t.GenreLower = strings.ToLower(t.Genre)
}

// Request is a guest's music ask, tied to at most one materialized file in
// the media directory. Filename is set only once Status is ready.
type Request struct {
	ID          string        `json:"id" db:"id"`
	GuestID     string        `json:"guest_id" db:"guest_id"`
	GuestName   string        `json:"guest_name" db:"guest_name"`
	Title       string        `json:"title" db:"title"`
	Artist      string        `json:"artist" db:"artist"`
	Album       string        `json:"album" db:"album"`
	Source      RequestSource `json:"source" db:"source"`
	Status      RequestStatus `json:"status" db:"status"`
	Filename    *string       `json:"filename,omitempty" db:"filename"`
	URL         string        `json:"url,omitempty" db:"url"`
	Error       string        `json:"error,omitempty" db:"error"`
	SubmittedAt time.Time     `json:"submitted_at" db:"submitted_at"`
	PlayedAt    *time.Time    `json:"played_at,omitempty" db:"played_at"`
}

// Candidate is one accepted result from an online platform search.
type Candidate struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration"`
	URL      string `json:"url"`
}
