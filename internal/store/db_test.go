package store

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cmejia89/fiestabox/internal/domain"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	tmpFile := "test.db"
	db, err := NewSQLiteDB(tmpFile)
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	cleanup := func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
		if rErr := os.Remove(tmpFile); rErr != nil {
			t.Logf("os.Remove error: %v", rErr)
		}
	}
	return db, cleanup
}

func testTrack(path, title, artist string) *domain.Track {
	return &domain.Track{
		FilePath:       path,
		Filename:       path,
		Title:          title,
		Artist:         artist,
		Album:          "Test Album",
		Genre:          "Rock",
		Duration:       180,
		FileSize:       1024,
		FileModifiedAt: time.Now(),
		IndexedAt:      time.Now(),
		IndexStatus:    domain.IndexStatusIndexed,
	}
}

func TestDB_Tracks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	track := testTrack("Artist/song.mp3", "Song Title", "Some Artist")

	// Test UpsertTrack insert
	if err := db.UpsertTrack(track); err != nil {
		t.Fatalf("UpsertTrack failed: %v", err)
	}

	fetched, err := db.GetTrackByPath("Artist/song.mp3")
	if err != nil {
		t.Fatalf("GetTrackByPath failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("Expected track, got nil")
	}
	if fetched.Title != "Song Title" {
		t.Errorf("Expected title 'Song Title', got %s", fetched.Title)
	}
	if fetched.TitleLower != "song title" {
		t.Errorf("Expected title_lower 'song title', got %s", fetched.TitleLower)
	}
	if fetched.ArtistLower != "some artist" {
		t.Errorf("Expected artist_lower 'some artist', got %s", fetched.ArtistLower)
	}

	// Test UpsertTrack update keeps a single row per path
	track.Title = "New Title"
	if err := db.UpsertTrack(track); err != nil {
		t.Fatalf("UpsertTrack update failed: %v", err)
	}

	count, err := db.CountTracks()
	if err != nil {
		t.Fatalf("CountTracks failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 track after re-upsert, got %d", count)
	}

	fetched, _ = db.GetTrackByPath("Artist/song.mp3")
	if fetched.Title != "New Title" {
		t.Errorf("Expected updated title 'New Title', got %s", fetched.Title)
	}
	if fetched.TitleLower != "new title" {
		t.Errorf("Expected refreshed title_lower, got %s", fetched.TitleLower)
	}

	// Test missing path returns nil, nil
	missing, err := db.GetTrackByPath("nope.mp3")
	if err != nil {
		t.Errorf("GetTrackByPath failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown path")
	}

	// Test DeleteTrack
	if err := db.DeleteTrack("Artist/song.mp3"); err != nil {
		t.Errorf("DeleteTrack failed: %v", err)
	}
	count, _ = db.CountTracks()
	if count != 0 {
		t.Errorf("Expected 0 tracks after delete, got %d", count)
	}
}

func TestDB_UpsertTracksBatch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	batch := []*domain.Track{
		testTrack("a.mp3", "Alpha", "Band"),
		testTrack("b.flac", "Beta", "Band"),
		testTrack("c.ogg", "Gamma", ""),
	}
	if err := db.UpsertTracks(batch); err != nil {
		t.Fatalf("UpsertTracks failed: %v", err)
	}

	count, _ := db.CountTracks()
	if count != 3 {
		t.Errorf("Expected 3 tracks, got %d", count)
	}

	// Empty artist normalizes to the placeholder
	fetched, _ := db.GetTrackByPath("c.ogg")
	if fetched.Artist != domain.Unknown {
		t.Errorf("Expected artist %q, got %q", domain.Unknown, fetched.Artist)
	}

	paths, err := db.ListTrackPaths()
	if err != nil {
		t.Fatalf("ListTrackPaths failed: %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("Expected 3 paths, got %d", len(paths))
	}
}

func TestDB_SearchTracks(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	tracks := []*domain.Track{
		testTrack("1.mp3", "Dancing Queen", "ABBA"),
		testTrack("2.mp3", "Dance Monkey", "Tones and I"),
		testTrack("3.mp3", "Bohemian Rhapsody", "Queen"),
	}
	broken := testTrack("4.mp3", "dance broken", "X")
	broken.IndexStatus = domain.IndexStatusError
	tracks = append(tracks, broken)
	if err := db.UpsertTracks(tracks); err != nil {
		t.Fatalf("UpsertTracks failed: %v", err)
	}

	// All-field search is case-insensitive and skips errored rows
	results, err := db.SearchTracksAll("dance", 10)
	if err != nil {
		t.Fatalf("SearchTracksAll failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result for 'dance', got %d", len(results))
	}
	if results[0].Title != "Dance Monkey" {
		t.Errorf("Expected 'Dance Monkey', got %s", results[0].Title)
	}

	// "queen" matches a title and an artist
	results, _ = db.SearchTracksAll("queen", 10)
	if len(results) != 2 {
		t.Errorf("Expected 2 results for 'queen', got %d", len(results))
	}

	// Field-scoped search only looks at its column
	results, err = db.SearchTracksByField("artist", "queen", 10)
	if err != nil {
		t.Fatalf("SearchTracksByField failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 artist match, got %d", len(results))
	}
	if results[0].Artist != "Queen" {
		t.Errorf("Expected artist 'Queen', got %s", results[0].Artist)
	}

	if _, err := db.SearchTracksByField("file_path", "x", 10); err == nil {
		t.Error("Expected error for unsupported search field")
	}

	random, err := db.RandomTracks(2)
	if err != nil {
		t.Fatalf("RandomTracks failed: %v", err)
	}
	if len(random) != 2 {
		t.Errorf("Expected 2 random tracks, got %d", len(random))
	}
}

func TestDB_LibraryStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	a := testTrack("1.mp3", "One", "Artist A")
	b := testTrack("2.mp3", "Two", "Artist B")
	c := testTrack("3.mp3", "Three", "")
	c.Album = ""
	broken := testTrack("4.mp3", "Broken", "Artist A")
	broken.IndexStatus = domain.IndexStatusError
	if err := db.UpsertTracks([]*domain.Track{a, b, c, broken}); err != nil {
		t.Fatalf("UpsertTracks failed: %v", err)
	}

	stats, err := db.GetLibraryStats()
	if err != nil {
		t.Fatalf("GetLibraryStats failed: %v", err)
	}
	if stats.TotalTracks != 3 {
		t.Errorf("Expected 3 indexed tracks, got %d", stats.TotalTracks)
	}
	if stats.TotalArtists != 2 {
		t.Errorf("Expected 2 artists (placeholder excluded), got %d", stats.TotalArtists)
	}
	if stats.TotalAlbums != 1 {
		t.Errorf("Expected 1 album (placeholder excluded), got %d", stats.TotalAlbums)
	}
	if stats.TotalDuration != 540 {
		t.Errorf("Expected total duration 540, got %d", stats.TotalDuration)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("Expected 1 errored track, got %d", stats.ErrorCount)
	}
}

func testRequest(id, title string, submitted time.Time) *domain.Request {
	return &domain.Request{
		ID:          id,
		GuestID:     "guest-1",
		GuestName:   "Ana",
		Title:       title,
		Artist:      "Artist",
		Source:      domain.SourceOnline,
		Status:      domain.StatusPending,
		SubmittedAt: submitted,
	}
}

func TestDB_RequestLifecycle(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	req := testRequest("req-1", "Song", time.Now())
	if err := db.CreateRequest(req); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	fetched, err := db.GetRequest("req-1")
	if err != nil {
		t.Fatalf("GetRequest failed: %v", err)
	}
	if fetched == nil || fetched.Status != domain.StatusPending {
		t.Fatalf("Expected pending request, got %+v", fetched)
	}
	if fetched.Filename != nil {
		t.Error("Expected nil filename on a fresh request")
	}

	if err := db.UpdateRequestStatus("req-1", domain.StatusDownloading, ""); err != nil {
		t.Errorf("UpdateRequestStatus failed: %v", err)
	}

	if err := db.SetRequestReady("req-1", "artist_song.mp3"); err != nil {
		t.Errorf("SetRequestReady failed: %v", err)
	}
	fetched, _ = db.GetRequest("req-1")
	if fetched.Status != domain.StatusReady {
		t.Errorf("Expected ready, got %s", fetched.Status)
	}
	if fetched.Filename == nil || *fetched.Filename != "artist_song.mp3" {
		t.Errorf("Expected filename 'artist_song.mp3', got %v", fetched.Filename)
	}

	// Error then retry clears the filename and the stale candidate URL
	if err := db.SetRequestResolved("req-1", "artist_song.mp3", "https://yt/v1"); err != nil {
		t.Errorf("SetRequestResolved failed: %v", err)
	}
	if err := db.UpdateRequestStatus("req-1", domain.StatusError, "boom"); err != nil {
		t.Errorf("UpdateRequestStatus failed: %v", err)
	}
	if err := db.ResetRequestForRetry("req-1"); err != nil {
		t.Errorf("ResetRequestForRetry failed: %v", err)
	}
	fetched, _ = db.GetRequest("req-1")
	if fetched.Status != domain.StatusPending {
		t.Errorf("Expected pending after retry, got %s", fetched.Status)
	}
	if fetched.Filename != nil {
		t.Error("Expected filename cleared after retry")
	}
	if fetched.URL != "" {
		t.Errorf("Expected URL cleared after retry, got %s", fetched.URL)
	}
	if fetched.Error != "" {
		t.Errorf("Expected error cleared after retry, got %s", fetched.Error)
	}

	// Updates against a vanished request surface the sentinel
	err = db.UpdateRequestStatus("ghost", domain.StatusReady, "")
	if !errors.Is(err, domain.ErrRequestVanished) {
		t.Errorf("Expected ErrRequestVanished, got %v", err)
	}

	missing, err := db.GetRequest("ghost")
	if err != nil {
		t.Errorf("GetRequest failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for unknown request id")
	}
}

func TestDB_PlaybackQueries(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	ids := []string{"req-a", "req-b", "req-c"}
	for i, id := range ids {
		req := testRequest(id, "Song "+id, base.Add(time.Duration(i)*time.Minute))
		if err := db.CreateRequest(req); err != nil {
			t.Fatalf("CreateRequest failed: %v", err)
		}
		if err := db.SetRequestReady(id, id+".mp3"); err != nil {
			t.Fatalf("SetRequestReady failed: %v", err)
		}
	}
	// A pending request never shows up in playback results
	if err := db.CreateRequest(testRequest("req-d", "Pending", base)); err != nil {
		t.Fatalf("CreateRequest failed: %v", err)
	}

	first, err := db.FirstReadyUnplayed()
	if err != nil {
		t.Fatalf("FirstReadyUnplayed failed: %v", err)
	}
	if first == nil || first.ID != "req-a" {
		t.Fatalf("Expected req-a first, got %+v", first)
	}

	queue, err := db.ListReadyUnplayed(10)
	if err != nil {
		t.Fatalf("ListReadyUnplayed failed: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("Expected 3 queued requests, got %d", len(queue))
	}
	if queue[0].ID != "req-a" || queue[2].ID != "req-c" {
		t.Errorf("Queue out of order: %s ... %s", queue[0].ID, queue[2].ID)
	}

	// Mark the head played and the queue advances
	now := time.Now()
	if err := db.SetPlayedAt("req-a", &now); err != nil {
		t.Fatalf("SetPlayedAt failed: %v", err)
	}
	first, _ = db.FirstReadyUnplayed()
	if first == nil || first.ID != "req-b" {
		t.Errorf("Expected req-b after advance, got %+v", first)
	}

	last, err := db.LastPlayed()
	if err != nil {
		t.Fatalf("LastPlayed failed: %v", err)
	}
	if last == nil || last.ID != "req-a" {
		t.Errorf("Expected req-a as last played, got %+v", last)
	}

	// Clearing played_at puts it back at the head
	if err := db.SetPlayedAt("req-a", nil); err != nil {
		t.Fatalf("SetPlayedAt clear failed: %v", err)
	}
	first, _ = db.FirstReadyUnplayed()
	if first == nil || first.ID != "req-a" {
		t.Errorf("Expected req-a back at head, got %+v", first)
	}
	last, _ = db.LastPlayed()
	if last != nil {
		t.Errorf("Expected no last played, got %+v", last)
	}
}

func TestDB_ResetStuckDownloads(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	stuck := testRequest("req-stuck", "Stuck", time.Now())
	stuck.Status = domain.StatusDownloading
	ok := testRequest("req-ok", "Fine", time.Now())
	for _, r := range []*domain.Request{stuck, ok} {
		if err := db.CreateRequest(r); err != nil {
			t.Fatalf("CreateRequest failed: %v", err)
		}
	}

	n, err := db.ResetStuckDownloads()
	if err != nil {
		t.Fatalf("ResetStuckDownloads failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 reset, got %d", n)
	}

	fetched, _ := db.GetRequest("req-stuck")
	if fetched.Status != domain.StatusError {
		t.Errorf("Expected error status, got %s", fetched.Status)
	}
	fetched, _ = db.GetRequest("req-ok")
	if fetched.Status != domain.StatusPending {
		t.Errorf("Expected pending untouched, got %s", fetched.Status)
	}
}

func TestDB_RequestStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	reqs := []*domain.Request{
		testRequest("r1", "One", time.Now()),
		testRequest("r2", "Two", time.Now()),
		testRequest("r3", "Three", time.Now()),
	}
	for _, r := range reqs {
		if err := db.CreateRequest(r); err != nil {
			t.Fatalf("CreateRequest failed: %v", err)
		}
	}
	if err := db.SetRequestReady("r2", "two.mp3"); err != nil {
		t.Fatalf("SetRequestReady failed: %v", err)
	}
	if err := db.UpdateRequestStatus("r3", domain.StatusError, "no results"); err != nil {
		t.Fatalf("UpdateRequestStatus failed: %v", err)
	}
	now := time.Now()
	if err := db.SetPlayedAt("r2", &now); err != nil {
		t.Fatalf("SetPlayedAt failed: %v", err)
	}

	stats, err := db.GetRequestStats()
	if err != nil {
		t.Fatalf("GetRequestStats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Expected total 3, got %d", stats.Total)
	}
	if stats.Pending != 1 || stats.Ready != 1 || stats.Errors != 1 {
		t.Errorf("Unexpected status counts: %+v", stats)
	}
	if stats.Played != 1 {
		t.Errorf("Expected 1 played, got %d", stats.Played)
	}
}

func TestDB_Settings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingsRepo(db)

	value, err := repo.Get(SettingEventName)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "" {
		t.Errorf("Expected empty value for unset key, got %s", value)
	}

	if err := repo.Set(SettingEventName, "Summer Party"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := repo.Set(SettingEventName, "Summer Party 2026"); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}

	value, _ = repo.Get(SettingEventName)
	if value != "Summer Party 2026" {
		t.Errorf("Expected overwritten value, got %s", value)
	}

	if err := repo.Delete(SettingEventName); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	value, _ = repo.Get(SettingEventName)
	if value != "" {
		t.Errorf("Expected empty after delete, got %s", value)
	}
}

func TestDB_SettingsDefaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSettingsRepo(db)
	if err := repo.Set(SettingEventName, "Ana's 30th"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := repo.EnsureDefaults(); err != nil {
		t.Fatalf("EnsureDefaults failed: %v", err)
	}

	value, _ := repo.Get(SettingDownloadsEnabled)
	if value != "true" {
		t.Errorf("Expected downloads enabled by default, got %q", value)
	}
	value, _ = repo.Get(SettingEventName)
	if value != "Ana's 30th" {
		t.Errorf("Expected operator value preserved, got %q", value)
	}
}
