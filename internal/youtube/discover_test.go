package youtube

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestDiscoverFile_ExactMatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Queen_-_Bohemian_Rhapsody.mp3"))

	got, err := DiscoverFile(dir, "Queen_-_Bohemian_Rhapsody", "Bohemian Rhapsody")
	if err != nil {
		t.Fatalf("DiscoverFile failed: %v", err)
	}
	if got != "Queen_-_Bohemian_Rhapsody.mp3" {
		t.Errorf("Expected exact match, got %q", got)
	}
}

func TestDiscoverFile_OtherExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "Queen_-_Bohemian_Rhapsody.m4a"))

	got, err := DiscoverFile(dir, "Queen_-_Bohemian_Rhapsody", "Bohemian Rhapsody")
	if err != nil {
		t.Fatalf("DiscoverFile failed: %v", err)
	}
	if got != "Queen_-_Bohemian_Rhapsody.m4a" {
		t.Errorf("Expected glob match, got %q", got)
	}
}

func TestDiscoverFile_SluggedName(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "queen-bohemian-rhapsody.mp3"))

	got, err := DiscoverFile(dir, "Queen_-_Bohemian_Rhapsody", "Bohemian Rhapsody")
	if err != nil {
		t.Fatalf("DiscoverFile failed: %v", err)
	}
	if got != "queen-bohemian-rhapsody.mp3" {
		t.Errorf("Expected slug match, got %q", got)
	}
}

func TestDiscoverFile_FuzzyTokenOverlap(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "bohemian rhapsody (remastered 2011).mp3"))
	touch(t, filepath.Join(dir, "unrelated song.mp3"))

	got, err := DiscoverFile(dir, "Queen_-_Bohemian_Rhapsody", "Bohemian Rhapsody")
	if err != nil {
		t.Fatalf("DiscoverFile failed: %v", err)
	}
	if got != "bohemian rhapsody (remastered 2011).mp3" {
		t.Errorf("Expected fuzzy match, got %q", got)
	}
}

func TestDiscoverFile_NotFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "something else entirely.mp3"))

	_, err := DiscoverFile(dir, "Queen_-_Bohemian_Rhapsody", "Bohemian Rhapsody")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !errors.Is(err, errFileNotFound) {
		t.Errorf("Expected errFileNotFound, got %v", err)
	}
}
