package youtube

import (
	"strings"
	"testing"
)

func TestParseTitle(t *testing.T) {
	cases := []struct {
		video      string
		channel    string
		wantTitle  string
		wantArtist string
	}{
		{"Queen - Bohemian Rhapsody", "SomeChannel", "Bohemian Rhapsody", "Queen"},
		{"Dua Lipa – Levitating", "x", "Levitating", "Dua Lipa"},
		{"Artist — Song Name", "x", "Song Name", "Artist"},
		{"Daft Punk: Get Lucky", "x", "Get Lucky", "Daft Punk"},
		{"Shakira | Waka Waka", "x", "Waka Waka", "Shakira"},
		{"Imagine by John Lennon", "x", "Imagine", "John Lennon"},
		{"Some Random Video", "UploaderName", "Some Random Video", "UploaderName"},
		{"  Trimmed - Song  ", "x", "Song", "Trimmed"},
	}

	for _, tc := range cases {
		title, artist := ParseTitle(tc.video, tc.channel)
		if title != tc.wantTitle || artist != tc.wantArtist {
			t.Errorf("ParseTitle(%q) = (%q, %q), want (%q, %q)",
				tc.video, title, artist, tc.wantTitle, tc.wantArtist)
		}
	}
}

func TestIsLikelyMusic(t *testing.T) {
	music := []string{
		"Queen - Bohemian Rhapsody (Official Video)",
		"Levitating",
		"Salsa Mix Exitos",
	}
	for _, title := range music {
		if !IsLikelyMusic(title) {
			t.Errorf("Expected %q to be music", title)
		}
	}

	notMusic := []string{
		"Guitar TUTORIAL: Bohemian Rhapsody",
		"How to play Wonderwall",
		"Album REVIEW - new release",
		"First REACTION to Queen",
		"Exclusive interview with the band",
		"Behind the scenes of the tour",
		"The making of Thriller",
		"Rock documentary 1080p",
		"Evening news roundup",
		"Music podcast episode 12",
		"Late night talk show clip",
		"Panel discussion on streaming",
		"Tour vlog day 3",
		"Guitar Hero gameplay",
		"Vinyl unboxing",
		"Official movie trailer",
		"Full movie HD",
		"TV show recap",
	}
	for _, title := range notMusic {
		if IsLikelyMusic(title) {
			t.Errorf("Expected %q to be rejected", title)
		}
	}
}

func TestSafeFilename(t *testing.T) {
	cases := []struct {
		artist string
		title  string
		want   string
	}{
		{"AC/DC", "T.N.T.", "ACDC_-_TNT"},
		{"Daft Punk", "One More Time", "Daft_Punk_-_One_More_Time"},
		{"", "Song!", "Song"},
		{"A  B", "C  D", "A_B_-_C_D"},
	}
	for _, tc := range cases {
		if got := SafeFilename(tc.artist, tc.title); got != tc.want {
			t.Errorf("SafeFilename(%q, %q) = %q, want %q", tc.artist, tc.title, got, tc.want)
		}
	}
}

func TestSafeFilename_Capped(t *testing.T) {
	long := strings.Repeat("a", 200)
	if got := SafeFilename("artist", long); len(got) != 100 {
		t.Errorf("Expected 100-char cap, got %d chars", len(got))
	}
}
