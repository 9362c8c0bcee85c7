// Package youtube resolves music requests against YouTube via yt-dlp
package youtube

import (
	"regexp"
	"strings"
)

// MaxDuration is the longest video accepted as a song, in seconds. Anything
// longer is almost always a mix, a full album or talk content.
const MaxDuration = 300

// nonMusicKeywords mark videos that match a search but aren't songs.
var nonMusicKeywords = []string{
	"tutorial",
	"how to",
	"review",
	"reaction",
	"interview",
	"behind the scenes",
	"making of",
	"documentary",
	"news",
	"podcast",
	"talk show",
	"discussion",
	"vlog",
	"gameplay",
	"unboxing",
	"trailer",
	"movie",
	"tv show",
}

// IsLikelyMusic reports whether a video title looks like an actual song
// rather than commentary content.
func IsLikelyMusic(title string) bool {
	lowered := strings.ToLower(title)
	for _, kw := range nonMusicKeywords {
		if strings.Contains(lowered, kw) {
			return false
		}
	}
	return true
}

// titleSeparators are tried in order; the first one present splits the video
// title into artist and track.
var titleSeparators = []string{" - ", " – ", " — ", ": ", " | "}

// ParseTitle splits a video title into track title and artist. Titles like
// "Artist - Track" put the artist first; "Track by Artist" puts it last.
// When no pattern matches, the whole title is the track and the uploader
// channel stands in as the artist.
func ParseTitle(videoTitle, channel string) (title, artist string) {
	raw := strings.TrimSpace(videoTitle)

	for _, sep := range titleSeparators {
		if idx := strings.Index(raw, sep); idx > 0 {
			artist = strings.TrimSpace(raw[:idx])
			title = strings.TrimSpace(raw[idx+len(sep):])
			if title != "" && artist != "" {
				return title, artist
			}
		}
	}

	lowered := strings.ToLower(raw)
	if idx := strings.LastIndex(lowered, " by "); idx > 0 {
		title = strings.TrimSpace(raw[:idx])
		artist = strings.TrimSpace(raw[idx+len(" by "):])
		if title != "" && artist != "" {
			return title, artist
		}
	}

	return raw, strings.TrimSpace(channel)
}

var unsafeChars = regexp.MustCompile(`[^\w\s-]`)
var whitespace = regexp.MustCompile(`\s+`)

// SafeFilename builds a filesystem-safe base name (no extension) for a
// download, capped at 100 characters.
func SafeFilename(artist, title string) string {
	base := strings.TrimSpace(title)
	if artist != "" {
		base = strings.TrimSpace(artist) + " - " + base
	}
	base = unsafeChars.ReplaceAllString(base, "")
	base = whitespace.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")
	if len(base) > 100 {
		base = base[:100]
	}
	return base
}
