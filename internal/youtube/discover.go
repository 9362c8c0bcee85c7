package youtube

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
)

var errFileNotFound = errors.New("downloaded file not found")

// DiscoverFile locates the file a download actually produced. yt-dlp
// sometimes normalizes the output name differently than we do, so the
// lookup degrades from exact match to glob to slug variants to fuzzy
// token overlap. Returns the base filename within dir.
func DiscoverFile(dir, safeBase, title string) (string, error) {
	// 1. The name we asked for.
	exact := safeBase + ".mp3"
	if fileExists(filepath.Join(dir, exact)) {
		return exact, nil
	}

	// 2. Same base, any extension.
	if match := firstGlob(dir, safeBase+".*"); match != "" {
		return match, nil
	}

	// 3. Slugged variants of the base and the bare title.
	for _, candidate := range slugCandidates(safeBase, title) {
		if match := firstGlob(dir, candidate+"*"); match != "" {
			return match, nil
		}
	}

	// 4. Fuzzy: the file sharing at least half the title's words, best
	// overlap wins.
	if match := fuzzyMatch(dir, title); match != "" {
		return match, nil
	}

	return "", errFileNotFound
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func firstGlob(dir, pattern string) string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil || len(matches) == 0 {
		return ""
	}
	for _, m := range matches {
		if fileExists(m) {
			return filepath.Base(m)
		}
	}
	return ""
}

func slugCandidates(safeBase, title string) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range []string{
		slug.Make(strings.ReplaceAll(safeBase, "_", " ")),
		slug.Make(title),
	} {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// fuzzyMatch scores every audio file in dir by how many of the title's
// words its name contains. A file needs at least 50% overlap to qualify.
func fuzzyMatch(dir, title string) string {
	words := titleWords(title)
	if len(words) == 0 {
		return ""
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	best := ""
	bestScore := 0.0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		hits := 0
		for _, w := range words {
			if strings.Contains(name, w) {
				hits++
			}
		}
		score := float64(hits) / float64(len(words))
		if score >= 0.5 && score > bestScore {
			bestScore = score
			best = entry.Name()
		}
	}
	return best
}

func titleWords(title string) []string {
	fields := strings.Fields(strings.ToLower(unsafeChars.ReplaceAllString(title, " ")))
	var words []string
	for _, f := range fields {
		if len(f) > 2 {
			words = append(words, f)
		}
	}
	return words
}
