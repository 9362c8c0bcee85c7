package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmejia89/fiestabox/internal/domain"
	"github.com/cmejia89/fiestabox/internal/logger"
)

// searchHeadroom is how many times the requested candidate count gets
// fetched, since the denylist and duration ceiling drop a lot of hits.
const searchHeadroom = 3

// defaultCandidates is how many accepted candidates a resolve works with.
const defaultCandidates = 3

// Runner executes yt-dlp. Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

type execRunner struct {
	binary string
}

// NewRunner returns the production runner shelling out to yt-dlp.
func NewRunner() Runner {
	return &execRunner{binary: "yt-dlp"}
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("yt-dlp failed: %s", msg)
	}
	return stdout.Bytes(), nil
}

// Client searches YouTube and downloads accepted candidates as MP3s into
// the media directory.
type Client struct {
	runner     Runner
	mediaDir   string
	maxRetries int
	retryDelay time.Duration
	log        *logger.Logger
}

func NewClient(runner Runner, mediaDir string, maxRetries int, log *logger.Logger) *Client {
	return &Client{
		runner:     runner,
		mediaDir:   mediaDir,
		maxRetries: maxRetries,
		retryDelay: 2 * time.Second,
		log:        log.WithComponent("youtube"),
	}
}

// searchResult is the subset of yt-dlp's --dump-json output we care about.
type searchResult struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Channel    string  `json:"channel"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	WebpageURL string  `json:"webpage_url"`
}

// Search runs a ytsearch for the query and returns up to limit candidates
// that look like actual songs. Non-music titles and videos over MaxDuration
// are filtered out. When nothing usable comes back the error wraps
// domain.ErrNoOnlineResults.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	if limit <= 0 {
		limit = defaultCandidates
	}

	spec := fmt.Sprintf("ytsearch%d:%s", limit*searchHeadroom, query)
	output, err := c.runner.Run(ctx, spec, "--dump-json", "--no-playlist")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoOnlineResults, err)
	}

	var candidates []domain.Candidate
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var result searchResult
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			c.log.Warn("unparseable search result line", "error", err)
			continue
		}

		duration := int(result.Duration)
		if duration <= 0 || duration > MaxDuration {
			continue
		}
		if !IsLikelyMusic(result.Title) {
			continue
		}

		channel := result.Channel
		if channel == "" {
			channel = result.Uploader
		}
		title, artist := ParseTitle(result.Title, channel)

		url := result.WebpageURL
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + result.ID
		}

		candidates = append(candidates, domain.Candidate{
			ID:       result.ID,
			Title:    title,
			Artist:   artist,
			Duration: duration,
			URL:      url,
		})
		if len(candidates) == limit {
			break
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for query %q", domain.ErrNoOnlineResults, query)
	}
	return candidates, nil
}

// Download fetches the video at url as a 192K MP3 named after artist and
// title, retrying with a short delay. It returns the base filename of the
// produced file, which may differ from the requested name when yt-dlp
// normalizes it.
func (c *Client) Download(ctx context.Context, url, artist, title string) (string, error) {
	safe := SafeFilename(artist, title)
	template := filepath.Join(c.mediaDir, safe+".%(ext)s")

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		_, err := c.runner.Run(ctx, url,
			"--extract-audio",
			"--audio-format", "mp3",
			"--audio-quality", "192K",
			"--no-playlist",
			"-o", template)
		if err != nil {
			lastErr = err
			c.log.Warn("download attempt failed", "url", url, "attempt", attempt, "error", err)
			continue
		}

		filename, err := DiscoverFile(c.mediaDir, safe, title)
		if err != nil {
			lastErr = err
			c.log.Warn("downloaded file not found", "url", url, "attempt", attempt, "expected", safe)
			continue
		}
		return filename, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %v", domain.ErrDownloadFailed, attempts, lastErr)
}
