package media

import (
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// DurationProber reports the playable length of an audio file in seconds.
type DurationProber interface {
	Duration(path string) (int, error)
}

// FFProbe shells out to ffprobe for formats whose duration isn't cheap to
// read from the container header.
type FFProbe struct {
	binary string
}

func NewFFProbe() *FFProbe {
	return &FFProbe{binary: "ffprobe"}
}

func (p *FFProbe) Duration(path string) (int, error) {
	cmd := exec.Command(p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", path)
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ffprobe duration %q: %w", probe.Format.Duration, err)
	}
	return int(math.Round(seconds)), nil
}
