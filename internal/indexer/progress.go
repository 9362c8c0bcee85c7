package indexer

import (
	"sync"
	"time"
)

// Progress is a point-in-time snapshot of a running or finished scan.
type Progress struct {
	Running     bool      `json:"running"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Indexed     int       `json:"indexed"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	Errors      int       `json:"errors"`
	Removed     int       `json:"removed"`
	CurrentFile string    `json:"current_file,omitempty"`
	StartedAt   time.Time `json:"started_at,omitempty"`
}

// tracker owns the progress state. Every mutation goes through its mutex so
// the admin progress endpoint can read a consistent snapshot mid-scan.
type tracker struct {
	mu sync.Mutex
	p  Progress
}

// start flips the tracker into the running state. It returns false when a
// scan is already in flight.
func (t *tracker) start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.p.Running {
		return false
	}
	t.p = Progress{Running: true, StartedAt: time.Now()}
	return true
}

func (t *tracker) setTotal(n int) {
	t.mu.Lock()
	t.p.Total = n
	t.mu.Unlock()
}

func (t *tracker) fileStarted(path string) {
	t.mu.Lock()
	t.p.CurrentFile = path
	t.mu.Unlock()
}

func (t *tracker) fileDone(outcome outcome) {
	t.mu.Lock()
	t.p.Processed++
	switch outcome {
	case outcomeIndexed:
		t.p.Indexed++
	case outcomeUpdated:
		t.p.Updated++
	case outcomeSkipped:
		t.p.Skipped++
	case outcomeError:
		t.p.Errors++
	}
	t.mu.Unlock()
}

func (t *tracker) removed(n int) {
	t.mu.Lock()
	t.p.Removed += n
	t.mu.Unlock()
}

func (t *tracker) finish() {
	t.mu.Lock()
	t.p.Running = false
	t.p.CurrentFile = ""
	t.mu.Unlock()
}

func (t *tracker) snapshot() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p
}

type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeError
)
