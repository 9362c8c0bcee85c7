// Package indexer walks the music library and keeps the catalog in sync
package indexer

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/cmejia89/fiestabox/internal/domain"
	"github.com/cmejia89/fiestabox/internal/logger"
	"github.com/cmejia89/fiestabox/internal/media"
	"github.com/cmejia89/fiestabox/internal/store"
)

// ErrScanInProgress is returned when a scan is requested while one is
// already running.
var ErrScanInProgress = errors.New("scan already in progress")

// batchSize is how many upserts are committed per transaction so a crashed
// scan keeps most of its progress.
const batchSize = 100

// Summary is the final tally of one completed scan.
type Summary struct {
	Scanned int           `json:"scanned"`
	Indexed int           `json:"indexed"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Errors  int           `json:"errors"`
	Removed int           `json:"removed"`
	Took    time.Duration `json:"-"`
}

// Indexer scans the library root and upserts one catalog row per audio file.
type Indexer struct {
	db        *store.DB
	extractor *media.Extractor
	root      string
	log       *logger.Logger
	tracker   tracker
}

func New(db *store.DB, extractor *media.Extractor, root string, log *logger.Logger) *Indexer {
	return &Indexer{
		db:        db,
		extractor: extractor,
		root:      root,
		log:       log.WithComponent("indexer"),
	}
}

// Progress returns a snapshot of the current scan state.
func (ix *Indexer) Progress() Progress {
	return ix.tracker.snapshot()
}

// Scan walks the library and reconciles the catalog with what is on disk.
// Unchanged files (same mtime) are skipped unless force is set. Files whose
// tags can't be read are still indexed, with the error recorded on the row.
// Catalog rows whose files disappeared are removed at the end.
//
// Only one scan runs at a time; concurrent calls get ErrScanInProgress.
func (ix *Indexer) Scan(ctx context.Context, force bool) (*Summary, error) {
	if !ix.tracker.start() {
		return nil, ErrScanInProgress
	}
	defer ix.tracker.finish()

	started := time.Now()
	ix.log.Info("scan started", "root", ix.root, "force", force)

	paths, err := ix.collectAudioFiles()
	if err != nil {
		return nil, err
	}
	ix.tracker.setTotal(len(paths))

	seen := make(map[string]bool, len(paths))
	batch := make([]*domain.Track, 0, batchSize)

	flush := func() error {
		if err := ix.db.UpsertTracks(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			// Commit what we have so the partial scan isn't wasted.
			if fErr := flush(); fErr != nil {
				ix.log.Error("failed to flush batch on cancel", "error", fErr)
			}
			return nil, err
		}

		seen[path] = true
		ix.tracker.fileStarted(path)
		ix.tracker.fileDone(ix.indexFile(path, force, &batch))

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	removed, err := ix.sweepMissing(seen)
	if err != nil {
		ix.log.Error("sweep failed", "error", err)
	}
	ix.tracker.removed(removed)

	p := ix.tracker.snapshot()
	summary := &Summary{
		Scanned: p.Processed,
		Indexed: p.Indexed,
		Updated: p.Updated,
		Skipped: p.Skipped,
		Errors:  p.Errors,
		Removed: p.Removed,
		Took:    time.Since(started),
	}
	ix.log.Info("scan finished",
		"scanned", summary.Scanned,
		"indexed", summary.Indexed,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"removed", summary.Removed,
		"took", summary.Took)
	return summary, nil
}

// collectAudioFiles walks the root and returns every supported audio path.
// Unreadable directories are logged and skipped, never fatal.
func (ix *Indexer) collectAudioFiles() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.log.Warn("walk error", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if media.IsAudioFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// indexFile decides what to do with one file and, unless it is skipped,
// appends the resulting row to the batch.
func (ix *Indexer) indexFile(path string, force bool, batch *[]*domain.Track) outcome {
	info, err := os.Stat(path)
	if err != nil {
		ix.log.Warn("stat failed", "path", path, "error", err)
		return outcomeError
	}

	existing, err := ix.db.GetTrackByPath(path)
	if err != nil {
		ix.log.Error("lookup failed", "path", path, "error", err)
		return outcomeError
	}

	// mtime is compared at second precision, matching what survives the
	// DATETIME round trip.
	if existing != nil && !force && info.ModTime().Unix() <= existing.FileModifiedAt.Unix() {
		return outcomeSkipped
	}

	track := &domain.Track{
		FilePath:       path,
		Filename:       filepath.Base(path),
		Duration:       0,
		FileSize:       info.Size(),
		FileModifiedAt: info.ModTime(),
		IndexedAt:      time.Now(),
		IndexStatus:    domain.IndexStatusIndexed,
	}

	md, extractErr := ix.extractor.Extract(path)
	track.Title = md.Title
	track.Artist = md.Artist
	track.Album = md.Album
	track.Genre = md.Genre
	track.Duration = md.Duration
	if extractErr != nil {
		track.IndexStatus = domain.IndexStatusError
		track.IndexError = extractErr.Error()
		ix.log.Warn("metadata unreadable", "path", path, "error", extractErr)
	}

	*batch = append(*batch, track)
	if extractErr != nil {
		return outcomeError
	}
	if existing != nil {
		return outcomeUpdated
	}
	return outcomeIndexed
}

// sweepMissing deletes catalog rows whose files were not seen in this scan.
func (ix *Indexer) sweepMissing(seen map[string]bool) (int, error) {
	known, err := ix.db.ListTrackPaths()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range known {
		if seen[path] {
			continue
		}
		if err := ix.db.DeleteTrack(path); err != nil {
			ix.log.Error("failed to remove missing track", "path", path, "error", err)
			continue
		}
		ix.log.Info("removed missing track", "path", path)
		removed++
	}
	return removed, nil
}
