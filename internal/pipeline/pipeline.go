// Package pipeline turns guest requests into playable files
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cmejia89/fiestabox/internal/domain"
	"github.com/cmejia89/fiestabox/internal/logger"
	"github.com/cmejia89/fiestabox/internal/media"
	"github.com/cmejia89/fiestabox/internal/store"
)

// Resolver finds online candidates and fetches them as local files.
type Resolver interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
	Download(ctx context.Context, url, artist, title string) (filename string, err error)
}

// Submission carries the guest-entered fields of an online or manual ask.
// URL is set when the guest picked a concrete online candidate.
type Submission struct {
	GuestID   string
	GuestName string
	Title     string
	Artist    string
	Album     string
	URL       string
}

// Pipeline owns the request state machine:
// pending -> downloading -> ready|error for online sources,
// pending -> ready|error for local copies and for online searches that
// match nothing (downloading is only entered with a candidate in hand).
type Pipeline struct {
	db           *store.DB
	resolver     Resolver
	pool         *Pool
	libraryRoot  string
	mediaDir     string
	legacyPrefix string
	log          *logger.Logger
}

func New(db *store.DB, resolver Resolver, pool *Pool, libraryRoot, mediaDir, legacyPrefix string, log *logger.Logger) *Pipeline {
	return &Pipeline{
		db:           db,
		resolver:     resolver,
		pool:         pool,
		libraryRoot:  libraryRoot,
		mediaDir:     mediaDir,
		legacyPrefix: legacyPrefix,
		log:          log.WithComponent("pipeline"),
	}
}

// SubmitLocal creates a request for a cataloged track and copies its file
// into the media directory synchronously; local acquisitions are just a file
// copy, so the guest gets a ready (or failed) answer in the same call.
func (p *Pipeline) SubmitLocal(guestID, guestName string, track *domain.Track) (*domain.Request, error) {
	req := p.newRequest(Submission{
		GuestID:   guestID,
		GuestName: guestName,
		Title:     track.Title,
		Artist:    track.Artist,
		Album:     track.Album,
	}, domain.SourceLocal)
	if err := p.db.CreateRequest(req); err != nil {
		return nil, err
	}

	filename, err := p.copyIntoMedia(track.FilePath)
	if err != nil {
		p.log.Warn("local acquisition failed", "request_id", req.ID, "path", track.FilePath, "error", err)
		if uErr := p.db.UpdateRequestStatus(req.ID, domain.StatusError, err.Error()); uErr != nil {
			p.log.Error("failed to record acquisition error", "request_id", req.ID, "error", uErr)
		}
		return p.db.GetRequest(req.ID)
	}

	if err := p.db.SetRequestReady(req.ID, filename); err != nil {
		return nil, err
	}
	p.log.Info("local request ready", "request_id", req.ID, "filename", filename)
	return p.db.GetRequest(req.ID)
}

// SubmitOnline creates a request and queues its acquisition. The request
// stays pending while it is queued and while the search runs; it only turns
// downloading once a candidate is accepted and the fetch begins. A failure
// to queue is recorded on the row, never surfaced to the guest.
func (p *Pipeline) SubmitOnline(sub Submission) (*domain.Request, error) {
	req := p.newRequest(sub, domain.SourceOnline)
	if err := p.db.CreateRequest(req); err != nil {
		return nil, err
	}
	p.dispatch(req.ID)
	return p.db.GetRequest(req.ID)
}

// SubmitManual records a request that an operator fulfills by hand. It stays
// pending until an admin retry routes it through the online resolver.
func (p *Pipeline) SubmitManual(sub Submission) (*domain.Request, error) {
	req := p.newRequest(sub, domain.SourceManual)
	if err := p.db.CreateRequest(req); err != nil {
		return nil, err
	}
	p.log.Info("manual request recorded", "request_id", req.ID, "title", sub.Title)
	return req, nil
}

// Retry resets an errored request and sends it through the online resolver,
// regardless of its original source. The stored candidate URL is cleared so
// the retry searches fresh instead of hammering a URL that already failed.
func (p *Pipeline) Retry(id string) (*domain.Request, error) {
	req, err := p.db.GetRequest(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("request %s not found", id)
	}
	if req.Status != domain.StatusError {
		return nil, fmt.Errorf("request %s is %s, only errored requests can be retried", id, req.Status)
	}

	if err := p.db.ResetRequestForRetry(id); err != nil {
		return nil, err
	}
	p.dispatch(id)
	return p.db.GetRequest(id)
}

// dispatch hands the pending request to the pool. Queue failures become an
// error on the row; the submission itself already succeeded.
func (p *Pipeline) dispatch(id string) {
	err := p.pool.Submit(func(ctx context.Context) {
		p.download(ctx, id)
	})
	if err != nil {
		p.log.Warn("failed to queue download", "request_id", id, "error", err)
		if uErr := p.db.UpdateRequestStatus(id, domain.StatusError, err.Error()); uErr != nil {
			p.log.Error("failed to record dispatch error", "request_id", id, "error", uErr)
		}
	}
}

// download runs on a pool worker. The request is refetched before any
// mutation so a row deleted or changed while the job sat in the queue is
// never clobbered with stale fields. A zero-match search fails the request
// straight from pending; downloading is only ever entered with a candidate
// in hand.
func (p *Pipeline) download(ctx context.Context, id string) {
	req, err := p.db.GetRequest(id)
	if err != nil {
		p.log.Error("refetch failed", "request_id", id, "error", err)
		return
	}
	if req == nil {
		p.log.Warn("request vanished before download", "request_id", id)
		return
	}
	if req.Status != domain.StatusPending {
		p.log.Info("skipping download, status changed while queued", "request_id", id, "status", req.Status)
		return
	}

	log := p.log.WithRequest(req.ID, req.Title)

	// A guest-picked candidate skips the search entirely.
	if req.URL != "" {
		p.fetch(ctx, log, id, req.URL, req.Artist, req.Title)
		return
	}

	query := strings.TrimSpace(req.Artist + " " + req.Title)
	candidates, err := p.resolver.Search(ctx, query, 0)
	if err != nil {
		log.Warn("online search failed", "error", err)
		p.fail(id, err)
		return
	}

	if err := p.db.UpdateRequestStatus(id, domain.StatusDownloading, ""); err != nil {
		log.Error("failed to mark request downloading", "error", err)
		return
	}

	var lastErr error
	for _, cand := range candidates {
		artist, title := req.Artist, req.Title
		if artist == "" {
			artist = cand.Artist
		}
		if title == "" {
			title = cand.Title
		}

		filename, dErr := p.resolver.Download(ctx, cand.URL, artist, title)
		if dErr != nil {
			lastErr = dErr
			continue
		}
		p.finish(log, id, filename, cand.URL, title, artist)
		return
	}
	p.fail(id, lastErr)
}

// fetch downloads one known URL on behalf of a guest-picked candidate.
func (p *Pipeline) fetch(ctx context.Context, log *logger.Logger, id, url, artist, title string) {
	if err := p.db.UpdateRequestStatus(id, domain.StatusDownloading, ""); err != nil {
		log.Error("failed to mark request downloading", "error", err)
		return
	}
	filename, err := p.resolver.Download(ctx, url, artist, title)
	if err != nil {
		log.Warn("candidate download failed", "url", url, "error", err)
		p.fail(id, err)
		return
	}
	p.finish(log, id, filename, url, title, artist)
}

func (p *Pipeline) finish(log *logger.Logger, id, filename, url, title, artist string) {
	// Tag failures don't fail the request, the file is still playable.
	if err := media.EmbedDownloadTags(filepath.Join(p.mediaDir, filename), title, artist); err != nil {
		log.Warn("failed to tag download", "filename", filename, "error", err)
	}

	if err := p.db.SetRequestResolved(id, filename, url); err != nil {
		log.Error("failed to mark request ready", "error", err)
		return
	}
	log.Info("request ready", "filename", filename, "url", url)
}

func (p *Pipeline) fail(id string, cause error) {
	if err := p.db.UpdateRequestStatus(id, domain.StatusError, cause.Error()); err != nil {
		p.log.Error("failed to record request error", "request_id", id, "error", err)
	}
}

func (p *Pipeline) newRequest(sub Submission, source domain.RequestSource) *domain.Request {
	return &domain.Request{
		ID:          uuid.NewString(),
		GuestID:     sub.GuestID,
		GuestName:   sub.GuestName,
		Title:       sub.Title,
		Artist:      sub.Artist,
		Album:       sub.Album,
		URL:         sub.URL,
		Source:      source,
		Status:      domain.StatusPending,
		SubmittedAt: time.Now(),
	}
}

// copyIntoMedia copies a library file into the media directory and returns
// the destination base name. Name collisions get a short unique suffix so an
// existing file is never overwritten.
func (p *Pipeline) copyIntoMedia(sourcePath string) (string, error) {
	src := p.rewriteLegacyPath(sourcePath)

	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrSourceFileMissing, src)
	}

	name := filepath.Base(src)
	dest := filepath.Join(p.mediaDir, name)
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		name = fmt.Sprintf("%s_%s%s", stem, uuid.NewString()[:8], ext)
		dest = filepath.Join(p.mediaDir, name)
	}

	if err := copyFile(src, dest); err != nil {
		return "", err
	}
	return name, nil
}

// rewriteLegacyPath maps catalog rows indexed under the old mount point to
// the current library root. Relative paths are resolved against the root.
func (p *Pipeline) rewriteLegacyPath(path string) string {
	if p.legacyPrefix != "" && strings.HasPrefix(path, p.legacyPrefix) {
		return filepath.Join(p.libraryRoot, strings.TrimPrefix(path, p.legacyPrefix))
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(p.libraryRoot, path)
	}
	return path
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Close()
}
