package domain

import "errors"

// Error taxonomy for the acquisition surfaces. All of these are per-file or
// per-request: callers log them and continue, they never abort a batch or a
// guest submission.
var (
	// ErrUnreadableMetadata means a single audio file could not be parsed.
	ErrUnreadableMetadata = errors.New("unreadable metadata")

	// ErrSourceFileMissing means a local selection's backing file is absent.
	ErrSourceFileMissing = errors.New("source file missing")

	// ErrNoOnlineResults means the online search produced no usable candidate.
	ErrNoOnlineResults = errors.New("no online results")

	// ErrDownloadFailed means the downloader exhausted its retries without
	// producing a discoverable file.
	ErrDownloadFailed = errors.New("download failed")

	// ErrRequestVanished means a request row disappeared between the refetch
	// and the update performed by a background worker.
	ErrRequestVanished = errors.New("request vanished")
)
