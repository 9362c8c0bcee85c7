package media

import (
	"fmt"

	"github.com/bogem/id3v2/v2"
)

// DownloadAlbum is the album tag stamped on every downloaded file so they
// group together in players.
const DownloadAlbum = "YouTube Download"

// EmbedDownloadTags writes ID3v2 tags to a freshly downloaded MP3 so the
// file carries the request's title and artist instead of the video title.
func EmbedDownloadTags(filePath, title, artist string) error {
	tagFile, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open file for tagging: %w", err)
	}
	defer tagFile.Close()

	tagFile.SetVersion(4)

	if title != "" {
		tagFile.SetTitle(title)
	}
	if artist != "" {
		tagFile.SetArtist(artist)
		tagFile.AddTextFrame("TPE2", tagFile.DefaultEncoding(), artist)
	}
	tagFile.SetAlbum(DownloadAlbum)

	if err := tagFile.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}
