// Package media reads and writes audio file metadata
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/cmejia89/fiestabox/internal/domain"
)

// supportedExtensions are the audio formats the indexer picks up.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
	".aac":  true,
	".wma":  true,
}

// IsAudioFile reports whether the path has a supported audio extension.
func IsAudioFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Metadata is the tag data extracted from one audio file.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Genre    string
	Duration int
}

// Extractor reads tags and durations from library files.
type Extractor struct {
	prober DurationProber
}

func NewExtractor(prober DurationProber) *Extractor {
	return &Extractor{prober: prober}
}

// Extract reads the tags of the audio file at path. It always returns usable
// metadata: when the tags can't be parsed the returned error wraps
// domain.ErrUnreadableMetadata and the metadata falls back to the filename
// stem as title with placeholder fields.
func (e *Extractor) Extract(path string) (*Metadata, error) {
	if strings.EqualFold(filepath.Ext(path), ".flac") {
		md, err := e.extractFLAC(path)
		if err == nil {
			return md, nil
		}
		return fallbackMetadata(path), fmt.Errorf("%w: %s: %v", domain.ErrUnreadableMetadata, path, err)
	}

	md, err := e.extractTagged(path)
	if err == nil {
		return md, nil
	}
	return fallbackMetadata(path), fmt.Errorf("%w: %s: %v", domain.ErrUnreadableMetadata, path, err)
}

// extractTagged handles every non-FLAC format via the generic tag reader,
// with ffprobe supplying the duration.
func (e *Extractor) extractTagged(path string) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, err
	}

	md := &Metadata{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
	}
	if md.Title == "" {
		md.Title = stemTitle(path)
	}

	// Duration failures are not fatal, the track just indexes with 0.
	if e.prober != nil {
		if seconds, err := e.prober.Duration(path); err == nil {
			md.Duration = seconds
		}
	}
	return md, nil
}

// extractFLAC reads the Vorbis comments and the StreamInfo duration directly
// from the FLAC container, no ffprobe round trip needed.
func (e *Extractor) extractFLAC(path string) (*Metadata, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, err
	}

	md := &Metadata{}

	info, err := f.GetStreamInfo()
	if err != nil {
		return nil, err
	}
	if info.SampleRate > 0 {
		md.Duration = int(info.SampleCount / int64(info.SampleRate))
	}

	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			continue
		}
		md.Title = firstComment(cmt, flacvorbis.FIELD_TITLE)
		md.Artist = firstComment(cmt, flacvorbis.FIELD_ARTIST)
		md.Album = firstComment(cmt, flacvorbis.FIELD_ALBUM)
		md.Genre = firstComment(cmt, flacvorbis.FIELD_GENRE)
		break
	}

	if md.Title == "" {
		md.Title = stemTitle(path)
	}
	return md, nil
}

func firstComment(cmt *flacvorbis.MetaDataBlockVorbisComment, field string) string {
	values, err := cmt.Get(field)
	if err != nil || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func fallbackMetadata(path string) *Metadata {
	return &Metadata{Title: stemTitle(path)}
}

// stemTitle derives a display title from the filename when tags are absent.
func stemTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
