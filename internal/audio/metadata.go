package audio

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata holds the descriptive tags of an audio file
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ReadMetadata reads ID3v2 tags from path. Files without tags, or whose tags
// cannot be parsed, fall back to the file name without extension as title.
func ReadMetadata(path string) Metadata {
	md := Metadata{}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err == nil {
		md.Title = strings.TrimSpace(tag.Title())
		md.Artist = strings.TrimSpace(tag.Artist())
		md.Album = strings.TrimSpace(tag.Album())
		tag.Close()
	}

	if md.Title == "" {
		base := filepath.Base(path)
		md.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return md
}
