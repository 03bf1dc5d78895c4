package audio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Open opens the audio file at path and returns a Sampler that owns the
// decoder. The decoder is chosen from the file extension; anything that is
// not MP3, FLAC or Ogg Vorbis is treated as WAV.
func Open(path string) (*Sampler, error) {
	dec, err := NewDecoder(path)
	if err != nil {
		return nil, err
	}
	return NewSampler(path, dec)
}

// NewDecoder creates the FrameDecoder matching the file extension
func NewDecoder(path string) (FrameDecoder, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrIO, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return NewMP3Decoder(path)
	case ".flac":
		return NewFLACDecoder(path)
	case ".ogg", ".oga":
		return NewOGGDecoder(path)
	default:
		return NewWAVDecoder(path)
	}
}

// openFile opens filename, classifying failures as ErrNotFound or ErrIO
func openFile(filename string) (*os.File, error) {
	f, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return f, nil
}
