package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// FLACDecoder implements FrameDecoder for FLAC files
type FLACDecoder struct {
	stream      *flac.Stream
	file        *os.File
	sampleRate  int
	bitDepth    int
	numChannels int
	numFrames   int64

	// Interleaved samples decoded from the last FLAC frame but not yet read
	pending []int
}

// NewFLACDecoder creates a new FLAC decoder
func NewFLACDecoder(filename string) (*FLACDecoder, error) {
	f, err := openFile(filename)
	if err != nil {
		return nil, err
	}

	// Parse FLAC stream - reads signature and StreamInfo block
	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to create FLAC decoder: %w", ErrFormat, err)
	}

	return &FLACDecoder{
		stream:      stream,
		file:        f,
		sampleRate:  int(stream.Info.SampleRate),
		bitDepth:    int(stream.Info.BitsPerSample),
		numChannels: int(stream.Info.NChannels),
		numFrames:   int64(stream.Info.NSamples),
	}, nil
}

// ReadFrames reads interleaved samples into buf
func (d *FLACDecoder) ReadFrames(buf []int) (int, error) {
	filled := copy(buf, d.pending)
	d.pending = d.pending[filled:]

	for filled < len(buf) {
		frame, err := d.stream.ParseNext()
		if err != nil {
			if err == io.EOF {
				break
			}
			return filled, fmt.Errorf("failed to parse FLAC frame: %w", err)
		}

		// FLAC frames contain one subframe per channel; interleave them
		blockSize := len(frame.Subframes[0].Samples)
		for i := 0; i < blockSize; i++ {
			for _, subframe := range frame.Subframes {
				sample := int(subframe.Samples[i])
				if filled < len(buf) {
					buf[filled] = sample
					filled++
				} else {
					d.pending = append(d.pending, sample)
				}
			}
		}
	}

	return filled, nil
}

// Rewind reopens the stream from the start of the file
func (d *FLACDecoder) Rewind() error {
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind FLAC file: %w", err)
	}
	stream, err := flac.New(d.file)
	if err != nil {
		return fmt.Errorf("failed to reopen FLAC stream: %w", err)
	}
	d.stream = stream
	d.pending = nil
	return nil
}

// SampleRate returns the sample rate
func (d *FLACDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *FLACDecoder) NumChannels() int {
	return d.numChannels
}

// BitDepth returns the bits per sample
func (d *FLACDecoder) BitDepth() int {
	return d.bitDepth
}

// NumFrames returns the total number of inter-channel samples
func (d *FLACDecoder) NumFrames() int64 {
	return d.numFrames
}

// Close closes the decoder and releases resources.
// The stream reads straight from the file, so closing the file is enough.
func (d *FLACDecoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}
