package audio

import (
	"fmt"
	"io"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// Vorbis decodes to float; samples are quantised to 16-bit integers
const (
	oggBitDepth = 16
	oggMaxValue = 32767
)

// OGGDecoder implements FrameDecoder for Ogg Vorbis files
type OGGDecoder struct {
	reader     *oggvorbis.Reader
	file       *os.File
	sampleRate int
	channels   int
	numFrames  int64
	floats     []float32
}

// NewOGGDecoder creates a new Ogg Vorbis decoder
func NewOGGDecoder(filename string) (*OGGDecoder, error) {
	f, err := openFile(filename)
	if err != nil {
		return nil, err
	}

	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to create Ogg Vorbis decoder: %w", ErrFormat, err)
	}

	return &OGGDecoder{
		reader:     reader,
		file:       f,
		sampleRate: reader.SampleRate(),
		channels:   reader.Channels(),
		numFrames:  reader.Length(), // samples per channel
	}, nil
}

// ReadFrames reads interleaved samples into buf
func (d *OGGDecoder) ReadFrames(buf []int) (int, error) {
	if cap(d.floats) < len(buf) {
		d.floats = make([]float32, len(buf))
	}
	floats := d.floats[:len(buf)]

	filled := 0
	for filled < len(buf) {
		n, err := d.reader.Read(floats[filled:])
		filled += n
		if err != nil {
			if err == io.EOF {
				break
			}
			return 0, fmt.Errorf("failed to read Ogg Vorbis data: %w", err)
		}
		if n == 0 {
			break
		}
	}

	for i := 0; i < filled; i++ {
		buf[i] = quantise(floats[i])
	}
	return filled, nil
}

// quantise clamps a Vorbis sample to [-1, 1] and scales it to 16 bits,
// truncating towards zero
func quantise(s float32) int {
	if s > 1.0 {
		s = 1.0
	} else if s < -1.0 {
		s = -1.0
	}
	return int(s * oggMaxValue)
}

// Rewind moves the reader back to the first sample
func (d *OGGDecoder) Rewind() error {
	if err := d.reader.SetPosition(0); err != nil {
		return fmt.Errorf("failed to rewind Ogg Vorbis stream: %w", err)
	}
	return nil
}

// SampleRate returns the sample rate
func (d *OGGDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *OGGDecoder) NumChannels() int {
	return d.channels
}

// BitDepth returns the bits per quantised sample
func (d *OGGDecoder) BitDepth() int {
	return oggBitDepth
}

// NumFrames returns the number of samples per channel
func (d *OGGDecoder) NumFrames() int64 {
	return d.numFrames
}

// Close closes the decoder and releases resources
func (d *OGGDecoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}
