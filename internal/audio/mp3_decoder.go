package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always outputs interleaved 16-bit little-endian stereo
const (
	mp3Channels      = 2
	mp3BitDepth      = 16
	mp3BytesPerFrame = mp3Channels * mp3BitDepth / 8
)

// MP3Decoder implements FrameDecoder for MP3 files
type MP3Decoder struct {
	decoder    *mp3.Decoder
	file       *os.File
	sampleRate int
	numFrames  int64
	raw        []byte
}

// NewMP3Decoder creates a new MP3 decoder
func NewMP3Decoder(filename string) (*MP3Decoder, error) {
	f, err := openFile(filename)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to create MP3 decoder: %w", ErrFormat, err)
	}

	return &MP3Decoder{
		decoder:    decoder,
		file:       f,
		sampleRate: decoder.SampleRate(),
		numFrames:  decoder.Length() / mp3BytesPerFrame,
	}, nil
}

// ReadFrames reads interleaved stereo samples into buf
func (d *MP3Decoder) ReadFrames(buf []int) (int, error) {
	size := len(buf) * 2
	if cap(d.raw) < size {
		d.raw = make([]byte, size)
	}
	raw := d.raw[:size]

	n, err := io.ReadFull(d.decoder, raw)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("failed to read MP3 data: %w", err)
	}

	samples := n / 2
	for i := 0; i < samples; i++ {
		buf[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return samples, nil
}

// Rewind seeks back to the first decoded frame
func (d *MP3Decoder) Rewind() error {
	if _, err := d.decoder.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind MP3 stream: %w", err)
	}
	return nil
}

// SampleRate returns the sample rate
func (d *MP3Decoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *MP3Decoder) NumChannels() int {
	return mp3Channels
}

// BitDepth returns the bits per sample
func (d *MP3Decoder) BitDepth() int {
	return mp3BitDepth
}

// NumFrames returns the number of decoded stereo frames
func (d *MP3Decoder) NumFrames() int64 {
	return d.numFrames
}

// Close closes the decoder and releases resources
func (d *MP3Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}
