package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// fmt chunk format tags
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// extensibleSubFormatOffset is where the sub-format GUID starts inside a
// WAVE_FORMAT_EXTENSIBLE fmt chunk
const extensibleSubFormatOffset = 24

// WAVDecoder implements FrameDecoder for PCM WAV files
type WAVDecoder struct {
	decoder    *wav.Decoder
	file       *os.File
	format     *audio.Format
	sampleRate int
	bitDepth   int
	numChans   int
	numFrames  int64
}

// NewWAVDecoder creates a new WAV decoder positioned at the first frame
func NewWAVDecoder(filename string) (*WAVDecoder, error) {
	f, err := openFile(filename)
	if err != nil {
		return nil, err
	}

	if err := checkRIFF(f); err != nil {
		f.Close()
		return nil, err
	}

	decoder, err := newPCMDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	// PCMLen is the data chunk size in bytes
	bytesPerSample := (int64(decoder.BitDepth) + 7) / 8
	numChans := int64(decoder.NumChans)

	return &WAVDecoder{
		decoder: decoder,
		file:    f,
		format: &audio.Format{
			NumChannels: int(decoder.NumChans),
			SampleRate:  int(decoder.SampleRate),
		},
		sampleRate: int(decoder.SampleRate),
		bitDepth:   int(decoder.BitDepth),
		numChans:   int(decoder.NumChans),
		numFrames:  decoder.PCMLen() / (bytesPerSample * numChans),
	}, nil
}

// checkRIFF verifies the RIFF/WAVE signature before handing the file to
// the decoder, so non-WAV input fails fast with ErrFormat.
func checkRIFF(f *os.File) error {
	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return fmt.Errorf("%w: file too short for a RIFF header", ErrFormat)
	}
	if !bytes.Equal(header[0:4], []byte("RIFF")) || !bytes.Equal(header[8:12], []byte("WAVE")) {
		return fmt.Errorf("%w: missing RIFF/WAVE signature", ErrFormat)
	}
	return nil
}

// newPCMDecoder reads the headers from the start of f and forwards to the
// data chunk.
func newPCMDecoder(f *os.File) (*wav.Decoder, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	decoder := wav.NewDecoder(f)
	valid := decoder.IsValidFile()

	// The fmt chunk is parsed even when validation fails, so check the
	// encoding first to report float or compressed data precisely.
	switch tag := decoder.WavAudioFormat; {
	case tag == 0, tag == wavFormatPCM:
	case tag == wavFormatExtensible && extensiblePCM(f):
	default:
		return nil, fmt.Errorf("%w: WAV format tag %#x is not integer PCM", ErrUnsupportedFormat, tag)
	}
	if !valid {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrFormat)
	}

	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: failed to seek to PCM data: %w", ErrFormat, err)
	}
	return decoder, nil
}

// extensiblePCM reports whether the WAVE_FORMAT_EXTENSIBLE fmt chunk of r
// declares the integer PCM sub-format. It reads with ReadAt, leaving the
// decoder's offset alone.
func extensiblePCM(r io.ReaderAt) bool {
	var hdr [8]byte
	for off := int64(12); ; {
		if _, err := r.ReadAt(hdr[:], off); err != nil {
			return false
		}
		size := int64(binary.LittleEndian.Uint32(hdr[4:]))
		if string(hdr[:4]) != "fmt " {
			// Chunks are padded to an even length
			off += 8 + size + size%2
			continue
		}

		if size < extensibleSubFormatOffset+2 {
			return false
		}
		var sub [2]byte
		if _, err := r.ReadAt(sub[:], off+8+extensibleSubFormatOffset); err != nil {
			return false
		}
		return binary.LittleEndian.Uint16(sub[:]) == wavFormatPCM
	}
}

// ReadFrames reads interleaved samples into buf
func (d *WAVDecoder) ReadFrames(buf []int) (int, error) {
	filled := 0
	for filled < len(buf) {
		intBuf := &audio.IntBuffer{
			Data:           buf[filled:],
			Format:         d.format,
			SourceBitDepth: d.bitDepth,
		}

		n, err := d.decoder.PCMBuffer(intBuf)
		if err != nil && err != io.EOF {
			return filled, fmt.Errorf("failed to read PCM buffer: %w", err)
		}
		if n == 0 {
			break
		}
		filled += n
	}

	// 8-bit WAV data is unsigned, centre it on zero
	if d.bitDepth == 8 {
		for i := 0; i < filled; i++ {
			buf[i] -= 128
		}
	}

	return filled, nil
}

// Rewind re-reads the headers and positions the decoder at the first frame
func (d *WAVDecoder) Rewind() error {
	decoder, err := newPCMDecoder(d.file)
	if err != nil {
		return err
	}
	d.decoder = decoder
	return nil
}

// SampleRate returns the sample rate
func (d *WAVDecoder) SampleRate() int {
	return d.sampleRate
}

// NumChannels returns the number of audio channels
func (d *WAVDecoder) NumChannels() int {
	return d.numChans
}

// BitDepth returns the bits per sample
func (d *WAVDecoder) BitDepth() int {
	return d.bitDepth
}

// NumFrames returns the number of frames the data chunk declares
func (d *WAVDecoder) NumFrames() int64 {
	return d.numFrames
}

// Close closes the decoder and releases resources
func (d *WAVDecoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}
