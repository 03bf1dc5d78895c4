package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

const testSampleRate = 44100

// writeWAV encodes interleaved 16-bit samples to a WAV file in a temp dir
func writeWAV(t *testing.T, name string, channels int, samples []int) string {
	t.Helper()
	return writeWAVBits(t, name, 16, channels, samples)
}

// writeWAVBits encodes interleaved samples at the given bit depth. 8-bit
// samples are written as the unsigned bytes that land on disk.
func writeWAVBits(t *testing.T, name string, bits, channels int, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, testSampleRate, bits, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  testSampleRate,
		},
		Data:           samples,
		SourceBitDepth: bits,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write fixture samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalise fixture: %v", err)
	}
	return path
}

// writeFLAC encodes interleaved 16-bit samples to a FLAC file in blocks of
// blockSize frames; the last block may be shorter
func writeFLAC(t *testing.T, name string, channels, blockSize int, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture: %v", err)
	}

	nframes := len(samples) / channels
	info := &meta.StreamInfo{
		BlockSizeMin:  uint16(blockSize),
		BlockSizeMax:  uint16(blockSize),
		SampleRate:    testSampleRate,
		NChannels:     uint8(channels),
		BitsPerSample: 16,
		NSamples:      uint64(nframes),
	}
	enc, err := flac.NewEncoder(f, info)
	if err != nil {
		f.Close()
		t.Fatalf("Failed to create FLAC encoder: %v", err)
	}

	layout := frame.ChannelsMono
	if channels == 2 {
		layout = frame.ChannelsLR
	}

	for offset := 0; offset < nframes; offset += blockSize {
		n := min(blockSize, nframes-offset)
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(n),
				SampleRate:        testSampleRate,
				Channels:          layout,
				BitsPerSample:     16,
			},
			Subframes: make([]*frame.Subframe, channels),
		}
		for ch := range channels {
			data := make([]int32, n)
			for i := range data {
				data[i] = int32(samples[(offset+i)*channels+ch])
			}
			fr.Subframes[ch] = &frame.Subframe{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   data,
				NSamples:  n,
			}
		}
		if err := enc.WriteFrame(fr); err != nil {
			enc.Close()
			t.Fatalf("Failed to write FLAC frame: %v", err)
		}
	}

	// Close also closes f
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalise FLAC fixture: %v", err)
	}
	return path
}

// extensibleWAV builds a mono 16-bit WAVE_FORMAT_EXTENSIBLE file whose
// sub-format GUID starts with subFormat
func extensibleWAV(subFormat uint16, samples []int16) []byte {
	const (
		bits    = 16
		fmtSize = 40
	)
	le := binary.LittleEndian
	dataSize := uint32(len(samples) * bits / 8)

	b := make([]byte, 0, 68+dataSize)
	b = append(b, "RIFF"...)
	b = le.AppendUint32(b, 4+8+fmtSize+8+dataSize)
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	b = le.AppendUint32(b, fmtSize)
	b = le.AppendUint16(b, wavFormatExtensible)
	b = le.AppendUint16(b, 1)
	b = le.AppendUint32(b, testSampleRate)
	b = le.AppendUint32(b, testSampleRate*bits/8)
	b = le.AppendUint16(b, bits/8)
	b = le.AppendUint16(b, bits)
	b = le.AppendUint16(b, 22) // cbSize
	b = le.AppendUint16(b, bits)
	b = le.AppendUint32(b, 0x4) // front centre
	b = le.AppendUint16(b, subFormat)
	// Remainder of the KSDATAFORMAT GUID
	b = append(b, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71)
	b = append(b, "data"...)
	b = le.AppendUint32(b, dataSize)
	for _, v := range samples {
		b = le.AppendUint16(b, uint16(v))
	}
	return b
}

// writeFile writes raw bytes to a file in a temp dir
func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// floatWAV builds a mono 32-bit IEEE float WAV holding four silent samples
func floatWAV() []byte {
	const (
		formatFloat = 3
		bits        = 32
		dataSize    = 16
	)
	le := binary.LittleEndian

	b := make([]byte, 0, 44+dataSize)
	b = append(b, "RIFF"...)
	b = le.AppendUint32(b, 36+dataSize)
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	b = le.AppendUint32(b, 16)
	b = le.AppendUint16(b, formatFloat)
	b = le.AppendUint16(b, 1)
	b = le.AppendUint32(b, testSampleRate)
	b = le.AppendUint32(b, testSampleRate*bits/8)
	b = le.AppendUint16(b, bits/8)
	b = le.AppendUint16(b, bits)
	b = append(b, "data"...)
	b = le.AppendUint32(b, dataSize)
	return append(b, make([]byte, dataSize)...)
}

// constant returns n copies of v
func constant(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = v
	}
	return s
}

// alternating returns n samples swinging between +v and -v
func alternating(n, v int) []int {
	s := make([]int, n)
	for i := range s {
		if i%2 == 0 {
			s[i] = v
		} else {
			s[i] = -v
		}
	}
	return s
}

// sine returns n samples of a sine wave with the given period in frames
func sine(n, period int, amplitude float64) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = int(math.Round(amplitude * math.Sin(2*math.Pi*float64(i)/float64(period))))
	}
	return s
}

// memDecoder is an in-memory FrameDecoder over interleaved samples
type memDecoder struct {
	samples  []int
	channels int
	bitDepth int
	pos      int
	rewinds  int
	closed   bool
}

func newMemDecoder(channels int, samples []int) *memDecoder {
	return &memDecoder{samples: samples, channels: channels, bitDepth: 16}
}

func (d *memDecoder) ReadFrames(buf []int) (int, error) {
	n := copy(buf, d.samples[d.pos:])
	d.pos += n
	return n, nil
}

func (d *memDecoder) Rewind() error {
	d.pos = 0
	d.rewinds++
	return nil
}

func (d *memDecoder) SampleRate() int  { return testSampleRate }
func (d *memDecoder) NumChannels() int { return d.channels }
func (d *memDecoder) BitDepth() int    { return d.bitDepth }
func (d *memDecoder) NumFrames() int64 { return int64(len(d.samples) / d.channels) }

func (d *memDecoder) Close() error {
	d.closed = true
	return nil
}

// newMemSampler wraps a memDecoder in a Sampler
func newMemSampler(t *testing.T, channels int, samples []int) *Sampler {
	t.Helper()

	s, err := NewSampler("mem.wav", newMemDecoder(channels, samples))
	if err != nil {
		t.Fatalf("Failed to create sampler: %v", err)
	}
	return s
}
