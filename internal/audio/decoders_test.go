package audio

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"slices"
	"testing"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

const (
	speechMP3 = "../../testdata/speech.mp3" // 60 MPEG-2 layer III frames, mono, 22050 Hz
	toneOGG   = "../../testdata/tone.ogg"   // 1 second, mono, 44100 Hz
)

// openOrFail opens path and registers the sampler for closing
func openOrFail(t *testing.T, path string) *Sampler {
	t.Helper()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// flacSamples builds stereo frames whose loudness changes within and
// between FLAC blocks
func flacSamples(frames int) []int {
	s := make([]int, 0, frames*2)
	for i := range frames {
		left := (i%1500)*7 - 2000
		right := -((i * 13) % 9001)
		s = append(s, left, right)
	}
	return s
}

func TestFLACDecoderRoundTrip(t *testing.T) {
	samples := flacSamples(5000)
	path := writeFLAC(t, "roundtrip.flac", 2, 1024, samples)

	// Decode the fixture frame by frame with the library alone
	stream, err := flac.Open(path)
	if err != nil {
		t.Fatalf("Failed to open FLAC: %v", err)
	}
	defer stream.Close()

	var decoded []int
	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ParseNext failed: %v", err)
		}
		for i := range len(fr.Subframes[0].Samples) {
			for _, sub := range fr.Subframes {
				decoded = append(decoded, int(sub.Samples[i]))
			}
		}
	}
	if !slices.Equal(decoded, samples) {
		t.Fatalf("Library decode differs from the encoded samples (%d vs %d values)", len(decoded), len(samples))
	}

	// Reads of an odd size straddle FLAC blocks and carry samples over
	dec, err := NewFLACDecoder(path)
	if err != nil {
		t.Fatalf("Failed to create FLAC decoder: %v", err)
	}
	defer dec.Close()

	for pass := range 2 {
		var got []int
		buf := make([]int, 2*777)
		for {
			n, err := dec.ReadFrames(buf)
			if err != nil {
				t.Fatalf("ReadFrames failed: %v", err)
			}
			if n == 0 {
				break
			}
			got = append(got, buf[:n]...)
		}
		if !slices.Equal(got, samples) {
			t.Errorf("Pass %d: decoder output differs from the encoded samples (%d vs %d values)", pass+1, len(got), len(samples))
		}
		if err := dec.Rewind(); err != nil {
			t.Fatalf("Rewind failed: %v", err)
		}
	}
}

func TestSampleHeightsFLAC(t *testing.T) {
	samples := flacSamples(10000)
	path := writeFLAC(t, "song.flac", 2, 1024, samples)

	s := openOrFail(t, path)
	if s.NumChannels() != 2 {
		t.Errorf("Expected 2 channels, got %d", s.NumChannels())
	}
	if s.SampleSizeBits() != 16 {
		t.Errorf("Expected 16 bit samples, got %d", s.SampleSizeBits())
	}
	if s.NumFrames() != 10000 {
		t.Errorf("Expected 10000 frames, got %d", s.NumFrames())
	}

	ref := newMemSampler(t, 2, samples)

	// 1428 frames per bucket, so bucket edges fall inside FLAC blocks
	for _, neg := range []bool{false, true} {
		want, err := ref.SampleHeights(7, 100, neg, nil)
		if err != nil {
			t.Fatalf("Reference pass failed: %v", err)
		}

		first, err := s.SampleHeights(7, 100, neg, nil)
		if err != nil {
			t.Fatalf("SampleHeights failed: %v", err)
		}
		if !slices.Equal(first, want) {
			t.Errorf("allowNegative=%v: got %v, want %v", neg, first, want)
		}

		second, err := s.SampleHeights(7, 100, neg, nil)
		if err != nil {
			t.Fatalf("Second pass failed: %v", err)
		}
		if !slices.Equal(second, first) {
			t.Errorf("allowNegative=%v: second pass %v differs from first %v", neg, second, first)
		}
	}
}

func TestSampleHeights8BitWAV(t *testing.T) {
	ratio := 10.0 / 128

	tests := []struct {
		name     string
		raw      []int // unsigned bytes as stored
		allowNeg bool
		want     []float64
	}{
		// Signed values 127 127 | 0 1
		{"folded", []int{255, 255, 128, 129}, false, []float64{10, 0}},
		// Signed values -128 -128 | 127 127
		{"dips", []int{0, 0, 255, 255}, true, []float64{-10, 127 * ratio}},
		// Signed values -128 -128 | 127 127, folded
		{"full scale folded", []int{0, 0, 255, 255}, false, []float64{10, 127 * ratio}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeWAVBits(t, "eight.wav", 8, 1, tt.raw)
			s := openOrFail(t, path)

			if s.SampleSizeBits() != 8 {
				t.Errorf("Expected 8 bit samples, got %d", s.SampleSizeBits())
			}
			if s.MaxAmplitude() != 127 {
				t.Errorf("Expected max amplitude 127, got %d", s.MaxAmplitude())
			}

			got, err := s.SampleHeights(2, 10, tt.allowNeg, nil)
			if err != nil {
				t.Fatalf("SampleHeights failed: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSampleHeightsExtensibleWAV(t *testing.T) {
	path := writeFile(t, "extensible.wav", extensibleWAV(wavFormatPCM, []int16{100, 100, -300, -300}))
	s := openOrFail(t, path)

	if s.NumFrames() != 4 {
		t.Fatalf("Expected 4 frames, got %d", s.NumFrames())
	}

	got, err := s.SampleHeights(2, 10, true, nil)
	if err != nil {
		t.Fatalf("SampleHeights failed: %v", err)
	}
	ratio := 10.0 / 300
	want := []float64{100 * ratio, -10}
	if !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

// decodeMP3 decodes path with go-mp3 alone into interleaved stereo samples
func decodeMP3(t *testing.T, path string) []int {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		t.Fatalf("Failed to create MP3 decoder: %v", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("Failed to decode MP3: %v", err)
	}

	samples := make([]int, len(raw)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return samples
}

func TestSampleHeightsMP3(t *testing.T) {
	s := openOrFail(t, speechMP3)

	if s.NumChannels() != 2 {
		t.Errorf("Expected go-mp3 stereo output, got %d channels", s.NumChannels())
	}
	if s.SampleSizeBits() != 16 {
		t.Errorf("Expected 16 bit samples, got %d", s.SampleSizeBits())
	}
	if s.FrameRate() != 22050 {
		t.Errorf("Expected frame rate 22050, got %d", s.FrameRate())
	}
	// 576 frames per MPEG-2 layer III frame
	if s.NumFrames() != 60*576 {
		t.Errorf("Expected %d frames, got %d", 60*576, s.NumFrames())
	}

	samples := decodeMP3(t, speechMP3)
	if int64(len(samples)/2) != s.NumFrames() {
		t.Fatalf("Decoded %d frames, header count says %d", len(samples)/2, s.NumFrames())
	}
	ref := newMemSampler(t, 2, samples)

	// 4937 frames per bucket, spanning several MP3 frames
	for _, neg := range []bool{false, true} {
		want, err := ref.SampleHeights(7, 8, neg, nil)
		if err != nil {
			t.Fatalf("Reference pass failed: %v", err)
		}

		// The second pass starts from a seek back to the first frame
		for pass := range 2 {
			got, err := s.SampleHeights(7, 8, neg, nil)
			if err != nil {
				t.Fatalf("SampleHeights failed: %v", err)
			}
			if !slices.Equal(got, want) {
				t.Errorf("allowNegative=%v pass %d: got %v, want %v", neg, pass+1, got, want)
			}
		}
	}
}

func TestSampleHeightsOGG(t *testing.T) {
	s := openOrFail(t, toneOGG)

	if s.NumChannels() != 1 {
		t.Errorf("Expected 1 channel, got %d", s.NumChannels())
	}
	if s.SampleSizeBits() != 16 {
		t.Errorf("Expected 16 bit samples, got %d", s.SampleSizeBits())
	}
	if s.FrameRate() != 44100 {
		t.Errorf("Expected frame rate 44100, got %d", s.FrameRate())
	}
	if s.NumFrames() != 44100 {
		t.Errorf("Expected 44100 frames, got %d", s.NumFrames())
	}

	f, err := os.Open(toneOGG)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", toneOGG, err)
	}
	defer f.Close()
	floats, _, err := oggvorbis.ReadAll(f)
	if err != nil {
		t.Fatalf("Failed to decode Ogg Vorbis: %v", err)
	}
	samples := make([]int, len(floats))
	for i, v := range floats {
		samples[i] = quantise(v)
	}

	const magnitude = 4.0
	want, err := newMemSampler(t, 1, samples).SampleHeights(8, magnitude, false, nil)
	if err != nil {
		t.Fatalf("Reference pass failed: %v", err)
	}

	// Seeking back to the start re-decodes with float rounding differences
	// of about 1e-5, so quantised samples may move by one step
	for pass := range 2 {
		got, err := s.SampleHeights(8, magnitude, false, nil)
		if err != nil {
			t.Fatalf("SampleHeights failed: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("Expected %d heights, got %d", len(want), len(got))
		}
		for i := range got {
			if math.Abs(got[i]-want[i]) > magnitude*1e-3 {
				t.Errorf("Pass %d vertex %d: got %v, want %v", pass+1, i, got[i], want[i])
			}
		}
		if slices.Max(got) != magnitude {
			t.Errorf("Pass %d: expected the peak at exactly %v, got %v", pass+1, magnitude, slices.Max(got))
		}
	}
}

func TestQuantise(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16383},
		{-0.5, -16383},
		{1.5, 32767},
		{-3, -32767},
	}

	for _, tt := range tests {
		if got := quantise(tt.in); got != tt.want {
			t.Errorf("quantise(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
