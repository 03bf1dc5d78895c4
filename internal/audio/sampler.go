package audio

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/linuxmatters/terrawave/internal/progress"
)

// Stage labels reported through the progress sink by SampleHeights
const (
	StageReading   = "Reading WAV Data"
	StageAbsolute  = "Converting all Values to Positive"
	StageAveraging = "Averaging Amplitude values"
	StageScaling   = "Scaling to Magnitude Value"
)

// maxChunkFrames caps a single decoder read so a bucket spanning the whole
// song does not need a whole-song buffer
const maxChunkFrames = 65536

// Sampler turns the amplitude envelope of an audio stream into a sequence
// of height values. It owns its decoder; the read cursor is shared state,
// so sampling passes on one Sampler are serialised.
type Sampler struct {
	mu   sync.Mutex
	dec  FrameDecoder
	path string
	buf  []int
}

// bucketSums accumulates the samples of one bucket while it is read
type bucketSums struct {
	positive int64 // sum of samples >= 0
	negative int64 // sum of samples < 0
	count    int64
}

// NewSampler wraps an open decoder. The decoder is closed if its format
// cannot be sampled.
func NewSampler(path string, dec FrameDecoder) (*Sampler, error) {
	if dec.NumChannels() < 1 || dec.BitDepth() < 1 {
		dec.Close()
		return nil, fmt.Errorf("%w: %d channels at %d bits", ErrUnsupportedFormat, dec.NumChannels(), dec.BitDepth())
	}
	return &Sampler{dec: dec, path: path}, nil
}

// Path returns the file the sampler was opened from
func (s *Sampler) Path() string {
	return s.path
}

// NumChannels returns the number of audio channels
func (s *Sampler) NumChannels() int {
	return s.dec.NumChannels()
}

// SampleWidth returns the size of one sample in bytes
func (s *Sampler) SampleWidth() int {
	return (s.dec.BitDepth() + 7) / 8
}

// FrameRate returns the number of frames per second
func (s *Sampler) FrameRate() int {
	return s.dec.SampleRate()
}

// NumFrames returns the total number of frames
func (s *Sampler) NumFrames() int64 {
	return s.dec.NumFrames()
}

// SampleSizeBits returns the sample size in bits
func (s *Sampler) SampleSizeBits() int {
	return s.SampleWidth() * 8
}

// SongLength returns the song length in seconds
func (s *Sampler) SongLength() float64 {
	if s.FrameRate() == 0 {
		return 0
	}
	return float64(s.NumFrames()) / float64(s.FrameRate())
}

// SongLengthTime returns the song length as h:mm:ss with microseconds
// appended when non-zero
func (s *Sampler) SongLengthTime() string {
	return formatClock(s.SongLength())
}

// MaxAmplitude returns the largest positive sample value the bit depth
// can represent
func (s *Sampler) MaxAmplitude() int {
	bits := s.SampleSizeBits()
	if v := audio.IntMaxSignedValue(bits); v > 0 {
		return v
	}
	return 1<<(bits-1) - 1
}

// SampleHeights partitions the stream into vertexCount equal buckets,
// reduces each bucket to its mean amplitude and rescales the means so the
// largest magnitude equals targetMagnitude.
//
// Buckets hold floor(frames/vertexCount) frames; trailing frames that do not
// fill a bucket are never read. When allowNegative is false samples are
// folded to their absolute value before averaging. Means use floor division.
func (s *Sampler) SampleHeights(vertexCount int, targetMagnitude float64, allowNegative bool, sink progress.Sink) ([]float64, error) {
	if vertexCount <= 0 {
		return nil, fmt.Errorf("%w: vertex count must be at least 1, got %d", ErrInvalidArgument, vertexCount)
	}
	if !(targetMagnitude > 0) || math.IsInf(targetMagnitude, 1) {
		return nil, fmt.Errorf("%w: target magnitude must be a positive number, got %v", ErrInvalidArgument, targetMagnitude)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec == nil {
		return nil, fmt.Errorf("%w: sampler is closed", ErrIO)
	}
	if err := s.dec.Rewind(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	framesPerBucket := s.dec.NumFrames() / int64(vertexCount)
	if framesPerBucket == 0 {
		return nil, fmt.Errorf("%w: %d frames cannot fill %d vertices", ErrInsufficientData, s.dec.NumFrames(), vertexCount)
	}

	// Read every bucket in stream order
	sums := make([]bucketSums, vertexCount)
	progress.Stage(sink, StageReading, vertexCount)
	for i := range sums {
		if err := s.readBucket(&sums[i], framesPerBucket); err != nil {
			return nil, fmt.Errorf("%w: bucket %d of %d: %w", ErrIO, i+1, vertexCount, err)
		}
		progress.Step(sink, i+1)
	}

	totals := make([]int64, vertexCount)
	if allowNegative {
		for i, b := range sums {
			totals[i] = b.positive + b.negative
		}
	} else {
		progress.Stage(sink, StageAbsolute, vertexCount)
		for i, b := range sums {
			totals[i] = b.positive - b.negative
			progress.Step(sink, i+1)
		}
	}

	progress.Stage(sink, StageAveraging, vertexCount)
	means := make([]int64, vertexCount)
	var peak int64
	for i, total := range totals {
		means[i] = floorDiv(total, sums[i].count)
		if m := abs64(means[i]); m > peak {
			peak = m
		}
		progress.Step(sink, i+1)
	}

	if peak == 0 {
		return nil, fmt.Errorf("%w: every bucket averages to zero", ErrDegenerateSignal)
	}

	progress.Stage(sink, StageScaling, vertexCount)
	ratio := targetMagnitude / float64(peak)
	heights := make([]float64, vertexCount)
	for i, m := range means {
		switch m {
		case peak:
			heights[i] = targetMagnitude
		case -peak:
			heights[i] = -targetMagnitude
		default:
			heights[i] = float64(m) * ratio
		}
		progress.Step(sink, i+1)
	}

	return heights, nil
}

// readBucket reads exactly frames frames and accumulates their samples
func (s *Sampler) readBucket(sums *bucketSums, frames int64) error {
	channels := int64(s.dec.NumChannels())

	for remaining := frames; remaining > 0; {
		n := min(remaining, maxChunkFrames)
		want := int(n * channels)
		if cap(s.buf) < want {
			s.buf = make([]int, want)
		}
		buf := s.buf[:want]

		got, err := s.dec.ReadFrames(buf)
		if err != nil {
			return err
		}
		for _, x := range buf[:got] {
			if x < 0 {
				sums.negative += int64(x)
			} else {
				sums.positive += int64(x)
			}
		}
		sums.count += int64(got)

		if got < want {
			return io.ErrUnexpectedEOF
		}
		remaining -= n
	}
	return nil
}

// Close releases the decoder. Further sampling fails with ErrIO.
func (s *Sampler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec == nil {
		return nil
	}
	err := s.dec.Close()
	s.dec = nil
	return err
}

// Heights opens path, samples it once and closes it again. The terminal
// Complete message is sent to sink only when sampling succeeds.
func Heights(path string, vertexCount int, targetMagnitude float64, allowNegative bool, sink progress.Sink) ([]float64, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	heights, err := s.SampleHeights(vertexCount, targetMagnitude, allowNegative, sink)
	if err != nil {
		return nil, err
	}

	progress.Complete(sink)
	return heights, nil
}

// Reverse returns a copy of values in reverse order, so the end of the
// song maps to the first vertex
func Reverse(values []float64) []float64 {
	reversed := make([]float64, len(values))
	for i, v := range values {
		reversed[len(values)-1-i] = v
	}
	return reversed
}

// floorDiv divides rounding towards negative infinity; b must be positive
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func formatClock(seconds float64) string {
	d := time.Duration(math.Round(seconds*1e6)) * time.Microsecond

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	us := d / time.Microsecond

	if us == 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d:%02d.%06d", h, m, sec, us)
}
