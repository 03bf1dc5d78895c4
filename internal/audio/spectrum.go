package audio

import (
	"fmt"
	"math"

	"github.com/argusdusty/gofft"
)

// SpectrumWindow is the number of frames per FFT window
const SpectrumWindow = 2048

// ApplyHanning applies a Hanning window to the input data
func ApplyHanning(data []float64) []float64 {
	windowed := make([]float64, len(data))
	n := len(data)
	for i := range data {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = data[i] * window
	}
	return windowed
}

// maxSpectrumBars is the number of bins the banded range covers
func maxSpectrumBars(fftSize int) int {
	return (fftSize / 2 * 3) / 4
}

// BinFFT adds the mean magnitude of each band of coefficients to bars.
// Only the lower three quarters of the positive frequencies are banded.
func BinFFT(coeffs []complex128, bars []float64) {
	maxFreqBin := maxSpectrumBars(len(coeffs))
	binsPerBar := maxFreqBin / len(bars)
	if binsPerBar == 0 {
		return
	}

	for bar := range bars {
		start := bar * binsPerBar
		end := min(start+binsPerBar, maxFreqBin)

		var sum float64
		for _, c := range coeffs[start:end] {
			sum += math.Hypot(real(c), imag(c))
		}
		bars[bar] += sum / float64(binsPerBar)
	}
}

// Spectrum returns the average magnitude spectrum of the whole stream in
// numBars bands, normalised so the loudest band is 1. Silence yields zeros.
func (s *Sampler) Spectrum(numBars int) ([]float64, error) {
	if numBars <= 0 || numBars > maxSpectrumBars(SpectrumWindow) {
		return nil, fmt.Errorf("%w: bar count must be between 1 and %d, got %d",
			ErrInvalidArgument, maxSpectrumBars(SpectrumWindow), numBars)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dec == nil {
		return nil, fmt.Errorf("%w: sampler is closed", ErrIO)
	}
	if err := s.dec.Rewind(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	channels := s.dec.NumChannels()
	fullScale := float64(int64(1) << (s.SampleSizeBits() - 1))

	bars := make([]float64, numBars)
	frames := make([]int, SpectrumWindow*channels)
	mono := make([]float64, SpectrumWindow)

	for {
		got, err := s.dec.ReadFrames(frames)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		n := got / channels
		if n == 0 {
			break
		}

		// Downmix to mono, zero padding a short final window
		for i := range mono {
			mono[i] = 0
			if i >= n {
				continue
			}
			var sum int
			for _, x := range frames[i*channels : (i+1)*channels] {
				sum += x
			}
			mono[i] = float64(sum) / float64(channels) / fullScale
		}

		coeffs := gofft.Float64ToComplex128Array(ApplyHanning(mono))
		if err := gofft.FFT(coeffs); err != nil {
			return nil, fmt.Errorf("FFT failed: %w", err)
		}
		BinFFT(coeffs, bars)

		if n < SpectrumWindow {
			break
		}
	}

	var peak float64
	for _, v := range bars {
		peak = max(peak, v)
	}
	if peak > 0 {
		for i := range bars {
			bars[i] /= peak
		}
	}
	return bars, nil
}
