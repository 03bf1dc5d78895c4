package audio

// FrameDecoder defines the interface for all audio format decoders.
// Samples are signed integers in the range of the stream's bit depth,
// interleaved by channel.
type FrameDecoder interface {
	// ReadFrames fills buf with interleaved samples and returns how many
	// were written. len(buf) should be a multiple of NumChannels.
	// A short count means the end of the stream was reached.
	ReadFrames(buf []int) (int, error)

	// Rewind moves the read cursor back to the first frame
	Rewind() error

	// SampleRate returns the audio sample rate in Hz
	SampleRate() int

	// NumChannels returns the number of audio channels (1=mono, 2=stereo)
	NumChannels() int

	// BitDepth returns the bits per decoded sample
	BitDepth() int

	// NumFrames returns the total number of frames in the stream
	NumFrames() int64

	// Close closes the decoder and releases resources
	Close() error
}
