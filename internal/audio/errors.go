package audio

import "errors"

// Errors returned by Open and SampleHeights. Callers match them with
// errors.Is; the wrapped message carries the detail.
var (
	ErrNotFound          = errors.New("audio file not found")
	ErrFormat            = errors.New("unrecognised audio container")
	ErrUnsupportedFormat = errors.New("unsupported audio encoding")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientData  = errors.New("not enough audio frames")
	ErrDegenerateSignal  = errors.New("audio has zero amplitude")
	ErrIO                = errors.New("audio read failed")
)
