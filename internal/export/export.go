// Package export writes sampled heights in formats other tools can load.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Format names an output encoding
type Format string

const (
	FormatText Format = "text" // one height per line
	FormatCSV  Format = "csv"  // index,height rows under a header
	FormatJSON Format = "json" // Result as an object
)

// Formats lists every supported format
var Formats = []Format{FormatText, FormatCSV, FormatJSON}

// ErrUnknownFormat is returned for format names not in Formats
var ErrUnknownFormat = errors.New("unknown export format")

// Result is one sampling run and the parameters that produced it
type Result struct {
	Source   string    `json:"source"`
	Vertices int       `json:"vertices"`
	Height   float64   `json:"height"`
	Dips     bool      `json:"dips"`
	Reversed bool      `json:"reversed"`
	Values   []float64 `json:"values"`
}

// ParseFormat converts a case-insensitive name to a Format
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Write encodes r to w in the given format
func Write(w io.Writer, format Format, r Result) error {
	switch format {
	case FormatText:
		return writeText(w, r.Values)
	case FormatCSV:
		return writeCSV(w, r.Values)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if r.Values == nil {
			r.Values = []float64{}
		}
		return enc.Encode(r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func formatHeight(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeText(w io.Writer, values []float64) error {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(formatHeight(v))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeCSV(w io.Writer, values []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "height"}); err != nil {
		return err
	}
	for i, v := range values {
		if err := cw.Write([]string{strconv.Itoa(i), formatHeight(v)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
