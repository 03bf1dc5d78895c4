package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Sampling defaults
const (
	DefaultSubdivisions = 24   // Faces per side of the target plane
	DefaultHeight       = 16.0 // Peak height in scene units
	DefaultFormat       = "text"
	SpectrumBars        = 32 // Bands shown by `info`
)

// Heightmap rendering
const (
	HeightmapWidth  = 512
	HeightmapHeight = 512
	CaptionFontSize = 18.0
	CaptionMargin   = 12 // Pixels from the bottom-left corner

	// Caption colour, brand yellow #F8B31D
	TextColorR = 248
	TextColorG = 179
	TextColorB = 29

	// Vertices the sequence does not reach
	EmptyColorR = 24
	EmptyColorG = 24
	EmptyColorB = 32
)

// Environment; flags read EnvPrefix_FLAG_NAME
const (
	EnvPrefix = "TERRAWAVE"
	EnvFile   = ".env"
)

// LoadEnv loads KEY=VALUE files into the process environment so kong can
// pick them up through env tags. Missing files are skipped and variables
// already set are left alone. With no arguments EnvFile is loaded.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{EnvFile}
	}

	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		present = append(present, f)
	}

	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}
