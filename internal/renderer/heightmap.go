package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/linuxmatters/terrawave/internal/config"
	"github.com/linuxmatters/terrawave/internal/heightfield"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// Options controls heightmap rendering
type Options struct {
	Width   int
	Height  int
	Caption string // Drawn bottom-left when non-empty
}

// DefaultOptions returns the configured heightmap size without a caption
func DefaultOptions() Options {
	return Options{
		Width:  config.HeightmapWidth,
		Height: config.HeightmapHeight,
	}
}

// ErrEmptyGrid is returned when there is nothing to render
var ErrEmptyGrid = errors.New("heightmap grid is empty")

// getCaptionColor returns the brand yellow used for captions
func getCaptionColor() color.RGBA {
	return color.RGBA{R: config.TextColorR, G: config.TextColorG, B: config.TextColorB, A: 255}
}

// getEmptyColor returns the colour of vertices outside the sequence
func getEmptyColor() color.RGBA {
	return color.RGBA{R: config.EmptyColorR, G: config.EmptyColorG, B: config.EmptyColorB, A: 255}
}

// RenderHeightmap draws the grid as a greyscale image, lowest height black
// and highest white, scaled to the requested size
func RenderHeightmap(grid *heightfield.Grid, opts Options) (*image.RGBA, error) {
	if grid == nil || grid.Cols < 1 || grid.Rows < 1 || len(grid.Values) == 0 {
		return nil, ErrEmptyGrid
	}
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("invalid heightmap size %dx%d", opts.Width, opts.Height)
	}

	// One pixel per vertex
	src := image.NewRGBA(image.Rect(0, 0, grid.Cols, grid.Rows))
	lo, hi := grid.Range()
	for y := 0; y < grid.Rows; y++ {
		for x := 0; x < grid.Cols; x++ {
			v, ok := grid.At(x, y)
			if !ok {
				src.SetRGBA(x, y, getEmptyColor())
				continue
			}
			g := greyLevel(v, lo, hi)
			src.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if opts.Caption != "" {
		if err := drawCaption(dst, opts.Caption); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// greyLevel maps v in [lo, hi] to 0-255; a flat grid is mid grey
func greyLevel(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 128
	}
	level := (v - lo) / (hi - lo) * 255
	return uint8(min(max(level+0.5, 0), 255))
}

// drawCaption writes text in the bottom-left corner
func drawCaption(img *image.RGBA, text string) error {
	parsedFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("failed to parse font: %w", err)
	}

	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size: config.CaptionFontSize,
		DPI:  72,
	})
	defer face.Close()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(getCaptionColor()),
		Face: face,
	}

	// Baseline sits above the descent so nothing is clipped
	descent := face.Metrics().Descent.Ceil()
	d.Dot = freetype.Pt(config.CaptionMargin, img.Bounds().Dy()-config.CaptionMargin-descent)
	d.DrawString(text)
	return nil
}

// SaveHeightmap renders the grid and writes it to path as PNG
func SaveHeightmap(path string, grid *heightfield.Grid, opts Options) error {
	img, err := RenderHeightmap(grid, opts)
	if err != nil {
		return err
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heightmap: %w", err)
	}
	defer outFile.Close()

	if err := png.Encode(outFile, img); err != nil {
		return fmt.Errorf("failed to encode heightmap: %w", err)
	}
	return outFile.Close()
}
