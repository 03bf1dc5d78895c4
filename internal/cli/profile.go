package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var profileBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderProfile draws values as a two row block sparkline at most width
// columns wide, coloured along the terrain gradient. The lowest value maps
// to the bottom of the chart and the highest to the top.
func RenderProfile(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	// Sample values to fit width
	stride := max(len(values)/width, 1)

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	normalised := make([]float64, 0, width)
	for i := 0; i < len(values) && len(normalised) < width; i += stride {
		normalised = append(normalised, (values[i]-lo)/span)
	}

	var result strings.Builder

	// Top row shows the portion above 0.5
	for _, n := range normalised {
		if n > 0.5 {
			blockIdx := blockIndex((n - 0.5) * 2)
			result.WriteString(styledBlock(profileBlocks[blockIdx], n))
		} else {
			result.WriteString(" ")
		}
	}
	result.WriteString("\n")

	// Bottom row is full once a column reaches the top row
	for _, n := range normalised {
		blockIdx := len(profileBlocks) - 1
		if n < 0.5 {
			blockIdx = blockIndex(n * 2)
		}
		result.WriteString(styledBlock(profileBlocks[blockIdx], n))
	}

	return result.String()
}

// blockIndex maps 0.0-1.0 to a block glyph
func blockIndex(level float64) int {
	idx := int(level * float64(len(profileBlocks)-1))
	return min(max(idx, 0), len(profileBlocks)-1)
}

// styledBlock colours a glyph by overall height
func styledBlock(block rune, level float64) string {
	colorIdx := int(level * float64(len(TerrainGradient)-1))
	colorIdx = min(max(colorIdx, 0), len(TerrainGradient)-1)
	return lipgloss.NewStyle().
		Foreground(TerrainGradient[colorIdx]).
		Render(string(block))
}
