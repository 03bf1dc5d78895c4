package cli

import "github.com/charmbracelet/lipgloss"

// Terrain colour palette ⛰
// Shared across CLI and TUI, low ground to high ground
var (
	DeepWater = lipgloss.Color("#1F4E79") // Below zero
	Lowland   = lipgloss.Color("#2E7D32") // Green valley
	Foothill  = lipgloss.Color("#9E9D24") // Olive
	Highland  = lipgloss.Color("#A1887F") // Rock
	Snowcap   = lipgloss.Color("#F5F5F5") // Peak

	// Accent colours
	Sand    = lipgloss.Color("#F8B31D") // Brand yellow
	Granite = lipgloss.Color("#8D8D8D") // Subtle text
)

// TerrainGradient orders colours from the lowest to the highest height
var TerrainGradient = []lipgloss.Color{
	DeepWater,
	lipgloss.Color("#2A6F97"),
	Lowland,
	lipgloss.Color("#558B2F"),
	Foothill,
	lipgloss.Color("#BCAAA4"),
	Highland,
	Snowcap,
}
