// Package heightfield lays a height sequence out over the vertices of a
// rectangular plane.
package heightfield

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensions is returned for grids without at least one column and row
var ErrDimensions = errors.New("invalid grid dimensions")

// Grid holds heights in row-major order, index 0 at the top-left vertex.
// The last row may be partially populated.
type Grid struct {
	Cols   int
	Rows   int
	Values []float64
}

// Layout returns the near-square grid that fits n vertices
func Layout(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	cols = int(math.Ceil(math.Sqrt(float64(n))))
	rows = (n + cols - 1) / cols
	return cols, rows
}

// FromSubdivisions returns the vertex grid of a plane cut into sx by sy faces
func FromSubdivisions(sx, sy int) (cols, rows int, err error) {
	if sx < 1 || sy < 1 {
		return 0, 0, fmt.Errorf("%w: %dx%d subdivisions", ErrDimensions, sx, sy)
	}
	return sx + 1, sy + 1, nil
}

// NewGrid places values row by row into a grid cols wide
func NewGrid(values []float64, cols int) (*Grid, error) {
	if cols < 1 {
		return nil, fmt.Errorf("%w: %d columns", ErrDimensions, cols)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no values", ErrDimensions)
	}
	return &Grid{
		Cols:   cols,
		Rows:   (len(values) + cols - 1) / cols,
		Values: values,
	}, nil
}

// At returns the height at column x, row y and whether that vertex is set
func (g *Grid) At(x, y int) (float64, bool) {
	if x < 0 || y < 0 || x >= g.Cols || y >= g.Rows {
		return 0, false
	}
	i := y*g.Cols + x
	if i >= len(g.Values) {
		return 0, false
	}
	return g.Values[i], true
}

// Range returns the lowest and highest height
func (g *Grid) Range() (lo, hi float64) {
	if len(g.Values) == 0 {
		return 0, 0
	}
	lo, hi = g.Values[0], g.Values[0]
	for _, v := range g.Values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
