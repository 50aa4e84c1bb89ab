package pipeline

import (
	"errors"
	"fmt"
)

var ErrSizeMismatch = errors.New("map sizes differ")

// Map is a read-only per-pixel error map. At must be safe for concurrent use.
type Map interface {
	Width() int
	Height() int
	At(x, y int) float64
}

// MapLoader reads maps from files. LoadErrorMap expects a precomputed
// per-pixel error in [0,1]; LoadLuminance converts an image to normalized
// luminance.
type MapLoader interface {
	LoadErrorMap(path string) (Map, error)
	LoadLuminance(path string) (Map, error)
}

// Grid is an in-memory Map stored row-major.
type Grid struct {
	width  int
	height int
	values []float64
}

func NewGrid(width, height int) (*Grid, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid grid dimensions: %dx%d", width, height)
	}
	return &Grid{width: width, height: height, values: make([]float64, width*height)}, nil
}

// GridFrom wraps values without copying.
func GridFrom(width, height int, values []float64) (*Grid, error) {
	if width < 0 || height < 0 || len(values) != width*height {
		return nil, fmt.Errorf("invalid grid: %dx%d with %d values", width, height, len(values))
	}
	return &Grid{width: width, height: height, values: values}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) At(x, y int) float64 {
	return g.values[y*g.width+x]
}

func (g *Grid) Set(x, y int, v float64) {
	g.values[y*g.width+x] = v
}
