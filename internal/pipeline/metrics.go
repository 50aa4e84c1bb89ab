package pipeline

import (
	"fmt"
	"math"
)

// DifferenceMap builds the per-pixel absolute difference of two luminance maps.
// It is the fallback metric when no precomputed error map is supplied.
func DifferenceMap(reference, test Map) (*Grid, error) {
	if reference.Width() != test.Width() || reference.Height() != test.Height() {
		return nil, fmt.Errorf("%w: reference %dx%d, test %dx%d", ErrSizeMismatch,
			reference.Width(), reference.Height(), test.Width(), test.Height())
	}

	g, err := NewGrid(reference.Width(), reference.Height())
	if err != nil {
		return nil, err
	}

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			g.Set(x, y, math.Abs(reference.At(x, y)-test.At(x, y)))
		}
	}
	return g, nil
}
