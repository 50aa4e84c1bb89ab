package pipeline

import (
	"context"
	"fmt"

	"flip-pooling/internal/processing/pooling"

	"golang.org/x/sync/errgroup"
)

// Accumulate pools every pixel of m. Rows are split into contiguous bands, one
// Pooling per band, and the partials are merged in band order so the result
// (extrema coordinates included) matches a single row-major scan.
func Accumulate(ctx context.Context, m Map, buckets, workers int) (*pooling.Pooling, error) {
	width, height := m.Width(), m.Height()
	result := pooling.New(buckets)
	if width == 0 || height == 0 {
		return result, nil
	}

	bands := max(1, min(workers, height))
	rowsPerBand := (height + bands - 1) / bands
	partials := make([]*pooling.Pooling, bands)

	g, ctx := errgroup.WithContext(ctx)
	for i := range partials {
		part := pooling.New(buckets)
		partials[i] = part
		first := i * rowsPerBand
		last := min(first+rowsPerBand, height)

		g.Go(func() error {
			for y := first; y < last; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for x := 0; x < width; x++ {
					part.Update(uint32(x), uint32(y), m.At(x, y))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("accumulation interrupted: %w", err)
	}

	for i, part := range partials {
		if err := result.Merge(part); err != nil {
			return nil, fmt.Errorf("failed to merge band %d: %w", i, err)
		}
	}
	return result, nil
}
