package pooling

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmpty is returned by strict statistics when nothing has been observed.
	ErrEmpty = errors.New("no values observed")

	// ErrNoWeightedMass is returned when every histogram bucket is empty, so
	// weighted statistics have no defined value.
	ErrNoWeightedMass = errors.New("histogram has no weighted mass")

	// ErrInvalidPercent is returned for percentiles outside [0, 1].
	ErrInvalidPercent = errors.New("percent must be within [0, 1]")
)

// Checked is a strict view over a Pooling. Statistics that the permissive
// methods would return as NaN or Inf are reported as errors instead.
type Checked struct {
	p *Pooling
}

// Checked returns the strict view of p.
func (p *Pooling) Checked() Checked {
	return Checked{p: p}
}

func (c Checked) Mean() (float64, error) {
	if c.p.count == 0 {
		return 0, ErrEmpty
	}
	return c.p.Mean(), nil
}

func (c Checked) Variance() (float64, error) {
	if c.p.count == 0 {
		return 0, ErrEmpty
	}
	return c.p.Variance(), nil
}

func (c Checked) StdDev() (float64, error) {
	v, err := c.Variance()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

func (c Checked) CenterOfGravity() (float64, error) {
	if c.p.hist.ValueCount() == 0 {
		return 0, ErrNoWeightedMass
	}
	return c.p.CenterOfGravity(), nil
}

// WeightedPercentile clamps the in-bucket fraction to [0, 1].
func (c Checked) WeightedPercentile(percent float64) (float64, error) {
	if percent < 0 || percent > 1 || math.IsNaN(percent) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidPercent, percent)
	}

	id, fraction, total := c.p.weightedCrossing(percent)
	if total == 0 {
		return 0, ErrNoWeightedMass
	}

	// p == 1 walks past every bucket; the answer is the top of the last used one.
	if _, hi, ok := c.p.hist.UsedRange(); ok && (percent == 1 || id > hi || math.IsNaN(fraction)) {
		id, fraction = hi, 1
	}

	fraction = math.Max(0, math.Min(1, fraction))
	return (float64(id) + fraction) * c.p.hist.BucketStep(), nil
}

func (c Checked) Percentile(percent float64, totalCount uint64) (float64, error) {
	if percent < 0 || percent > 1 || math.IsNaN(percent) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidPercent, percent)
	}
	if totalCount == 0 || c.p.hist.ValueCount() == 0 {
		return 0, ErrEmpty
	}
	return c.p.Percentile(percent, totalCount), nil
}
