package pooling

import (
	"fmt"
	"math"

	"flip-pooling/internal/processing/histogram"
)

// Bias selects the variance denominator.
type Bias int

const (
	// Population divides by n.
	Population Bias = iota
	// Sample divides by n-1. Accepted but not applied yet.
	Sample
)

const DefaultBuckets = 100

// Coord is a pixel position.
type Coord struct {
	X, Y uint32
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Pooling accumulates per-pixel error values into running moments, extrema
// and a histogram. It is not safe for concurrent use; concurrent callers keep
// one Pooling per worker and Merge them.
type Pooling struct {
	count    uint64
	sum      float64
	sumSq    float64
	min      float64
	max      float64
	minCoord Coord
	maxCoord Coord
	bias     Bias
	hist     *histogram.Histogram

	// ordered counts the non-NaN observations that min and max range over.
	// A NaN first observation pins both extrema to NaN at firstCoord, since
	// no later comparison can displace it.
	ordered    uint64
	nanFirst   bool
	firstCoord Coord
}

type Option func(*Pooling)

func WithBias(b Bias) Option {
	return func(p *Pooling) { p.bias = b }
}

// WithRange sets the histogram value range. The default is [0, 1].
func WithRange(minValue, maxValue float64) Option {
	return func(p *Pooling) { p.hist = histogram.New(p.hist.Size(), minValue, maxValue) }
}

func New(buckets int, opts ...Option) *Pooling {
	p := &Pooling{
		hist: histogram.New(buckets, 0, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Clear()
	return p
}

// Update records value observed at (x, y). Values outside the histogram range
// still advance the running moments and extrema.
func (p *Pooling) Update(x, y uint32, value float64) {
	p.count++
	p.sum += value
	p.sumSq += value * value
	p.hist.Inc(value)

	if math.IsNaN(value) {
		if p.count == 1 {
			p.nanFirst = true
			p.firstCoord = Coord{X: x, Y: y}
		}
		return
	}

	p.ordered++
	if value < p.min || p.ordered == 1 {
		p.min = value
		p.minCoord = Coord{X: x, Y: y}
	}
	if value > p.max || p.ordered == 1 {
		p.max = value
		p.maxCoord = Coord{X: x, Y: y}
	}
}

// Clear resets the aggregator and its histogram to the just-constructed state.
func (p *Pooling) Clear() {
	p.count = 0
	p.sum = 0
	p.sumSq = 0
	p.min = math.MaxFloat64
	p.max = -math.MaxFloat64
	p.minCoord = Coord{}
	p.maxCoord = Coord{}
	p.ordered = 0
	p.nanFirst = false
	p.firstCoord = Coord{}
	p.hist.Clear()
}

// Merge folds other into p. Extrema use strict comparison, so merging
// partitions in scan order keeps the coordinates a sequential pass would
// have reported, including a NaN in the first position.
func (p *Pooling) Merge(other *Pooling) error {
	if other == nil || other.count == 0 {
		return nil
	}
	if err := p.hist.Merge(other.hist); err != nil {
		return fmt.Errorf("failed to merge histogram: %w", err)
	}

	if p.count == 0 {
		p.nanFirst = other.nanFirst
		p.firstCoord = other.firstCoord
	}
	p.count += other.count
	p.sum += other.sum
	p.sumSq += other.sumSq

	if other.ordered > 0 {
		if p.ordered == 0 || other.min < p.min {
			p.min = other.min
			p.minCoord = other.minCoord
		}
		if p.ordered == 0 || other.max > p.max {
			p.max = other.max
			p.maxCoord = other.maxCoord
		}
		p.ordered += other.ordered
	}

	return nil
}

func (p *Pooling) Count() uint64                   { return p.count }
func (p *Pooling) Sum() float64                    { return p.sum }
func (p *Pooling) SumOfSquares() float64           { return p.sumSq }
func (p *Pooling) Bias() Bias                      { return p.bias }
func (p *Pooling) Histogram() *histogram.Histogram { return p.hist }

// Min is the smallest observed value, or NaN when the first observation was
// NaN.
func (p *Pooling) Min() float64 {
	if p.nanFirst {
		return math.NaN()
	}
	return p.min
}

func (p *Pooling) Max() float64 {
	if p.nanFirst {
		return math.NaN()
	}
	return p.max
}

func (p *Pooling) MinCoord() Coord {
	if p.nanFirst {
		return p.firstCoord
	}
	return p.minCoord
}

func (p *Pooling) MaxCoord() Coord {
	if p.nanFirst {
		return p.firstCoord
	}
	return p.maxCoord
}

// Mean is NaN when nothing has been observed.
func (p *Pooling) Mean() float64 {
	return p.sum / float64(p.count)
}

// Variance is the population variance, floored at zero to absorb
// cancellation error.
func (p *Pooling) Variance() float64 {
	n := float64(p.count)
	variance := (p.sumSq - p.sum*p.sum/n) / n
	return math.Max(0, variance)
}

func (p *Pooling) StdDev() float64 {
	return math.Sqrt(p.Variance())
}

// CenterOfGravity treats each bucket as a point mass at its midpoint and
// returns the weighted second moment over the weighted first moment.
func (p *Pooling) CenterOfGravity() float64 {
	var moments, weighted float64
	for id := 0; id < p.hist.Size(); id++ {
		w := p.hist.Midpoint(id)
		wv := float64(p.hist.BucketValue(id)) * w
		weighted += wv
		moments += wv * w
	}
	return moments / weighted
}

// WeightedPercentile estimates the percentile of the count*midpoint weighted
// distribution, interpolating linearly inside the bucket where the threshold
// is crossed. percent = 0.5 gives the weighted median.
func (p *Pooling) WeightedPercentile(percent float64) float64 {
	id, fraction, _ := p.weightedCrossing(percent)
	return (float64(id) + fraction) * p.hist.BucketStep()
}

// weightedCrossing returns the threshold bucket, the in-bucket fraction (not
// clamped) and the total weighted mass.
func (p *Pooling) weightedCrossing(percent float64) (int, float64, float64) {
	var total float64
	for id := 0; id < p.hist.Size(); id++ {
		total += float64(p.hist.BucketValue(id)) * p.hist.Midpoint(id)
	}

	threshold := percent * total
	var running float64
	var id int
	for id = 0; id < p.hist.Size(); id++ {
		wv := float64(p.hist.BucketValue(id)) * p.hist.Midpoint(id)
		if running+wv > threshold {
			break
		}
		running += wv
	}
	if id == p.hist.Size() {
		id--
	}

	wv := float64(p.hist.BucketValue(id)) * p.hist.Midpoint(id)
	return id, (threshold - running) / wv, total
}

// Percentile returns the midpoint of the first bucket whose cumulative count
// exceeds percent*totalCount. There is no interpolation inside the bucket.
func (p *Pooling) Percentile(percent float64, totalCount uint64) float64 {
	threshold := uint64(percent * float64(totalCount))

	var running uint64
	var id int
	for id = 0; id < p.hist.Size(); id++ {
		c := p.hist.BucketValue(id)
		if running+c > threshold {
			break
		}
		running += c
	}
	if id == p.hist.Size() {
		id--
	}

	return p.hist.Midpoint(id)
}
