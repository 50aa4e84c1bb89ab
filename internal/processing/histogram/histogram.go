package histogram

import (
	"errors"
	"fmt"
	"math"
)

// ErrGeometryMismatch is returned when two histograms with different ranges
// or bucket counts are merged.
var ErrGeometryMismatch = errors.New("histogram geometry mismatch")

// Histogram is a fixed-range, fixed-bucket-count frequency table over scalar
// values. It is not safe for concurrent use.
type Histogram struct {
	minValue   float64
	maxValue   float64
	bucketSize float64
	buckets    []uint64
	valueCount uint64
	errorCount uint64
	usedMin    int
	usedMax    int
}

// New creates a histogram with the given bucket count over [minValue, maxValue].
func New(buckets int, minValue, maxValue float64) *Histogram {
	h := &Histogram{
		minValue: minValue,
		maxValue: maxValue,
	}
	h.Resize(buckets)
	return h
}

// Resize changes the bucket count and recomputes the bucket size. Prior
// counts are lost.
func (h *Histogram) Resize(buckets int) {
	if buckets < 1 {
		buckets = 1
	}
	h.bucketSize = (h.maxValue - h.minValue) / float64(buckets)
	h.buckets = make([]uint64, buckets)
	h.resetCounters()
}

// Clear zeroes all counters and the used-bucket range. Geometry is kept.
func (h *Histogram) Clear() {
	clear(h.buckets)
	h.resetCounters()
}

func (h *Histogram) resetCounters() {
	h.valueCount = 0
	h.errorCount = 0
	h.usedMin = len(h.buckets)
	h.usedMax = -1
}

// ValueBucketID returns the bucket a value falls into, or ok == false when
// the value is outside [min, max].
//
// The index is value / bucketSize without subtracting the minimum, which is
// only geometrically right for a zero minimum. Percentile math depends on
// bucket i covering [i*bucketSize, (i+1)*bucketSize), so it stays that way.
func (h *Histogram) ValueBucketID(value float64) (int, bool) {
	if math.IsNaN(value) || value < h.minValue || value > h.maxValue {
		return 0, false
	}

	id := int(math.Floor(value / h.bucketSize))
	if id == len(h.buckets) {
		id--
	}

	// Only reachable with a non-zero minimum.
	if id < 0 || id >= len(h.buckets) {
		return 0, false
	}

	return id, true
}

// Inc counts a single occurrence of value.
func (h *Histogram) Inc(value float64) {
	h.Add(value, 1)
}

// Add counts amount occurrences of value. Values outside the range go to the
// error counter.
func (h *Histogram) Add(value float64, amount uint64) {
	id, ok := h.ValueBucketID(value)
	if !ok {
		h.errorCount += amount
		return
	}

	h.buckets[id] += amount
	h.valueCount += amount
	h.usedMin = min(h.usedMin, id)
	h.usedMax = max(h.usedMax, id)
}

// Merge adds the counters of other into h.
func (h *Histogram) Merge(other *Histogram) error {
	if other == nil {
		return nil
	}
	if len(h.buckets) != len(other.buckets) || h.minValue != other.minValue || h.maxValue != other.maxValue {
		return fmt.Errorf("%w: %d buckets over [%g, %g] vs %d buckets over [%g, %g]", ErrGeometryMismatch,
			len(h.buckets), h.minValue, h.maxValue, len(other.buckets), other.minValue, other.maxValue)
	}

	for i, c := range other.buckets {
		h.buckets[i] += c
	}
	h.valueCount += other.valueCount
	h.errorCount += other.errorCount
	h.usedMin = min(h.usedMin, other.usedMin)
	h.usedMax = max(h.usedMax, other.usedMax)

	return nil
}

func (h *Histogram) Size() int           { return len(h.buckets) }
func (h *Histogram) BucketSize() float64 { return h.bucketSize }
func (h *Histogram) MinValue() float64   { return h.minValue }
func (h *Histogram) MaxValue() float64   { return h.maxValue }
func (h *Histogram) ValueCount() uint64  { return h.valueCount }
func (h *Histogram) ErrorCount() uint64  { return h.errorCount }

// Total returns the number of increments, valid or not.
func (h *Histogram) Total() uint64 { return h.valueCount + h.errorCount }

// BucketStep is the bucket width derived from the current bucket count.
func (h *Histogram) BucketStep() float64 {
	return (h.maxValue - h.minValue) / float64(len(h.buckets))
}

// BucketValue returns the count of a bucket. Out-of-range ids count as zero.
func (h *Histogram) BucketValue(id int) uint64 {
	if id < 0 || id >= len(h.buckets) {
		return 0
	}
	return h.buckets[id]
}

// Buckets returns a copy of the bucket counters.
func (h *Histogram) Buckets() []uint64 {
	out := make([]uint64, len(h.buckets))
	copy(out, h.buckets)
	return out
}

// Midpoint is the center of bucket id, used as its weight.
func (h *Histogram) Midpoint(id int) float64 {
	return (float64(id) + 0.5) * h.BucketStep()
}

// UsedRange returns the inclusive span of buckets incremented since the last
// clear. ok is false until a valid value has been counted.
func (h *Histogram) UsedRange() (lo, hi int, ok bool) {
	if h.usedMax < 0 {
		return 0, 0, false
	}
	return h.usedMin, h.usedMax, true
}
