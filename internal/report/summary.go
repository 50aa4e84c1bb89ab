package report

import (
	"bytes"
	"fmt"

	"flip-pooling/internal/processing/pooling"

	"github.com/gwenn/yacr"
)

const (
	medianPercent        = 0.5
	firstQuartilePercent = 0.25
	thirdQuartilePercent = 0.75
)

var summaryHeader = []interface{}{
	"Mean", "Weighted median", "1st weighted quartile", "3rd weighted quartile",
	"Min value", "MinPosX", "MinPosY", "Max value", "MaxPosX", "MaxPosY",
}

// Summary is a point-in-time snapshot of the pooled statistics.
type Summary struct {
	Count                 uint64
	Mean                  float64
	StdDev                float64
	WeightedMedian        float64
	FirstWeightedQuartile float64
	ThirdWeightedQuartile float64
	CenterOfGravity       float64
	Min                   float64
	MinCoord              pooling.Coord
	Max                   float64
	MaxCoord              pooling.Coord
}

// Summarize reads the statistics permissively: an empty pool yields NaN
// fields rather than an error.
func Summarize(p *pooling.Pooling) Summary {
	return Summary{
		Count:                 p.Count(),
		Mean:                  p.Mean(),
		StdDev:                p.StdDev(),
		WeightedMedian:        p.WeightedPercentile(medianPercent),
		FirstWeightedQuartile: p.WeightedPercentile(firstQuartilePercent),
		ThirdWeightedQuartile: p.WeightedPercentile(thirdQuartilePercent),
		CenterOfGravity:       p.CenterOfGravity(),
		Min:                   p.Min(),
		MinCoord:              p.MinCoord(),
		Max:                   p.Max(),
		MaxCoord:              p.MaxCoord(),
	}
}

// SummarizeChecked is Summarize through the strict view; it fails instead of
// producing non-finite values.
func SummarizeChecked(p *pooling.Pooling) (Summary, error) {
	c := p.Checked()
	s := Summary{
		Count:    p.Count(),
		Min:      p.Min(),
		MinCoord: p.MinCoord(),
		Max:      p.Max(),
		MaxCoord: p.MaxCoord(),
	}

	var err error
	if s.Mean, err = c.Mean(); err != nil {
		return Summary{}, fmt.Errorf("mean: %w", err)
	}
	if s.StdDev, err = c.StdDev(); err != nil {
		return Summary{}, fmt.Errorf("standard deviation: %w", err)
	}
	if s.WeightedMedian, err = c.WeightedPercentile(medianPercent); err != nil {
		return Summary{}, fmt.Errorf("weighted median: %w", err)
	}
	if s.FirstWeightedQuartile, err = c.WeightedPercentile(firstQuartilePercent); err != nil {
		return Summary{}, fmt.Errorf("1st weighted quartile: %w", err)
	}
	if s.ThirdWeightedQuartile, err = c.WeightedPercentile(thirdQuartilePercent); err != nil {
		return Summary{}, fmt.Errorf("3rd weighted quartile: %w", err)
	}
	if s.CenterOfGravity, err = c.CenterOfGravity(); err != nil {
		return Summary{}, fmt.Errorf("center of gravity: %w", err)
	}

	return s, nil
}

// String renders p as one human-readable line (verbose) or as a two-row
// semicolon table.
func String(p *pooling.Pooling, verbose bool) string {
	return Summarize(p).Format(verbose)
}

func (s Summary) Format(verbose bool) string {
	if verbose {
		return fmt.Sprintf("Mean = %.5f, Weighted median = %.5f, 1st weighted quartile = %.5f, 3rd weighted quartile = %.5f, Min value = %.5f @ (%d,%d), Max value = %.5f @ (%d,%d)\n",
			s.Mean, s.WeightedMedian, s.FirstWeightedQuartile, s.ThirdWeightedQuartile,
			s.Min, s.MinCoord.X, s.MinCoord.Y, s.Max, s.MaxCoord.X, s.MaxCoord.Y)
	}

	var buf bytes.Buffer
	w := yacr.NewWriter(&buf, ';', true)
	s.writeTable(w)
	w.Flush()
	return buf.String()
}

func (s Summary) writeTable(w *yacr.Writer) {
	w.WriteRecord(summaryHeader...)
	w.WriteRecord(
		fixed5(s.Mean), fixed5(s.WeightedMedian), fixed5(s.FirstWeightedQuartile), fixed5(s.ThirdWeightedQuartile),
		fixed5(s.Min), s.MinCoord.X, s.MinCoord.Y,
		fixed5(s.Max), s.MaxCoord.X, s.MaxCoord.Y,
	)
}

func fixed5(v float64) string {
	return fmt.Sprintf("%.5f", v)
}
