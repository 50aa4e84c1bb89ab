package report

import (
	"io"
	"math"

	"flip-pooling/internal/processing/pooling"

	"github.com/goccy/go-json"
)

type jsonCoord struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// Non-finite statistics are encoded as null.
type jsonSummary struct {
	Count                 uint64    `json:"count"`
	Mean                  *float64  `json:"mean"`
	StdDev                *float64  `json:"stddev"`
	WeightedMedian        *float64  `json:"weighted_median"`
	FirstWeightedQuartile *float64  `json:"first_weighted_quartile"`
	ThirdWeightedQuartile *float64  `json:"third_weighted_quartile"`
	CenterOfGravity       *float64  `json:"center_of_gravity"`
	Min                   *float64  `json:"min"`
	MinCoord              jsonCoord `json:"min_coord"`
	Max                   *float64  `json:"max"`
	MaxCoord              jsonCoord `json:"max_coord"`
}

type jsonHistogram struct {
	MinValue   float64  `json:"min_value"`
	MaxValue   float64  `json:"max_value"`
	BucketSize float64  `json:"bucket_size"`
	UsedRange  []int    `json:"used_range,omitempty"`
	Counts     []uint64 `json:"counts"`
	Errors     uint64   `json:"out_of_range"`
}

type jsonReport struct {
	Reference string        `json:"reference"`
	Test      string        `json:"test"`
	PPD       float64       `json:"ppd"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	Summary   jsonSummary   `json:"summary"`
	Histogram jsonHistogram `json:"histogram"`
}

// WriteJSON writes the summary and the histogram counters as one JSON
// document.
func WriteJSON(w io.Writer, p *pooling.Pooling, opts Options) error {
	s := Summarize(p)
	h := p.Histogram()

	doc := jsonReport{
		Reference: opts.ReferenceName,
		Test:      opts.TestName,
		PPD:       opts.PPD,
		Width:     opts.Width,
		Height:    opts.Height,
		Summary: jsonSummary{
			Count:                 s.Count,
			Mean:                  finite(s.Mean),
			StdDev:                finite(s.StdDev),
			WeightedMedian:        finite(s.WeightedMedian),
			FirstWeightedQuartile: finite(s.FirstWeightedQuartile),
			ThirdWeightedQuartile: finite(s.ThirdWeightedQuartile),
			CenterOfGravity:       finite(s.CenterOfGravity),
			MinCoord:              jsonCoord{X: s.MinCoord.X, Y: s.MinCoord.Y},
			MaxCoord:              jsonCoord{X: s.MaxCoord.X, Y: s.MaxCoord.Y},
		},
		Histogram: jsonHistogram{
			MinValue:   h.MinValue(),
			MaxValue:   h.MaxValue(),
			BucketSize: h.BucketSize(),
			Counts:     h.Buckets(),
			Errors:     h.ErrorCount(),
		},
	}
	if s.Count > 0 {
		doc.Summary.Min = finite(s.Min)
		doc.Summary.Max = finite(s.Max)
	}
	if lo, hi, ok := h.UsedRange(); ok {
		doc.Histogram.UsedRange = []int{lo, hi}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
