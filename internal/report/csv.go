package report

import (
	"fmt"
	"io"

	"flip-pooling/internal/processing/pooling"

	"github.com/gwenn/yacr"
)

const megapixel = 1024 * 1024

// WriteCSV writes the statistics file: a comment naming the compared images,
// the summary table, the used bucket range and the histogram rows. Histogram
// rows end with a separator, as the FLIP tools expect.
func WriteCSV(w io.Writer, p *pooling.Pooling, opts Options) error {
	h := p.Histogram()

	// The title line is a comment and must not be quoted.
	if _, err := fmt.Fprintf(w, "#  FLIP pooling statistics for <%s> vs. <%s>\n", opts.ReferenceName, opts.TestName); err != nil {
		return err
	}

	cw := yacr.NewWriter(w, ';', true)
	Summarize(p).writeTable(cw)

	cw.WriteRecord("#  histogram")
	cw.WriteRecord("Min bucket", "Max bucket")
	if lo, hi, ok := h.UsedRange(); ok {
		cw.WriteRecord(lo, hi)
	} else {
		cw.WriteRecord(nil, nil)
	}

	n := h.Size()
	ids := make([]interface{}, 0, n+2)
	counts := make([]interface{}, 0, n+2)
	weights := make([]interface{}, 0, n+2)
	perMegapixel := make([]interface{}, 0, n+2)

	ids = append(ids, "Bucket no")
	counts = append(counts, "Count")
	weights = append(weights, "Weight")
	perMegapixel = append(perMegapixel, "Weighted bucket count per megapixel")

	scale := megapixel / float64(opts.Width*opts.Height)
	for id := 0; id < n; id++ {
		c := float64(h.BucketValue(id))
		weight := h.Midpoint(id)
		ids = append(ids, id)
		counts = append(counts, c)
		weights = append(weights, weight)
		perMegapixel = append(perMegapixel, weight*c*scale)
	}

	for _, row := range [][]interface{}{ids, counts, weights, perMegapixel} {
		cw.WriteRecord(append(row, nil)...)
	}

	cw.Flush()
	return cw.Err()
}
