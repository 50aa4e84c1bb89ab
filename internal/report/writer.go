package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"flip-pooling/internal/logger"
	"flip-pooling/internal/processing/pooling"

	"go.uber.org/multierr"
)

// ErrInvalidDimensions is returned when the image area needed for the
// per-megapixel normalization is not positive.
var ErrInvalidDimensions = errors.New("image dimensions must be positive")

// Options carries what the report needs beyond the pooled statistics.
type Options struct {
	BasePath      string
	PPD           float64
	Width         int
	Height        int
	Verbose       bool
	LogScale      bool
	JSON          bool
	ReferenceName string
	TestName      string
}

type Writer struct {
	logger logger.Logger
}

func NewWriter(log logger.Logger) *Writer {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	return &Writer{logger: log}
}

// Save writes <base>.csv and <base>.py, plus <base>.json when requested. Each
// artifact is attempted even if an earlier one fails; all failures are
// returned together.
func (w *Writer) Save(p *pooling.Pooling, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, opts.Width, opts.Height)
	}

	csvPath := opts.BasePath + ".csv"
	scriptPath := opts.BasePath + ".py"

	if opts.Verbose {
		w.logger.Info("Report", "writing metric histogram", map[string]interface{}{
			"csv":        csvPath,
			"script":     scriptPath,
			"resolution": fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		})
		w.logHistogram(p)
	}

	var err error
	err = multierr.Append(err, writeFile(csvPath, func(f io.Writer) error { return WriteCSV(f, p, opts) }))
	err = multierr.Append(err, writeFile(scriptPath, func(f io.Writer) error { return WriteScript(f, p, opts) }))
	if opts.JSON {
		err = multierr.Append(err, writeFile(opts.BasePath+".json", func(f io.Writer) error { return WriteJSON(f, p, opts) }))
	}

	return err
}

func (w *Writer) logHistogram(p *pooling.Pooling) {
	h := p.Histogram()
	lo, hi, _ := h.UsedRange()
	w.logger.Info("Report", "histogram", map[string]interface{}{
		"bucket_size":  h.BucketSize(),
		"range_min":    lo,
		"range_max":    hi,
		"out_of_range": h.ErrorCount(),
	})
	for id := 0; id < h.Size(); id++ {
		w.logger.Debug("Report", "bucket count", map[string]interface{}{
			"bucket": id,
			"count":  h.BucketValue(id),
		})
	}
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))

	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
