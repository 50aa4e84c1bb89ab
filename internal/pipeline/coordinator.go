package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"flip-pooling/internal/config"
	"flip-pooling/internal/logger"
	"flip-pooling/internal/report"

	"go.uber.org/multierr"
)

// Coordinator runs every configured comparison: load, accumulate, publish.
type Coordinator struct {
	mu            sync.Mutex
	loader        MapLoader
	reporter      *report.Writer
	logger        Logger
	timingTracker TimingTracker
	out           io.Writer

	referencePath string
	referenceMap  Map
}

// NewCoordinator wires the stages. Nil collaborators fall back to no-ops, and
// a nil output to stdout.
func NewCoordinator(loader MapLoader, log Logger, timing TimingTracker, out io.Writer) *Coordinator {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if timing == nil {
		timing = noopTiming{}
	}
	if out == nil {
		out = os.Stdout
	}

	return &Coordinator{
		loader:        loader,
		reporter:      report.NewWriter(log),
		logger:        log,
		timingTracker: timing,
		out:           out,
	}
}

// Run processes the jobs in order. A failing job is logged and does not stop
// the others; all failures are returned together. Cancellation stops the run.
func (c *Coordinator) Run(ctx context.Context, cfg *config.Config) error {
	jobs := cfg.Jobs()
	c.logger.Info("Coordinator", "run started", map[string]interface{}{
		"jobs":    len(jobs),
		"buckets": cfg.Buckets,
		"workers": cfg.Workers,
	})

	var errs error
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, fmt.Errorf("run cancelled: %w", err))
		}

		if err := c.runJob(ctx, cfg, job); err != nil {
			c.logger.Error("Coordinator", err, map[string]interface{}{
				"job":  i,
				"test": job.TestName,
			})
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.TestName, err))
		}
	}

	c.logger.Info("Coordinator", "run finished", map[string]interface{}{
		"jobs":   len(jobs),
		"failed": len(multierr.Errors(errs)),
	})
	return errs
}

func (c *Coordinator) runJob(ctx context.Context, cfg *config.Config, job config.Job) error {
	m, err := c.loadJob(job)
	if err != nil {
		return err
	}

	width, height := cfg.Width, cfg.Height
	if width == 0 {
		width = m.Width()
	}
	if height == 0 {
		height = m.Height()
	}

	timingCtx := c.timingTracker.StartTiming("accumulate")
	p, err := Accumulate(ctx, m, cfg.Buckets, cfg.Workers)
	c.timingTracker.EndTiming(timingCtx)
	if err != nil {
		return err
	}

	c.logger.Debug("Coordinator", "map pooled", map[string]interface{}{
		"test":         job.TestName,
		"pixels":       p.Count(),
		"out_of_range": p.Histogram().ErrorCount(),
	})

	return c.publish(p, cfg, job, width, height)
}
