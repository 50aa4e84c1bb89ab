package pipeline

import (
	"fmt"

	"flip-pooling/internal/config"
	"flip-pooling/internal/processing/pooling"
	"flip-pooling/internal/report"
)

// publish prints the summary for job and writes its report files. In strict
// mode an undefined statistic fails the job before anything is written.
func (c *Coordinator) publish(p *pooling.Pooling, cfg *config.Config, job config.Job, width, height int) error {
	ctx := c.timingTracker.StartTiming("report")
	defer c.timingTracker.EndTiming(ctx)

	summary := report.Summarize(p)
	if cfg.Strict {
		checked, err := report.SummarizeChecked(p)
		if err != nil {
			return fmt.Errorf("undefined statistic: %w", err)
		}
		summary = checked
	}

	if _, err := fmt.Fprint(c.out, summary.Format(cfg.Verbose)); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	opts := report.Options{
		BasePath:      job.BasePath,
		PPD:           cfg.PPD,
		Width:         width,
		Height:        height,
		Verbose:       cfg.Verbose,
		LogScale:      cfg.LogScale,
		JSON:          cfg.JSON,
		ReferenceName: job.ReferenceName,
		TestName:      job.TestName,
	}

	if err := c.reporter.Save(p, opts); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	c.logger.Info("Saver", "report written", map[string]interface{}{
		"base": job.BasePath,
		"json": cfg.JSON,
	})
	return nil
}
