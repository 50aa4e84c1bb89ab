package pipeline

import (
	"fmt"

	"flip-pooling/internal/config"
)

// loadJob resolves the map to pool for job: the precomputed error map when one
// is given, otherwise the luminance difference of the reference and test
// images. The reference map is cached across jobs that share it.
func (c *Coordinator) loadJob(job config.Job) (Map, error) {
	ctx := c.timingTracker.StartTiming("load")
	defer c.timingTracker.EndTiming(ctx)

	if job.ErrorMap != "" {
		m, err := c.loader.LoadErrorMap(job.ErrorMap)
		if err != nil {
			return nil, fmt.Errorf("failed to load error map: %w", err)
		}
		return m, nil
	}

	reference, err := c.reference(job.Reference)
	if err != nil {
		return nil, err
	}

	test, err := c.loader.LoadLuminance(job.Test)
	if err != nil {
		return nil, fmt.Errorf("failed to load test image: %w", err)
	}

	diff, err := DifferenceMap(reference, test)
	if err != nil {
		return nil, fmt.Errorf("failed to compare %s and %s: %w", job.Reference, job.Test, err)
	}
	return diff, nil
}

func (c *Coordinator) reference(path string) (Map, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.referenceMap != nil && c.referencePath == path {
		return c.referenceMap, nil
	}

	m, err := c.loader.LoadLuminance(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference image: %w", err)
	}

	c.referencePath = path
	c.referenceMap = m
	return m, nil
}
