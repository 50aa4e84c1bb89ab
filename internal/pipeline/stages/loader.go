package stages

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"flip-pooling/internal/logger"
	"flip-pooling/internal/opencv/safe"
	"flip-pooling/internal/pipeline"

	"gocv.io/x/gocv"
)

// readFlags keeps the source bit depth and collapses color to luminance.
const readFlags = gocv.IMReadGrayScale | gocv.IMReadAnyDepth

// Loader reads maps through OpenCV and hands them to the pipeline as Grids.
type Loader struct {
	logger        pipeline.Logger
	timingTracker pipeline.TimingTracker
}

type noTiming struct{}

func (noTiming) StartTiming(string) context.Context { return context.Background() }
func (noTiming) EndTiming(context.Context)          {}

func NewLoader(log pipeline.Logger, timing pipeline.TimingTracker) *Loader {
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if timing == nil {
		timing = noTiming{}
	}
	return &Loader{
		logger:        log,
		timingTracker: timing,
	}
}

func (l *Loader) LoadErrorMap(path string) (pipeline.Map, error) {
	return l.load(path, "load_error_map")
}

func (l *Loader) LoadLuminance(path string) (pipeline.Map, error) {
	return l.load(path, "load_luminance")
}

func (l *Loader) load(path, operation string) (*pipeline.Grid, error) {
	ctx := l.timingTracker.StartTiming(operation)
	defer l.timingTracker.EndTiming(ctx)

	mat, err := safe.Read(path, readFlags)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if err := safe.ValidateMatForOperation(mat, operation); err != nil {
		return nil, err
	}

	scale, err := safe.UnitScale(mat.Type(), operation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	unit, err := mat.ConvertTo(gocv.MatTypeCV32F, scale)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", path, err)
	}
	defer unit.Close()

	data, err := unit.Float32Data()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}

	grid, err := pipeline.GridFrom(unit.Cols(), unit.Rows(), values)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("Loader", "map loaded", map[string]interface{}{
		"path":   path,
		"format": strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		"width":  grid.Width(),
		"height": grid.Height(),
		"scale":  scale,
	})

	return grid, nil
}
