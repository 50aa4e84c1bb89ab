package timing

import (
	"context"
	"sort"
	"sync"
	"time"
)

type timingKey struct{}

// Logger receives a debug record for each completed timing.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
}

type TimingInfo struct {
	Operation string
	StartTime time.Time
}

// Tracker records stage durations per operation name.
type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
	logger  Logger
	enabled bool
	now     func() time.Time
}

func NewTracker(log Logger) *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		logger:  log,
		enabled: true,
		now:     time.Now,
	}
}

func (tt *Tracker) StartTiming(operation string) context.Context {
	if !tt.isEnabled() {
		return context.Background()
	}

	return context.WithValue(context.Background(), timingKey{}, TimingInfo{
		Operation: operation,
		StartTime: tt.now(),
	})
}

func (tt *Tracker) EndTiming(ctx context.Context) {
	if !tt.isEnabled() {
		return
	}

	info, ok := ctx.Value(timingKey{}).(TimingInfo)
	if !ok {
		return
	}

	duration := tt.now().Sub(info.StartTime)

	tt.mu.Lock()
	tt.timings[info.Operation] = append(tt.timings[info.Operation], duration)
	tt.mu.Unlock()

	if tt.logger != nil {
		tt.logger.Debug("Timing", "operation completed", map[string]interface{}{
			"operation": info.Operation,
			"duration":  duration.String(),
		})
	}
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

func (tt *Tracker) GetAverageTime(operation string) time.Duration {
	timings := tt.GetTimings(operation)
	if len(timings) == 0 {
		return 0
	}

	var total time.Duration
	for _, duration := range timings {
		total += duration
	}

	return total / time.Duration(len(timings))
}

func (tt *Tracker) SetEnabled(enabled bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.enabled = enabled
}

func (tt *Tracker) isEnabled() bool {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return tt.enabled
}

func (tt *Tracker) Reset(operation string) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if operation == "" {
		tt.timings = make(map[string][]time.Duration)
	} else {
		delete(tt.timings, operation)
	}
}

// Shutdown logs the per-operation totals collected during the run.
func (tt *Tracker) Shutdown() {
	if tt.logger == nil {
		return
	}

	tt.mu.RLock()
	operations := make([]string, 0, len(tt.timings))
	for operation := range tt.timings {
		operations = append(operations, operation)
	}
	tt.mu.RUnlock()
	sort.Strings(operations)

	for _, operation := range operations {
		timings := tt.GetTimings(operation)
		tt.logger.Info("Timing", "stage summary", map[string]interface{}{
			"operation": operation,
			"calls":     len(timings),
			"average":   tt.GetAverageTime(operation).String(),
		})
	}
}
