package timing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu      sync.Mutex
	debug   []map[string]interface{}
	summary []map[string]interface{}
}

func (r *recordingLogger) Debug(component, message string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debug = append(r.debug, fields)
}

func (r *recordingLogger) Info(component, message string, fields map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary = append(r.summary, fields)
}

func fakeClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Unix(0, 0)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestTrackerRecordsDurations(t *testing.T) {
	log := &recordingLogger{}
	tr := NewTracker(log)
	tr.now = fakeClock(10 * time.Millisecond)

	for range 3 {
		tr.EndTiming(tr.StartTiming("load"))
	}

	timings := tr.GetTimings("load")
	require.Len(t, timings, 3)
	assert.Equal(t, 10*time.Millisecond, timings[0])
	assert.Equal(t, 10*time.Millisecond, tr.GetAverageTime("load"))
	assert.Len(t, log.debug, 3)
	assert.Equal(t, "load", log.debug[0]["operation"])
}

func TestTrackerIgnoresForeignContext(t *testing.T) {
	tr := NewTracker(nil)
	tr.EndTiming(context.Background())
	assert.Nil(t, tr.GetTimings("load"))
	assert.Zero(t, tr.GetAverageTime("load"))
}

func TestTrackerDisabled(t *testing.T) {
	tr := NewTracker(nil)
	tr.SetEnabled(false)
	tr.EndTiming(tr.StartTiming("load"))
	assert.Nil(t, tr.GetTimings("load"))
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(nil)
	tr.EndTiming(tr.StartTiming("load"))
	tr.EndTiming(tr.StartTiming("report"))

	tr.Reset("load")
	assert.Nil(t, tr.GetTimings("load"))
	assert.Len(t, tr.GetTimings("report"), 1)

	tr.Reset("")
	assert.Nil(t, tr.GetTimings("report"))
}

func TestTrackerShutdownSummarizes(t *testing.T) {
	log := &recordingLogger{}
	tr := NewTracker(log)
	tr.now = fakeClock(time.Millisecond)

	tr.EndTiming(tr.StartTiming("report"))
	tr.EndTiming(tr.StartTiming("accumulate"))
	tr.EndTiming(tr.StartTiming("accumulate"))
	tr.Shutdown()

	require.Len(t, log.summary, 2)
	assert.Equal(t, "accumulate", log.summary[0]["operation"])
	assert.Equal(t, 2, log.summary[0]["calls"])
	assert.Equal(t, "report", log.summary[1]["operation"])
}

func TestTrackerConcurrentUse(t *testing.T) {
	tr := NewTracker(nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.EndTiming(tr.StartTiming("band"))
		}()
	}
	wg.Wait()

	assert.Len(t, tr.GetTimings("band"), 8)
}
