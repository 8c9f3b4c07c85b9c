package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU timing for the render loop and the pipeline stages it calls.
// Worker goroutines may Track too; their time lands in whatever frame is open.

// Sample is the accumulated time and call count of one name.
type Sample struct {
	Total time.Duration
	Calls int
}

const smoothing = 0.1

var (
	mu       sync.Mutex
	current  = make(map[string]Sample)
	smoothed = make(map[string]float64) // exponential moving average in ns
	frames   uint64
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("subsystem.Operation")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s := current[name]
		s.Total += d
		s.Calls++
		current[name] = s
		mu.Unlock()
	}
}

// ResetFrame closes the current frame, folds it into the running averages and
// starts a new one. Call once at the start of each frame.
func ResetFrame() {
	mu.Lock()
	defer mu.Unlock()
	for name, avg := range smoothed {
		if _, ok := current[name]; !ok {
			smoothed[name] = avg * (1 - smoothing)
		}
	}
	for name, s := range current {
		if avg, ok := smoothed[name]; ok {
			smoothed[name] = avg + smoothing*(float64(s.Total)-avg)
		} else {
			smoothed[name] = float64(s.Total)
		}
		delete(current, name)
	}
	frames++
}

// Frames returns how many frames have been closed.
func Frames() uint64 {
	mu.Lock()
	defer mu.Unlock()
	return frames
}

// Snapshot returns a copy of the open frame's samples.
func Snapshot() map[string]Sample {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]Sample, len(current))
	for k, v := range current {
		out[k] = v
	}
	return out
}

// Average returns the smoothed per-frame time of name.
func Average(name string) time.Duration {
	mu.Lock()
	defer mu.Unlock()
	return time.Duration(smoothed[name])
}

// TopN formats the n most expensive names by smoothed frame time.
// Example: "scene.DrawList.Update:4.2ms, meshing.Build:2.1ms"
func TopN(n int) string {
	mu.Lock()
	type entry struct {
		name string
		avg  float64
	}
	list := make([]entry, 0, len(smoothed))
	for k, v := range smoothed {
		list = append(list, entry{k, v})
	}
	mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		if list[i].avg != list[j].avg {
			return list[i].avg > list[j].avg
		}
		return list[i].name < list[j].name
	})
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		parts = append(parts, fmt.Sprintf("%s:%.1fms", e.name, e.avg/float64(time.Millisecond)))
	}
	return strings.Join(parts, ", ")
}

// Reset drops all state. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = make(map[string]Sample)
	smoothed = make(map[string]float64)
	frames = 0
}
