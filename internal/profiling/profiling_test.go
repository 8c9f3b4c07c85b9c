package profiling

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackAccumulates(t *testing.T) {
	Reset()
	for i := 0; i < 3; i++ {
		stop := Track("test.Op")
		time.Sleep(time.Millisecond)
		stop()
	}
	snap := Snapshot()
	require.Contains(t, snap, "test.Op")
	assert.Equal(t, 3, snap["test.Op"].Calls)
	assert.GreaterOrEqual(t, snap["test.Op"].Total, 3*time.Millisecond)
}

func TestResetFrameSmooths(t *testing.T) {
	Reset()
	stop := Track("test.Slow")
	time.Sleep(2 * time.Millisecond)
	stop()
	ResetFrame()

	assert.Empty(t, Snapshot())
	assert.Equal(t, uint64(1), Frames())
	first := Average("test.Slow")
	assert.GreaterOrEqual(t, first, 2*time.Millisecond)

	ResetFrame()
	assert.Less(t, Average("test.Slow"), first, "idle frames decay the average")
}

func TestTopNOrder(t *testing.T) {
	Reset()
	mu.Lock()
	smoothed["a"] = float64(time.Millisecond)
	smoothed["b"] = float64(3 * time.Millisecond)
	smoothed["c"] = float64(2 * time.Millisecond)
	mu.Unlock()

	out := TopN(2)
	assert.Equal(t, "b:3.0ms, c:2.0ms", out)
	assert.Equal(t, 3, len(strings.Split(TopN(10), ", ")))
}
