package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilPipelineIsSafe(t *testing.T) {
	var p *Pipeline
	assert.NotPanics(t, func() {
		p.QueueLength(3)
		p.BuildStarted()
		p.BuildFinished(true, time.Millisecond)
		p.ResultDropped()
		p.RequestRejected()
		p.DrawListSize(10)
		p.MergeCacheLookup(true)
	})
}

func TestPipelineRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := New(reg)

	p.QueueLength(4)
	p.BuildStarted()
	p.BuildStarted()
	p.BuildFinished(true, 2*time.Millisecond)
	p.MergeCacheLookup(false)
	p.MergeCacheLookup(true)
	p.MergeCacheLookup(true)

	assert.Equal(t, 4.0, testutil.ToFloat64(p.queueLen))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.inflight))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.builds.WithLabelValues("urgent")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.builds.WithLabelValues("normal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.mergeCache.WithLabelValues("hit")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "voxelmesh_mesh_build_duration_seconds")
	assert.Contains(t, names, "voxelmesh_scene_merge_cache_lookups_total")
}
