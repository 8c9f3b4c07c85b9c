package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxelmesh"

// Pipeline holds the collectors for the mesh pipeline and the draw list.
// A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	queueLen      prometheus.Gauge
	inflight      prometheus.Gauge
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	dropped       prometheus.Counter
	rejected      prometheus.Counter
	drawList      prometheus.Gauge
	mergeCache    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. A nil reg leaves
// them unregistered, which keeps tests independent of the global registry.
func New(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		queueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "queue_length",
			Help:      "Build requests waiting in the queue.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "builds_inflight",
			Help:      "Builds currently running on workers.",
		}),
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "builds_total",
			Help:      "Completed builds by urgency.",
		}, []string{"urgency"}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "build_duration_seconds",
			Help:      "Time spent building one mesh cell.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "results_dropped_total",
			Help:      "Finished meshes discarded because their chunks were unloaded.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mesh",
			Name:      "requests_rejected_total",
			Help:      "Enqueues rejected because no chunk was loaded.",
		}),
		drawList: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scene",
			Name:      "drawlist_chunks",
			Help:      "Chunks in the active draw list.",
		}),
		mergeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scene",
			Name:      "merge_cache_lookups_total",
			Help:      "Merged buffer cache lookups by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(p.queueLen, p.inflight, p.builds, p.buildDuration,
			p.dropped, p.rejected, p.drawList, p.mergeCache)
	}
	return p
}

// QueueLength records the number of pending requests.
func (p *Pipeline) QueueLength(n int) {
	if p == nil {
		return
	}
	p.queueLen.Set(float64(n))
}

// BuildStarted marks a worker picking up a request.
func (p *Pipeline) BuildStarted() {
	if p == nil {
		return
	}
	p.inflight.Inc()
}

// BuildFinished records a completed build.
func (p *Pipeline) BuildFinished(urgent bool, d time.Duration) {
	if p == nil {
		return
	}
	p.inflight.Dec()
	label := "normal"
	if urgent {
		label = "urgent"
	}
	p.builds.WithLabelValues(label).Inc()
	p.buildDuration.Observe(d.Seconds())
}

// ResultDropped counts a stale result.
func (p *Pipeline) ResultDropped() {
	if p == nil {
		return
	}
	p.dropped.Inc()
}

// RequestRejected counts an enqueue for an unloaded chunk.
func (p *Pipeline) RequestRejected() {
	if p == nil {
		return
	}
	p.rejected.Inc()
}

// DrawListSize records the number of chunks selected for drawing.
func (p *Pipeline) DrawListSize(n int) {
	if p == nil {
		return
	}
	p.drawList.Set(float64(n))
}

// MergeCacheLookup counts a merged-buffer cache hit or miss.
func (p *Pipeline) MergeCacheLookup(hit bool) {
	if p == nil {
		return
	}
	if hit {
		p.mergeCache.WithLabelValues("hit").Inc()
		return
	}
	p.mergeCache.WithLabelValues("miss").Inc()
}
