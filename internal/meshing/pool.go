package meshing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"voxelmesh/internal/metrics"
	"voxelmesh/internal/world"
)

// MeshBuilder turns a popped request into a mesh.
type MeshBuilder interface {
	Build(req *BuildRequest) (*ChunkMesh, error)
}

// Result is a finished build waiting for the render goroutine.
type Result struct {
	Coord     world.ChunkCoord
	Mesh      *ChunkMesh
	AckCoords []world.ChunkCoord
	Urgent    bool
	Seq       uint64
}

// DefaultWorkers returns a third of the logical cores, at least one.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, n/3)
}

// WorkerPool runs a fixed number of goroutines that pop requests from a
// Queue, build them and publish the results. The queue's in-flight set keeps
// two workers from ever building the same cell.
type WorkerPool struct {
	queue   *Queue
	workers int
	metrics *metrics.Pipeline
	tracer  trace.Tracer

	builderMu sync.RWMutex
	builder   MeshBuilder

	resultsMu sync.Mutex
	urgent    []Result
	normal    []Result

	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewWorkerPool creates a pool; workers <= 0 picks DefaultWorkers. m may be nil.
func NewWorkerPool(queue *Queue, builder MeshBuilder, workers int, m *metrics.Pipeline) *WorkerPool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &WorkerPool{
		queue:   queue,
		builder: builder,
		workers: workers,
		metrics: m,
		tracer:  otel.Tracer("voxelmesh/meshing"),
	}
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// SetBuilder replaces the builder used for builds started from now on.
func (p *WorkerPool) SetBuilder(b MeshBuilder) {
	p.builderMu.Lock()
	p.builder = b
	p.builderMu.Unlock()
}

func (p *WorkerPool) currentBuilder() MeshBuilder {
	p.builderMu.RLock()
	defer p.builderMu.RUnlock()
	return p.builder
}

// Start launches the workers. They run until ctx is cancelled, Stop is
// called, the queue is closed or a build fails fatally.
func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)
	for id := range p.workers {
		p.group.Go(func() error { return p.worker(ctx, id) })
	}
	log.Printf("meshing: started %d workers", p.workers)
}

func (p *WorkerPool) worker(ctx context.Context, id int) error {
	for {
		req, err := p.queue.PopWait(ctx)
		if err != nil {
			// Cancellation and queue shutdown both end the worker quietly.
			return nil
		}
		if err := p.run(ctx, id, req); err != nil {
			return err
		}
	}
}

func (p *WorkerPool) run(ctx context.Context, id int, req *BuildRequest) error {
	defer p.queue.Done(req)

	_, span := p.tracer.Start(ctx, "meshing.Build", trace.WithAttributes(
		attribute.Int("worker", id),
		attribute.Int("cell.x", req.Coord.X),
		attribute.Int("cell.y", req.Coord.Y),
		attribute.Int("cell.z", req.Coord.Z),
		attribute.Bool("urgent", req.Urgent),
	))
	defer span.End()

	p.metrics.BuildStarted()
	start := time.Now()
	mesh, err := p.currentBuilder().Build(req)
	p.metrics.BuildFinished(req.Urgent, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrCorruptBuffer) {
			log.Printf("meshing: worker %d: fatal: %v", id, err)
			return fmt.Errorf("worker %d: build %v: %w", id, req.Coord, err)
		}
		log.Printf("meshing: worker %d: build %v: %v", id, req.Coord, err)
		mesh = nil
	}
	if mesh == nil {
		mesh = &ChunkMesh{Coord: req.Coord}
	}

	p.publish(Result{
		Coord:     req.Coord,
		Mesh:      mesh,
		AckCoords: req.AckCoords,
		Urgent:    req.Urgent,
		Seq:       req.Seq,
	})
	return nil
}

func (p *WorkerPool) publish(r Result) {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	if r.Urgent {
		p.urgent = append(p.urgent, r)
		return
	}
	p.normal = append(p.normal, r)
}

// Next pops a finished result, urgent ones first.
func (p *WorkerPool) Next() (Result, bool) {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	if len(p.urgent) > 0 {
		r := p.urgent[0]
		p.urgent[0] = Result{}
		p.urgent = p.urgent[1:]
		return r, true
	}
	if len(p.normal) > 0 {
		r := p.normal[0]
		p.normal[0] = Result{}
		p.normal = p.normal[1:]
		return r, true
	}
	return Result{}, false
}

// Ready returns the number of results waiting for Next.
func (p *WorkerPool) Ready() int {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()
	return len(p.urgent) + len(p.normal)
}

// Stop asks the workers to exit after their current build, waits for them
// and returns the first fatal build error.
func (p *WorkerPool) Stop() error {
	if p.group == nil {
		return nil
	}
	p.cancel()
	err := p.group.Wait()
	p.group = nil
	if err != nil {
		return fmt.Errorf("mesh worker pool: %w", err)
	}
	log.Printf("meshing: workers stopped")
	return nil
}
