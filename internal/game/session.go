package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"voxelmesh/internal/config"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/metrics"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/registry"
	"voxelmesh/internal/scene"
	"voxelmesh/internal/view"
	"voxelmesh/internal/world"
)

const evictEvery = 750 * time.Millisecond

// Session wires the mesh pipeline for one world: chunk store, generator,
// build queue, worker pool, scene and draw list. Apart from Start and Close
// its methods belong to the render goroutine.
type Session struct {
	Settings *config.Store
	Content  *registry.Manager
	Store    *world.Store
	Metrics  *metrics.Pipeline
	Queue    *meshing.Queue
	Pool     *meshing.WorkerPool
	Scene    *scene.Scene
	DrawList *scene.DrawList

	// ResultsPerFrame bounds how many finished meshes Tick swaps in.
	ResultsPerFrame int

	generator    *world.Generator
	world        config.WorldSettings
	lastEviction time.Duration
}

// NewSession builds the pipeline from the current settings. Metrics are
// registered on reg when it is non-nil. The pool is not started.
func NewSession(settings *config.Store, content *registry.Manager, reg prometheus.Registerer) (*Session, error) {
	s := settings.Get()
	palette, err := content.Palette()
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	m := metrics.New(reg)
	store := world.NewStore()
	gen := world.NewGenerator(s.World.Seed, palette)
	gen.SetSeaLevel(s.World.SeaLevel)

	q := meshing.NewQueue(store, s.Mesh.MeshChunk, m)
	pool := meshing.NewWorkerPool(q, meshing.NewBuilder(content, meshing.OptionsFrom(s.Mesh)), s.Mesh.Workers, m)
	sc := scene.New(store, content, q, pool, m)
	sc.ApplySettings(s)

	sess := &Session{
		Settings:        settings,
		Content:         content,
		Store:           store,
		Metrics:         m,
		Queue:           q,
		Pool:            pool,
		Scene:           sc,
		DrawList:        scene.NewDrawList(sc, s.Render, m),
		ResultsPerFrame: 32,
		generator:       gen,
		world:           s.World,
	}
	// Set is only called from the render goroutine.
	settings.Subscribe(sess.applySettings)
	return sess, nil
}

func (s *Session) applySettings(settings config.Settings) {
	s.Scene.ApplySettings(settings)
	s.DrawList.ApplySettings(settings.Render)
	s.world.Radius = settings.World.Radius
}

// Start launches the mesh workers.
func (s *Session) Start(ctx context.Context) {
	s.Pool.Start(ctx)
}

// Stream generates the missing chunks within the world radius of center
// and queues them and their loaded neighbours for meshing. It returns the
// number of chunks generated.
func (s *Session) Stream(center world.ChunkCoord) int {
	defer profiling.Track("world.Stream")()
	r := s.world.Radius
	var fresh []world.ChunkCoord
	for z := center.Z - r; z <= center.Z+r; z++ {
		for x := center.X - r; x <= center.X+r; x++ {
			for y := -1; y <= s.world.Height-2; y++ {
				c := world.ChunkCoord{X: x, Y: y, Z: z}
				if s.Store.Has(c) {
					continue
				}
				s.generator.Generate(s.Store, c, c)
				fresh = append(fresh, c)
			}
		}
	}
	for _, c := range fresh {
		_ = s.Scene.RequestUpdate(c, false, false)
		for f := range world.FaceCount {
			n := c.Add(world.Face(f).Step())
			if s.Store.Has(n) {
				_ = s.Scene.RequestUpdate(n, false, false)
			}
		}
	}
	return len(fresh)
}

// HeightAt returns the generated surface height at a world column.
func (s *Session) HeightAt(x, z int) int {
	return s.generator.HeightAt(x, z)
}

// Tick applies finished meshes, evicts far chunks now and then, refreshes
// the draw list for cam and returns the frame to draw.
func (s *Session) Tick(cam *view.Camera, now time.Duration, dayNightRatio int) scene.Frame {
	s.Scene.ApplyResults(s.ResultsPerFrame)
	if now-s.lastEviction >= evictEvery {
		s.lastEviction = now
		if n := s.Store.EvictFar(cam.Chunk(), s.world.Radius+2); n > 0 {
			pruned := s.Scene.Prune()
			log.Printf("world: evicted %d chunks, dropped %d meshes", n, pruned)
		}
	}
	s.DrawList.Update(cam, false)
	return s.DrawList.Frame(cam, now, dayNightRatio)
}

// SetNode edits one node and queues every affected cell urgently.
func (s *Session) SetNode(pos world.NodePos, n world.Node) int {
	if len(s.Store.SetNode(pos, n)) == 0 {
		return 0
	}
	return s.Scene.NodeChanged(pos)
}

// WaitIdle applies results until nothing is pending, building or waiting.
func (s *Session) WaitIdle(ctx context.Context) error {
	t := time.NewTicker(5 * time.Millisecond)
	defer t.Stop()
	for {
		s.Scene.ApplyResults(0)
		if s.Scene.Idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for mesh pipeline: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// Close stops the workers, drops pending requests and releases the draw
// list pins. It returns the first fatal build error.
func (s *Session) Close() error {
	err := s.Pool.Stop()
	s.Queue.Close()
	s.DrawList.Release()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
