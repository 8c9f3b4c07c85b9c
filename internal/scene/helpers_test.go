package scene

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voxelmesh/internal/config"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/registry"
	"voxelmesh/internal/world"
)

var sunAir = world.NewNode(world.ContentAir, world.LightSun, 0)

func contentID(t testing.TB, m *registry.Manager, name string) world.ContentID {
	t.Helper()
	id, ok := m.ID(name)
	require.True(t, ok, name)
	return id
}

func fillChunks(s *world.Store, min, max world.ChunkCoord, n world.Node) {
	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				c := world.NewChunk(world.ChunkCoord{X: x, Y: y, Z: z})
				c.Fill(n)
				s.Put(c)
			}
		}
	}
}

func meshOptions() meshing.Options {
	return meshing.OptionsFrom(config.Default().Mesh)
}

type fixture struct {
	content *registry.Manager
	store   *world.Store
	queue   *meshing.Queue
	pool    *meshing.WorkerPool
	builder *meshing.Builder
	scene   *Scene
}

// newFixture wires a scene whose pool is not started; tests either start
// it or install meshes with build.
func newFixture(t testing.TB, store *world.Store) *fixture {
	t.Helper()
	content := registry.Default()
	b := meshing.NewBuilder(content, meshOptions())
	q := meshing.NewQueue(store, 1, nil)
	p := meshing.NewWorkerPool(q, b, 2, nil)
	return &fixture{
		content: content,
		store:   store,
		queue:   q,
		pool:    p,
		builder: b,
		scene:   New(store, content, q, p, nil),
	}
}

// build meshes cells synchronously and installs the results.
func (f *fixture) build(t testing.TB, cells ...world.ChunkCoord) {
	t.Helper()
	for _, c := range cells {
		m, err := f.builder.BuildSnapshot(f.store.Snapshot(c, 1), nil)
		require.NoError(t, err)
		f.scene.meshes[c] = m
		f.scene.changed[c] = struct{}{}
	}
}

// buildBox meshes every cell in the inclusive box.
func (f *fixture) buildBox(t testing.TB, min, max world.ChunkCoord) {
	t.Helper()
	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				f.build(t, world.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}
}

func renderSettings() config.RenderSettings {
	r := config.Default().Render
	r.ViewRange = 40
	r.OcclusionCulling = false
	return r
}
