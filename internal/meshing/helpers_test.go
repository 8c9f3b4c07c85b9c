package meshing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"voxelmesh/internal/registry"
	"voxelmesh/internal/world"
)

type testIDs struct {
	stone, water, grass, leaves, glass world.ContentID
}

func testContent(t testing.TB) (*registry.Manager, testIDs) {
	t.Helper()
	m := registry.Default()
	var ids testIDs
	for name, dst := range map[string]*world.ContentID{
		"stone":         &ids.stone,
		"water_still":   &ids.water,
		"grass":         &ids.grass,
		"leaves":        &ids.leaves,
		"stained_glass": &ids.glass,
	} {
		id, ok := m.ID(name)
		require.True(t, ok, name)
		*dst = id
	}
	return m, ids
}

func testOptions() Options {
	return Options{
		SmoothLighting:        true,
		GreedyMeshing:         true,
		TranslucentSorting:    true,
		AmbientOcclusionGamma: 1,
		LightGamma:            1,
	}
}

var sunAir = world.NewNode(world.ContentAir, world.LightSun, 0)

// airChunks stores sunlit air chunks over the inclusive box [min, max].
func airChunks(s *world.Store, min, max world.ChunkCoord) {
	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				c := world.NewChunk(world.ChunkCoord{X: x, Y: y, Z: z})
				c.Fill(sunAir)
				s.Put(c)
			}
		}
	}
}

func buildCell(t testing.TB, b *Builder, s *world.Store, cell world.ChunkCoord, overlay *Overlay) *ChunkMesh {
	t.Helper()
	m, err := b.BuildSnapshot(s.Snapshot(cell, 1), overlay)
	require.NoError(t, err)
	return m
}

type quad struct {
	normal mgl32.Vec3
	verts  []Vertex
}

// quads splits a buffer back into its faces.
func quads(b *MeshBuffer) []quad {
	var out []quad
	for i := 0; i+3 < len(b.Vertices); i += 4 {
		out = append(out, quad{normal: b.Vertices[i].Normal, verts: b.Vertices[i : i+4]})
	}
	return out
}

func allQuads(m *ChunkMesh, layer int) []quad {
	var out []quad
	for _, b := range m.Layers[layer] {
		out = append(out, quads(b)...)
	}
	return out
}
