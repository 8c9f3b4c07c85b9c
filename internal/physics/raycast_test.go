package physics_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelmesh/internal/physics"
	"voxelmesh/internal/world"
)

func airWorld(t *testing.T) *world.Store {
	t.Helper()
	s := world.NewStore()
	for x := -1; x <= 0; x++ {
		for y := -1; y <= 0; y++ {
			for z := -1; z <= 0; z++ {
				c := world.NewChunk(world.ChunkCoord{X: x, Y: y, Z: z})
				c.Fill(world.NewNode(world.ContentAir, world.LightSun, 0))
				s.Put(c)
			}
		}
	}
	return s
}

func TestRaycast(t *testing.T) {
	w := airWorld(t)
	stone := world.NewNode(world.ContentID(1), 0, 0)
	require.NotEmpty(t, w.SetNode(world.NodePos{X: 5}, stone))

	start := mgl32.Vec3{0.5, 0.5, 0.5}
	result := physics.Raycast(start, mgl32.Vec3{1, 0, 0}, physics.MinReachDistance, 10, w, nil)
	require.True(t, result.Hit)
	assert.Equal(t, world.NodePos{X: 5}, result.HitPosition)
	assert.Equal(t, world.NodePos{X: 4}, result.AdjacentPosition)
	assert.InDelta(t, 4.5, result.Distance, 0.021)

	short := physics.Raycast(start, mgl32.Vec3{1, 0, 0}, physics.MinReachDistance, 4, w, nil)
	assert.False(t, short.Hit, "beyond max distance")

	up := physics.Raycast(start, mgl32.Vec3{0, 1, 0}, physics.MinReachDistance, 10, w, nil)
	assert.False(t, up.Hit)
}

func TestRaycastDiagonalAndNegative(t *testing.T) {
	w := airWorld(t)
	stone := world.NewNode(world.ContentID(1), 0, 0)
	w.SetNode(world.NodePos{X: 2, Y: 2, Z: 2}, stone)
	w.SetNode(world.NodePos{X: -3, Y: 0, Z: 0}, stone)

	diag := physics.Raycast(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 1, 1}, physics.MinReachDistance, 10, w, nil)
	require.True(t, diag.Hit)
	assert.Equal(t, world.NodePos{X: 2, Y: 2, Z: 2}, diag.HitPosition)

	neg := physics.Raycast(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{-1, 0, 0}, physics.MinReachDistance, 10, w, nil)
	require.True(t, neg.Hit)
	assert.Equal(t, world.NodePos{X: -3}, neg.HitPosition)
	assert.Equal(t, world.NodePos{X: -2}, neg.AdjacentPosition)
}

func TestRaycastStopsAtUnloaded(t *testing.T) {
	w := airWorld(t)
	// Unknown nodes are not pointable: the ray leaves the loaded box.
	r := physics.Raycast(mgl32.Vec3{8, 8, 8}, mgl32.Vec3{1, 0, 0}, 0, 20, w, nil)
	assert.False(t, r.Hit)

	solidUnknown := func(n world.Node) bool { return n.Content == world.ContentUnknown }
	r = physics.Raycast(mgl32.Vec3{8, 8, 8}, mgl32.Vec3{1, 0, 0}, 0, 20, w, solidUnknown)
	require.True(t, r.Hit)
	assert.Equal(t, world.NodePos{X: 16, Y: 8, Z: 8}, r.HitPosition)
}
