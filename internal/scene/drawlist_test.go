package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelmesh/internal/config"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/view"
	"voxelmesh/internal/world"
)

// floorWorld is a 3x3 chunk column set: two chunk layers of stone below
// y=0 and two of sunlit air above.
func floorWorld(t testing.TB) *fixture {
	t.Helper()
	store := world.NewStore()
	f := newFixture(t, store)
	stone := world.NewNode(contentID(t, f.content, "stone"), 0, 0)
	fillChunks(store, world.ChunkCoord{X: -1, Y: -2, Z: -1}, world.ChunkCoord{X: 1, Y: -1, Z: 1}, stone)
	fillChunks(store, world.ChunkCoord{X: -1, Y: 0, Z: -1}, world.ChunkCoord{X: 1, Y: 1, Z: 1}, sunAir)
	f.buildBox(t, world.ChunkCoord{X: -1, Y: -2, Z: -1}, world.ChunkCoord{X: 1, Y: 1, Z: 1})
	return f
}

func lookingDown(x, y, z float32) *view.Camera {
	cam := view.NewCamera(800, 600)
	cam.Position = mgl32.Vec3{x, y, z}
	cam.Pitch = -89
	return cam
}

func TestFloodStaysAboveFloor(t *testing.T) {
	f := floorWorld(t)

	floor := f.scene.Mesh(world.ChunkCoord{Y: -1})
	require.NotNil(t, floor)
	assert.Equal(t, world.AllSides, floor.SolidSides)
	for _, b := range floor.Layers[0] {
		for i := 0; i < len(b.Vertices); i++ {
			assert.Equal(t, mgl32.Vec3{0, 1, 0}, b.Vertices[i].Normal, "only the top surface is meshed")
			assert.Equal(t, float32(0), b.Vertices[i].Pos.Y())
		}
	}
	assert.True(t, f.scene.Mesh(world.ChunkCoord{Y: -2}).Empty())

	d := NewDrawList(f.scene, renderSettings(), nil)
	seen := make(map[world.ChunkCoord]int)
	d.onVisit = func(idx world.ChunkCoord) { seen[idx]++ }

	cam := lookingDown(8, 20, 8)
	require.True(t, d.Update(cam, false))

	camIdx := world.ChunkCoord{Y: 1}
	for idx, n := range seen {
		assert.Equal(t, 1, n, "%v visited once", idx)
		assert.LessOrEqual(t, chebyshev(idx, camIdx), d.rangeCells())
		assert.GreaterOrEqual(t, idx.Y, -1, "%v is inside the floor", idx)
	}
	assert.Contains(t, seen, world.ChunkCoord{Y: -1})

	var coords []world.ChunkCoord
	for _, e := range d.Entries() {
		coords = append(coords, e.Coord)
	}
	assert.Contains(t, coords, world.ChunkCoord{Y: -1})
	assert.NotContains(t, coords, world.ChunkCoord{Y: -2})
}

func TestFloodRespectsViewRangeBox(t *testing.T) {
	store := world.NewStore()
	f := newFixture(t, store)
	fillChunks(store, world.ChunkCoord{X: -4, Y: -4, Z: -4}, world.ChunkCoord{X: 4, Y: 4, Z: 4}, sunAir)

	settings := renderSettings()
	settings.ViewRange = 20
	d := NewDrawList(f.scene, settings, nil)
	seen := make(map[world.ChunkCoord]int)
	d.onVisit = func(idx world.ChunkCoord) { seen[idx]++ }

	cam := view.NewCamera(800, 600)
	cam.Position = mgl32.Vec3{8, 8, 8}
	cam.FOV = 120
	d.Update(cam, true)

	require.Equal(t, 2, d.rangeCells())
	assert.NotEmpty(t, seen)
	for idx, n := range seen {
		assert.Equal(t, 1, n)
		assert.LessOrEqual(t, chebyshev(idx, world.ChunkCoord{}), 2, "%v", idx)
	}
	assert.Contains(t, seen, world.ChunkCoord{X: 2})
	assert.NotContains(t, seen, world.ChunkCoord{X: -2}, "behind the camera")
}

func TestExhaustiveMode(t *testing.T) {
	f := floorWorld(t)
	settings := renderSettings()
	settings.VisibilityMode = config.VisibilityExhaustive
	d := NewDrawList(f.scene, settings, nil)

	d.Update(lookingDown(8, 20, 8), false)
	var coords []world.ChunkCoord
	for _, e := range d.Entries() {
		coords = append(coords, e.Coord)
		assert.False(t, e.Mesh.Empty())
	}
	assert.Contains(t, coords, world.ChunkCoord{Y: -1})
	for i := 1; i < d.Len(); i++ {
		assert.LessOrEqual(t, d.Entries()[i-1].distance, d.Entries()[i].distance, "nearest first")
	}
}

func TestDrawListPins(t *testing.T) {
	f := floorWorld(t)
	d := NewDrawList(f.scene, renderSettings(), nil)
	cam := lookingDown(8, 20, 8)

	d.Update(cam, false)
	require.NotZero(t, d.Len())
	floor := world.ChunkCoord{Y: -1}
	assert.Equal(t, 1, f.store.Pins(floor))

	d.Update(cam, true)
	assert.Equal(t, 1, f.store.Pins(floor), "old pins are released on rebuild")

	d.Release()
	assert.Zero(t, f.store.Pins(floor))
	assert.Zero(t, d.Len())
}

func TestDrawListRebuildTriggers(t *testing.T) {
	f := floorWorld(t)
	d := NewDrawList(f.scene, renderSettings(), nil)
	cam := lookingDown(8, 20, 8)

	assert.True(t, d.Update(cam, false), "first update builds")
	assert.False(t, d.Update(cam, false))

	cam.Position = cam.Position.Add(mgl32.Vec3{2, 0, 2})
	assert.False(t, d.Update(cam, false), "moving inside the cell")

	cam.Look(0, 10)
	assert.False(t, d.Update(cam, false), "small turn")
	cam.Look(0, 40)
	assert.True(t, d.Update(cam, false), "turn past the redraw angle")

	cam.Position = mgl32.Vec3{24, 20, 8}
	assert.True(t, d.Update(cam, false), "entered another cell")

	d.Invalidate()
	assert.True(t, d.Update(cam, false))
	assert.True(t, d.Update(cam, true))

	f.build(t, world.ChunkCoord{Y: 1})
	assert.True(t, d.Update(cam, false), "a replaced mesh forces a rebuild")
	assert.False(t, d.Update(cam, false))
}

func TestOcclusionBehindSolidWall(t *testing.T) {
	f := newFixture(t, world.NewStore())
	for y := -1; y <= 1; y++ {
		for z := -1; z <= 1; z++ {
			f.scene.meshes[world.ChunkCoord{X: 2, Y: y, Z: z}] = &meshing.ChunkMesh{SolidSides: world.AllSides}
		}
	}
	d := NewDrawList(f.scene, renderSettings(), nil)
	eye := mgl32.Vec3{8, 8, 8}
	cam := world.ChunkCoord{}

	assert.True(t, d.occluded(eye, cam, world.ChunkCoord{X: 4}))
	assert.False(t, d.occluded(eye, cam, world.ChunkCoord{X: 2}), "the wall itself is visible")
	assert.False(t, d.occluded(eye, cam, world.ChunkCoord{X: 1}), "next to the camera")
	assert.False(t, d.occluded(eye, cam, world.ChunkCoord{Z: 4}), "nothing in between")
	assert.False(t, d.occluded(eye, cam, world.ChunkCoord{X: 4, Z: 4}), "corner rays pass beside the wall")
}

func TestOcclusionCullingInFlood(t *testing.T) {
	store := world.NewStore()
	f := newFixture(t, store)
	stone := world.NewNode(contentID(t, f.content, "stone"), 0, 0)
	fillChunks(store, world.ChunkCoord{X: -1, Y: -1, Z: -1}, world.ChunkCoord{X: 1, Y: 1, Z: 1}, sunAir)
	fillChunks(store, world.ChunkCoord{X: 2, Y: -1, Z: -1}, world.ChunkCoord{X: 2, Y: 1, Z: 1}, stone)
	fillChunks(store, world.ChunkCoord{X: 3, Y: -1, Z: -1}, world.ChunkCoord{X: 5, Y: 1, Z: 1}, sunAir)
	store.SetNode(world.NodePos{X: 4*16 + 8, Y: 8, Z: 8}, stone)
	f.buildBox(t, world.ChunkCoord{X: -1, Y: -1, Z: -1}, world.ChunkCoord{X: 5, Y: 1, Z: 1})

	settings := renderSettings()
	settings.ViewRange = 100
	cam := view.NewCamera(800, 600)
	cam.Position = mgl32.Vec3{8, 8, 8}

	hidden := world.ChunkCoord{X: 4}
	for _, occlusion := range []bool{false, true} {
		settings.OcclusionCulling = occlusion
		for _, mode := range []string{config.VisibilityFlood, config.VisibilityExhaustive} {
			settings.VisibilityMode = mode
			d := NewDrawList(f.scene, settings, nil)
			d.Update(cam, true)
			var coords []world.ChunkCoord
			for _, e := range d.Entries() {
				coords = append(coords, e.Coord)
			}
			if mode == config.VisibilityFlood {
				assert.NotContains(t, coords, hidden, "flood never passes the solid wall")
			} else if occlusion {
				assert.NotContains(t, coords, hidden, "occluded by the wall")
			} else {
				assert.Contains(t, coords, hidden)
			}
			assert.Contains(t, coords, world.ChunkCoord{X: 1}, "wall face in front")
			d.Release()
		}
	}
}

func TestMissingMeshIsSkipped(t *testing.T) {
	store := world.NewStore()
	f := newFixture(t, store)
	stone := world.NewNode(contentID(t, f.content, "stone"), 0, 0)
	fillChunks(store, world.ChunkCoord{}, world.ChunkCoord{X: 3}, sunAir)
	for x := 0; x < 4; x++ {
		store.SetNode(world.NodePos{X: x*16 + 8, Y: 8, Z: 8}, stone)
	}
	f.build(t, world.ChunkCoord{}, world.ChunkCoord{X: 2}, world.ChunkCoord{X: 3})

	cam := view.NewCamera(800, 600)
	cam.Position = mgl32.Vec3{-10, 8, 8}
	d := NewDrawList(f.scene, renderSettings(), nil)
	d.settings.ViewRange = 100
	d.Update(cam, true)
	var coords []world.ChunkCoord
	for _, e := range d.Entries() {
		coords = append(coords, e.Coord)
	}
	assert.ElementsMatch(t, []world.ChunkCoord{{}, {X: 2}, {X: 3}}, coords)
}
