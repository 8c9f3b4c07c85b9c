package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/config"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/metrics"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/view"
	"voxelmesh/internal/world"
)

// DrawListEntry is one visible cell. The pin keeps a chunk of the cell in
// the store for as long as the entry is in the active draw list.
type DrawListEntry struct {
	Coord world.ChunkCoord
	Mesh  *meshing.ChunkMesh

	pin      *world.Pin
	distance float32
}

// DrawList selects the cells to draw and turns them into ordered draw calls.
// Like Scene it belongs to the render goroutine.
type DrawList struct {
	scene    *Scene
	metrics  *metrics.Pipeline
	settings config.RenderSettings

	entries  []DrawListEntry
	built    bool
	forced   bool
	lastCell world.ChunkCoord
	lastDir  mgl32.Vec3

	visited  *visitedSet
	frontier []world.ChunkCoord
	onVisit  func(idx world.ChunkCoord)

	merge       *mergeCache
	translucent translucentOrder
}

// NewDrawList creates an empty draw list over scene. m may be nil.
func NewDrawList(scene *Scene, settings config.RenderSettings, m *metrics.Pipeline) *DrawList {
	return &DrawList{
		scene:    scene,
		metrics:  m,
		settings: settings,
		visited:  newVisitedSet(),
		merge:    newMergeCache(m),
	}
}

// ApplySettings replaces the render settings and forces a rebuild on the
// next Update.
func (d *DrawList) ApplySettings(s config.RenderSettings) {
	d.settings = s
	d.Invalidate()
}

// Invalidate forces the next Update to rebuild the list.
func (d *DrawList) Invalidate() {
	d.forced = true
	d.translucent.invalidate()
}

// Entries returns the current visible cells, nearest first.
func (d *DrawList) Entries() []DrawListEntry {
	return d.entries
}

// Len returns the number of visible cells.
func (d *DrawList) Len() int {
	return len(d.entries)
}

// Release drops every entry and its pin.
func (d *DrawList) Release() {
	for i := range d.entries {
		d.entries[i].pin.Release()
	}
	d.entries = d.entries[:0]
	d.built = false
}

func (d *DrawList) cellSize() float32 {
	return float32(d.scene.CellChunks() * world.ChunkSize)
}

// cellIndex converts a cell coordinate to the grid where neighbouring
// cells are one apart.
func (d *DrawList) cellIndex(cell world.ChunkCoord) world.ChunkCoord {
	n := d.scene.CellChunks()
	return world.ChunkCoord{X: cell.X / n, Y: cell.Y / n, Z: cell.Z / n}
}

func (d *DrawList) cellAt(idx world.ChunkCoord) world.ChunkCoord {
	n := d.scene.CellChunks()
	return world.ChunkCoord{X: idx.X * n, Y: idx.Y * n, Z: idx.Z * n}
}

func (d *DrawList) cellBounds(idx world.ChunkCoord) (mgl32.Vec3, mgl32.Vec3) {
	s := d.cellSize()
	lo := mgl32.Vec3{float32(idx.X) * s, float32(idx.Y) * s, float32(idx.Z) * s}
	return lo, lo.Add(mgl32.Vec3{s, s, s})
}

// rangeCells is the view range in cells, rounded up.
func (d *DrawList) rangeCells() int {
	n := d.scene.CellChunks()
	return (d.settings.ViewRangeChunks(world.ChunkSize) + n - 1) / n
}

// Update rebuilds the visible set when the camera entered another cell,
// turned by more than the redraw angle, a mesh was replaced, or force or
// Invalidate asked for it. It reports whether the list was rebuilt.
func (d *DrawList) Update(cam *view.Camera, force bool) bool {
	if changed := d.scene.takeChanged(); len(changed) > 0 {
		d.merge.invalidate(changed)
		d.translucent.invalidate()
		force = true
	}
	camCell := d.scene.CellOf(cam.Chunk())
	if d.built && !force && !d.forced && camCell == d.lastCell &&
		cam.AngleTo(d.lastDir) <= d.settings.RedrawAngle {
		return false
	}
	defer profiling.Track("scene.DrawList.Update")()

	for i := range d.entries {
		d.entries[i].pin.Release()
	}
	d.entries = d.entries[:0]

	frustum := cam.Frustum(d.settings.FrustumMargin)
	if d.settings.VisibilityMode == config.VisibilityExhaustive {
		d.exhaustive(cam, &frustum)
	} else {
		d.flood(cam, &frustum)
	}
	sort.SliceStable(d.entries, func(i, j int) bool {
		return d.entries[i].distance < d.entries[j].distance
	})

	d.built = true
	d.forced = false
	d.lastCell = camCell
	d.lastDir = cam.Front()
	d.translucent.invalidate()
	d.metrics.DrawListSize(len(d.entries))
	return true
}

// consider adds cell to the list when its mesh has geometry, lies within the
// view range and touches the frustum.
func (d *DrawList) consider(eye mgl32.Vec3, frustum *view.Frustum, cell world.ChunkCoord, m *meshing.ChunkMesh) bool {
	if m == nil || m.Empty() {
		return false
	}
	dist := m.DistanceTo(eye)
	if dist > float32(d.settings.ViewRange) {
		return false
	}
	if !frustum.ContainsSphere(m.Center, m.Radius) {
		return false
	}
	pin := d.pinCell(cell)
	if pin == nil {
		return false
	}
	d.entries = append(d.entries, DrawListEntry{Coord: cell, Mesh: m, pin: pin, distance: dist})
	return true
}

func (d *DrawList) pinCell(cell world.ChunkCoord) *world.Pin {
	store := d.scene.Store()
	n := d.scene.CellChunks()
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				if p := store.Pin(cell.Add(world.ChunkCoord{X: x, Y: y, Z: z})); p != nil {
					return p
				}
			}
		}
	}
	return nil
}

// exhaustive tests every built cell.
func (d *DrawList) exhaustive(cam *view.Camera, frustum *view.Frustum) {
	camIdx := d.cellIndex(d.scene.CellOf(cam.Chunk()))
	d.scene.Each(func(cell world.ChunkCoord, m *meshing.ChunkMesh) {
		if d.onVisit != nil {
			d.onVisit(d.cellIndex(cell))
		}
		if d.settings.OcclusionCulling && m != nil && !m.Empty() &&
			d.occluded(cam.Position, camIdx, d.cellIndex(cell)) {
			return
		}
		d.consider(cam.Position, frustum, cell, m)
	})
}
