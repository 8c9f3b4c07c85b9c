package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// translucentOrder caches the back-to-front translucent draw calls until
// the viewer moved far enough or the list changed.
type translucentOrder struct {
	valid  bool
	sortAt mgl32.Vec3
	calls  []DrawCall
}

func (t *translucentOrder) invalidate() {
	t.valid = false
}

// translucentCalls returns every visible translucent triangle as draw calls
// ordered far to near: cells by the distance of their bounding sphere
// centre, triangles within a cell by its BSP. The order is recomputed when
// the eye moved more than the resort distance since the last sort.
func (d *DrawList) translucentCalls(eye mgl32.Vec3) []DrawCall {
	t := &d.translucent
	if t.valid && eye.Sub(t.sortAt).Len() <= d.settings.TranslucentResortDistance {
		return t.calls
	}

	type item struct {
		idx  int
		dist float32
	}
	var items []item
	for i, e := range d.entries {
		if len(e.Mesh.Translucent) > 0 {
			items = append(items, item{idx: i, dist: e.Mesh.Center.Sub(eye).LenSqr()})
		}
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].dist > items[b].dist })

	t.calls = t.calls[:0]
	for _, it := range items {
		e := &d.entries[it.idx]
		for _, p := range e.Mesh.TranslucentBuffers(eye) {
			t.calls = append(t.calls, DrawCall{
				Coord:   e.Coord,
				Layer:   layerOf(e, p.Buffer),
				Buffer:  p.Buffer,
				Indices: p.Indices,
			})
		}
	}
	t.valid = true
	t.sortAt = eye
	return t.calls
}
