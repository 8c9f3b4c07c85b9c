package scene

import (
	"voxelmesh/internal/view"
	"voxelmesh/internal/world"
)

func chebyshev(a, b world.ChunkCoord) int {
	d := 0
	for axis := 0; axis < 3; axis++ {
		v := a.Axis(axis) - b.Axis(axis)
		if v < 0 {
			v = -v
		}
		d = max(d, v)
	}
	return d
}

// flood walks the cell grid breadth first from the camera's cell, moving
// only away from the camera. A cell is left through a side only when that
// side is not fully solid, and is expanded only when it was entered through
// at least one side that is not fully solid. Every cell is queued at most
// once and the walk never leaves the view-range box.
func (d *DrawList) flood(cam *view.Camera, frustum *view.Frustum) {
	camIdx := d.cellIndex(d.scene.CellOf(cam.Chunk()))
	r := d.rangeCells()

	d.visited.reset()
	d.visited.set(camIdx, flagQueued)
	queue := append(d.frontier[:0], camIdx)

	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		if d.onVisit != nil {
			d.onVisit(idx)
		}
		cell := d.cellAt(idx)
		m := d.scene.Mesh(cell)
		d.consider(cam.Position, frustum, cell, m)

		start := idx == camIdx
		if !start && d.visited.get(idx)&sideMask == 0 {
			continue
		}
		for f := world.Face(0); f < world.FaceCount; f++ {
			axis, sign := f.Axis(), f.Sign()
			if (idx.Axis(axis)-camIdx.Axis(axis))*sign < 0 {
				continue
			}
			if !start && m != nil && m.SolidSides&f.Bit() != 0 {
				continue
			}
			next := idx.Add(f.Step())
			if chebyshev(next, camIdx) > r {
				continue
			}

			var proven uint8
			nm := d.scene.Mesh(d.cellAt(next))
			if nm == nil || nm.SolidSides&f.Opposite().Bit() == 0 {
				proven = 1 << axis
			}
			if d.visited.get(next)&flagQueued != 0 {
				d.visited.set(next, proven)
				continue
			}
			lo, hi := d.cellBounds(next)
			if !frustum.ContainsAABB(lo, hi) {
				continue
			}
			if d.settings.OcclusionCulling && d.occluded(cam.Position, camIdx, next) {
				continue
			}
			d.visited.set(next, flagQueued|proven)
			queue = append(queue, next)
		}
	}
	d.frontier = queue[:0]
}
