package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/world"
)

// cornerInset keeps corner rays inside the target cell, as a fraction of
// the cell edge.
const cornerInset = 0.02

// occluded reports whether every ray from eye to the corners of the cell
// at target passes through a fully solid cell side on the way. Cells next
// to the camera's are never occluded.
func (d *DrawList) occluded(eye mgl32.Vec3, camIdx, target world.ChunkCoord) bool {
	if chebyshev(camIdx, target) <= 1 {
		return false
	}
	lo, hi := d.cellBounds(target)
	in := d.cellSize() * cornerInset
	for i := 0; i < 8; i++ {
		p := lo.Add(mgl32.Vec3{in, in, in})
		if i&1 != 0 {
			p[0] = hi[0] - in
		}
		if i&2 != 0 {
			p[1] = hi[1] - in
		}
		if i&4 != 0 {
			p[2] = hi[2] - in
		}
		if !d.rayBlocked(eye, p, target) {
			return false
		}
	}
	return true
}

func (d *DrawList) solidSide(idx world.ChunkCoord, f world.Face) bool {
	m := d.scene.Mesh(d.cellAt(idx))
	return m != nil && m.SolidSides&f.Bit() != 0
}

// rayBlocked walks the cells between from and to with a 3D DDA and reports
// whether the ray crosses a solid side before it enters target. The
// camera's own cell and the target's sides never block.
func (d *DrawList) rayBlocked(from, to mgl32.Vec3, target world.ChunkCoord) bool {
	size := d.cellSize()
	a := from.Mul(1 / size)
	b := to.Mul(1 / size)
	dir := b.Sub(a)

	var (
		cur    [3]int
		step   [3]int
		tMax   [3]float64
		tDelta [3]float64
	)
	for i := 0; i < 3; i++ {
		fl := math.Floor(float64(a[i]))
		cur[i] = int(fl)
		switch {
		case dir[i] > 0:
			step[i] = 1
			tMax[i] = (fl + 1 - float64(a[i])) / float64(dir[i])
			tDelta[i] = 1 / float64(dir[i])
		case dir[i] < 0:
			step[i] = -1
			tMax[i] = (float64(a[i]) - fl) / -float64(dir[i])
			tDelta[i] = -1 / float64(dir[i])
		default:
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
		}
	}
	start := cur
	goal := [3]int{target.X, target.Y, target.Z}

	for guard := 0; guard < 3*(d.rangeCells()+2)*2; guard++ {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if tMax[axis] > 1 {
			return false
		}
		next := cur
		next[axis] += step[axis]
		f := world.FaceFor(axis, step[axis])

		if cur != start && d.solidSide(coordOf(cur), f) {
			return true
		}
		if next == goal {
			return false
		}
		if d.solidSide(coordOf(next), f.Opposite()) {
			return true
		}
		cur = next
		tMax[axis] += tDelta[axis]
	}
	return false
}

func coordOf(v [3]int) world.ChunkCoord {
	return world.ChunkCoord{X: v[0], Y: v[1], Z: v[2]}
}
