package meshing

import (
	"voxelmesh/internal/world"
)

// faceKey is everything that must be equal for two faces to merge.
type faceKey struct {
	face       world.Face
	base       Material
	overlay    Material
	hasOverlay bool
	tint       uint32
	overTint   uint32
	rotation   uint8
	light      [4]cornerLight
}

type maskEntry struct {
	set     bool
	noMerge bool
	key     faceKey
}

// fillMask records, for the plane between layers k and k+1 along axis, which
// side owns each face and what it looks like.
func (mb *meshBuild) fillMask(axis, k int) {
	ua, va := planeAxes(axis)
	size := mb.size
	for u := 0; u < size; u++ {
		for v := 0; v < size; v++ {
			e := &mb.mask[u*size+v]
			*e = maskEntry{}

			var p [3]int
			p[axis], p[ua], p[va] = k, u, v
			q := p
			q[axis]++
			np := mb.snap.At(p[0], p[1], p[2])
			nq := mb.snap.At(q[0], q[1], q[2])

			owner, _ := mb.content.FaceContents(np.Content, nq.Content)
			if owner == 0 {
				continue
			}
			node, other, pos, sign := np, nq, p, 1
			if owner == 2 {
				node, other, pos, sign = nq, np, q, -1
			}
			face := world.FaceFor(axis, sign)
			f := mb.content.Get(node.Content)
			base, over, rot := f.TileFor(face, node.Param2)
			if base.Empty() {
				continue
			}

			crack := mb.overlay != nil && mb.overlay.Pos == mb.origin.Add(pos[0], pos[1], pos[2])
			e.set = true
			// Translucent faces stay one node wide so none straddles a BSP split plane.
			e.noMerge = crack || f.Waving > 0 || base.Material.Translucent() || over.Material.Translucent()
			e.key = faceKey{
				face:     face,
				base:     tileMaterial(base, f.Waving, crack),
				tint:     base.Tint,
				rotation: rot,
			}
			if !over.Empty() {
				e.key.overlay = tileMaterial(over, f.Waving, false)
				e.key.overTint = over.Tint
				e.key.hasOverlay = true
			}

			if !mb.opts.SmoothLighting {
				l := mb.light.flat(node, other)
				e.key.light = [4]cornerLight{l, l, l, l}
				continue
			}
			for c, d := range quadCorners {
				var l [3]int
				l[axis], l[ua], l[va] = k+1, u+d[0], v+d[1]
				e.key.light[c] = mb.light.smooth(mb.snap, l[0], l[1], l[2])
			}
		}
	}
}

// quadCorners are the (u, v) offsets of a face's corners, counter-clockwise
// seen from the positive side of the plane.
var quadCorners = [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

func (a *maskEntry) mergeable(b *maskEntry) bool {
	return b.set && !b.noMerge && a.key == b.key
}

// mergeMask grows rectangles of equal faces over the mask, emitting one quad
// per rectangle. Without greedy meshing every face is its own quad.
func (mb *meshBuild) mergeMask(axis, k int) {
	size := mb.size
	for u := 0; u < size; u++ {
		for v := 0; v < size; {
			e := mb.mask[u*size+v]
			if !e.set {
				v++
				continue
			}
			w, h := 1, 1
			if mb.opts.GreedyMeshing && !e.noMerge {
				for v+w < size && e.mergeable(&mb.mask[u*size+v+w]) {
					w++
				}
			grow:
				for u+h < size {
					for dv := 0; dv < w; dv++ {
						if !e.mergeable(&mb.mask[(u+h)*size+v+dv]) {
							break grow
						}
					}
					h++
				}
			}
			for du := 0; du < h; du++ {
				for dv := 0; dv < w; dv++ {
					mb.mask[(u+du)*size+v+dv].set = false
				}
			}
			mb.emit(axis, k, u, v, h, w, &e.key)
			v += w
		}
	}
}
