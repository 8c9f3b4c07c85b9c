package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const bspEpsilon = 1e-4

// BspNode splits a set of translucent triangles by a plane. Triangles lying
// on the plane are kept at the node; Front and Back index child nodes, -1
// when absent.
type BspNode struct {
	Normal    mgl32.Vec3
	Origin    mgl32.Vec3
	Triangles []int
	Front     int
	Back      int
}

// BspTree orders a ChunkMesh's translucent triangles for any viewpoint.
// It is rebuilt with the mesh and never modified afterwards.
type BspTree struct {
	Nodes []BspNode
	Root  int
}

var axisNormals = [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// BuildBsp builds a tree over tris. Triangle indices in the tree refer to tris.
func BuildBsp(tris []TranslucentTriangle) *BspTree {
	t := &BspTree{Root: -1}
	set := make([]int, len(tris))
	for i := range set {
		set[i] = i
	}
	t.Root = t.build(tris, set, 0)
	return t
}

func (t *BspTree) addNode(n BspNode) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

func (t *BspTree) build(tris []TranslucentTriangle, set []int, depth int) int {
	if len(set) == 0 {
		return -1
	}
	if len(set) == 1 {
		tri := &tris[set[0]]
		return t.addNode(BspNode{Normal: tri.Normal, Origin: tri.Centroid, Triangles: set, Front: -1, Back: -1})
	}

	centroid, extent := clusterStats(tris, set)
	if extent < bspEpsilon {
		return t.addNode(BspNode{Normal: axisNormals[depth%3], Origin: centroid, Triangles: set, Front: -1, Back: -1})
	}

	// Prefer an axis-aligned plane through a triangle that cuts nothing,
	// starting with the axis for this depth.
	axis := depth % 3
	for try := 0; try < 3; try++ {
		ax := (axis + try) % 3
		c := pickCandidate(tris, set, axisNormals[ax], centroid)
		normal, origin := axisNormals[ax], tris[c].Centroid
		front, back, on, straddling := classify(tris, set, normal, origin)
		if len(straddling) > 0 || (len(on) == 0 && (len(front) == 0 || len(back) == 0)) {
			continue
		}
		return t.split(tris, normal, origin, front, back, on, depth)
	}

	// Fall back to the candidate's own plane; the candidate stays at this
	// node and triangles crossing the plane go by their centroid.
	c := pickCandidate(tris, set, axisNormals[axis], centroid)
	normal, origin := tris[c].Normal, tris[c].Centroid
	if normal.Len() == 0 {
		normal = axisNormals[axis]
	}
	rest := make([]int, 0, len(set)-1)
	for _, i := range set {
		if i != c {
			rest = append(rest, i)
		}
	}
	front, back, on, straddling := classify(tris, rest, normal, origin)
	for _, i := range straddling {
		d := normal.Dot(tris[i].Centroid.Sub(origin))
		switch {
		case d > bspEpsilon:
			front = append(front, i)
		case d < -bspEpsilon:
			back = append(back, i)
		default:
			on = append(on, i)
		}
	}
	on = append([]int{c}, on...)
	return t.split(tris, normal, origin, front, back, on, depth)
}

func (t *BspTree) split(tris []TranslucentTriangle, normal, origin mgl32.Vec3, front, back, on []int, depth int) int {
	idx := t.addNode(BspNode{Normal: normal, Origin: origin, Triangles: on})
	f := t.build(tris, front, depth+1)
	b := t.build(tris, back, depth+1)
	t.Nodes[idx].Front = f
	t.Nodes[idx].Back = b
	return idx
}

// clusterStats returns the mean triangle centroid and the largest edge of the
// vertex bounding box.
func clusterStats(tris []TranslucentTriangle, set []int) (mgl32.Vec3, float32) {
	var sum mgl32.Vec3
	lo := tris[set[0]].Vertices[0]
	hi := lo
	for _, i := range set {
		sum = sum.Add(tris[i].Centroid)
		for _, v := range tris[i].Vertices {
			for a := 0; a < 3; a++ {
				lo[a] = min(lo[a], v[a])
				hi[a] = max(hi[a], v[a])
			}
		}
	}
	d := hi.Sub(lo)
	return sum.Mul(1 / float32(len(set))), max(d[0], d[1], d[2])
}

// pickCandidate returns the triangle with the largest area projected onto
// axis, breaking ties by distance to the cluster centroid.
func pickCandidate(tris []TranslucentTriangle, set []int, axis, centroid mgl32.Vec3) int {
	best := set[0]
	bestScore := float32(-1)
	bestDist := float32(math.MaxFloat32)
	for _, i := range set {
		tri := &tris[i]
		score := tri.Area * float32(math.Abs(float64(tri.Normal.Dot(axis))))
		dist := tri.Centroid.Sub(centroid).LenSqr()
		if score > bestScore+1e-6 || (score > bestScore-1e-6 && dist < bestDist) {
			best, bestScore, bestDist = i, score, dist
		}
	}
	return best
}

// classify sorts triangles by the side of the plane their vertices are on.
func classify(tris []TranslucentTriangle, set []int, normal, origin mgl32.Vec3) (front, back, on, straddling []int) {
	for _, i := range set {
		var pos, neg bool
		for _, v := range tris[i].Vertices {
			d := normal.Dot(v.Sub(origin))
			if d > bspEpsilon {
				pos = true
			} else if d < -bspEpsilon {
				neg = true
			}
		}
		switch {
		case pos && neg:
			straddling = append(straddling, i)
		case pos:
			front = append(front, i)
		case neg:
			back = append(back, i)
		default:
			on = append(on, i)
		}
	}
	return front, back, on, straddling
}

// Traverse appends triangle indices to out in back-to-front order as seen
// from viewpoint.
func (t *BspTree) Traverse(viewpoint mgl32.Vec3, out []int) []int {
	if t == nil || t.Root < 0 {
		return out
	}
	return t.traverse(t.Root, viewpoint, out)
}

func (t *BspTree) traverse(i int, viewpoint mgl32.Vec3, out []int) []int {
	if i < 0 {
		return out
	}
	n := &t.Nodes[i]
	far, near := n.Front, n.Back
	if n.Normal.Dot(viewpoint.Sub(n.Origin)) > 0 {
		far, near = n.Back, n.Front
	}
	out = t.traverse(far, viewpoint, out)
	out = append(out, n.Triangles...)
	return t.traverse(near, viewpoint, out)
}
