package meshing

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelmesh/internal/world"
)

// unitQuad returns the two triangles of the unit face on plane axis at the
// lattice point p, facing +axis when sign > 0.
func unitQuad(axis int, p [3]int, sign int, ref int) []TranslucentTriangle {
	ua, va := planeAxes(axis)
	var v [4]mgl32.Vec3
	for i, c := range quadCorners {
		q := p
		q[ua] += c[0]
		q[va] += c[1]
		v[i] = mgl32.Vec3{float32(q[0]), float32(q[1]), float32(q[2])}
	}
	if sign < 0 {
		v[1], v[3] = v[3], v[1]
	}
	r := BufferRef{Buffer: ref}
	return []TranslucentTriangle{
		newTranslucentTriangle(r, 0, [3]mgl32.Vec3{v[0], v[1], v[2]}),
		newTranslucentTriangle(r, 3, [3]mgl32.Vec3{v[2], v[3], v[0]}),
	}
}

// hit intersects the ray orig + t*dir with the strict interior of tri.
func hit(orig, dir mgl32.Vec3, tri [3]mgl32.Vec3) (float32, bool) {
	const eps = 1e-4
	e1 := tri[1].Sub(tri[0])
	e2 := tri[2].Sub(tri[0])
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if det > -1e-7 && det < 1e-7 {
		return 0, false
	}
	inv := 1 / det
	s := orig.Sub(tri[0])
	u := s.Dot(p) * inv
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if u <= eps || v <= eps || u+v >= 1-eps {
		return 0, false
	}
	return e2.Dot(q) * inv, true
}

var interiorSamples = [][3]float32{
	{1.0 / 3, 1.0 / 3, 1.0 / 3},
	{0.6, 0.2, 0.2},
	{0.2, 0.6, 0.2},
	{0.2, 0.2, 0.6},
}

// occludes reports whether a covers part of b seen from eye.
func occludes(eye mgl32.Vec3, a, b *TranslucentTriangle) bool {
	for _, w := range interiorSamples {
		target := b.Vertices[0].Mul(w[0]).Add(b.Vertices[1].Mul(w[1])).Add(b.Vertices[2].Mul(w[2]))
		if t, ok := hit(eye, target.Sub(eye), a.Vertices); ok && t > 1e-4 && t < 1-1e-4 {
			return true
		}
	}
	return false
}

func TestBspOrdersRandomQuadsBackToFront(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	type key struct {
		axis int
		p    [3]int
	}
	seen := make(map[key]bool)
	var tris []TranslucentTriangle
	for len(seen) < 25 {
		k := key{axis: rng.Intn(3), p: [3]int{rng.Intn(6), rng.Intn(6), rng.Intn(6)}}
		if seen[k] {
			continue
		}
		seen[k] = true
		sign := 1
		if rng.Intn(2) == 0 {
			sign = -1
		}
		tris = append(tris, unitQuad(k.axis, k.p, sign, len(seen)-1)...)
	}
	require.Len(t, tris, 50)

	tree := BuildBsp(tris)
	for i := 0; i < 20; i++ {
		eye := mgl32.Vec3{
			rng.Float32()*14 - 4 + 0.013,
			rng.Float32()*14 - 4 + 0.029,
			rng.Float32()*14 - 4 + 0.041,
		}
		order := tree.Traverse(eye, nil)
		require.Len(t, order, len(tris))

		sorted := append([]int(nil), order...)
		sort.Ints(sorted)
		for j := range sorted {
			require.Equal(t, j, sorted[j], "order is a permutation")
		}

		for bi := range order {
			for ai := 0; ai < bi; ai++ {
				a, b := &tris[order[ai]], &tris[order[bi]]
				assert.False(t, occludes(eye, a, b), "eye %v: triangle %d drawn before %d but in front of it", eye, order[ai], order[bi])
			}
		}
	}
}

func TestBspParallelQuads(t *testing.T) {
	tris := append(unitQuad(2, [3]int{0, 0, 0}, 1, 0), unitQuad(2, [3]int{0, 0, 2}, 1, 1)...)
	tree := BuildBsp(tris)

	order := tree.Traverse(mgl32.Vec3{0.5, 0.5, 5}, nil)
	require.Len(t, order, 4)
	assert.ElementsMatch(t, []int{0, 1}, order[:2], "far quad first")

	order = tree.Traverse(mgl32.Vec3{0.5, 0.5, -5}, nil)
	assert.ElementsMatch(t, []int{2, 3}, order[:2])
}

func TestBspCoplanarTrianglesShareNode(t *testing.T) {
	tree := BuildBsp(unitQuad(1, [3]int{3, 3, 3}, 1, 0))
	require.Len(t, tree.Nodes, 1)
	assert.ElementsMatch(t, []int{0, 1}, tree.Nodes[tree.Root].Triangles)
	assert.Equal(t, -1, tree.Nodes[tree.Root].Front)
	assert.Equal(t, -1, tree.Nodes[tree.Root].Back)
	assert.Len(t, tree.Traverse(mgl32.Vec3{}, nil), 2)
}

func TestBspEmpty(t *testing.T) {
	tree := BuildBsp(nil)
	assert.Equal(t, -1, tree.Root)
	assert.Empty(t, tree.Traverse(mgl32.Vec3{}, nil))

	var none *BspTree
	assert.Empty(t, none.Traverse(mgl32.Vec3{}, nil))
}

func TestBspOrdersGreedyTranslucentBlobs(t *testing.T) {
	content, ids := testContent(t)
	b := NewBuilder(content, testOptions())
	rng := rand.New(rand.NewSource(7))

	for blob := 0; blob < 8; blob++ {
		s := world.NewStore()
		airChunks(s, world.ChunkCoord{}, world.ChunkCoord{})
		for i := 0; i < 30; i++ {
			id := ids.water
			if rng.Intn(2) == 0 {
				id = ids.glass
			}
			p := world.NodePos{X: 2 + rng.Intn(4), Y: 2 + rng.Intn(4), Z: 2 + rng.Intn(4)}
			s.SetNode(p, world.NewNode(id, 0, 0))
		}

		m := buildCell(t, b, s, world.ChunkCoord{}, nil)
		require.NotEmpty(t, m.Translucent)
		require.NotNil(t, m.Bsp)

		for i := 0; i < 5; i++ {
			eye := mgl32.Vec3{
				rng.Float32()*16 - 4 + 0.013,
				rng.Float32()*16 - 4 + 0.029,
				rng.Float32()*16 - 4 + 0.041,
			}
			order := m.Bsp.Traverse(eye, nil)
			require.Len(t, order, len(m.Translucent))
			for bi := range order {
				for ai := 0; ai < bi; ai++ {
					a, c := &m.Translucent[order[ai]], &m.Translucent[order[bi]]
					if occludes(eye, a, c) && !occludes(eye, c, a) {
						t.Fatalf("blob %d eye %v: %v drawn before %v but in front of it", blob, eye, a.Vertices, c.Vertices)
					}
				}
			}
		}
	}
}

func TestGreedyKeepsTranslucentFacesSingle(t *testing.T) {
	content, ids := testContent(t)
	s := world.NewStore()
	airChunks(s, world.ChunkCoord{}, world.ChunkCoord{})
	for x := 2; x < 6; x++ {
		s.SetNode(world.NodePos{X: x, Y: 5, Z: 5}, world.NewNode(ids.glass, 0, 0))
	}

	m := buildCell(t, NewBuilder(content, testOptions()), s, world.ChunkCoord{}, nil)
	// Four glass nodes in a row: 4 faces on each long side and 2 end caps.
	assert.Len(t, m.Translucent, (4*4+2)*2)
}
