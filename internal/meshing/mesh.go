package meshing

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/world"
)

// LayerCount is the number of draw layers: base tiles and tile overlays.
const LayerCount = 2

// DayNightRatio is the ratio at full daylight; 0 is full night.
const DayNightRatio = 1000

// BufferRef addresses a buffer inside a ChunkMesh.
type BufferRef struct {
	Layer  int
	Buffer int
}

// TranslucentTriangle is one alpha-blended triangle with the data the BSP
// and the sorter need.
type TranslucentTriangle struct {
	Ref      BufferRef
	First    uint32 // offset of the triangle's first index in the buffer
	Vertices [3]mgl32.Vec3
	Centroid mgl32.Vec3
	Normal   mgl32.Vec3
	Area     float32
}

func newTranslucentTriangle(ref BufferRef, first uint32, v [3]mgl32.Vec3) TranslucentTriangle {
	cross := v[1].Sub(v[0]).Cross(v[2].Sub(v[0]))
	area := cross.Len() / 2
	normal := mgl32.Vec3{}
	if area > 0 {
		normal = cross.Normalize()
	}
	return TranslucentTriangle{
		Ref:      ref,
		First:    first,
		Vertices: v,
		Centroid: v[0].Add(v[1]).Add(v[2]).Mul(1.0 / 3),
		Normal:   normal,
		Area:     area,
	}
}

// LightPair holds the day and night colour of a vertex whose banks differ.
type LightPair struct {
	Vertex uint32
	Day    [3]uint8
	Night  [3]uint8
}

type animation struct {
	ref         BufferRef
	frames      int
	frameMillis int
	frame       int
}

type dayNight struct {
	ref   BufferRef
	pairs []LightPair
}

// ChunkMesh is the geometry of one mesh cell. It is created by a worker and
// afterwards owned by the render goroutine.
type ChunkMesh struct {
	Coord  world.ChunkCoord
	Layers [LayerCount][]*MeshBuffer

	Translucent []TranslucentTriangle
	Bsp         *BspTree

	Center mgl32.Vec3
	Radius float32

	// SolidSides has bit world.Face set when the cell's boundary node layer
	// on that side is entirely opaque.
	SolidSides uint8

	animations []animation
	dayNight   []dayNight
	cracks     []BufferRef

	lastRatio int
	lastCrack int
}

// Buffer returns the buffer at ref.
func (m *ChunkMesh) Buffer(ref BufferRef) *MeshBuffer {
	return m.Layers[ref.Layer][ref.Buffer]
}

// Empty reports whether the mesh has no triangles.
func (m *ChunkMesh) Empty() bool {
	return m.TriangleCount() == 0
}

// TriangleCount returns the triangles across every layer.
func (m *ChunkMesh) TriangleCount() int {
	n := 0
	for _, layer := range m.Layers {
		for _, b := range layer {
			n += b.TriangleCount()
		}
	}
	return n
}

// VertexCount returns the vertices across every layer.
func (m *ChunkMesh) VertexCount() int {
	n := 0
	for _, layer := range m.Layers {
		for _, b := range layer {
			n += len(b.Vertices)
		}
	}
	return n
}

// Animate advances texture animations, the crack level and the day/night
// blend. Work is done only for values that changed since the last call; it
// reports whether any buffer was modified.
func (m *ChunkMesh) Animate(now time.Duration, dayNightRatio, crackLevel int) bool {
	changed := false
	ms := now.Milliseconds()
	for i := range m.animations {
		a := &m.animations[i]
		frame := int((ms / int64(a.frameMillis)) % int64(a.frames))
		if frame == a.frame {
			continue
		}
		a.frame = frame
		b := m.Buffer(a.ref)
		b.Frame = frame
		b.Revision++
		changed = true
	}

	if crackLevel != m.lastCrack {
		m.lastCrack = crackLevel
		for _, ref := range m.cracks {
			b := m.Buffer(ref)
			b.Frame = crackLevel
			b.Revision++
			changed = true
		}
	}

	dayNightRatio = max(0, min(DayNightRatio, dayNightRatio))
	if dayNightRatio != m.lastRatio {
		m.lastRatio = dayNightRatio
		for _, d := range m.dayNight {
			b := m.Buffer(d.ref)
			for _, p := range d.pairs {
				c := &b.Vertices[p.Vertex].Color
				for ch := 0; ch < 3; ch++ {
					c[ch] = blendLight(p.Day[ch], p.Night[ch], dayNightRatio)
				}
			}
			b.Revision++
			changed = true
		}
	}
	return changed
}

func blendLight(day, night uint8, ratio int) uint8 {
	v := (int(day)*ratio + int(night)*(DayNightRatio-ratio) + DayNightRatio/2) / DayNightRatio
	return uint8(v)
}

// TranslucentBuffers returns the mesh's translucent triangles ordered back to
// front for a viewer at viewpoint. Consecutive triangles from the same buffer
// share one PartialBuffer.
func (m *ChunkMesh) TranslucentBuffers(viewpoint mgl32.Vec3) []PartialBuffer {
	if len(m.Translucent) == 0 {
		return nil
	}
	var order []int
	if m.Bsp != nil {
		order = m.Bsp.Traverse(viewpoint, make([]int, 0, len(m.Translucent)))
	} else {
		order = make([]int, len(m.Translucent))
		for i := range order {
			order[i] = i
		}
	}

	var out []PartialBuffer
	var cur BufferRef
	for _, ti := range order {
		tri := m.Translucent[ti]
		b := m.Buffer(tri.Ref)
		if len(out) == 0 || tri.Ref != cur {
			out = append(out, PartialBuffer{Buffer: b})
			cur = tri.Ref
		}
		last := &out[len(out)-1]
		last.Indices = append(last.Indices, b.Indices[tri.First:tri.First+3]...)
	}
	return out
}

// DistanceTo returns the distance from p to the mesh's bounding sphere
// surface, or 0 when p is inside it.
func (m *ChunkMesh) DistanceTo(p mgl32.Vec3) float32 {
	d := m.Center.Sub(p).Len() - m.Radius
	return float32(math.Max(0, float64(d)))
}
