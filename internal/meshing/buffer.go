package meshing

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/registry"
)

// ErrCorruptBuffer is returned when a buffer's indices reference vertices it
// does not have. It is the only build error that stops the worker pool.
var ErrCorruptBuffer = errors.New("corrupt mesh buffer")

// Vertex is one corner of a face in world space.
type Vertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2
	Color  [4]uint8
}

// Material identifies everything that must match for two faces to share a
// buffer and a draw call.
type Material struct {
	Type        registry.MaterialType
	Layer       int // texture array layer of frame 0
	Frames      int
	FrameMillis int
	Waving      uint8
	Crack       bool
}

// Translucent reports whether the material is drawn in the sorted pass.
func (m Material) Translucent() bool {
	return m.Type.Translucent()
}

// Animated reports whether the material cycles texture frames.
func (m Material) Animated() bool {
	return m.Frames > 1 && m.FrameMillis > 0
}

// Static reports whether buffers of this material keep their texture frame
// after build. Day/night recolouring still bumps the revision.
func (m Material) Static() bool {
	return !m.Animated() && !m.Crack
}

var bufferIDs atomic.Uint64

// MeshBuffer is a vertex and index list sharing one material. Geometry is
// fixed once built; Frame and the vertex colours are updated on the render
// goroutine by ChunkMesh.Animate, which bumps Revision.
type MeshBuffer struct {
	ID       uint64
	Material Material
	Vertices []Vertex
	Indices  []uint32

	Frame    int
	Revision uint32
}

func newMeshBuffer(mat Material) *MeshBuffer {
	return &MeshBuffer{ID: bufferIDs.Add(1), Material: mat}
}

// NewMeshBuffer returns an empty buffer with a fresh ID.
func NewMeshBuffer(mat Material) *MeshBuffer {
	return newMeshBuffer(mat)
}

// TriangleCount returns the number of indexed triangles.
func (b *MeshBuffer) TriangleCount() int {
	return len(b.Indices) / 3
}

// Validate checks that every index addresses a vertex.
func (b *MeshBuffer) Validate() error {
	if len(b.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a triangle list", ErrCorruptBuffer, len(b.Indices))
	}
	n := uint32(len(b.Vertices))
	for i, idx := range b.Indices {
		if idx >= n {
			return fmt.Errorf("%w: index %d at %d, %d vertices", ErrCorruptBuffer, idx, i, n)
		}
	}
	return nil
}

// appendQuad adds four vertices and the two triangles joining them. flip
// picks the other diagonal.
func (b *MeshBuffer) appendQuad(v [4]Vertex, flip bool) {
	base := uint32(len(b.Vertices))
	b.Vertices = append(b.Vertices, v[0], v[1], v[2], v[3])
	if flip {
		b.Indices = append(b.Indices, base+1, base+2, base+3, base+3, base, base+1)
		return
	}
	b.Indices = append(b.Indices, base, base+1, base+2, base+2, base+3, base)
}

// Triangle returns the positions of triangle i.
func (b *MeshBuffer) Triangle(i int) [3]mgl32.Vec3 {
	return [3]mgl32.Vec3{
		b.Vertices[b.Indices[3*i]].Pos,
		b.Vertices[b.Indices[3*i+1]].Pos,
		b.Vertices[b.Indices[3*i+2]].Pos,
	}
}

// PartialBuffer draws a reordered subset of a buffer's triangles. The base
// buffer is shared and never modified.
type PartialBuffer struct {
	Buffer  *MeshBuffer
	Indices []uint32
}

// TriangleCount returns the number of triangles drawn.
func (p PartialBuffer) TriangleCount() int {
	return len(p.Indices) / 3
}
