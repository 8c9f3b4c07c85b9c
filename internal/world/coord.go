package world

import "math"

// ChunkSize is the edge length of a chunk in nodes.
const (
	ChunkSize   = 16
	ChunkVolume = ChunkSize * ChunkSize * ChunkSize
)

// ChunkCoord addresses a chunk on the chunk grid.
type ChunkCoord struct {
	X, Y, Z int
}

// NodePos is a world-space node position.
type NodePos struct {
	X, Y, Z int
}

// Add returns c offset by o.
func (c ChunkCoord) Add(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// Sub returns c - o.
func (c ChunkCoord) Sub(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

// Axis returns the component for axis 0 (X), 1 (Y) or 2 (Z).
func (c ChunkCoord) Axis(a int) int {
	switch a {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

// Origin returns the world position of the chunk's minimum corner node.
func (c ChunkCoord) Origin() NodePos {
	return NodePos{X: c.X * ChunkSize, Y: c.Y * ChunkSize, Z: c.Z * ChunkSize}
}

// CellOf returns the mesh cell that contains chunk c when cells span
// cellChunks chunks per edge. Cells are addressed by their minimum chunk.
func CellOf(c ChunkCoord, cellChunks int) ChunkCoord {
	if cellChunks <= 1 {
		return c
	}
	return ChunkCoord{
		X: floorDiv(c.X, cellChunks) * cellChunks,
		Y: floorDiv(c.Y, cellChunks) * cellChunks,
		Z: floorDiv(c.Z, cellChunks) * cellChunks,
	}
}

// ChunkOf returns the chunk containing world node p.
func ChunkOf(p NodePos) ChunkCoord {
	return ChunkCoord{X: floorDiv(p.X, ChunkSize), Y: floorDiv(p.Y, ChunkSize), Z: floorDiv(p.Z, ChunkSize)}
}

// ChunkAt returns the chunk containing the world-space point (x, y, z).
func ChunkAt(x, y, z float32) ChunkCoord {
	return ChunkOf(NodePos{
		X: int(math.Floor(float64(x))),
		Y: int(math.Floor(float64(y))),
		Z: int(math.Floor(float64(z))),
	})
}

// Local returns p relative to its chunk origin.
func (p NodePos) Local() (x, y, z int) {
	return mod(p.X, ChunkSize), mod(p.Y, ChunkSize), mod(p.Z, ChunkSize)
}

// Add returns p offset by (dx, dy, dz).
func (p NodePos) Add(dx, dy, dz int) NodePos {
	return NodePos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
