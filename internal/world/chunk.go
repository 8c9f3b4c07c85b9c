package world

// Chunk is a ChunkSize^3 cube of nodes. Chunks are only mutated through the
// Store, which bumps Version on every change.
type Chunk struct {
	Coord   ChunkCoord
	nodes   [ChunkVolume]Node
	version uint64
}

// NewChunk creates an all-air chunk at the specified chunk coordinates.
func NewChunk(coord ChunkCoord) *Chunk {
	return &Chunk{Coord: coord}
}

func index(x, y, z int) int {
	return (z*ChunkSize+y)*ChunkSize + x
}

// Get returns the node at local coordinates, or UnknownNode when out of range.
func (c *Chunk) Get(x, y, z int) Node {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkSize {
		return UnknownNode
	}
	return c.nodes[index(x, y, z)]
}

// Set stores n at local coordinates. It reports whether the node changed.
func (c *Chunk) Set(x, y, z int, n Node) bool {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkSize {
		return false
	}
	i := index(x, y, z)
	if c.nodes[i] == n {
		return false
	}
	c.nodes[i] = n
	c.version++
	return true
}

// Fill sets every node of the chunk to n.
func (c *Chunk) Fill(n Node) {
	for i := range c.nodes {
		c.nodes[i] = n
	}
	c.version++
}

// Version increases on every modification.
func (c *Chunk) Version() uint64 {
	return c.version
}
