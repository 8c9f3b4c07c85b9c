package world

import "voxelmesh/internal/profiling"

// Halo is the number of neighbour nodes copied around a mesh cell.
const Halo = 1

// Snapshot is an immutable padded copy of a mesh cell's nodes plus a halo of
// neighbour nodes. Nodes of chunks that were not loaded when the snapshot was
// taken read as UnknownNode.
type Snapshot struct {
	Cell       ChunkCoord
	CellChunks int

	origin NodePos // world position of the cell's minimum node
	inner  int     // cell edge in nodes
	size   int     // padded edge in nodes
	nodes  []Node
}

// Origin returns the world position of the cell's minimum node.
func (s *Snapshot) Origin() NodePos {
	return s.origin
}

// Size returns the cell edge length in nodes, halo excluded.
func (s *Snapshot) Size() int {
	return s.inner
}

// At returns the node at cell-relative coordinates. Valid ranges are
// [-Halo, Size()+Halo); anything else reads as UnknownNode.
func (s *Snapshot) At(x, y, z int) Node {
	x += Halo
	y += Halo
	z += Halo
	if x < 0 || x >= s.size || y < 0 || y >= s.size || z < 0 || z >= s.size {
		return UnknownNode
	}
	return s.nodes[(z*s.size+y)*s.size+x]
}

// Get returns the node at world position p.
func (s *Snapshot) Get(p NodePos) Node {
	return s.At(p.X-s.origin.X, p.Y-s.origin.Y, p.Z-s.origin.Z)
}

// Snapshot copies the nodes of the mesh cell starting at chunk cell (spanning
// cellChunks chunks per edge) plus a Halo-node border. The store lock is held
// only for the copy. Chunks evicted since pins were taken are still read
// through their pinned slots.
func (s *Store) Snapshot(cell ChunkCoord, cellChunks int, pins ...*Pin) *Snapshot {
	defer profiling.Track("world.Snapshot")()
	if cellChunks < 1 {
		cellChunks = 1
	}
	inner := cellChunks * ChunkSize
	size := inner + 2*Halo
	snap := &Snapshot{
		Cell:       cell,
		CellChunks: cellChunks,
		origin:     cell.Origin(),
		inner:      inner,
		size:       size,
		nodes:      make([]Node, size*size*size),
	}
	for i := range snap.nodes {
		snap.nodes[i] = UnknownNode
	}
	min := snap.origin.Add(-Halo, -Halo, -Halo)
	max := snap.origin.Add(inner+Halo-1, inner+Halo-1, inner+Halo-1)
	cmin := ChunkOf(min)
	cmax := ChunkOf(max)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for cz := cmin.Z; cz <= cmax.Z; cz++ {
		for cy := cmin.Y; cy <= cmax.Y; cy++ {
			for cx := cmin.X; cx <= cmax.X; cx++ {
				i, ok := s.index[ChunkCoord{X: cx, Y: cy, Z: cz}]
				if !ok {
					continue
				}
				snap.copyChunk(s.slots[i].chunk, min, max)
			}
		}
	}
	for _, p := range pins {
		if p == nil || p.store != s {
			continue
		}
		if _, live := s.index[p.coord]; live {
			continue
		}
		sl := s.slots[p.slot]
		if sl.chunk == nil || sl.coord != p.coord || !within(p.coord, cmin, cmax) {
			continue
		}
		snap.copyChunk(sl.chunk, min, max)
	}
	return snap
}

func within(c, min, max ChunkCoord) bool {
	return c.X >= min.X && c.X <= max.X &&
		c.Y >= min.Y && c.Y <= max.Y &&
		c.Z >= min.Z && c.Z <= max.Z
}

func (snap *Snapshot) copyChunk(c *Chunk, min, max NodePos) {
	o := c.Coord.Origin()
	x0, x1 := clampRange(o.X, min.X, max.X)
	y0, y1 := clampRange(o.Y, min.Y, max.Y)
	z0, z1 := clampRange(o.Z, min.Z, max.Z)
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			row := ((z-min.Z)*snap.size + (y - min.Y)) * snap.size
			for x := x0; x <= x1; x++ {
				snap.nodes[row+x-min.X] = c.nodes[index(x-o.X, y-o.Y, z-o.Z)]
			}
		}
	}
}

// clampRange intersects the chunk span starting at origin with [lo, hi].
func clampRange(origin, lo, hi int) (int, int) {
	a, b := origin, origin+ChunkSize-1
	if a < lo {
		a = lo
	}
	if b > hi {
		b = hi
	}
	return a, b
}
