package world

import (
	"sync"

	"voxelmesh/internal/profiling"
)

type slot struct {
	coord ChunkCoord
	chunk *Chunk
	pins  int32
	live  bool
}

// Store is an arena of loaded chunks. Coordinates map to stable slot indices;
// a slot is only recycled once its chunk is evicted and every Pin on it has
// been released, so pinned chunks stay readable for as long as a build needs
// them.
type Store struct {
	mu       sync.RWMutex
	index    map[ChunkCoord]int32
	slots    []slot
	free     []int32
	modCount uint64
}

// NewStore creates an empty chunk store.
func NewStore() *Store {
	return &Store{index: make(map[ChunkCoord]int32)}
}

// Put installs c, replacing any chunk already stored at c.Coord.
func (s *Store) Put(c *Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modCount++
	if i, ok := s.index[c.Coord]; ok {
		s.slots[i].chunk = c
		return
	}
	var i int32
	if n := len(s.free); n > 0 {
		i = s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[i] = slot{coord: c.Coord, chunk: c, live: true}
	} else {
		i = int32(len(s.slots))
		s.slots = append(s.slots, slot{coord: c.Coord, chunk: c, live: true})
	}
	s.index[c.Coord] = i
}

// Get returns the chunk at coord, or nil when it is not loaded.
func (s *Store) Get(coord ChunkCoord) *Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[coord]; ok {
		return s.slots[i].chunk
	}
	return nil
}

// Has reports whether a chunk is loaded at coord.
func (s *Store) Has(coord ChunkCoord) bool {
	s.mu.RLock()
	_, ok := s.index[coord]
	s.mu.RUnlock()
	return ok
}

// Version returns the modification counter of the chunk at coord.
func (s *Store) Version(coord ChunkCoord) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[coord]
	if !ok {
		return 0, false
	}
	return s.slots[i].chunk.Version(), true
}

// Len returns the number of loaded chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// ModCount increases on every chunk add, replace or removal.
func (s *Store) ModCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modCount
}

// Coords returns the coordinates of all loaded chunks.
func (s *Store) Coords() []ChunkCoord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChunkCoord, 0, len(s.index))
	for c := range s.index {
		out = append(out, c)
	}
	return out
}

// GetNode returns the node at world position p, or UnknownNode.
func (s *Store) GetNode(p NodePos) Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[ChunkOf(p)]
	if !ok {
		return UnknownNode
	}
	x, y, z := p.Local()
	return s.slots[i].chunk.Get(x, y, z)
}

// SetNode stores n at world position p. It returns the chunks whose meshes
// are affected: the owning chunk plus every loaded neighbour sharing the
// touched boundary. Nothing is returned when the chunk is not loaded or the
// node did not change.
func (s *Store) SetNode(p NodePos, n Node) []ChunkCoord {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner := ChunkOf(p)
	i, ok := s.index[owner]
	if !ok {
		return nil
	}
	x, y, z := p.Local()
	if !s.slots[i].chunk.Set(x, y, z, n) {
		return nil
	}
	affected := []ChunkCoord{owner}
	local := [3]int{x, y, z}
	for axis := 0; axis < 3; axis++ {
		var step ChunkCoord
		switch local[axis] {
		case 0:
			step = axisStep(axis, -1)
		case ChunkSize - 1:
			step = axisStep(axis, +1)
		default:
			continue
		}
		nb := owner.Add(step)
		if _, ok := s.index[nb]; ok {
			affected = append(affected, nb)
		}
	}
	return affected
}

func axisStep(axis, sign int) ChunkCoord {
	switch axis {
	case 0:
		return ChunkCoord{X: sign}
	case 1:
		return ChunkCoord{Y: sign}
	default:
		return ChunkCoord{Z: sign}
	}
}

// Evict removes the chunk at coord. Its slot is recycled once unpinned.
func (s *Store) Evict(coord ChunkCoord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(coord)
}

func (s *Store) evictLocked(coord ChunkCoord) bool {
	i, ok := s.index[coord]
	if !ok {
		return false
	}
	delete(s.index, coord)
	s.modCount++
	s.slots[i].live = false
	if s.slots[i].pins == 0 {
		s.releaseSlotLocked(i)
	}
	return true
}

func (s *Store) releaseSlotLocked(i int32) {
	s.slots[i] = slot{}
	s.free = append(s.free, i)
}

// EvictFar removes chunks whose XZ distance from center exceeds radius.
// Returns number of removed chunks.
func (s *Store) EvictFar(center ChunkCoord, radius int) int {
	defer profiling.Track("world.EvictFar")()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for coord := range s.index {
		dx := coord.X - center.X
		dz := coord.Z - center.Z
		if dx*dx+dz*dz > radius*radius {
			s.evictLocked(coord)
			removed++
		}
	}
	return removed
}

// Pin keeps the slot of the chunk at coord alive until the returned guard is
// released. It returns nil when no chunk is loaded at coord.
func (s *Store) Pin(coord ChunkCoord) *Pin {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[coord]
	if !ok {
		return nil
	}
	s.slots[i].pins++
	return &Pin{store: s, slot: i, coord: coord}
}

// Pins returns the number of outstanding pins on the chunk at coord.
func (s *Store) Pins(coord ChunkCoord) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[coord]; ok {
		return int(s.slots[i].pins)
	}
	return 0
}

func (s *Store) unpin(i int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[i].pins--
	if s.slots[i].pins == 0 && !s.slots[i].live {
		s.releaseSlotLocked(i)
	}
}

// Pin is a scoped reference on a stored chunk. Release is idempotent and
// safe to defer on every exit path.
type Pin struct {
	store *Store
	slot  int32
	coord ChunkCoord
	once  sync.Once
}

// Coord returns the pinned chunk coordinate.
func (p *Pin) Coord() ChunkCoord {
	return p.coord
}

// Release drops the reference.
func (p *Pin) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() { p.store.unpin(p.slot) })
}

// ReleaseAll releases every pin in pins.
func ReleaseAll(pins []*Pin) {
	for _, p := range pins {
		p.Release()
	}
}
