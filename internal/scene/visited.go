package scene

import "voxelmesh/internal/world"

const (
	groupShift  = 3
	groupEdge   = 1 << groupShift
	groupVolume = groupEdge * groupEdge * groupEdge
)

// Flags stored per cell in a visitedSet. The low three bits record the axes
// through which the cell was reached.
const (
	flagQueued = 1 << 3
	sideMask   = 0x07
)

type groupKey struct {
	X, Y, Z int
}

type bitGroup [groupVolume / 2]uint8

// visitedSet is a sparse per-pass map from cell index to four flag bits.
// Cells are grouped groupEdge per axis; each group is a fixed bitfield in
// groups, addressed through index.
type visitedSet struct {
	index  map[groupKey]int
	groups []bitGroup
}

func newVisitedSet() *visitedSet {
	return &visitedSet{index: make(map[groupKey]int)}
}

// reset forgets every cell, keeping the allocations.
func (v *visitedSet) reset() {
	clear(v.index)
	v.groups = v.groups[:0]
}

func locate(c world.ChunkCoord) (groupKey, int, uint) {
	k := groupKey{X: c.X >> groupShift, Y: c.Y >> groupShift, Z: c.Z >> groupShift}
	lx := c.X & (groupEdge - 1)
	ly := c.Y & (groupEdge - 1)
	lz := c.Z & (groupEdge - 1)
	i := (lz*groupEdge+ly)*groupEdge + lx
	return k, i >> 1, uint(i&1) * 4
}

// get returns the flags of cell index c.
func (v *visitedSet) get(c world.ChunkCoord) uint8 {
	k, byteIdx, shift := locate(c)
	g, ok := v.index[k]
	if !ok {
		return 0
	}
	return v.groups[g][byteIdx] >> shift & 0x0F
}

// set ORs flags into cell index c and returns the previous flags.
func (v *visitedSet) set(c world.ChunkCoord, flags uint8) uint8 {
	k, byteIdx, shift := locate(c)
	g, ok := v.index[k]
	if !ok {
		g = len(v.groups)
		if g < cap(v.groups) {
			v.groups = v.groups[:g+1]
			v.groups[g] = bitGroup{}
		} else {
			v.groups = append(v.groups, bitGroup{})
		}
		v.index[k] = g
	}
	b := &v.groups[g][byteIdx]
	old := *b >> shift & 0x0F
	*b |= (flags & 0x0F) << shift
	return old
}

// len returns the number of allocated groups.
func (v *visitedSet) len() int {
	return len(v.groups)
}
