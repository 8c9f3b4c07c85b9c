package scene

import (
	"encoding/binary"
	"log"
	"slices"

	"github.com/cespare/xxhash/v2"

	"voxelmesh/internal/meshing"
	"voxelmesh/internal/metrics"
	"voxelmesh/internal/world"
)

// DrawCall is one draw of a buffer. Indices overrides the buffer's own
// index list when set.
type DrawCall struct {
	Coord   world.ChunkCoord
	Layer   int
	Buffer  *meshing.MeshBuffer
	Indices []uint32
	Merged  bool
}

// IndexList returns the indices to draw.
func (c DrawCall) IndexList() []uint32 {
	if c.Indices != nil {
		return c.Indices
	}
	return c.Buffer.Indices
}

type mergedBuffer struct {
	buffer   *meshing.MeshBuffer
	ids      []uint64 // buffer id and revision pairs, by id
	cells    []world.ChunkCoord
	lastUsed uint64
}

// mergeCache keeps concatenations of small static buffers keyed by a hash
// of their sorted buffer ids.
type mergeCache struct {
	metrics *metrics.Pipeline
	entries map[uint64]*mergedBuffer
	frame   uint64
	pruned  int
}

func newMergeCache(m *metrics.Pipeline) *mergeCache {
	return &mergeCache{metrics: m, entries: make(map[uint64]*mergedBuffer)}
}

type mergePart struct {
	cell   world.ChunkCoord
	buffer *meshing.MeshBuffer
}

func mergeKey(ids []uint64) uint64 {
	var b [8]byte
	h := xxhash.New()
	for _, id := range ids {
		binary.LittleEndian.PutUint64(b[:], id)
		_, _ = h.Write(b[:])
	}
	return h.Sum64()
}

// get returns the merged buffer for parts, building it on a miss. The key
// covers each part's revision, so recoloured parts miss the cache.
func (c *mergeCache) get(mat meshing.Material, parts []mergePart) *meshing.MeshBuffer {
	slices.SortFunc(parts, func(a, b mergePart) int {
		switch {
		case a.buffer.ID < b.buffer.ID:
			return -1
		case a.buffer.ID > b.buffer.ID:
			return 1
		}
		return 0
	})
	ids := make([]uint64, 0, 2*len(parts))
	for _, p := range parts {
		ids = append(ids, p.buffer.ID, uint64(p.buffer.Revision))
	}
	key := mergeKey(ids)
	if e, ok := c.entries[key]; ok && slices.Equal(e.ids, ids) {
		e.lastUsed = c.frame
		c.metrics.MergeCacheLookup(true)
		return e.buffer
	}
	c.metrics.MergeCacheLookup(false)

	out := meshing.NewMeshBuffer(mat)
	cells := make([]world.ChunkCoord, 0, len(parts))
	for _, p := range parts {
		base := uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, p.buffer.Vertices...)
		for _, idx := range p.buffer.Indices {
			out.Indices = append(out.Indices, base+idx)
		}
		if !containsCoord(cells, p.cell) {
			cells = append(cells, p.cell)
		}
	}
	c.entries[key] = &mergedBuffer{buffer: out, ids: ids, cells: cells, lastUsed: c.frame}
	return out
}

// invalidate drops every merged buffer built from one of cells.
func (c *mergeCache) invalidate(cells []world.ChunkCoord) {
	for key, e := range c.entries {
		for _, cell := range cells {
			if containsCoord(e.cells, cell) {
				delete(c.entries, key)
				break
			}
		}
	}
}

// advance starts a new frame and drops entries unused for more than
// maxAge frames.
func (c *mergeCache) advance(maxAge int) {
	c.frame++
	for key, e := range c.entries {
		if c.frame-e.lastUsed > uint64(maxAge) {
			delete(c.entries, key)
			c.pruned++
		}
	}
	if c.frame%600 == 0 && c.pruned > 0 {
		log.Printf("scene: merge cache pruned %d buffers, %d live", c.pruned, len(c.entries))
		c.pruned = 0
	}
}

func (c *mergeCache) len() int {
	return len(c.entries)
}

type materialKey struct {
	layer int
	mat   meshing.Material
}

// opaqueCalls batches the opaque buffers of entries. Buffers below threshold
// vertices that share a material and show a single texture frame are drawn
// as one merged buffer;
// everything else is drawn on its own. Calls come out layer by layer in
// order of first appearance.
func (d *DrawList) opaqueCalls(out []DrawCall) []DrawCall {
	threshold := d.settings.MergeThreshold
	var order []materialKey
	small := make(map[materialKey][]mergePart)
	for layer := 0; layer < meshing.LayerCount; layer++ {
		for _, e := range d.entries {
			for _, b := range e.Mesh.Layers[layer] {
				if b.Material.Translucent() || len(b.Indices) == 0 {
					continue
				}
				if threshold > 0 && len(b.Vertices) < threshold && b.Material.Static() {
					k := materialKey{layer: layer, mat: b.Material}
					if _, seen := small[k]; !seen {
						order = append(order, k)
					}
					small[k] = append(small[k], mergePart{cell: e.Coord, buffer: b})
					continue
				}
				out = append(out, DrawCall{Coord: e.Coord, Layer: layer, Buffer: b})
			}
		}
	}
	for _, k := range order {
		parts := small[k]
		if len(parts) == 1 {
			out = append(out, DrawCall{Coord: parts[0].cell, Layer: k.layer, Buffer: parts[0].buffer})
			continue
		}
		out = append(out, DrawCall{Layer: k.layer, Buffer: d.merge.get(k.mat, parts), Merged: true})
	}
	slices.SortStableFunc(out, func(a, b DrawCall) int { return a.Layer - b.Layer })
	return out
}
