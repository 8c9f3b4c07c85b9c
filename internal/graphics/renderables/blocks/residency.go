package blocks

import "voxelmesh/internal/meshing"

// residency tracks which mesh buffers live on the GPU. Buffers are keyed by
// ID; a changed Revision means the vertex colours must be uploaded again.
// Buffers not drawn for maxAge frames are handed back for deletion, which
// covers replaced meshes and merged buffers the scene stopped using.
type residency struct {
	buffers map[uint64]*gpuBuffer
	frame   uint64
	maxAge  uint64
	freed   []*gpuBuffer
}

func newResidency(maxAge uint64) *residency {
	return &residency{buffers: make(map[uint64]*gpuBuffer), maxAge: maxAge}
}

// begin starts a new frame.
func (r *residency) begin() {
	r.frame++
}

// acquire returns the GPU slot of b and whether its vertices are stale.
func (r *residency) acquire(b *meshing.MeshBuffer) (*gpuBuffer, bool) {
	g, ok := r.buffers[b.ID]
	if !ok {
		g = &gpuBuffer{}
		r.buffers[b.ID] = g
	}
	g.lastUsed = r.frame
	return g, !g.uploaded || g.revision != b.Revision
}

// sweep removes slots unused for more than maxAge frames and returns them.
// The returned slice is reused by the next call.
func (r *residency) sweep() []*gpuBuffer {
	r.freed = r.freed[:0]
	for id, g := range r.buffers {
		if r.frame-g.lastUsed > r.maxAge {
			r.freed = append(r.freed, g)
			delete(r.buffers, id)
		}
	}
	return r.freed
}

// drain removes every slot.
func (r *residency) drain() []*gpuBuffer {
	r.freed = r.freed[:0]
	for id, g := range r.buffers {
		r.freed = append(r.freed, g)
		delete(r.buffers, id)
	}
	return r.freed
}

func (r *residency) len() int {
	return len(r.buffers)
}
