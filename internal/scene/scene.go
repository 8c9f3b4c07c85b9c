package scene

import (
	"fmt"
	"log"

	"voxelmesh/internal/config"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/metrics"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/registry"
	"voxelmesh/internal/world"
)

// State is the build state of a mesh cell.
type State int

const (
	Unbuilt State = iota
	Queued
	Building
	Ready
)

func (s State) String() string {
	switch s {
	case Unbuilt:
		return "unbuilt"
	case Queued:
		return "queued"
	case Building:
		return "building"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type crack struct {
	pos   world.NodePos
	level int
}

// Scene is the render goroutine's view of the built world: the current mesh
// of every cell and the bookkeeping that connects edits to rebuilds. It is
// not safe for concurrent use.
type Scene struct {
	store   *world.Store
	content *registry.Manager
	queue   *meshing.Queue
	pool    *meshing.WorkerPool
	metrics *metrics.Pipeline

	meshes  map[world.ChunkCoord]*meshing.ChunkMesh
	applied map[world.ChunkCoord]uint64 // build sequence of each installed mesh
	changed map[world.ChunkCoord]struct{}
	crack   *crack
	options meshing.Options
}

// New creates a scene applying results from pool. m may be nil.
func New(store *world.Store, content *registry.Manager, queue *meshing.Queue, pool *meshing.WorkerPool, m *metrics.Pipeline) *Scene {
	return &Scene{
		store:   store,
		content: content,
		queue:   queue,
		pool:    pool,
		metrics: m,
		meshes:  make(map[world.ChunkCoord]*meshing.ChunkMesh),
		applied: make(map[world.ChunkCoord]uint64),
		changed: make(map[world.ChunkCoord]struct{}),
	}
}

// Store returns the node store the scene meshes.
func (s *Scene) Store() *world.Store {
	return s.store
}

// CellChunks returns the mesh cell edge in chunks.
func (s *Scene) CellChunks() int {
	return s.queue.CellChunks()
}

// CellOf maps a chunk coordinate to its mesh cell.
func (s *Scene) CellOf(c world.ChunkCoord) world.ChunkCoord {
	return s.queue.CellOf(c)
}

// RequestUpdate asks for the cell containing chunk coord to be rebuilt. The
// crack overlay is attached when it lies in that cell.
func (s *Scene) RequestUpdate(coord world.ChunkCoord, ack, urgent bool) error {
	if !s.queue.AddOrUpdate(coord, ack, urgent, s.overlayFor(s.CellOf(coord))) {
		return fmt.Errorf("request %v: %w", coord, meshing.ErrNoSource)
	}
	return nil
}

func (s *Scene) overlayFor(cell world.ChunkCoord) *meshing.Overlay {
	if s.crack == nil || s.CellOf(world.ChunkOf(s.crack.pos)) != cell {
		return nil
	}
	return &meshing.Overlay{Pos: s.crack.pos}
}

// NodeChanged schedules urgent rebuilds after the node at pos was edited:
// its own cell plus every cell sharing a boundary the node touches. It
// returns the number of cells requested.
func (s *Scene) NodeChanged(pos world.NodePos) int {
	cells := s.affectedCells(pos)
	n := 0
	for _, cell := range cells {
		if err := s.requestCell(cell, true); err != nil {
			continue
		}
		n++
	}
	return n
}

// requestCell enqueues cell through any of its loaded chunks.
func (s *Scene) requestCell(cell world.ChunkCoord, urgent bool) error {
	n := s.CellChunks()
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				c := cell.Add(world.ChunkCoord{X: x, Y: y, Z: z})
				if s.store.Has(c) {
					return s.RequestUpdate(c, false, urgent)
				}
			}
		}
	}
	return fmt.Errorf("request cell %v: %w", cell, meshing.ErrNoSource)
}

func (s *Scene) affectedCells(pos world.NodePos) []world.ChunkCoord {
	own := s.CellOf(world.ChunkOf(pos))
	out := []world.ChunkCoord{own}
	for axis := 0; axis < 3; axis++ {
		for _, sign := range [2]int{-1, 1} {
			step := [3]int{}
			step[axis] = sign
			nb := s.CellOf(world.ChunkOf(pos.Add(step[0], step[1], step[2])))
			if nb != own && !containsCoord(out, nb) {
				out = append(out, nb)
			}
		}
	}
	return out
}

func containsCoord(list []world.ChunkCoord, c world.ChunkCoord) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// SetCrack moves the dig overlay to pos with the given level. Moving it
// rebuilds the old and the new cell; a level change only re-animates.
func (s *Scene) SetCrack(pos world.NodePos, level int) {
	if s.crack != nil && s.crack.pos == pos {
		s.crack.level = level
		return
	}
	s.ClearCrack()
	s.crack = &crack{pos: pos, level: level}
	if err := s.requestCell(s.CellOf(world.ChunkOf(pos)), true); err != nil {
		log.Printf("scene: crack overlay: %v", err)
	}
}

// ClearCrack removes the dig overlay.
func (s *Scene) ClearCrack() {
	if s.crack == nil {
		return
	}
	cell := s.CellOf(world.ChunkOf(s.crack.pos))
	s.crack = nil
	if err := s.requestCell(cell, true); err != nil {
		log.Printf("scene: crack overlay: %v", err)
	}
}

// CrackLevel returns the crack animation level for cell, 0 when the cell
// does not hold the overlay.
func (s *Scene) CrackLevel(cell world.ChunkCoord) int {
	if s.crack == nil || s.CellOf(world.ChunkOf(s.crack.pos)) != cell {
		return 0
	}
	return s.crack.level
}

// State returns the build state of the cell containing coord. A cell with a
// pending request is Queued even while an older build is running.
func (s *Scene) State(coord world.ChunkCoord) State {
	pending, inflight := s.queue.Status(coord)
	switch {
	case pending:
		return Queued
	case inflight:
		return Building
	}
	if _, ok := s.meshes[s.CellOf(coord)]; ok {
		return Ready
	}
	return Unbuilt
}

// Mesh returns the current mesh of cell, or nil.
func (s *Scene) Mesh(cell world.ChunkCoord) *meshing.ChunkMesh {
	return s.meshes[cell]
}

// Len returns the number of cells with a mesh.
func (s *Scene) Len() int {
	return len(s.meshes)
}

// Each calls fn for every cell with a mesh.
func (s *Scene) Each(fn func(cell world.ChunkCoord, m *meshing.ChunkMesh)) {
	for c, m := range s.meshes {
		fn(c, m)
	}
}

// cellLoaded reports whether any chunk of cell is in the store.
func (s *Scene) cellLoaded(cell world.ChunkCoord) bool {
	n := s.CellChunks()
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				if s.store.Has(cell.Add(world.ChunkCoord{X: x, Y: y, Z: z})) {
					return true
				}
			}
		}
	}
	return false
}

// ApplyResults swaps up to limit finished meshes into the scene, urgent
// ones first; limit <= 0 drains everything ready. It returns the chunk
// coordinates to acknowledge. Results for cells that were unloaded in the
// meantime are dropped, and so are results older than the installed mesh:
// urgent results overtake normal ones, so an older build can finish last.
func (s *Scene) ApplyResults(limit int) []world.ChunkCoord {
	defer profiling.Track("scene.ApplyResults")()
	var acks []world.ChunkCoord
	for i := 0; limit <= 0 || i < limit; i++ {
		r, ok := s.pool.Next()
		if !ok {
			break
		}
		if !s.cellLoaded(r.Coord) {
			log.Printf("scene: dropped mesh for unloaded cell %v", r.Coord)
			s.metrics.ResultDropped()
			continue
		}
		acks = append(acks, r.AckCoords...)
		if seq, ok := s.applied[r.Coord]; ok && r.Seq < seq {
			s.metrics.ResultDropped()
			continue
		}
		s.meshes[r.Coord] = r.Mesh
		s.applied[r.Coord] = r.Seq
		s.changed[r.Coord] = struct{}{}
	}
	return acks
}

// Idle reports whether no build is pending, running or waiting to be
// applied.
func (s *Scene) Idle() bool {
	return s.queue.Len() == 0 && s.queue.InFlight() == 0 && s.pool.Ready() == 0
}

// takeChanged returns and forgets the cells whose mesh was replaced since
// the last call.
func (s *Scene) takeChanged() []world.ChunkCoord {
	if len(s.changed) == 0 {
		return nil
	}
	out := make([]world.ChunkCoord, 0, len(s.changed))
	for c := range s.changed {
		out = append(out, c)
	}
	clear(s.changed)
	return out
}

// Prune drops the meshes of cells with no loaded chunk left and returns how
// many were removed.
func (s *Scene) Prune() int {
	removed := 0
	for c := range s.meshes {
		if !s.cellLoaded(c) {
			delete(s.meshes, c)
			delete(s.applied, c)
			s.changed[c] = struct{}{}
			removed++
		}
	}
	return removed
}

// ApplySettings installs a new builder when the mesh settings changed and
// queues every built cell for a rebuild. The cell size is fixed for the
// lifetime of the queue.
func (s *Scene) ApplySettings(settings config.Settings) {
	opts := meshing.OptionsFrom(settings.Mesh)
	if opts == s.options {
		return
	}
	first := s.options == (meshing.Options{})
	s.options = opts
	if settings.Mesh.MeshChunk != s.CellChunks() {
		log.Printf("scene: mesh_chunk %d takes effect after restart", settings.Mesh.MeshChunk)
	}
	s.pool.SetBuilder(meshing.NewBuilder(s.content, opts))
	if first {
		return
	}
	for cell := range s.meshes {
		_ = s.requestCell(cell, false)
	}
	log.Printf("scene: mesh settings changed, rebuilding %d cells", len(s.meshes))
}
