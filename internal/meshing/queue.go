package meshing

import (
	"context"
	"errors"
	"log"
	"sync"

	"voxelmesh/internal/metrics"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/world"
)

// ErrNoSource is returned when a build is requested for a chunk that is not loaded.
var ErrNoSource = errors.New("no source chunk loaded")

// ErrQueueClosed is returned by PopWait after Close.
var ErrQueueClosed = errors.New("mesh queue closed")

// Overlay marks a node drawn with the crack overlay, e.g. while it is being dug.
type Overlay struct {
	Pos world.NodePos
}

// BuildRequest is one pending or in-flight mesh cell build.
type BuildRequest struct {
	Coord     world.ChunkCoord // mesh cell, addressed by its minimum chunk
	Urgent    bool
	Overlay   *Overlay
	AckCoords []world.ChunkCoord

	// Seq orders builds of the same cell; it is assigned when the request
	// is popped and grows with every pop.
	Seq uint64

	// Snapshot is taken when the request is popped.
	Snapshot *world.Snapshot

	pins map[world.ChunkCoord]*world.Pin
}

func (r *BuildRequest) addAck(c world.ChunkCoord) {
	for _, a := range r.AckCoords {
		if a == c {
			return
		}
	}
	r.AckCoords = append(r.AckCoords, c)
}

func (r *BuildRequest) pinList() []*world.Pin {
	out := make([]*world.Pin, 0, len(r.pins))
	for _, p := range r.pins {
		out = append(out, p)
	}
	return out
}

func (r *BuildRequest) release() {
	for c, p := range r.pins {
		p.Release()
		delete(r.pins, c)
	}
}

// Queue holds pending build requests, at most one per mesh cell, and the set
// of cells currently being built.
type Queue struct {
	store      *world.Store
	cellChunks int
	metrics    *metrics.Pipeline

	mu       sync.Mutex
	pending  []*BuildRequest
	byCell   map[world.ChunkCoord]*BuildRequest
	inflight map[world.ChunkCoord]struct{}
	seq      uint64
	closed   bool

	// wake holds a token whenever work may be available.
	wake     chan struct{}
	shutdown chan struct{}
}

// NewQueue creates a queue over store grouping cellChunks chunks per mesh
// cell edge. m may be nil.
func NewQueue(store *world.Store, cellChunks int, m *metrics.Pipeline) *Queue {
	return &Queue{
		store:      store,
		cellChunks: max(1, cellChunks),
		metrics:    m,
		byCell:     make(map[world.ChunkCoord]*BuildRequest),
		inflight:   make(map[world.ChunkCoord]struct{}),
		wake:       make(chan struct{}, 1),
		shutdown:   make(chan struct{}),
	}
}

// CellChunks returns the mesh cell edge in chunks.
func (q *Queue) CellChunks() int {
	return q.cellChunks
}

// CellOf maps a chunk coordinate to its mesh cell.
func (q *Queue) CellOf(c world.ChunkCoord) world.ChunkCoord {
	return world.CellOf(c, q.cellChunks)
}

// AddOrUpdate requests a build of the cell containing chunk coord. A pending
// request for the same cell absorbs it: acknowledgements are unioned,
// urgency is OR-ed and the overlay is replaced. It returns false when no
// chunk is loaded at coord.
func (q *Queue) AddOrUpdate(coord world.ChunkCoord, ack, urgent bool, overlay *Overlay) bool {
	if !q.store.Has(coord) {
		log.Printf("meshing: rejected request for %v: %v", coord, ErrNoSource)
		q.metrics.RequestRejected()
		return false
	}
	cell := q.CellOf(coord)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	req, ok := q.byCell[cell]
	if !ok {
		req = &BuildRequest{Coord: cell, pins: make(map[world.ChunkCoord]*world.Pin)}
		q.byCell[cell] = req
		q.pending = append(q.pending, req)
	}
	req.Urgent = req.Urgent || urgent
	req.Overlay = overlay
	if ack {
		req.addAck(coord)
	}
	q.pinSourcesLocked(req)
	n := len(q.pending)
	q.mu.Unlock()

	q.metrics.QueueLength(n)
	q.signal()
	return true
}

// pinSourcesLocked pins every loaded chunk of the cell and its one-chunk
// border that the request does not hold yet.
func (q *Queue) pinSourcesLocked(req *BuildRequest) {
	n := q.cellChunks
	for z := -1; z <= n; z++ {
		for y := -1; y <= n; y++ {
			for x := -1; x <= n; x++ {
				c := req.Coord.Add(world.ChunkCoord{X: x, Y: y, Z: z})
				if _, held := req.pins[c]; held {
					continue
				}
				if p := q.store.Pin(c); p != nil {
					req.pins[c] = p
				}
			}
		}
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes and returns the first urgent request whose cell is not being
// built, or else the first such normal request. The cell is marked in
// flight and its snapshot taken. Pop returns nil when nothing is eligible.
func (q *Queue) Pop() *BuildRequest {
	q.mu.Lock()
	pick := -1
	for i, r := range q.pending {
		if _, busy := q.inflight[r.Coord]; busy {
			continue
		}
		if r.Urgent {
			pick = i
			break
		}
		if pick < 0 {
			pick = i
		}
	}
	if pick < 0 {
		q.mu.Unlock()
		return nil
	}
	req := q.pending[pick]
	q.pending = append(q.pending[:pick], q.pending[pick+1:]...)
	delete(q.byCell, req.Coord)
	q.inflight[req.Coord] = struct{}{}
	q.seq++
	req.Seq = q.seq
	more := len(q.pending) > 0
	n := len(q.pending)
	q.mu.Unlock()

	q.metrics.QueueLength(n)
	if more {
		q.signal()
	}

	done := profiling.Track("meshing.Queue.Snapshot")
	req.Snapshot = q.store.Snapshot(req.Coord, q.cellChunks, req.pinList()...)
	done()
	return req
}

// PopWait blocks until a request can be popped, ctx is done or the queue is
// closed.
func (q *Queue) PopWait(ctx context.Context) (*BuildRequest, error) {
	for {
		if req := q.Pop(); req != nil {
			return req, nil
		}
		select {
		case <-q.wake:
		case <-q.shutdown:
			return nil, ErrQueueClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Done ends the build of req: the cell leaves the in-flight set, the
// request's pins are released and its snapshot dropped.
func (q *Queue) Done(req *BuildRequest) {
	q.mu.Lock()
	delete(q.inflight, req.Coord)
	waiting := len(q.pending) > 0
	q.mu.Unlock()

	req.release()
	req.Snapshot = nil
	if waiting {
		q.signal()
	}
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// InFlight returns the number of cells being built.
func (q *Queue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inflight)
}

// Status reports whether the cell containing coord has a pending request
// and whether it is being built.
func (q *Queue) Status(coord world.ChunkCoord) (pending, inflight bool) {
	cell := q.CellOf(coord)
	q.mu.Lock()
	defer q.mu.Unlock()
	_, pending = q.byCell[cell]
	_, inflight = q.inflight[cell]
	return pending, inflight
}

// Close drops every pending request, releasing their pins, and wakes
// blocked PopWait calls. In-flight requests are still finished with Done.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	pending := q.pending
	q.pending = nil
	q.byCell = make(map[world.ChunkCoord]*BuildRequest)
	q.mu.Unlock()

	for _, r := range pending {
		r.release()
	}
	close(q.shutdown)
	q.metrics.QueueLength(0)
}
