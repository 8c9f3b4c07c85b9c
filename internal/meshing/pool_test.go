package meshing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelmesh/internal/world"
)

// recordingBuilder fails the test run if two builds of one cell overlap.
type recordingBuilder struct {
	delay time.Duration
	err   error

	mu      sync.Mutex
	active  map[world.ChunkCoord]int
	overlap bool
	calls   atomic.Int32
}

func newRecordingBuilder(delay time.Duration, err error) *recordingBuilder {
	return &recordingBuilder{delay: delay, err: err, active: make(map[world.ChunkCoord]int)}
}

func (b *recordingBuilder) Build(req *BuildRequest) (*ChunkMesh, error) {
	b.mu.Lock()
	b.active[req.Coord]++
	if b.active[req.Coord] > 1 {
		b.overlap = true
	}
	b.mu.Unlock()

	time.Sleep(b.delay)

	b.mu.Lock()
	b.active[req.Coord]--
	b.mu.Unlock()
	b.calls.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	return &ChunkMesh{Coord: req.Coord}, nil
}

func idle(q *Queue, coords ...world.ChunkCoord) func() bool {
	return func() bool {
		if q.Len() > 0 {
			return false
		}
		for _, c := range coords {
			if _, inflight := q.Status(c); inflight {
				return false
			}
		}
		return true
	}
}

func TestPoolNeverBuildsCellTwiceAtOnce(t *testing.T) {
	s := loadedStore(world.ChunkCoord{}, world.ChunkCoord{X: 1})
	q := NewQueue(s, 1, nil)
	b := newRecordingBuilder(time.Millisecond, nil)
	p := NewWorkerPool(q, b, 4, nil)
	p.Start(context.Background())

	a, c := world.ChunkCoord{}, world.ChunkCoord{X: 1}
	for i := 0; i < 100; i++ {
		q.AddOrUpdate(a, false, i%7 == 0, nil)
		q.AddOrUpdate(c, false, false, nil)
		time.Sleep(100 * time.Microsecond)
	}
	require.Eventually(t, idle(q, a, c), 5*time.Second, 5*time.Millisecond)
	require.NoError(t, p.Stop())

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.False(t, b.overlap)
	assert.GreaterOrEqual(t, int(b.calls.Load()), 2)
	assert.Equal(t, int(b.calls.Load()), p.Ready())
}

func TestPoolResultsUrgentFirst(t *testing.T) {
	p := NewWorkerPool(NewQueue(world.NewStore(), 1, nil), newRecordingBuilder(0, nil), 1, nil)
	p.publish(Result{Coord: world.ChunkCoord{X: 1}})
	p.publish(Result{Coord: world.ChunkCoord{X: 2}, Urgent: true})
	p.publish(Result{Coord: world.ChunkCoord{X: 3}})
	p.publish(Result{Coord: world.ChunkCoord{X: 4}, Urgent: true})

	var got []int
	for r, ok := p.Next(); ok; r, ok = p.Next() {
		got = append(got, r.Coord.X)
	}
	assert.Equal(t, []int{2, 4, 1, 3}, got)
	assert.Zero(t, p.Ready())
}

func TestPoolFatalBuildErrorStopsWorkers(t *testing.T) {
	s := loadedStore(world.ChunkCoord{}, world.ChunkCoord{})
	q := NewQueue(s, 1, nil)
	b := newRecordingBuilder(0, fmt.Errorf("index out of range: %w", ErrCorruptBuffer))
	p := NewWorkerPool(q, b, 2, nil)
	p.Start(context.Background())

	q.AddOrUpdate(world.ChunkCoord{}, true, false, nil)
	require.Eventually(t, idle(q, world.ChunkCoord{}), 2*time.Second, 5*time.Millisecond)

	err := p.Stop()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptBuffer)
	assert.Zero(t, p.Ready(), "nothing is published for a corrupt build")
	assert.Zero(t, s.Pins(world.ChunkCoord{}))
}

func TestPoolBuildErrorPublishesEmptyMesh(t *testing.T) {
	s := loadedStore(world.ChunkCoord{}, world.ChunkCoord{})
	q := NewQueue(s, 1, nil)
	p := NewWorkerPool(q, newRecordingBuilder(0, errors.New("boom")), 1, nil)
	p.Start(context.Background())
	defer func() { assert.NoError(t, p.Stop()) }()

	q.AddOrUpdate(world.ChunkCoord{}, true, false, nil)
	require.Eventually(t, func() bool { return p.Ready() == 1 }, 2*time.Second, 5*time.Millisecond)

	r, ok := p.Next()
	require.True(t, ok)
	require.NotNil(t, r.Mesh)
	assert.True(t, r.Mesh.Empty())
	assert.Equal(t, []world.ChunkCoord{{}}, r.AckCoords)
}

func TestPoolStopWithoutStart(t *testing.T) {
	p := NewWorkerPool(NewQueue(world.NewStore(), 1, nil), newRecordingBuilder(0, nil), 0, nil)
	assert.GreaterOrEqual(t, p.Workers(), 1)
	assert.NoError(t, p.Stop())
}

func TestPoolBuildsGeneratedTerrain(t *testing.T) {
	content, _ := testContent(t)
	s := world.NewStore()
	gen := world.NewGenerator(11, generatorPalette(t, content))
	gen.Generate(s, world.ChunkCoord{X: -2, Y: -1, Z: -2}, world.ChunkCoord{X: 2, Y: 1, Z: 2})

	q := NewQueue(s, 1, nil)
	p := NewWorkerPool(q, NewBuilder(content, testOptions()), 3, nil)
	p.Start(context.Background())

	var cells []world.ChunkCoord
	for z := -1; z <= 1; z++ {
		for x := -1; x <= 1; x++ {
			c := world.ChunkCoord{X: x, Z: z}
			cells = append(cells, c)
			require.True(t, q.AddOrUpdate(c, true, x == 0 && z == 0, nil))
		}
	}
	require.Eventually(t, func() bool { return p.Ready() == len(cells) }, 10*time.Second, 10*time.Millisecond)
	require.NoError(t, p.Stop())

	first, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, world.ChunkCoord{}, first.Coord, "the urgent cell comes first")

	seen := map[world.ChunkCoord]bool{first.Coord: true}
	triangles := first.Mesh.TriangleCount()
	for r, ok := p.Next(); ok; r, ok = p.Next() {
		seen[r.Coord] = true
		assert.Equal(t, []world.ChunkCoord{r.Coord}, r.AckCoords)
		assert.Equal(t, r.Coord, r.Mesh.Coord)
		triangles += r.Mesh.TriangleCount()
	}
	assert.Len(t, seen, len(cells))
	assert.Positive(t, triangles)
	for _, c := range cells {
		assert.Zero(t, s.Pins(c))
	}
}
