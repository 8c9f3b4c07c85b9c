package meshing

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/config"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/registry"
	"voxelmesh/internal/world"
)

// Options are the mesh settings a Builder is created with.
type Options struct {
	SmoothLighting        bool
	GreedyMeshing         bool
	TranslucentSorting    bool
	AmbientOcclusionGamma float64
	LightGamma            float64
}

// OptionsFrom copies the builder options out of the mesh settings.
func OptionsFrom(s config.MeshSettings) Options {
	return Options{
		SmoothLighting:        s.SmoothLighting,
		GreedyMeshing:         s.GreedyMeshing,
		TranslucentSorting:    s.TranslucentSorting,
		AmbientOcclusionGamma: s.AmbientOcclusionGamma,
		LightGamma:            s.LightGamma,
	}
}

// Builder converts snapshots into ChunkMeshes. It holds no per-build state
// and may be used by many workers at once.
type Builder struct {
	content *registry.Manager
	opts    Options
	light   lighter
}

// NewBuilder creates a builder reading content features from content.
func NewBuilder(content *registry.Manager, opts Options) *Builder {
	return &Builder{
		content: content,
		opts:    opts,
		light:   newLighter(content, opts.LightGamma, opts.AmbientOcclusionGamma),
	}
}

// Options returns the options the builder was created with.
func (b *Builder) Options() Options {
	return b.opts
}

// Build meshes the snapshot attached to req.
func (b *Builder) Build(req *BuildRequest) (*ChunkMesh, error) {
	if req.Snapshot == nil {
		return nil, fmt.Errorf("build %v: request has no snapshot", req.Coord)
	}
	return b.BuildSnapshot(req.Snapshot, req.Overlay)
}

// BuildSnapshot meshes one cell. Every boundary between node k and k+1
// along an axis, for k inside the cell, belongs to this cell; the boundary
// below node 0 belongs to the neighbouring cell.
func (b *Builder) BuildSnapshot(snap *world.Snapshot, overlay *Overlay) (*ChunkMesh, error) {
	defer profiling.Track("meshing.Build")()
	mb := &meshBuild{
		Builder: b,
		snap:    snap,
		size:    snap.Size(),
		origin:  snap.Origin(),
		overlay: overlay,
		pairs:   make(map[BufferRef][]LightPair),
	}
	mb.mask = make([]maskEntry, mb.size*mb.size)
	for i := range mb.index {
		mb.index[i] = make(map[Material]int)
	}
	for axis := 0; axis < 3; axis++ {
		for k := 0; k < mb.size; k++ {
			mb.fillMask(axis, k)
			mb.mergeMask(axis, k)
		}
	}
	return mb.finish()
}

type meshBuild struct {
	*Builder
	snap    *world.Snapshot
	size    int
	origin  world.NodePos
	overlay *Overlay

	mask   []maskEntry
	layers [LayerCount][]*MeshBuffer
	index  [LayerCount]map[Material]int
	pairs  map[BufferRef][]LightPair
}

func planeAxes(axis int) (ua, va int) {
	return (axis + 1) % 3, (axis + 2) % 3
}

func tileMaterial(t registry.Tile, waving uint8, crack bool) Material {
	m := Material{Type: t.Material, Layer: t.Layer, Waving: waving, Crack: crack}
	if t.Animated() && !crack {
		m.Frames, m.FrameMillis = t.Frames, t.FrameMillis
	}
	return m
}

func (mb *meshBuild) buffer(layer int, mat Material) (BufferRef, *MeshBuffer) {
	i, ok := mb.index[layer][mat]
	if !ok {
		i = len(mb.layers[layer])
		mb.index[layer][mat] = i
		mb.layers[layer] = append(mb.layers[layer], newMeshBuffer(mat))
	}
	return BufferRef{Layer: layer, Buffer: i}, mb.layers[layer][i]
}

// textureCoord maps a point on a face plane to texture space with +Y up on
// side faces.
func textureCoord(axis int, pu, pv float32, rotation uint8) mgl32.Vec2 {
	var s, t float32
	switch axis {
	case 0:
		s, t = pv, -pu
	case 1:
		s, t = pv, pu
	default:
		s, t = pu, -pv
	}
	for r := uint8(0); r < rotation&3; r++ {
		s, t = t, -s
	}
	return mgl32.Vec2{s, t}
}

// emit adds the quad covering h x w faces starting at (u, v) on plane k+1.
func (mb *meshBuild) emit(axis, k, u, v, h, w int, key *faceKey) {
	ua, va := planeAxes(axis)
	normal := key.face.Normal()
	shade := shadeFactor(normal)
	nvec := mgl32.Vec3{float32(normal[0]), float32(normal[1]), float32(normal[2])}

	var corners [4]Vertex
	var lights [4]cornerLight
	order := [4]int{0, 1, 2, 3}
	if key.face.Sign() < 0 {
		order = [4]int{0, 3, 2, 1}
	}
	for j, c := range order {
		du, dv := quadCorners[c][0]*h, quadCorners[c][1]*w
		var p [3]int
		p[axis], p[ua], p[va] = k+1, u+du, v+dv
		corners[j] = Vertex{
			Pos: mgl32.Vec3{
				float32(mb.origin.X + p[0]),
				float32(mb.origin.Y + p[1]),
				float32(mb.origin.Z + p[2]),
			},
			Normal: nvec,
			UV:     textureCoord(axis, float32(u+du), float32(v+dv), key.rotation),
		}
		lights[j] = key.light[c]
	}
	flip := int(lights[0].day)+int(lights[2].day) < int(lights[1].day)+int(lights[3].day)

	mb.appendFace(0, key.base, corners, lights, shade, key.tint, flip)
	if key.hasOverlay {
		mb.appendFace(1, key.overlay, corners, lights, shade, key.overTint, flip)
	}
}

func (mb *meshBuild) appendFace(layer int, mat Material, corners [4]Vertex, lights [4]cornerLight, shade float32, tint uint32, flip bool) {
	ref, buf := mb.buffer(layer, mat)
	base := uint32(len(buf.Vertices))
	for j := range corners {
		day := lightColor(lights[j].day, shade, tint)
		corners[j].Color = [4]uint8{day[0], day[1], day[2], 255}
		if lights[j].day != lights[j].night {
			mb.pairs[ref] = append(mb.pairs[ref], LightPair{
				Vertex: base + uint32(j),
				Day:    day,
				Night:  lightColor(lights[j].night, shade, tint),
			})
		}
	}
	buf.appendQuad(corners, flip)
}

func (mb *meshBuild) finish() (*ChunkMesh, error) {
	m := &ChunkMesh{
		Coord:     mb.snap.Cell,
		Layers:    mb.layers,
		lastRatio: DayNightRatio,
	}
	for layer, bufs := range mb.layers {
		for bi, buf := range bufs {
			if err := buf.Validate(); err != nil {
				return nil, fmt.Errorf("cell %v layer %d buffer %d: %w", m.Coord, layer, bi, err)
			}
			ref := BufferRef{Layer: layer, Buffer: bi}
			switch {
			case buf.Material.Crack:
				m.cracks = append(m.cracks, ref)
			case buf.Material.Animated():
				m.animations = append(m.animations, animation{
					ref:         ref,
					frames:      buf.Material.Frames,
					frameMillis: buf.Material.FrameMillis,
				})
			}
			if pairs := mb.pairs[ref]; len(pairs) > 0 {
				m.dayNight = append(m.dayNight, dayNight{ref: ref, pairs: pairs})
			}
			if buf.Material.Translucent() {
				for i := 0; i < buf.TriangleCount(); i++ {
					m.Translucent = append(m.Translucent, newTranslucentTriangle(ref, uint32(3*i), buf.Triangle(i)))
				}
			}
		}
	}
	if mb.opts.TranslucentSorting && len(m.Translucent) > 0 {
		m.Bsp = BuildBsp(m.Translucent)
	}
	m.Center, m.Radius = mb.bounds()
	m.SolidSides = mb.solidSides()
	return m, nil
}

// bounds returns a sphere around the mesh's vertices, or around the whole
// cell when there are none.
func (mb *meshBuild) bounds() (mgl32.Vec3, float32) {
	lo := mgl32.Vec3{float32(mb.origin.X), float32(mb.origin.Y), float32(mb.origin.Z)}
	hi := lo.Add(mgl32.Vec3{float32(mb.size), float32(mb.size), float32(mb.size)})
	first := true
	for _, layer := range mb.layers {
		for _, b := range layer {
			for _, v := range b.Vertices {
				if first {
					lo, hi = v.Pos, v.Pos
					first = false
					continue
				}
				for i := 0; i < 3; i++ {
					lo[i] = min(lo[i], v.Pos[i])
					hi[i] = max(hi[i], v.Pos[i])
				}
			}
		}
	}
	center := lo.Add(hi).Mul(0.5)
	return center, hi.Sub(lo).Len() / 2
}

// solidSides marks each side whose outermost node layer inside the cell is
// entirely opaque.
func (mb *meshBuild) solidSides() uint8 {
	var sides uint8
	for f := world.Face(0); f < world.FaceCount; f++ {
		axis := f.Axis()
		ua, va := planeAxes(axis)
		k := 0
		if f.Sign() > 0 {
			k = mb.size - 1
		}
		solid := true
	scan:
		for u := 0; u < mb.size; u++ {
			for v := 0; v < mb.size; v++ {
				var p [3]int
				p[axis], p[ua], p[va] = k, u, v
				n := mb.snap.At(p[0], p[1], p[2])
				if n.Content == world.ContentUnknown || mb.content.Get(n.Content).Solidness != 2 {
					solid = false
					break scan
				}
			}
		}
		if solid {
			sides |= f.Bit()
		}
	}
	return sides
}
