package blocks

import (
	"embed"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/meshing"
)

//go:embed shaders
var shaderFS embed.FS

const (
	MainVertShader = "shaders/main.vert"
	MainFragShader = "shaders/main.frag"
)

// Interleaved vertex layout of meshing.Vertex.
var (
	vertexStride = int32(unsafe.Sizeof(meshing.Vertex{}))
	normalOffset = unsafe.Offsetof(meshing.Vertex{}.Normal)
	uvOffset     = unsafe.Offsetof(meshing.Vertex{}.UV)
	colorOffset  = unsafe.Offsetof(meshing.Vertex{}.Color)
)

// gpuBuffer is the GL side of one meshing.MeshBuffer.
type gpuBuffer struct {
	vao, vbo, ibo uint32
	revision      uint32
	indexCount    int32
	uploaded      bool
	lastUsed      uint64
}

// tileColor stands in for the texture array: every layer gets a stable
// colour spread around the hue circle.
func tileColor(layer int) mgl32.Vec3 {
	const golden = 0.61803398875
	h := math.Mod(float64(layer)*golden, 1)
	return hsv(h, 0.35, 0.9)
}

func hsv(h, s, v float64) mgl32.Vec3 {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return mgl32.Vec3{float32(r), float32(g), float32(b)}
}

func materialAlpha(m meshing.Material) float32 {
	if m.Translucent() {
		return 0.6
	}
	return 1
}
