package wireframe

import (
	"embed"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/graphics"
	renderer "voxelmesh/internal/graphics/renderer"
	"voxelmesh/internal/profiling"
)

//go:embed shaders
var shaderFS embed.FS

const (
	WireframeVertShader = "shaders/wireframe.vert"
	WireframeFragShader = "shaders/wireframe.frag"
)

// Wireframe outlines the bounding sphere boxes of the draw-list entries
// while the renderer is in wireframe mode.
type Wireframe struct {
	shader *graphics.Shader
	vao    uint32
	vbo    uint32
}

// NewWireframe creates a new wireframe renderable
func NewWireframe() *Wireframe {
	return &Wireframe{}
}

// Init initializes the wireframe rendering system
func (w *Wireframe) Init() error {
	var err error
	w.shader, err = graphics.NewShader(shaderFS, WireframeVertShader, WireframeFragShader)
	if err != nil {
		return err
	}
	w.setupWireframeVAO()
	return nil
}

// SetViewport is a no-op.
func (w *Wireframe) SetViewport(width, height int) {}

// Render draws one box per draw-list entry.
func (w *Wireframe) Render(ctx renderer.RenderContext) {
	if !ctx.Wireframe || len(ctx.Entries) == 0 {
		return
	}
	defer profiling.Track("renderer.renderCellBounds")()

	w.shader.Use()
	w.shader.SetMatrix4("proj", &ctx.Proj[0])
	w.shader.SetMatrix4("view", &ctx.View[0])
	w.shader.SetVector3("color", 0.9, 0.2, 0.2)
	gl.BindVertexArray(w.vao)
	gl.LineWidth(1.0)
	for _, e := range ctx.Entries {
		model := cellModel(e.Mesh.Center, e.Mesh.Radius)
		w.shader.SetMatrix4("model", &model[0])
		gl.DrawArrays(gl.LINES, 0, 24)
	}
	gl.BindVertexArray(0)
}

// cellModel maps the unit cube onto the box enclosing a bounding sphere.
func cellModel(center mgl32.Vec3, radius float32) mgl32.Mat4 {
	d := 2 * radius
	return mgl32.Translate3D(center.X(), center.Y(), center.Z()).Mul4(mgl32.Scale3D(d, d, d))
}

// Dispose cleans up OpenGL resources
func (w *Wireframe) Dispose() {
	if w.vao != 0 {
		gl.DeleteVertexArrays(1, &w.vao)
	}
	if w.vbo != 0 {
		gl.DeleteBuffers(1, &w.vbo)
	}
	if w.shader != nil {
		w.shader.Delete()
	}
}

// cubeEdges returns the 12 edges of the unit cube centred on the origin as
// 24 line endpoints.
func cubeEdges() []float32 {
	out := make([]float32, 0, 24*3)
	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, su := range []float32{-0.5, 0.5} {
			for _, sv := range []float32{-0.5, 0.5} {
				var a, b [3]float32
				a[axis], b[axis] = -0.5, 0.5
				a[u], b[u] = su, su
				a[v], b[v] = sv, sv
				out = append(out, a[:]...)
				out = append(out, b[:]...)
			}
		}
	}
	return out
}

func (w *Wireframe) setupWireframeVAO() {
	gl.GenVertexArrays(1, &w.vao)
	gl.BindVertexArray(w.vao)

	gl.GenBuffers(1, &w.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, w.vbo)

	vertices := cubeEdges()
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.BindVertexArray(0)
}
