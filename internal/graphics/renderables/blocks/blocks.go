package blocks

import (
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"

	"voxelmesh/internal/graphics"
	renderer "voxelmesh/internal/graphics/renderer"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/scene"
)

// Blocks draws the opaque and translucent passes of a scene.Frame.
type Blocks struct {
	mainShader *graphics.Shader
	gpu        *residency
	stream     uint32 // element buffer for reordered translucent indices
}

// NewBlocks creates a new blocks renderable. GPU copies of buffers not
// drawn for keepFrames frames are released.
func NewBlocks(keepFrames int) *Blocks {
	if keepFrames < 1 {
		keepFrames = 1
	}
	return &Blocks{gpu: newResidency(uint64(keepFrames))}
}

// Init initializes the blocks rendering system
func (b *Blocks) Init() error {
	var err error
	b.mainShader, err = graphics.NewShader(shaderFS, MainVertShader, MainFragShader)
	if err != nil {
		return err
	}
	gl.GenBuffers(1, &b.stream)
	return nil
}

// SetViewport is a no-op; the projection comes from the camera.
func (b *Blocks) SetViewport(width, height int) {}

// Render draws ctx.Frame: opaque calls first, then translucent calls back
// to front with depth writes off.
func (b *Blocks) Render(ctx renderer.RenderContext) {
	if ctx.Frame == nil {
		return
	}
	if ctx.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
		defer gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	defer profiling.Track("renderer.renderBlocks")()

	b.gpu.begin()
	b.mainShader.Use()
	b.mainShader.SetMatrix4("proj", &ctx.Proj[0])
	b.mainShader.SetMatrix4("view", &ctx.View[0])
	b.mainShader.SetFloat("time", float32(ctx.Now)/float32(time.Second))

	gl.Disable(gl.BLEND)
	for _, c := range ctx.Frame.Opaque {
		b.draw(c)
	}

	gl.Enable(gl.BLEND)
	gl.DepthMask(false)
	gl.Disable(gl.CULL_FACE)
	for _, c := range ctx.Frame.Translucent {
		b.draw(c)
	}
	gl.Enable(gl.CULL_FACE)
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
	gl.BindVertexArray(0)

	for _, g := range b.gpu.sweep() {
		deleteBuffer(g)
	}
}

func (b *Blocks) draw(c scene.DrawCall) {
	indices := c.IndexList()
	if len(indices) == 0 {
		return
	}
	g, stale := b.gpu.acquire(c.Buffer)
	if stale {
		upload(g, c.Buffer)
	}

	mat := c.Buffer.Material
	col := tileColor(mat.Layer + c.Buffer.Frame)
	b.mainShader.SetVector3("tileColor", col.X(), col.Y(), col.Z())
	b.mainShader.SetFloat("alpha", materialAlpha(mat))
	b.mainShader.SetInt("waving", int32(mat.Waving))
	b.mainShader.SetBool("crack", mat.Crack)
	b.mainShader.SetInt("frame", int32(c.Buffer.Frame))

	gl.BindVertexArray(g.vao)
	if c.Indices == nil {
		gl.DrawElements(gl.TRIANGLES, g.indexCount, gl.UNSIGNED_INT, nil)
		return
	}
	// The element binding is VAO state: draw from the stream buffer, then
	// restore the buffer's own indices.
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.stream)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STREAM_DRAW)
	gl.DrawElements(gl.TRIANGLES, int32(len(indices)), gl.UNSIGNED_INT, nil)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ibo)
}

// upload creates the GL objects of g on first use and rewrites the vertex
// data after the buffer was animated.
func upload(g *gpuBuffer, buf *meshing.MeshBuffer) {
	defer profiling.Track("renderer.renderBlocks.upload")()
	if !g.uploaded {
		gl.GenVertexArrays(1, &g.vao)
		gl.GenBuffers(1, &g.vbo)
		gl.GenBuffers(1, &g.ibo)
		gl.BindVertexArray(g.vao)

		gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(buf.Vertices)*int(vertexStride), gl.Ptr(buf.Vertices), gl.DYNAMIC_DRAW)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride, normalOffset)
		gl.EnableVertexAttribArray(2)
		gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride, uvOffset)
		gl.EnableVertexAttribArray(3)
		gl.VertexAttribPointerWithOffset(3, 4, gl.UNSIGNED_BYTE, true, vertexStride, colorOffset)

		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ibo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(buf.Indices)*4, gl.Ptr(buf.Indices), gl.STATIC_DRAW)
		gl.BindVertexArray(0)

		g.indexCount = int32(len(buf.Indices))
		g.uploaded = true
	} else {
		gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(buf.Vertices)*int(vertexStride), gl.Ptr(buf.Vertices))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	g.revision = buf.Revision
}

func deleteBuffer(g *gpuBuffer) {
	if !g.uploaded {
		return
	}
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ibo)
	g.uploaded = false
}

// Dispose cleans up OpenGL resources
func (b *Blocks) Dispose() {
	for _, g := range b.gpu.drain() {
		deleteBuffer(g)
	}
	if b.stream != 0 {
		gl.DeleteBuffers(1, &b.stream)
		b.stream = 0
	}
	if b.mainShader != nil {
		b.mainShader.Delete()
	}
}
