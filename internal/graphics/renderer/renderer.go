package renderer

import (
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"

	"voxelmesh/internal/scene"
	"voxelmesh/internal/view"
)

// Renderer orchestrates rendering via renderable features
type Renderer struct {
	renderables []Renderable
	camera      *view.Camera
	wireframe   bool
}

// NewRenderer configures GL state and initialises rs in order. It must run
// on the goroutine owning the GL context.
func NewRenderer(camera *view.Camera, rs ...Renderable) (*Renderer, error) {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	r := &Renderer{renderables: rs, camera: camera}
	for i, rr := range rs {
		if err := rr.Init(); err != nil {
			for j := i - 1; j >= 0; j-- {
				rs[j].Dispose()
			}
			return nil, err
		}
	}
	return r, nil
}

// Render clears the screen and draws frame with every renderable.
func (r *Renderer) Render(frame *scene.Frame, entries []scene.DrawListEntry, now time.Duration) {
	gl.ClearColor(0.53, 0.81, 0.92, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	ctx := RenderContext{
		Camera:    r.camera,
		Frame:     frame,
		Entries:   entries,
		Now:       now,
		View:      r.camera.ViewMatrix(),
		Proj:      r.camera.ProjectionMatrix(),
		Wireframe: r.wireframe,
	}
	for _, renderable := range r.renderables {
		renderable.Render(ctx)
	}
}

// ToggleWireframe switches the polygon mode of the block pass.
func (r *Renderer) ToggleWireframe() {
	r.wireframe = !r.wireframe
}

// Dispose cleans up all renderables in reverse order
func (r *Renderer) Dispose() {
	for i := len(r.renderables) - 1; i >= 0; i-- {
		r.renderables[i].Dispose()
	}
}

// UpdateViewport updates the GL viewport and the camera aspect ratio.
func (r *Renderer) UpdateViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	r.camera.AspectRatio = float32(width) / float32(height)
	for _, renderable := range r.renderables {
		renderable.SetViewport(width, height)
	}
}
