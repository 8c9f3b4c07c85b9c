package renderer

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/scene"
	"voxelmesh/internal/view"
)

// RenderContext provides shared context for all renderables
type RenderContext struct {
	Camera    *view.Camera
	Frame     *scene.Frame
	Entries   []scene.DrawListEntry
	Now       time.Duration
	View      mgl32.Mat4
	Proj      mgl32.Mat4
	Wireframe bool
}

// Renderable interface defines the lifecycle for renderable features
type Renderable interface {
	Init() error
	Render(ctx RenderContext)
	Dispose()
	SetViewport(width, height int)
}
