package main

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	winW = 1280
	winH = 720
)

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(winW, winH, "voxelview", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, err
	}

	// The FPS limiter paces frames.
	glfw.SwapInterval(0)
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)

	return window, nil
}

// mouse turns cursor movement into camera deltas.
type mouse struct {
	first        bool
	lastX, lastY float64
	dx, dy       float64
}

func (m *mouse) move(x, y float64) {
	if m.first {
		m.lastX, m.lastY = x, y
		m.first = false
		return
	}
	m.dx += x - m.lastX
	m.dy += y - m.lastY
	m.lastX, m.lastY = x, y
}

// take returns and clears the accumulated movement.
func (m *mouse) take() (float64, float64) {
	dx, dy := m.dx, m.dy
	m.dx, m.dy = 0, 0
	return dx, dy
}
