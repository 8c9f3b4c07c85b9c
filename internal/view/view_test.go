package view

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"voxelmesh/internal/world"
)

func TestCameraFront(t *testing.T) {
	c := NewCamera(800, 600)
	assert.InDelta(t, 1, c.Front().X(), 1e-6)

	c.Yaw = 90
	f := c.Front()
	assert.InDelta(t, 1, f.Z(), 1e-6)
	assert.InDelta(t, 0, f.X(), 1e-6)

	c.Look(0, 500)
	assert.Equal(t, float32(89), c.Pitch)
	c.Look(0, -500)
	assert.Equal(t, float32(-89), c.Pitch)
}

func TestCameraMoveAndChunk(t *testing.T) {
	c := NewCamera(800, 600)
	c.Move(20, 0, -1)
	assert.InDelta(t, 20, c.Position.X(), 1e-5)
	assert.InDelta(t, -1, c.Position.Y(), 1e-5)
	assert.Equal(t, world.ChunkCoord{X: 1, Y: -1}, c.Chunk())

	c.Move(0, 5, 0)
	assert.InDelta(t, 5, c.Position.Z(), 1e-5, "right of +X is +Z")
}

func TestCameraAngleTo(t *testing.T) {
	c := NewCamera(800, 600)
	assert.InDelta(t, 0, c.AngleTo(mgl32.Vec3{2, 0, 0}), 1e-3)
	assert.InDelta(t, 90, c.AngleTo(mgl32.Vec3{0, 0, 1}), 1e-3)
	assert.InDelta(t, 180, c.AngleTo(mgl32.Vec3{-1, 0, 0}), 1e-3)
}

func TestFrustumCulling(t *testing.T) {
	c := NewCamera(800, 600)
	c.Position = mgl32.Vec3{0, 0, 0}
	f := c.Frustum(0)

	assert.True(t, f.ContainsSphere(mgl32.Vec3{10, 0, 0}, 1))
	assert.False(t, f.ContainsSphere(mgl32.Vec3{-10, 0, 0}, 1), "behind")
	assert.False(t, f.ContainsSphere(mgl32.Vec3{10, 0, 40}, 1), "off to the side")
	assert.False(t, f.ContainsSphere(mgl32.Vec3{2000, 0, 0}, 1), "past the far plane")
	assert.True(t, f.ContainsSphere(mgl32.Vec3{-10, 0, 0}, 11), "sphere reaching the camera")

	assert.True(t, f.ContainsAABB(mgl32.Vec3{5, -1, -1}, mgl32.Vec3{6, 1, 1}))
	assert.False(t, f.ContainsAABB(mgl32.Vec3{-6, -1, -1}, mgl32.Vec3{-5, 1, 1}))
}

func TestFrustumMargin(t *testing.T) {
	c := NewCamera(800, 600)
	tight := c.Frustum(0)
	loose := c.Frustum(4)

	// Just behind the near plane.
	p := mgl32.Vec3{-2, 0, 0}
	assert.False(t, tight.ContainsSphere(p, 0.5))
	assert.True(t, loose.ContainsSphere(p, 0.5))
}

func TestMatrixNearEqual(t *testing.T) {
	a := mgl32.Ident4()
	b := a
	b[5] += 1e-5
	assert.True(t, MatrixNearEqual(a, b, 1e-4))
	b[5] += 1
	assert.False(t, MatrixNearEqual(a, b, 1e-4))
}
