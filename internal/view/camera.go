package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/world"
)

// Camera handles the view and projection matrices. Yaw and Pitch are in
// degrees; yaw 0 looks down +X.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32
}

func NewCamera(width, height int) *Camera {
	if height <= 0 {
		height = 1
	}
	return &Camera{
		AspectRatio: float32(width) / float32(height),
		FOV:         60.0,
		NearPlane:   0.1,
		FarPlane:    1000.0,
	}
}

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	y := float64(mgl32.DegToRad(c.Yaw))
	p := float64(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{
		float32(math.Cos(y) * math.Cos(p)),
		float32(math.Sin(p)),
		float32(math.Sin(y) * math.Cos(p)),
	}.Normalize()
}

// Look turns the camera by the given degrees. Pitch is kept inside
// (-89, 89) so the view never flips.
func (c *Camera) Look(dyaw, dpitch float32) {
	c.Yaw += dyaw
	c.Pitch += dpitch
	if c.Pitch > 89.0 {
		c.Pitch = 89.0
	}
	if c.Pitch < -89.0 {
		c.Pitch = -89.0
	}
}

// Move flies the camera relative to its heading. up is along world +Y.
func (c *Camera) Move(forward, right, up float32) {
	front := c.Front()
	side := front.Cross(mgl32.Vec3{0, 1, 0})
	if side.Len() > 0 {
		side = side.Normalize()
	}
	c.Position = c.Position.
		Add(front.Mul(forward)).
		Add(side.Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
}

func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}

// Frustum returns the view frustum pushed outwards by margin world units.
func (c *Camera) Frustum(margin float32) Frustum {
	f := FrustumFromMatrix(c.ProjectionMatrix().Mul4(c.ViewMatrix()))
	f.Inflate(margin)
	return f
}

// Chunk returns the chunk the camera is in.
func (c *Camera) Chunk() world.ChunkCoord {
	return world.ChunkAt(c.Position.X(), c.Position.Y(), c.Position.Z())
}

// AngleTo returns the angle in degrees between the camera's direction and dir.
func (c *Camera) AngleTo(dir mgl32.Vec3) float32 {
	if dir.Len() == 0 {
		return 180
	}
	cos := float64(c.Front().Dot(dir.Normalize()))
	cos = math.Max(-1, math.Min(1, cos))
	return mgl32.RadToDeg(float32(math.Acos(cos)))
}
