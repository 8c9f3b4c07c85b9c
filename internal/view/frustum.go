package view

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a normalized plane; points p with Normal·p + D >= 0 are inside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// Distance returns the signed distance from p to the plane.
func (p Plane) Distance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.D
}

// Frustum holds the six clip planes in order: left, right, bottom, top,
// near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix builds six planes from the combined projection*view matrix.
func FrustumFromMatrix(clip mgl32.Mat4) Frustum {
	// Matrix is in column-major order in mgl32
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	var f Frustum
	// Left  = m3 + m0
	f.Planes[0] = normalizePlane(m30+m00, m31+m01, m32+m02, m33+m03)
	// Right = m3 - m0
	f.Planes[1] = normalizePlane(m30-m00, m31-m01, m32-m02, m33-m03)
	// Bottom = m3 + m1
	f.Planes[2] = normalizePlane(m30+m10, m31+m11, m32+m12, m33+m13)
	// Top = m3 - m1
	f.Planes[3] = normalizePlane(m30-m10, m31-m11, m32-m12, m33-m13)
	// Near = m3 + m2
	f.Planes[4] = normalizePlane(m30+m20, m31+m21, m32+m22, m33+m23)
	// Far = m3 - m2
	f.Planes[5] = normalizePlane(m30-m20, m31-m21, m32-m22, m33-m23)
	return f
}

func normalizePlane(a, b, c, d float32) Plane {
	l := float32(math.Sqrt(float64(a*a + b*b + c*c)))
	if l == 0 {
		return Plane{Normal: mgl32.Vec3{a, b, c}, D: d}
	}
	return Plane{Normal: mgl32.Vec3{a / l, b / l, c / l}, D: d / l}
}

// Inflate moves every plane outwards by margin.
func (f *Frustum) Inflate(margin float32) {
	for i := range f.Planes {
		f.Planes[i].D += margin
	}
}

// ContainsSphere reports whether the sphere is at least partly inside.
func (f *Frustum) ContainsSphere(center mgl32.Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].Distance(center) < -radius {
			return false
		}
	}
	return true
}

// ContainsAABB tests an axis-aligned box against the planes using the
// positive vertex of each plane.
func (f *Frustum) ContainsAABB(min, max mgl32.Vec3) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		// Select the positive vertex for this plane normal
		px := max.X()
		if p.Normal.X() < 0 {
			px = min.X()
		}
		py := max.Y()
		if p.Normal.Y() < 0 {
			py = min.Y()
		}
		pz := max.Z()
		if p.Normal.Z() < 0 {
			pz = min.Z()
		}
		// If positive vertex is outside, AABB is outside
		if p.Normal.X()*px+p.Normal.Y()*py+p.Normal.Z()*pz+p.D < 0 {
			return false
		}
	}
	return true
}

// MatrixNearEqual compares two matrices for approximate equality within epsilon.
func MatrixNearEqual(a, b mgl32.Mat4, epsilon float32) bool {
	for i := 0; i < 16; i++ {
		if float32(math.Abs(float64(a[i]-b[i]))) > epsilon {
			return false
		}
	}
	return true
}
