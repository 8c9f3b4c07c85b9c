package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/profiling"
	"voxelmesh/internal/world"
)

const (
	MinReachDistance = 0.1
	MaxReachDistance = 5.0
)

// NodeReader is the part of world.Store a raycast needs.
type NodeReader interface {
	GetNode(p world.NodePos) world.Node
}

// RaycastResult stores the result of a raycast operation
type RaycastResult struct {
	HitPosition      world.NodePos
	AdjacentPosition world.NodePos
	Distance         float32
	Hit              bool
}

// Pointable reports whether a ray stops at n: anything but air and nodes
// outside the loaded world.
func Pointable(n world.Node) bool {
	return n.Content != world.ContentAir && n.Content != world.ContentUnknown
}

// Raycast walks from start along direction and returns the first node
// pointable accepts. Node p occupies [p, p+1) on every axis.
func Raycast(start, direction mgl32.Vec3, minDist, maxDist float32, nodes NodeReader, pointable func(world.Node) bool) RaycastResult {
	defer profiling.Track("physics.Raycast")()
	if pointable == nil {
		pointable = Pointable
	}
	direction = direction.Normalize()
	stepSize := float32(0.02)
	steps := int(maxDist / stepSize)

	result := RaycastResult{Hit: false}
	lastEmpty := nodeAt(start)

	for i := 0; i <= steps; i++ {
		dist := float32(i) * stepSize
		if dist < minDist {
			continue
		}

		pos := nodeAt(start.Add(direction.Mul(dist)))
		if pos == lastEmpty && i > 0 {
			continue
		}
		if pointable(nodes.GetNode(pos)) {
			result.HitPosition = pos
			result.AdjacentPosition = lastEmpty
			result.Distance = dist
			result.Hit = true
			return result
		}
		lastEmpty = pos
	}

	return result
}

func nodeAt(p mgl32.Vec3) world.NodePos {
	return world.NodePos{
		X: int(math.Floor(float64(p.X()))),
		Y: int(math.Floor(float64(p.Y()))),
		Z: int(math.Floor(float64(p.Z()))),
	}
}
