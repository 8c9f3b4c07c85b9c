package registry

import (
	"math"

	"voxelmesh/internal/world"
)

// LightTable maps a 4-bit light level to an 8-bit brightness.
type LightTable [world.LightSun + 1]uint8

// NewLightTable builds the decode table: each level below the maximum is
// 1/1.3 as bright as the one above it, then the curve is gamma adjusted.
// gamma is clamped to [1, 3].
func NewLightTable(gamma float64) LightTable {
	gamma = math.Max(1, math.Min(3, gamma))
	var t LightTable
	v := 255.0
	for i := int(world.LightMax); i >= 0; i-- {
		adj := 255 * math.Pow(v/255, 1/gamma)
		t[i] = uint8(math.Min(255, math.Round(adj)))
		v /= 1.3
	}
	t[world.LightSun] = t[world.LightMax]
	return t
}

// Decode returns the brightness of a light level. Levels above LightSun are clamped.
func (t *LightTable) Decode(level uint8) uint8 {
	if level > world.LightSun {
		level = world.LightSun
	}
	return t[level]
}
