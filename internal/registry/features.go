package registry

import (
	"fmt"

	"voxelmesh/internal/world"
)

// DrawType selects how a content type is meshed and its default solidness.
type DrawType uint8

const (
	DrawAirlike DrawType = iota
	DrawNormal
	DrawLiquid
	DrawGlasslike
	DrawAllFaces
)

var drawTypeNames = map[string]DrawType{
	"airlike":   DrawAirlike,
	"normal":    DrawNormal,
	"liquid":    DrawLiquid,
	"glasslike": DrawGlasslike,
	"allfaces":  DrawAllFaces,
}

// ParseDrawType maps a definition string to a DrawType. Empty means normal.
func ParseDrawType(s string) (DrawType, error) {
	if s == "" {
		return DrawNormal, nil
	}
	if dt, ok := drawTypeNames[s]; ok {
		return dt, nil
	}
	return 0, fmt.Errorf("unknown drawtype %q", s)
}

// MaterialType decides which pass draws a tile.
type MaterialType uint8

const (
	MaterialOpaque MaterialType = iota
	MaterialAlphaTest
	MaterialAlphaBlend
)

// Translucent reports whether faces of this material need view-dependent ordering.
func (m MaterialType) Translucent() bool {
	return m == MaterialAlphaBlend
}

// ParseMaterialType maps a definition string to a MaterialType.
func ParseMaterialType(s string) (MaterialType, error) {
	switch s {
	case "opaque":
		return MaterialOpaque, nil
	case "alpha_test":
		return MaterialAlphaTest, nil
	case "alpha_blend":
		return MaterialAlphaBlend, nil
	}
	return 0, fmt.Errorf("unknown material %q", s)
}

// Tile describes what is drawn on one face.
type Tile struct {
	Texture     string
	Layer       int // index into the texture array
	Material    MaterialType
	Frames      int
	FrameMillis int
	Tint        uint32
}

// Empty reports whether the tile draws nothing.
func (t Tile) Empty() bool {
	return t.Texture == ""
}

// Animated reports whether the tile cycles texture frames.
func (t Tile) Animated() bool {
	return t.Frames > 1 && t.FrameMillis > 0
}

// Features are the per-content attributes the mesher reads.
type Features struct {
	ID       world.ContentID
	Name     string
	DrawType DrawType

	// Tiles and Overlays are indexed by world.Face. An empty overlay draws nothing.
	Tiles    [world.FaceCount]Tile
	Overlays [world.FaceCount]Tile

	// Solidness is 0 (air-like), 1 (see-through) or 2 (opaque).
	Solidness       uint8
	VisualSolidness uint8
	Liquid          bool

	SunlightPropagates bool
	LightSource        uint8
	Waving             uint8
	Rotatable          bool
}

// HasOverlay reports whether any face carries an overlay tile.
func (f *Features) HasOverlay() bool {
	for _, t := range f.Overlays {
		if !t.Empty() {
			return true
		}
	}
	return false
}

// Horizontal faces in clockwise order seen from above.
var faceRing = [4]world.Face{world.FaceNorth, world.FaceEast, world.FaceSouth, world.FaceWest}

func ringIndex(f world.Face) int {
	for i, r := range faceRing {
		if r == f {
			return i
		}
	}
	return -1
}

// TileFor returns the base and overlay tiles drawn on the world-space face
// of a node with the given param2, plus the texture rotation in quarter turns.
// Rotatable nodes use the low two bits of param2 as a facing around +Y.
func (f *Features) TileFor(face world.Face, param2 uint8) (base, overlay Tile, rotation uint8) {
	if !f.Rotatable {
		return f.Tiles[face], f.Overlays[face], 0
	}
	r := int(param2 & 3)
	i := ringIndex(face)
	if i < 0 {
		return f.Tiles[face], f.Overlays[face], uint8(r)
	}
	local := faceRing[(i-r+4)%4]
	return f.Tiles[local], f.Overlays[local], 0
}

// FaceContents decides which side of the boundary between a and b owns a face.
// It returns 0 when no face is drawn, 1 when a's face is drawn and 2 when b's
// face is drawn. equivalent is set when both sides had the same visual
// solidness and liquid precedence or order broke the tie.
func (m *Manager) FaceContents(a, b world.ContentID) (owner int, equivalent bool) {
	if a == b || a == world.ContentUnknown || b == world.ContentUnknown {
		return 0, false
	}
	fa, fb := m.Get(a), m.Get(b)
	c1, c2 := fa.Solidness, fb.Solidness
	if c1 == c2 {
		return 0, false
	}
	if c1 == 0 {
		c1 = fa.VisualSolidness
	} else if c2 == 0 {
		c2 = fb.VisualSolidness
	}
	if c1 == c2 {
		equivalent = true
		if fa.Liquid {
			return 1, true
		}
		if fb.Liquid {
			return 2, true
		}
	}
	if c1 > c2 {
		return 1, equivalent
	}
	return 2, equivalent
}
