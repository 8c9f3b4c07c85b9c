package registry

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"voxelmesh/internal/world"
)

// Definition is the authored form of a content type, as read from YAML.
type Definition struct {
	Name     string `yaml:"name"`
	DrawType string `yaml:"drawtype"`

	TextureTop  string `yaml:"texture_top"`
	TextureSide string `yaml:"texture_side"`
	TextureBot  string `yaml:"texture_bottom"`
	TextureFace string `yaml:"texture_front"` // north face, rotated with param2
	OverlayTop  string `yaml:"overlay_top"`
	OverlaySide string `yaml:"overlay_side"`

	Material  string        `yaml:"material"`
	Animation *AnimationDef `yaml:"animation"`
	Tint      uint32        `yaml:"tint"`

	Solidness       *uint8 `yaml:"solidness"`
	VisualSolidness *uint8 `yaml:"visual_solidness"`

	SunlightPropagates bool  `yaml:"sunlight_propagates"`
	LightSource        uint8 `yaml:"light_source"`
	Waving             uint8 `yaml:"waving"`
	Rotatable          bool  `yaml:"rotatable"`
}

// AnimationDef describes a vertical-strip texture animation.
type AnimationDef struct {
	Frames      int `yaml:"frames"`
	FrameMillis int `yaml:"frame_ms"`
}

type definitionFile struct {
	Nodes []Definition `yaml:"nodes"`
}

func defaultSolidness(dt DrawType) (solid, visual uint8) {
	switch dt {
	case DrawAirlike:
		return 0, 0
	case DrawNormal:
		return 2, 2
	default:
		return 1, 1
	}
}

func defaultMaterial(dt DrawType) MaterialType {
	switch dt {
	case DrawLiquid:
		return MaterialAlphaBlend
	case DrawGlasslike, DrawAllFaces:
		return MaterialAlphaTest
	default:
		return MaterialOpaque
	}
}

func (d Definition) features(m *Manager) (Features, error) {
	dt, err := ParseDrawType(d.DrawType)
	if err != nil {
		return Features{}, err
	}
	f := Features{
		Name:               d.Name,
		DrawType:           dt,
		Liquid:             dt == DrawLiquid,
		SunlightPropagates: d.SunlightPropagates,
		LightSource:        min(d.LightSource, world.LightMax),
		Waving:             min(d.Waving, 3),
		Rotatable:          d.Rotatable,
	}
	f.Solidness, f.VisualSolidness = defaultSolidness(dt)
	if d.Solidness != nil {
		f.Solidness = min(*d.Solidness, 2)
	}
	if d.VisualSolidness != nil {
		f.VisualSolidness = min(*d.VisualSolidness, 2)
	}
	if dt == DrawAirlike {
		return f, nil
	}

	mat := defaultMaterial(dt)
	if d.Material != "" {
		if mat, err = ParseMaterialType(d.Material); err != nil {
			return Features{}, err
		}
	}

	top, side, bot := d.TextureTop, d.TextureSide, d.TextureBot
	if side == "" {
		side = top
	}
	if top == "" {
		top = side
	}
	if bot == "" {
		bot = top
	}
	if side == "" {
		return Features{}, errors.New("no textures")
	}

	tile := func(name string, mt MaterialType) Tile {
		if name == "" {
			return Tile{}
		}
		t := Tile{Texture: name, Material: mt}
		if d.Animation == nil || d.Animation.Frames <= 1 {
			t.Layer = m.registerTexture(name)
			return t
		}
		t.Frames = d.Animation.Frames
		t.FrameMillis = max(d.Animation.FrameMillis, 1)
		t.Layer = m.registerTexture(FrameTexture(name, 0))
		for i := 1; i < t.Frames; i++ {
			m.registerTexture(FrameTexture(name, i))
		}
		return t
	}
	for _, face := range []world.Face{world.FaceEast, world.FaceWest, world.FaceNorth, world.FaceSouth} {
		f.Tiles[face] = tile(side, mat)
	}
	if d.TextureFace != "" {
		f.Tiles[world.FaceNorth] = tile(d.TextureFace, mat)
	}
	f.Tiles[world.FaceTop] = tile(top, mat)
	f.Tiles[world.FaceTop].Tint = d.Tint
	f.Tiles[world.FaceBottom] = tile(bot, mat)

	overlayMat := MaterialAlphaTest
	if mat == MaterialAlphaBlend {
		overlayMat = MaterialAlphaBlend
	}
	if d.OverlaySide != "" {
		for _, face := range []world.Face{world.FaceEast, world.FaceWest, world.FaceNorth, world.FaceSouth} {
			f.Overlays[face] = tile(d.OverlaySide, overlayMat)
			f.Overlays[face].Tint = d.Tint
		}
	}
	if d.OverlayTop != "" {
		f.Overlays[world.FaceTop] = tile(d.OverlayTop, overlayMat)
		f.Overlays[world.FaceTop].Tint = d.Tint
	}
	return f, nil
}

// ReadDefinitions decodes a YAML document of the form `nodes: [...]`.
func ReadDefinitions(r io.Reader) ([]Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file definitionFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode definitions: %w", err)
	}
	return file.Nodes, nil
}

// LoadFile registers every definition in the YAML file at path and returns
// how many were added.
func (m *Manager) LoadFile(path string) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open definitions: %w", err)
	}
	defer fh.Close()

	defs, err := ReadDefinitions(fh)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	for i, def := range defs {
		if _, err := m.Register(def); err != nil {
			return i, fmt.Errorf("%s: %w", path, err)
		}
	}
	return len(defs), nil
}
