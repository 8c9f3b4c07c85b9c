package registry

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"voxelmesh/internal/world"
)

// UnknownTexture is drawn for content ids nothing registered.
const UnknownTexture = "unknown.png"

// Manager holds the content feature table and the texture list it references.
// Registration happens before meshing starts; afterwards the Manager is only
// read and may be shared by any number of workers.
type Manager struct {
	features   []Features
	names      map[string]world.ContentID
	textures   []string
	textureMap map[string]int
	unknown    Features
}

// NewManager returns a Manager with air registered as content 0.
func NewManager() *Manager {
	m := &Manager{
		names:      make(map[string]world.ContentID),
		textureMap: make(map[string]int),
	}
	m.unknown = Features{
		ID:              world.ContentUnknown,
		Name:            "unknown",
		DrawType:        DrawNormal,
		Solidness:       2,
		VisualSolidness: 2,
	}
	layer := m.registerTexture(UnknownTexture)
	for i := range m.unknown.Tiles {
		m.unknown.Tiles[i] = Tile{Texture: UnknownTexture, Layer: layer}
	}
	if _, err := m.Register(Definition{Name: "air", DrawType: "airlike", SunlightPropagates: true}); err != nil {
		panic(err)
	}
	return m
}

// Register adds a content type and returns its id. Ids are assigned in
// registration order.
func (m *Manager) Register(def Definition) (world.ContentID, error) {
	if def.Name == "" {
		return 0, fmt.Errorf("register: empty name")
	}
	if _, exists := m.names[def.Name]; exists {
		return 0, fmt.Errorf("register %s: already registered", def.Name)
	}
	if len(m.features) >= int(world.ContentUnknown) {
		return 0, fmt.Errorf("register %s: content table full", def.Name)
	}
	f, err := def.features(m)
	if err != nil {
		return 0, fmt.Errorf("register %s: %w", def.Name, err)
	}
	f.ID = world.ContentID(len(m.features))
	m.features = append(m.features, f)
	m.names[f.Name] = f.ID
	return f.ID, nil
}

// MustRegister is Register for built-in tables; it panics on error.
func (m *Manager) MustRegister(def Definition) world.ContentID {
	id, err := m.Register(def)
	if err != nil {
		panic(err)
	}
	return id
}

// Get returns the features of id. Unregistered ids, including
// world.ContentUnknown, get the unknown features.
func (m *Manager) Get(id world.ContentID) *Features {
	if int(id) < len(m.features) {
		return &m.features[id]
	}
	return &m.unknown
}

// ID looks a content type up by name.
func (m *Manager) ID(name string) (world.ContentID, bool) {
	id, ok := m.names[name]
	return id, ok
}

// Len returns the number of registered content types.
func (m *Manager) Len() int {
	return len(m.features)
}

// Textures returns texture names in layer order.
func (m *Manager) Textures() []string {
	out := make([]string, len(m.textures))
	copy(out, m.textures)
	return out
}

// FrameTexture names frame i of an animated texture. Frames of one texture
// occupy consecutive layers starting at frame 0.
func FrameTexture(name string, i int) string {
	return name + "#" + strconv.Itoa(i)
}

// SplitFrameTexture undoes FrameTexture. Plain names return frame -1.
func SplitFrameTexture(s string) (name string, frame int) {
	i := strings.LastIndexByte(s, '#')
	if i < 0 {
		return s, -1
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}

func (m *Manager) registerTexture(name string) int {
	if name == "" {
		return 0
	}
	if idx, exists := m.textureMap[name]; exists {
		return idx
	}
	idx := len(m.textures)
	m.textureMap[name] = idx
	m.textures = append(m.textures, name)
	return idx
}

// Palette resolves the content the terrain generator places.
func (m *Manager) Palette() (world.Palette, error) {
	var p world.Palette
	for _, e := range []struct {
		name string
		dst  *world.ContentID
	}{
		{"stone", &p.Stone},
		{"dirt", &p.Dirt},
		{"grass", &p.Grass},
		{"water_still", &p.Water},
	} {
		id, ok := m.ID(e.name)
		if !ok {
			return p, fmt.Errorf("palette: no content named %q", e.name)
		}
		*e.dst = id
	}
	return p, nil
}

// Default returns a Manager with the built-in content set.
func Default() *Manager {
	m := NewManager()
	for _, def := range defaultDefinitions {
		m.MustRegister(def)
	}
	log.Printf("registry: %d content types, %d textures", m.Len(), len(m.textures))
	return m
}

var defaultDefinitions = []Definition{
	{Name: "stone", TextureSide: "stone.png"},
	{Name: "dirt", TextureSide: "dirt.png"},
	{
		Name:        "grass",
		TextureTop:  "grass_top.png",
		TextureSide: "dirt.png",
		TextureBot:  "dirt.png",
		OverlaySide: "grass_side_overlay.png",
		Tint:        0x7DFF5C,
	},
	{Name: "cobblestone", TextureSide: "cobblestone.png"},
	{Name: "sand", TextureSide: "sand.png"},
	{
		Name:               "water_still",
		DrawType:           "liquid",
		TextureSide:        "water_still.png",
		Material:           "alpha_blend",
		Animation:          &AnimationDef{Frames: 16, FrameMillis: 100},
		SunlightPropagates: true,
	},
	{Name: "glass", DrawType: "glasslike", TextureSide: "glass.png", SunlightPropagates: true},
	{Name: "stained_glass", DrawType: "glasslike", TextureSide: "glass_red.png", Material: "alpha_blend", SunlightPropagates: true},
	{Name: "leaves", DrawType: "allfaces", TextureSide: "leaves_oak.png", Waving: 1},
	{Name: "glowstone", TextureSide: "glowstone.png", LightSource: 13},
	{
		Name:        "furnace",
		TextureTop:  "furnace_top.png",
		TextureBot:  "furnace_top.png",
		TextureSide: "furnace_side.png",
		TextureFace: "furnace_front.png",
		Rotatable:   true,
	},
}
