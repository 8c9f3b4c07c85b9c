package world

import (
	"math"

	"github.com/aquilax/go-perlin"
)

// Palette names the content ids the generator places.
type Palette struct {
	Stone ContentID
	Dirt  ContentID
	Grass ContentID
	Water ContentID
}

// Generator fills chunks from a perlin heightmap. Nodes above the surface get
// full sunlight in the day bank; everything else is dark. It exists to feed
// the mesh pipeline with plausible terrain, not to model world generation.
type Generator struct {
	noise      *perlin.Perlin
	palette    Palette
	scale      float64
	baseHeight int
	amp        float64
	seaLevel   int
}

// NewGenerator creates a generator with default settings.
func NewGenerator(seed int64, palette Palette) *Generator {
	return &Generator{
		noise:      perlin.NewPerlin(2, 2, 3, seed),
		palette:    palette,
		scale:      1.0 / 64.0,
		baseHeight: 8,
		amp:        24,
		seaLevel:   4,
	}
}

// SetSeaLevel changes the level below which empty space fills with water.
func (g *Generator) SetSeaLevel(level int) {
	g.seaLevel = level
}

// HeightAt computes the surface height (node Y) at world X,Z.
func (g *Generator) HeightAt(worldX, worldZ int) int {
	n := g.noise.Noise2D(float64(worldX)*g.scale, float64(worldZ)*g.scale)
	return int(math.Floor(float64(g.baseHeight) + n*g.amp))
}

// Populate fills c from the heightmap.
func (g *Generator) Populate(c *Chunk) {
	o := c.Coord.Origin()
	for lz := 0; lz < ChunkSize; lz++ {
		for lx := 0; lx < ChunkSize; lx++ {
			h := g.HeightAt(o.X+lx, o.Z+lz)
			for ly := 0; ly < ChunkSize; ly++ {
				c.nodes[index(lx, ly, lz)] = g.nodeAt(o.Y+ly, h)
			}
		}
	}
	c.version++
}

func (g *Generator) nodeAt(y, height int) Node {
	switch {
	case y > height && y <= g.seaLevel:
		return NewNode(g.palette.Water, LightMax-2, 0)
	case y > height:
		return NewNode(ContentAir, LightSun, 0)
	case y == height && y >= g.seaLevel:
		return NewNode(g.palette.Grass, 0, 0)
	case y > height-3:
		return NewNode(g.palette.Dirt, 0, 0)
	default:
		return NewNode(g.palette.Stone, 0, 0)
	}
}

// Generate creates and populates every chunk in the box [min, max] and stores
// it in s.
func (g *Generator) Generate(s *Store, min, max ChunkCoord) {
	for z := min.Z; z <= max.Z; z++ {
		for y := min.Y; y <= max.Y; y++ {
			for x := min.X; x <= max.X; x++ {
				c := NewChunk(ChunkCoord{X: x, Y: y, Z: z})
				g.Populate(c)
				s.Put(c)
			}
		}
	}
}
