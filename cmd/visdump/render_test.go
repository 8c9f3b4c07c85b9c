package main

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"voxelmesh/internal/world"
)

func TestRenderPanels(t *testing.T) {
	var loaded []world.ChunkCoord
	for x := -1; x <= 1; x++ {
		for z := -1; z <= 1; z++ {
			loaded = append(loaded, world.ChunkCoord{X: x, Z: z}, world.ChunkCoord{X: x, Y: 1, Z: z})
		}
	}
	panels := []panel{
		{cells: []world.ChunkCoord{{X: 1}, {X: 1, Y: 1}}},
		{cells: []world.ChunkCoord{{X: 1}}},
	}
	img := renderPanels(loaded, panels, world.ChunkCoord{}, 2)

	assert.Equal(t, 2*(3*2+1), img.Bounds().Dx())
	assert.Equal(t, 2*3, img.Bounds().Dy())

	// Column (1, 0) sits at pixel (2, 1) of each panel before scaling.
	full := img.RGBAAt(2*2, 2*1)
	half := img.RGBAAt(2*(4+2), 2*1)
	assert.Equal(t, uint8(255), full.G)
	assert.Less(t, half.G, full.G)
	assert.Equal(t, colorCamera, img.RGBAAt(2*1, 2*1))
	assert.Equal(t, colorLoaded, img.RGBAAt(0, 0))
	assert.Equal(t, colorDivider, img.RGBAAt(2*3, 0))
}

func TestRenderPanelsEmpty(t *testing.T) {
	img := renderPanels(nil, nil, world.ChunkCoord{}, 4)
	assert.Equal(t, 1, img.Bounds().Dx())
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
}
