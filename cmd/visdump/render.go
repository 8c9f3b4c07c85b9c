package main

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"voxelmesh/internal/world"
)

var (
	colorEmpty   = color.RGBA{16, 16, 24, 255}
	colorLoaded  = color.RGBA{70, 70, 80, 255}
	colorCamera  = color.RGBA{230, 40, 40, 255}
	colorDivider = color.RGBA{255, 255, 255, 255}
)

// panel is the set of cells one visibility mode drew.
type panel struct {
	cells []world.ChunkCoord
}

// renderPanels draws one top-down map per panel, side by side. Each pixel
// is a chunk column: grey when loaded, green scaled by how many cells of
// the column were drawn, red at the camera. The result is scaled up by
// scale with nearest-neighbour sampling.
func renderPanels(loaded []world.ChunkCoord, panels []panel, cam world.ChunkCoord, scale int) *image.RGBA {
	if len(loaded) == 0 || len(panels) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	minX, maxX := cam.X, cam.X
	minZ, maxZ := cam.Z, cam.Z
	height := map[[2]int]int{}
	for _, c := range loaded {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minZ, maxZ = min(minZ, c.Z), max(maxZ, c.Z)
		height[[2]int{c.X, c.Z}]++
	}
	w, h := maxX-minX+1, maxZ-minZ+1

	src := image.NewRGBA(image.Rect(0, 0, (w+1)*len(panels)-1, h))
	draw.Draw(src, src.Bounds(), &image.Uniform{colorEmpty}, image.Point{}, draw.Src)
	for i, p := range panels {
		ox := i * (w + 1)
		if i > 0 {
			for y := 0; y < h; y++ {
				src.SetRGBA(ox-1, y, colorDivider)
			}
		}
		drawn := map[[2]int]int{}
		for _, c := range p.cells {
			drawn[[2]int{c.X, c.Z}]++
		}
		for col, n := range height {
			px, py := ox+col[0]-minX, col[1]-minZ
			src.SetRGBA(px, py, colorLoaded)
			if d := drawn[col]; d > 0 {
				g := uint8(90 + 165*min(d, n)/n)
				src.SetRGBA(px, py, color.RGBA{40, g, 60, 255})
			}
		}
		src.SetRGBA(ox+cam.X-minX, cam.Z-minZ, colorCamera)
	}

	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx()*scale, src.Bounds().Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
