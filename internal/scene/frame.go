package scene

import (
	"time"

	"voxelmesh/internal/meshing"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/view"
)

// Frame is the ordered work of one frame: the opaque pass first, then the
// translucent pass back to front.
type Frame struct {
	Opaque      []DrawCall
	Translucent []DrawCall
}

// Triangles returns the number of triangles the frame draws.
func (f *Frame) Triangles() int {
	n := 0
	for _, c := range f.Opaque {
		n += len(c.IndexList()) / 3
	}
	for _, c := range f.Translucent {
		n += len(c.IndexList()) / 3
	}
	return n
}

// Frame advances the animations of visible meshes and assembles the draw
// calls for cam. now drives texture animation; dayNightRatio runs from 0
// (night) to meshing.DayNightRatio.
func (d *DrawList) Frame(cam *view.Camera, now time.Duration, dayNightRatio int) Frame {
	defer profiling.Track("scene.DrawList.Frame")()
	for _, e := range d.entries {
		e.Mesh.Animate(now, dayNightRatio, d.scene.CrackLevel(e.Coord))
	}
	d.merge.advance(d.settings.MergeCacheFrames)
	return Frame{
		Opaque:      d.opaqueCalls(nil),
		Translucent: d.translucentCalls(cam.Position),
	}
}

func layerOf(e *DrawListEntry, b *meshing.MeshBuffer) int {
	for layer, bufs := range e.Mesh.Layers {
		for _, x := range bufs {
			if x == b {
				return layer
			}
		}
	}
	return 0
}
