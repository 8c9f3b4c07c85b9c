// Command visdump generates terrain, drains the mesh pipeline and writes a
// top-down PNG of which cells each visibility mode would draw.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelmesh/internal/config"
	"voxelmesh/internal/game"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/registry"
	"voxelmesh/internal/scene"
	"voxelmesh/internal/view"
	"voxelmesh/internal/world"
)

func main() {
	configPath := flag.String("config", "", "settings file, defaults to $"+config.EnvPath)
	out := flag.String("out", "visibility.png", "output PNG")
	scale := flag.Int("scale", 8, "pixels per chunk column")
	height := flag.Float64("height", 12, "camera height above the terrain")
	yaw := flag.Float64("yaw", 45, "camera yaw in degrees")
	pitch := flag.Float64("pitch", -10, "camera pitch in degrees")
	timeout := flag.Duration("timeout", 2*time.Minute, "time allowed for meshing")
	flag.Parse()

	if err := run(*configPath, *out, *scale, float32(*height), float32(*yaw), float32(*pitch), *timeout); err != nil {
		log.Fatalf("visdump: %v", err)
	}
}

func run(configPath, out string, scale int, height, yaw, pitch float32, timeout time.Duration) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	sess, err := game.NewSession(config.NewStore(settings), registry.Default(), nil)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sess.Start(ctx)
	defer func() {
		if err := sess.Close(); err != nil {
			log.Printf("visdump: %v", err)
		}
	}()

	start := time.Now()
	n := sess.Stream(world.ChunkCoord{})
	if err := sess.WaitIdle(ctx); err != nil {
		return err
	}
	log.Printf("visdump: meshed %d chunks into %d cells in %v", n, sess.Scene.Len(), time.Since(start).Round(time.Millisecond))

	cam := view.NewCamera(1280, 720)
	cam.Position = mgl32.Vec3{8, float32(sess.HeightAt(8, 8)) + height, 8}
	cam.Yaw, cam.Pitch = yaw, pitch

	var panels []panel
	for _, mode := range []string{config.VisibilityExhaustive, config.VisibilityFlood} {
		r := settings.Render
		r.VisibilityMode = mode
		d := scene.NewDrawList(sess.Scene, r, nil)
		d.Update(cam, true)
		fr := d.Frame(cam, 0, meshing.DayNightRatio)
		log.Printf("visdump: %s: %d cells, %d triangles, %d opaque and %d translucent calls",
			mode, d.Len(), fr.Triangles(), len(fr.Opaque), len(fr.Translucent))
		panels = append(panels, panel{cells: entryCoords(d.Entries())})
		d.Release()
	}

	img := renderPanels(sess.Store.Coords(), panels, cam.Chunk(), scale)
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}
	log.Printf("visdump: wrote %s", out)
	return nil
}

func entryCoords(entries []scene.DrawListEntry) []world.ChunkCoord {
	out := make([]world.ChunkCoord, len(entries))
	for i, e := range entries {
		out[i] = e.Coord
	}
	return out
}
