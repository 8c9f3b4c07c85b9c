// Command voxelview flies a camera over generated terrain and draws it
// through the asynchronous mesh pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xlab/closer"

	"voxelmesh/internal/config"
	"voxelmesh/internal/game"
	"voxelmesh/internal/graphics/renderables/blocks"
	"voxelmesh/internal/graphics/renderables/wireframe"
	renderer "voxelmesh/internal/graphics/renderer"
	"voxelmesh/internal/input"
	"voxelmesh/internal/meshing"
	"voxelmesh/internal/physics"
	"voxelmesh/internal/profiling"
	"voxelmesh/internal/registry"
	"voxelmesh/internal/view"
	"voxelmesh/internal/world"
)

func init() {
	runtime.LockOSThread()
}

const (
	flySpeed    = 12.0
	sprintSpeed = 48.0
	sensitivity = 0.1
	digStep     = 150 * time.Millisecond
	crackLevels = 5
	nightRatio  = 150
)

func main() {
	configPath := flag.String("config", "", "settings file, defaults to $"+config.EnvPath)
	contentPath := flag.String("content", "", "extra content definitions (YAML)")
	fpsLimit := flag.Int("fps", 120, "frame rate cap, 0 for none")
	flag.Parse()

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("voxelview: %v", err)
	}
	content := registry.Default()
	if *contentPath != "" {
		n, err := content.LoadFile(*contentPath)
		if err != nil {
			log.Fatalf("voxelview: %v", err)
		}
		log.Printf("voxelview: loaded %d content definitions from %s", n, *contentPath)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	store := config.NewStore(settings)
	sess, err := game.NewSession(store, content, reg)
	if err != nil {
		log.Fatalf("voxelview: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess.Start(ctx)
	srv := serveMetrics(settings.Metrics.Listen, reg)
	closer.Bind(func() {
		cancel()
		if err := sess.Close(); err != nil {
			log.Printf("voxelview: %v", err)
		}
		if srv != nil {
			_ = srv.Shutdown(context.Background())
		}
	})
	defer closer.Close()

	if err := glfw.Init(); err != nil {
		closer.Fatalln("voxelview:", err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		closer.Fatalln("voxelview:", err)
	}

	cam := view.NewCamera(winW, winH)
	cam.Position = mgl32.Vec3{8, float32(sess.HeightAt(8, 8)) + 12, 8}
	cam.Pitch = -20

	r, err := renderer.NewRenderer(cam, blocks.NewBlocks(settings.Render.MergeCacheFrames+1), wireframe.NewWireframe())
	if err != nil {
		closer.Fatalln("voxelview:", err)
	}
	defer r.Dispose()
	fbw, fbh := window.GetFramebufferSize()
	r.UpdateViewport(fbw, fbh)
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		r.UpdateViewport(width, height)
	})

	im := input.NewInputManager()
	im.SetCallbacks(window)
	m := &mouse{first: true}
	window.SetCursorPosCallback(func(w *glfw.Window, x, y float64) {
		m.move(x, y)
	})

	v := &viewer{
		window:  window,
		input:   im,
		mouse:   m,
		cam:     cam,
		session: sess,
		render:  r,
		limiter: game.NewFPSLimiter(*fpsLimit),
		day:     true,
	}
	v.run()
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	if addr == "" {
		return nil
	}
	srv := &http.Server{Addr: addr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
	go func() {
		log.Printf("voxelview: metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("voxelview: metrics server: %v", err)
		}
	}()
	return srv
}

type viewer struct {
	window  *glfw.Window
	input   *input.InputManager
	mouse   *mouse
	cam     *view.Camera
	session *game.Session
	render  *renderer.Renderer
	limiter *game.FPSLimiter

	paused    bool
	day       bool
	lastChunk world.ChunkCoord
	streamed  bool

	digging  bool
	digPos   world.NodePos
	digLevel int
	digNext  time.Duration
}

func (v *viewer) run() {
	start := time.Now()
	last := start
	lastFPS := start
	frames := 0

	for !v.window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now
		elapsed := now.Sub(start)

		v.handleToggles()
		if !v.paused {
			v.fly(dt)
			v.interact(elapsed)
		}

		if c := v.cam.Chunk(); !v.streamed || c != v.lastChunk {
			v.lastChunk, v.streamed = c, true
			if n := v.session.Stream(c); n > 0 {
				log.Printf("voxelview: generated %d chunks around %v", n, c)
			}
		}

		ratio := meshing.DayNightRatio
		if !v.day {
			ratio = nightRatio
		}
		frame := v.session.Tick(v.cam, elapsed, ratio)
		func() {
			defer profiling.Track("renderer.Render")()
			v.render.Render(&frame, v.session.DrawList.Entries(), elapsed)
		}()
		frames++

		if time.Since(lastFPS) >= time.Second {
			log.Printf("FPS: %d, cells %d, triangles %d, queued %d",
				frames, v.session.DrawList.Len(), frame.Triangles(), v.session.Queue.Len())
			frames = 0
			lastFPS = time.Now()
		}

		func() { defer profiling.Track("glfw.SwapBuffers")(); v.window.SwapBuffers() }()
		v.input.PostUpdate()
		func() { defer profiling.Track("glfw.PollEvents")(); glfw.PollEvents() }()
		v.limiter.Wait(v.paused)
	}
}

func (v *viewer) handleToggles() {
	im := v.input
	if im.JustPressed(input.ActionPause) {
		v.paused = !v.paused
		if v.paused {
			v.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		} else {
			v.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			v.mouse.first = true
		}
	}
	if im.JustPressed(input.ActionToggleWireframe) {
		v.render.ToggleWireframe()
	}
	if im.JustPressed(input.ActionTimeOfDay) {
		v.day = !v.day
	}
	if im.JustPressed(input.ActionDumpProfiling) {
		log.Printf("profiling:\n%s", profiling.TopN(12))
	}

	var update func(*config.Settings)
	switch {
	case im.JustPressed(input.ActionToggleVisibility):
		update = func(s *config.Settings) {
			if s.Render.VisibilityMode == config.VisibilityFlood {
				s.Render.VisibilityMode = config.VisibilityExhaustive
			} else {
				s.Render.VisibilityMode = config.VisibilityFlood
			}
		}
	case im.JustPressed(input.ActionToggleOcclusion):
		update = func(s *config.Settings) { s.Render.OcclusionCulling = !s.Render.OcclusionCulling }
	case im.JustPressed(input.ActionToggleSmoothLighting):
		update = func(s *config.Settings) { s.Mesh.SmoothLighting = !s.Mesh.SmoothLighting }
	}
	if update != nil {
		if err := v.session.Settings.Update(update); err != nil {
			log.Printf("voxelview: %v", err)
			return
		}
		r := v.session.Settings.Get()
		log.Printf("voxelview: visibility %s, occlusion %v, smooth lighting %v",
			r.Render.VisibilityMode, r.Render.OcclusionCulling, r.Mesh.SmoothLighting)
	}
}

func (v *viewer) fly(dt float32) {
	dx, dy := v.mouse.take()
	v.cam.Look(float32(dx)*sensitivity, float32(-dy)*sensitivity)

	im := v.input
	speed := float32(flySpeed)
	if im.IsActive(input.ActionSprint) {
		speed = sprintSpeed
	}
	var forward, right, up float32
	if im.IsActive(input.ActionMoveForward) {
		forward++
	}
	if im.IsActive(input.ActionMoveBackward) {
		forward--
	}
	if im.IsActive(input.ActionMoveRight) {
		right++
	}
	if im.IsActive(input.ActionMoveLeft) {
		right--
	}
	if im.IsActive(input.ActionMoveUp) {
		up++
	}
	if im.IsActive(input.ActionMoveDown) {
		up--
	}
	step := speed * dt
	v.cam.Move(forward*step, right*step, up*step)
}

// interact digs the pointed node while the left button is held, showing
// the crack overlay, and places stone on right click.
func (v *viewer) interact(now time.Duration) {
	im := v.input
	sc := v.session.Scene
	hit := physics.Raycast(v.cam.Position, v.cam.Front(), physics.MinReachDistance, physics.MaxReachDistance, v.session.Store, nil)

	if !im.IsActive(input.ActionMouseLeft) || !hit.Hit {
		if v.digging {
			sc.ClearCrack()
			v.digging = false
		}
	} else {
		if !v.digging || hit.HitPosition != v.digPos {
			v.digging, v.digPos, v.digLevel = true, hit.HitPosition, 0
			v.digNext = now + digStep
			sc.SetCrack(v.digPos, 0)
		} else if now >= v.digNext {
			v.digLevel++
			v.digNext = now + digStep
			if v.digLevel >= crackLevels {
				sc.ClearCrack()
				v.digging = false
				v.session.SetNode(v.digPos, world.NewNode(world.ContentAir, world.LightSun, 0))
			} else {
				sc.SetCrack(v.digPos, v.digLevel)
			}
		}
	}

	if im.JustPressed(input.ActionMouseRight) && hit.Hit {
		if stone, ok := v.session.Content.ID("stone"); ok {
			v.session.SetNode(hit.AdjacentPosition, world.NewNode(stone, 0, 0))
		}
	}
}
