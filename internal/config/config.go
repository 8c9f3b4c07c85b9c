package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable Load falls back to.
const EnvPath = "VOXELMESH_CONFIG"

// ErrInvalid is returned for settings that cannot be clamped into range.
var ErrInvalid = errors.New("invalid settings")

// Visibility modes.
const (
	VisibilityExhaustive = "exhaustive"
	VisibilityFlood      = "flood"
)

// Settings is the root of the configuration file.
type Settings struct {
	Mesh    MeshSettings    `yaml:"mesh"`
	Render  RenderSettings  `yaml:"render"`
	World   WorldSettings   `yaml:"world"`
	Metrics MetricsSettings `yaml:"metrics"`
}

// MeshSettings controls the mesh build pipeline.
type MeshSettings struct {
	Workers               int     `yaml:"workers"`    // 0 picks a default from the core count
	MeshChunk             int     `yaml:"mesh_chunk"` // chunks per mesh cell edge
	SmoothLighting        bool    `yaml:"smooth_lighting"`
	GreedyMeshing         bool    `yaml:"greedy_meshing"`
	TranslucentSorting    bool    `yaml:"translucent_sorting"`
	AmbientOcclusionGamma float64 `yaml:"ambient_occlusion_gamma"`
	LightGamma            float64 `yaml:"light_gamma"`
}

// RenderSettings controls visibility and draw-list construction.
type RenderSettings struct {
	ViewRange                 int     `yaml:"view_range"` // in nodes
	VisibilityMode            string  `yaml:"visibility_mode"`
	OcclusionCulling          bool    `yaml:"occlusion_culling"`
	FrustumMargin             float32 `yaml:"frustum_margin"`
	MergeThreshold            int     `yaml:"merge_threshold"` // vertices
	MergeCacheFrames          int     `yaml:"merge_cache_frames"`
	TranslucentResortDistance float32 `yaml:"translucent_resort_distance"`
	RedrawAngle               float32 `yaml:"redraw_angle"` // degrees
}

// MetricsSettings controls the prometheus endpoint.
type MetricsSettings struct {
	Listen string `yaml:"listen"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Mesh: MeshSettings{
			MeshChunk:             1,
			SmoothLighting:        true,
			GreedyMeshing:         true,
			TranslucentSorting:    true,
			AmbientOcclusionGamma: 1.8,
			LightGamma:            1,
		},
		Render: RenderSettings{
			ViewRange:                 190,
			VisibilityMode:            VisibilityFlood,
			OcclusionCulling:          true,
			FrustumMargin:             1,
			MergeThreshold:            1000,
			MergeCacheFrames:          2,
			TranslucentResortDistance: 1,
			RedrawAngle:               30,
		},
		World: defaultWorldSettings(),
	}
}

// Load reads settings from a YAML file over the defaults. An empty path falls
// back to $VOXELMESH_CONFIG; when that is unset too the defaults are returned.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return s, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := s.Normalize(); err != nil {
		return s, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// Normalize clamps numeric settings into range and rejects values that have
// no sensible clamp.
func (s *Settings) Normalize() error {
	m := &s.Mesh
	if m.Workers < 0 {
		return fmt.Errorf("%w: mesh.workers %d", ErrInvalid, m.Workers)
	}
	m.MeshChunk = clamp(m.MeshChunk, 1, 4)
	m.AmbientOcclusionGamma = clamp(m.AmbientOcclusionGamma, 0.25, 4)
	m.LightGamma = clamp(m.LightGamma, 1, 3)

	r := &s.Render
	switch r.VisibilityMode {
	case "":
		r.VisibilityMode = VisibilityFlood
	case VisibilityExhaustive, VisibilityFlood:
	default:
		return fmt.Errorf("%w: render.visibility_mode %q", ErrInvalid, r.VisibilityMode)
	}
	r.ViewRange = clamp(r.ViewRange, 20, 4000)
	r.FrustumMargin = clamp(r.FrustumMargin, 0, 16)
	r.MergeThreshold = clamp(r.MergeThreshold, 0, 65535)
	r.MergeCacheFrames = clamp(r.MergeCacheFrames, 1, 60)
	r.TranslucentResortDistance = clamp(r.TranslucentResortDistance, 0, 16)
	r.RedrawAngle = clamp(r.RedrawAngle, 1, 180)

	s.World.SeaLevel = clamp(s.World.SeaLevel, -64, 256)
	s.World.Radius = clamp(s.World.Radius, 1, 64)
	s.World.Height = clamp(s.World.Height, 1, 16)
	return nil
}

// ViewRangeChunks returns the view range rounded up to whole chunks.
func (r RenderSettings) ViewRangeChunks(chunkSize int) int {
	return (r.ViewRange + chunkSize - 1) / chunkSize
}

func clamp[T int | float32 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
