package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxelmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsNormalized(t *testing.T) {
	s := Default()
	before := s
	require.NoError(t, s.Normalize())
	assert.Equal(t, before, s)
}

func TestLoadWithoutPath(t *testing.T) {
	t.Setenv(EnvPath, "")
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "mesh:\n  workers: 3\n  smooth_lighting: false\n")
	t.Setenv(EnvPath, path)

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Mesh.Workers)
	assert.False(t, s.Mesh.SmoothLighting)
	assert.True(t, s.Mesh.GreedyMeshing, "unset keys keep their defaults")
}

func TestLoadClamps(t *testing.T) {
	path := writeConfig(t, `
mesh:
  mesh_chunk: 9
  ambient_occlusion_gamma: 0.01
render:
  view_range: 5
  merge_cache_frames: 0
  redraw_angle: 720
`)
	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Mesh.MeshChunk)
	assert.Equal(t, 0.25, s.Mesh.AmbientOcclusionGamma)
	assert.Equal(t, 20, s.Render.ViewRange)
	assert.Equal(t, 1, s.Render.MergeCacheFrames)
	assert.Equal(t, float32(180), s.Render.RedrawAngle)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "render:\n  visibility_mode: psychic\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "mesh:\n  workers: -2\n"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeConfig(t, "mesh: [1, 2"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestViewRangeChunks(t *testing.T) {
	r := RenderSettings{ViewRange: 33}
	assert.Equal(t, 3, r.ViewRangeChunks(16))
	r.ViewRange = 32
	assert.Equal(t, 2, r.ViewRangeChunks(16))
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	st := NewStore(Default())
	var got []Settings
	st.Subscribe(func(s Settings) { got = append(got, s) })

	require.NoError(t, st.Update(func(s *Settings) { s.Render.OcclusionCulling = false }))
	require.Len(t, got, 1)
	assert.False(t, got[0].Render.OcclusionCulling)
	assert.False(t, st.Get().Render.OcclusionCulling)

	err := st.Update(func(s *Settings) { s.Render.VisibilityMode = "nope" })
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Len(t, got, 1, "rejected settings are not published")
	assert.Equal(t, VisibilityFlood, st.Get().Render.VisibilityMode)
}
