package blocks

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelmesh/internal/meshing"
)

func TestResidencyUploadsOnRevisionChange(t *testing.T) {
	r := newResidency(2)
	buf := meshing.NewMeshBuffer(meshing.Material{})

	r.begin()
	g, stale := r.acquire(buf)
	require.True(t, stale, "never uploaded")
	g.uploaded = true
	g.revision = buf.Revision

	r.begin()
	again, stale := r.acquire(buf)
	assert.Same(t, g, again)
	assert.False(t, stale)

	buf.Revision++
	_, stale = r.acquire(buf)
	assert.True(t, stale)
}

func TestResidencySweepsUnusedBuffers(t *testing.T) {
	r := newResidency(2)
	kept := meshing.NewMeshBuffer(meshing.Material{})
	dropped := meshing.NewMeshBuffer(meshing.Material{})

	r.begin()
	r.acquire(kept)
	r.acquire(dropped)
	assert.Empty(t, r.sweep())

	for i := 0; i < 3; i++ {
		r.begin()
		r.acquire(kept)
		if i < 2 {
			assert.Empty(t, r.sweep())
		}
	}
	assert.Len(t, r.sweep(), 1)
	assert.Equal(t, 1, r.len())

	assert.Len(t, r.drain(), 1)
	assert.Zero(t, r.len())
}

func TestTileColorsAreStable(t *testing.T) {
	a := tileColor(3)
	assert.Equal(t, a, tileColor(3))
	assert.NotEqual(t, a, tileColor(4))
	for i := 0; i < 32; i++ {
		for _, v := range tileColor(i) {
			assert.GreaterOrEqual(t, v, float32(0))
			assert.LessOrEqual(t, v, float32(1))
		}
	}
}

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, int32(36), vertexStride)
	assert.Equal(t, uintptr(12), normalOffset)
	assert.Equal(t, uintptr(24), uvOffset)
	assert.Equal(t, uintptr(32), colorOffset)
}

func TestShadersAreEmbedded(t *testing.T) {
	for _, p := range []string{MainVertShader, MainFragShader} {
		src, err := fs.ReadFile(shaderFS, p)
		require.NoError(t, err)
		assert.Contains(t, string(src), "#version 410 core")
	}
}
