package main

import (
	"testing"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCubeDesc(t *testing.T) {
	d := cubeDesc()
	require.NoError(t, d.Validate())
	require.Len(t, d.Meshes, 1)
	assert.Len(t, d.Meshes[0].Vertices, 24)
	assert.Len(t, d.Meshes[0].Indices, 36)

	cube, ok := d.Lookup("cube")
	require.True(t, ok)
	require.Len(t, d.Animations, 1)
	assert.Equal(t, 241, d.Animations[0].Len)
	assert.Equal(t, cube, d.Animations[0].Tracks[0].Node)
}

func TestCubeFacesPointOutwards(t *testing.T) {
	vertices, indices := cubeGeometry()
	for i := 0; i < len(indices); i += 3 {
		a, b, c := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position)).Normalize()
		assert.InDelta(t, 1, float64(n.Dot(a.Normal)), 1e-5, "triangle %d", i/3)
		assert.InDelta(t, 0.5, float64(a.Position.Dot(a.Normal)), 1e-5)
	}
}

func TestCubeSpinCompletesATurn(t *testing.T) {
	spin := cubeDesc().Animations[0].Tracks[0].Channel.(scene.RotateChannel)
	first, last := spin[0], spin[len(spin)-1]
	assert.InDelta(t, 1, float64(mgl32.Abs(first.Dot(last))), 1e-5)
}

func TestProgressFinishes(t *testing.T) {
	p := newProgress("test")
	p.update(1, 2)
	require.NotNil(t, p.bar)
	p.update(2, 2)
	assert.Nil(t, p.bar)
}
