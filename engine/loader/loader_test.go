package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScene(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{}
	doc := triangleDoc(f)
	js := finish(f, doc, false)

	// Point the buffer at an external file next to the document.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(js, &decoded))
	decoded["buffers"] = []any{map[string]any{"uri": "tri.bin", "byteLength": len(f.bin)}}
	js, err := json.Marshal(decoded)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), f.bin, 0o644))
	path := filepath.Join(dir, "scene.gltf")
	require.NoError(t, os.WriteFile(path, js, 0o644))
	return path
}

func TestLoadCachesByPath(t *testing.T) {
	path := writeScene(t)
	l := NewLoader()

	d, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", d.Name)
	require.Len(t, d.Meshes, 1)

	again, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, d, again)
	assert.Same(t, d, l.Get(path))
	assert.Len(t, l.Descs(), 1)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := NewLoader().Load("scene.obj")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)
}

func TestWithDescSeedsCache(t *testing.T) {
	d := scene.NewDesc("seeded")
	l := NewLoader(WithDesc("seeded.gltf", d))
	got, err := l.Load("seeded.gltf")
	require.NoError(t, err)
	assert.Same(t, d, got)
	assert.Nil(t, l.Get("other"))
}

func TestReadHelpers(t *testing.T) {
	path := writeScene(t)
	assert.Equal(t, "demo", ReadSceneDesc(path, WithWorkers(1)).Name)

	missing := filepath.Join(t.TempDir(), "nope")
	assert.Panics(t, func() { ReadSceneDesc(missing + ".gltf") })
	assert.Panics(t, func() { ReadImage(missing + ".png") })
	assert.Panics(t, func() { ReadFont(missing + ".ttf") })

	// The document itself is not a font.
	assert.Panics(t, func() { ReadFont(path) })
	assert.NotNil(t, ReadFont(""))
}
