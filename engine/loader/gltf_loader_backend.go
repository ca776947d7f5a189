package loader

import (
	"io"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
)

// gltfLoaderBackend is the loaderBackend for .gltf and .glb files.
type gltfLoaderBackend struct {
	importer gltfImporter
}

var _ loaderBackend = &gltfLoaderBackend{}

func newGLTFLoaderBackend(importer gltfImporter) loaderBackend {
	return &gltfLoaderBackend{importer: importer}
}

func (b *gltfLoaderBackend) Load(path string) (*scene.Desc, error) {
	return b.importer.Import(path)
}

func (b *gltfLoaderBackend) LoadReader(name string, r io.Reader, binary bool) (*scene.Desc, error) {
	return b.importer.ImportReader(name, r, binary)
}
