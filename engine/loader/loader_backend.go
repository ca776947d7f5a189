package loader

import (
	"io"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
)

// loaderBackend imports one scene file format into a scene description.
type loaderBackend interface {
	// Load imports the file at path.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *scene.Desc: the imported description
	//   - error: error if loading fails
	Load(path string) (*scene.Desc, error)

	// LoadReader imports a scene from a stream.
	//
	// Parameters:
	//   - name: the description name used when the data names no scene
	//   - r: the reader providing scene data
	//   - binary: true for the format's binary container (GLB for glTF)
	//
	// Returns:
	//   - *scene.Desc: the imported description
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, binary bool) (*scene.Desc, error)
}
