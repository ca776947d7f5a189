// Package loader imports scene files and other assets from disk.
//
// Scenes are read through a Loader, which caches descriptions by path. The Read* functions are the
// synchronous load-time helpers: they panic when a file is missing or malformed.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrUnsupportedFormat is returned for scene files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported scene format")

// ProgressFunc reports texture decoding progress. It is called from worker goroutines, one call at a time.
type ProgressFunc func(done, total int)

// loader is the implementation of the Loader interface.
type loader struct {
	mu       *sync.RWMutex
	cache    map[string]*scene.Desc
	backends map[string]loaderBackend

	workers  int
	progress ProgressFunc
	logger   *slog.Logger
}

// Loader imports scene descriptions and caches them by path or name.
type Loader interface {
	// Load imports a scene file, or returns the cached description for path. The format is chosen by
	// extension; .gltf and .glb are supported.
	//
	// Parameters:
	//   - path: the scene file
	//
	// Returns:
	//   - *scene.Desc: the description, shared with later calls for the same path
	//   - error: error if the format is unknown or the import fails
	Load(path string) (*scene.Desc, error)

	// LoadReader imports a glTF stream and caches it under name.
	//
	// Parameters:
	//   - name: the cache key and fallback scene name
	//   - r: the glTF JSON or GLB stream
	//   - isGLB: true for a binary container
	//
	// Returns:
	//   - *scene.Desc: the description
	//   - error: error if the import fails
	LoadReader(name string, r io.Reader, isGLB bool) (*scene.Desc, error)

	// Get returns a cached description, or nil.
	Get(name string) *scene.Desc

	// Descs returns a copy of the cache.
	Descs() map[string]*scene.Desc
}

var _ Loader = &loader{}

// NewLoader creates a Loader.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:      &sync.RWMutex{},
		cache:   map[string]*scene.Desc{},
		workers: runtime.NumCPU(),
		logger:  common.NopLogger(),
	}
	for _, option := range options {
		option(l)
	}

	pool := worker.NewDynamicWorkerPool(l.workers, 256, time.Second)
	gltf := newGLTFLoaderBackend(newGLTFImporter(pool, l.progress, l.logger))
	l.backends = map[string]loaderBackend{".gltf": gltf, ".glb": gltf}
	return l
}

func (l *loader) Load(path string) (*scene.Desc, error) {
	if d := l.Get(path); d != nil {
		return d, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	backend, ok := l.backends[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	start := time.Now()
	d, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	l.logger.Info("scene loaded", "path", path, "scene", d.Name, "meshes", len(d.Meshes), "took", time.Since(start))
	return l.store(path, d), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*scene.Desc, error) {
	if d := l.Get(name); d != nil {
		return d, nil
	}
	d, err := l.backends[".gltf"].LoadReader(name, r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q from reader: %w", name, err)
	}
	return l.store(name, d), nil
}

// store caches d unless another goroutine stored the same key first.
func (l *loader) store(key string, d *scene.Desc) *scene.Desc {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[key]; ok {
		return cached
	}
	l.cache[key] = d
	return d
}

func (l *loader) Get(name string) *scene.Desc {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Descs() map[string]*scene.Desc {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*scene.Desc, len(l.cache))
	for k, v := range l.cache {
		out[k] = v
	}
	return out
}

// ReadSceneDesc imports a scene file and panics on failure.
//
// Parameters:
//   - path: the scene file
//   - options: loader options such as WithProgress
//
// Returns:
//   - *scene.Desc: the description
func ReadSceneDesc(path string, options ...LoaderBuilderOption) *scene.Desc {
	d, err := NewLoader(options...).Load(path)
	if err != nil {
		panic(fmt.Sprintf("loader: failed to read scene: %v", err))
	}
	return d
}

// ReadScene imports a scene file and builds its GPU resources. It panics on failure.
//
// Parameters:
//   - device: the device the scene allocates on
//   - path: the scene file
//   - options: loader options; the loader's logger is also handed to the scene
//
// Returns:
//   - scene.Scene: the scene
func ReadScene(device renderer.Device, path string, options ...LoaderBuilderOption) scene.Scene {
	l := NewLoader(options...).(*loader)
	d, err := l.Load(path)
	if err != nil {
		panic(fmt.Sprintf("loader: failed to read scene: %v", err))
	}
	return scene.New(device, d, scene.WithLogger(l.logger))
}

// ReadImage decodes an image file into RGBA pixels and panics on failure.
func ReadImage(path string) common.TextureStagingData {
	tex, err := common.DecodeImageFile(path)
	if err != nil {
		panic(fmt.Sprintf("loader: failed to read image: %v", err))
	}
	return tex
}

// ReadFont parses a TrueType or OpenType font file. An empty path returns the built-in Go Regular face.
// It panics when the file is missing or not a font.
func ReadFont(path string) *opentype.Font {
	data := goregular.TTF
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			panic(fmt.Sprintf("loader: failed to read font: %v", err))
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		panic(fmt.Sprintf("loader: failed to parse font %q: %v", path, err))
	}
	return f
}
