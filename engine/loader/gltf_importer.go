package loader

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	pool     worker.DynamicWorkerPool
	progress ProgressFunc
	logger   *slog.Logger
}

// gltfImporter runs the parser and every extractor to turn one glTF document into a scene description.
type gltfImporter interface {
	// Import loads a .gltf or .glb file.
	//
	// Parameters:
	//   - path: the file to import
	//
	// Returns:
	//   - *scene.Desc: the validated description
	//   - error: error if parsing, extraction or validation fails
	Import(path string) (*scene.Desc, error)

	// ImportReader loads a document from a stream. External URIs resolve against the working directory.
	//
	// Parameters:
	//   - name: the description name used when the document names no scene
	//   - r: the glTF JSON or GLB stream
	//   - isGLB: true for a binary container
	//
	// Returns:
	//   - *scene.Desc: the validated description
	//   - error: error if parsing, extraction or validation fails
	ImportReader(name string, r io.Reader, isGLB bool) (*scene.Desc, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter(pool worker.DynamicWorkerPool, progress ProgressFunc, logger *slog.Logger) gltfImporter {
	return &gltfImporterImpl{pool: pool, progress: progress, logger: logger}
}

func (imp *gltfImporterImpl) Import(path string) (*scene.Desc, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return imp.build(parser, name)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (*scene.Desc, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, err
	}
	return imp.build(parser, name)
}

func (imp *gltfImporterImpl) build(parser gltfParser, fallback string) (*scene.Desc, error) {
	doc := parser.Document()
	d := scene.NewDesc(sceneName(doc, fallback))

	if err := extractNodes(doc, d); err != nil {
		return nil, fmt.Errorf("nodes: %w", err)
	}

	materials, err := newGLTFMaterialExtractor(parser, imp.pool, imp.progress).Extract()
	if err != nil {
		return nil, fmt.Errorf("materials: %w", err)
	}
	d.Materials = materials
	fallbackMaterial := -1

	meshes := newGLTFMeshExtractor(parser)
	var lights []gltfLight
	if doc.Extensions.Lights != nil {
		lights = doc.Extensions.Lights.Lights
	}

	for i, n := range doc.Nodes {
		node := nodeIndex(i)

		if n.Mesh != nil {
			prims, skipped, err := meshes.Extract(*n.Mesh)
			if err != nil {
				return nil, err
			}
			if skipped > 0 {
				imp.logger.Warn("skipped non-triangle primitives", "node", d.Graph.Node(node).Name, "count", skipped)
			}
			for _, p := range prims {
				material := p.material
				if material < 0 || material >= len(d.Materials) {
					if fallbackMaterial < 0 {
						fallbackMaterial = len(d.Materials)
						d.Materials = append(d.Materials, defaultMaterial())
					}
					material = fallbackMaterial
				}
				d.Meshes = append(d.Meshes, scene.MeshDesc{
					Name:     p.name,
					Vertices: p.vertices,
					Indices:  p.indices,
					Material: material,
					Node:     node,
				})
			}
		}

		if ext := n.Extensions.Light; ext != nil {
			if ext.Light < 0 || ext.Light >= len(lights) {
				return nil, fmt.Errorf("node %d light %d: %w", i, ext.Light, errIndexOutOfRange)
			}
			if len(d.Lights) == scene.MaxLights {
				imp.logger.Warn("light limit reached, ignoring light", "node", d.Graph.Node(node).Name, "limit", scene.MaxLights)
			} else {
				l, err := extractLight(lights[ext.Light], node)
				if err != nil {
					return nil, err
				}
				d.Lights = append(d.Lights, l)
			}
		}

		if n.Camera != nil && d.Camera == nil {
			if *n.Camera < 0 || *n.Camera >= len(doc.Cameras) {
				return nil, fmt.Errorf("node %d camera %d: %w", i, *n.Camera, errIndexOutOfRange)
			}
			if cam, ok := extractCamera(doc.Cameras[*n.Camera], node); ok {
				d.Camera = cam
			}
		}
	}

	animations := newGLTFAnimationExtractor(parser, imp.pool)
	for i := range doc.Animations {
		a, err := animations.Extract(i, nodeIndex)
		if err != nil {
			return nil, err
		}
		d.Animations = append(d.Animations, a)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scene %q: %w", d.Name, err)
	}
	imp.logger.Debug("imported glTF",
		"scene", d.Name,
		"nodes", d.Graph.Len(),
		"meshes", len(d.Meshes),
		"materials", len(d.Materials),
		"lights", len(d.Lights),
		"animations", len(d.Animations),
	)
	return d, nil
}

// sceneName prefers the name of the document's default scene.
func sceneName(doc *gltfDocument, fallback string) string {
	s := 0
	if doc.Scene != nil {
		s = *doc.Scene
	}
	if s >= 0 && s < len(doc.Scenes) && doc.Scenes[s].Name != "" {
		return doc.Scenes[s].Name
	}
	if fallback == "" {
		return "gltf"
	}
	return fallback
}
