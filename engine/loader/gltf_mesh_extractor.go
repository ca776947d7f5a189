package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfPrimitiveData is one decoded triangle primitive, not yet placed at a node.
type gltfPrimitiveData struct {
	name     string
	vertices []scene.Vertex
	indices  []uint32
	// material is the glTF material index, or -1 for the default material.
	material int
}

// gltfMeshExtractorImpl is the implementation of gltfMeshExtractor.
type gltfMeshExtractorImpl struct {
	parser gltfParser
	cache  map[int][]gltfPrimitiveData
}

// gltfMeshExtractor decodes glTF meshes into vertex and index data. A mesh referenced by several nodes
// is decoded once.
type gltfMeshExtractor interface {
	// Extract returns the triangle primitives of a mesh. Non-triangle primitives are reported in skipped.
	//
	// Parameters:
	//   - mesh: the glTF mesh index
	//
	// Returns:
	//   - []gltfPrimitiveData: the decoded primitives
	//   - int: the number of primitives skipped for their mode
	//   - error: error if an accessor cannot be decoded
	Extract(mesh int) ([]gltfPrimitiveData, int, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser, cache: map[int][]gltfPrimitiveData{}}
}

func (e *gltfMeshExtractorImpl) Extract(mesh int) ([]gltfPrimitiveData, int, error) {
	if prims, ok := e.cache[mesh]; ok {
		return prims, 0, nil
	}
	doc := e.parser.Document()
	if mesh < 0 || mesh >= len(doc.Meshes) {
		return nil, 0, fmt.Errorf("mesh %d: %w", mesh, errIndexOutOfRange)
	}

	m := doc.Meshes[mesh]
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("mesh_%d", mesh)
	}

	var out []gltfPrimitiveData
	skipped := 0
	for i, prim := range m.Primitives {
		if prim.Mode != nil && *prim.Mode != gltfModeTriangles {
			skipped++
			continue
		}
		data, err := e.primitive(prim)
		if err != nil {
			return nil, 0, fmt.Errorf("mesh %q primitive %d: %w", name, i, err)
		}
		data.name = name
		if len(m.Primitives) > 1 {
			data.name = fmt.Sprintf("%s.%d", name, i)
		}
		out = append(out, data)
	}
	e.cache[mesh] = out
	return out, skipped, nil
}

func (e *gltfMeshExtractorImpl) primitive(prim gltfPrimitive) (gltfPrimitiveData, error) {
	posAcc, ok := prim.Attributes["POSITION"]
	if !ok {
		return gltfPrimitiveData{}, fmt.Errorf("no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3(posAcc)
	if err != nil {
		return gltfPrimitiveData{}, fmt.Errorf("POSITION: %w", err)
	}

	vertices := make([]scene.Vertex, len(positions))
	for i, p := range positions {
		vertices[i].Position = p
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = e.parser.ReadIndices(*prim.Indices); err != nil {
			return gltfPrimitiveData{}, fmt.Errorf("indices: %w", err)
		}
	}

	if acc, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := e.parser.ReadVec3(acc)
		if err != nil {
			return gltfPrimitiveData{}, fmt.Errorf("NORMAL: %w", err)
		}
		for i := range min(len(normals), len(vertices)) {
			vertices[i].Normal = normals[i]
		}
	} else {
		generateNormals(vertices, indices)
	}

	if acc, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := e.parser.ReadVec2(acc)
		if err != nil {
			return gltfPrimitiveData{}, fmt.Errorf("TEXCOORD_0: %w", err)
		}
		for i := range min(len(uvs), len(vertices)) {
			vertices[i].UV = uvs[i]
		}
	}

	material := -1
	if prim.Material != nil {
		material = *prim.Material
	}
	return gltfPrimitiveData{vertices: vertices, indices: indices, material: material}, nil
}

// generateNormals writes area-weighted smooth normals. Without indices every three consecutive vertices
// form a triangle. Vertices that touch no triangle get +Y.
func generateNormals(vertices []scene.Vertex, indices []uint32) {
	n := len(vertices)
	if indices == nil {
		indices = make([]uint32, n-n%3)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	accum := make([]mgl32.Vec3, n)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(a) >= n || int(b) >= n || int(c) >= n {
			continue
		}
		p0 := vertices[a].Position
		face := vertices[b].Position.Sub(p0).Cross(vertices[c].Position.Sub(p0))
		accum[a] = accum[a].Add(face)
		accum[b] = accum[b].Add(face)
		accum[c] = accum[c].Add(face)
	}

	for i := range vertices {
		if accum[i].Len() < 1e-6 {
			vertices[i].Normal = mgl32.Vec3{0, 1, 0}
			continue
		}
		vertices[i].Normal = accum[i].Normalize()
	}
}
