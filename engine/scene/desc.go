package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the number of light slots in the lights uniform arrays.
const MaxLights = 16

// Default projection parameters for scenes without a camera.
const (
	DefaultFovY   = math.Pi / 4
	DefaultAspect = 16.0 / 9.0
	DefaultNear   = 0.1
	DefaultFar    = 100.0
)

// LightKind selects the light model.
type LightKind uint32

const (
	LightDirectional LightKind = iota
	LightPoint
	LightSpot
)

// Vertex is one mesh vertex. GPU layout: position vec3, normal vec3, uv vec2 (32 bytes).
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// VertexStride is the byte size of one Vertex on the GPU.
const VertexStride = 32

// MaterialDesc describes a phong material.
type MaterialDesc struct {
	Name      string
	Color     mgl32.Vec4
	Emissive  mgl32.Vec3
	Shininess float32
	// Texture is the optional base color texture. Nil binds a 1x1 white texture.
	Texture *common.TextureStagingData
	Sampler common.SamplerStagingData
}

// MeshDesc is indexed triangle geometry drawn with one material at one node.
type MeshDesc struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Material int
	Node     NodeIndex
}

// LightDesc is a punctual light attached to a node. Position and direction come from the node: lights sit
// at the node origin and point down the node's -Z axis.
type LightDesc struct {
	Name      string
	Kind      LightKind
	Color     mgl32.Vec3
	Intensity float32
	// Range is the attenuation cutoff for point and spot lights; 0 means unbounded.
	Range float32
	// InnerCone and OuterCone are half-angles in radians for spot lights.
	InnerCone float32
	OuterCone float32
	Node      NodeIndex
}

// CameraDesc is a camera attached to a node. The view matrix is the inverse of the node's world matrix.
type CameraDesc struct {
	Projection mgl32.Mat4
	Node       NodeIndex
}

// Desc is a complete scene description: the node graph plus the meshes, materials, lights, camera and
// animations that refer into it.
type Desc struct {
	Name       string
	Graph      *Graph
	Materials  []MaterialDesc
	Meshes     []MeshDesc
	Lights     []LightDesc
	Camera     *CameraDesc
	Animations []Animation
	// Names maps node names to indices. Nodes with duplicate names keep the first index.
	Names map[string]NodeIndex
}

var (
	ErrMaterialRange = errors.New("material index out of range")
	ErrTooManyLights = errors.New("too many lights")
	ErrMeshGeometry  = errors.New("invalid mesh geometry")
)

// NewDesc creates an empty description with a single root node.
func NewDesc(name string) *Desc {
	g := NewGraph()
	g.Add(Node{Name: "root", Transform: Identity()})
	return &Desc{
		Name:  name,
		Graph: g,
		Names: map[string]NodeIndex{"root": 0},
	}
}

// AddNode adds a node under parent and records its name.
//
// Parameters:
//   - parent: the parent node
//   - node: the node to add
//
// Returns:
//   - NodeIndex: the new node's index
//   - error: error if the edge cannot be added
func (d *Desc) AddNode(parent NodeIndex, node Node) (NodeIndex, error) {
	idx := d.Graph.Add(node)
	if err := d.Graph.Connect(parent, idx); err != nil {
		return NoNode, err
	}
	if d.Names == nil {
		d.Names = map[string]NodeIndex{}
	}
	if _, ok := d.Names[node.Name]; !ok && node.Name != "" {
		d.Names[node.Name] = idx
	}
	return idx, nil
}

// Lookup returns the index of the node called name.
func (d *Desc) Lookup(name string) (NodeIndex, bool) {
	idx, ok := d.Names[name]
	return idx, ok
}

// Validate checks that the graph is a tree reachable from its root and that every mesh, light, camera and
// animation reference resolves.
//
// Returns:
//   - error: the first violation found
func (d *Desc) Validate() error {
	if d.Graph == nil {
		return ErrEmptyGraph
	}
	if err := d.Graph.Validate(); err != nil {
		return err
	}

	for i, m := range d.Meshes {
		if !d.Graph.Contains(m.Node) {
			return fmt.Errorf("mesh %d (%q) node %d: %w", i, m.Name, m.Node, ErrNodeRange)
		}
		if m.Material < 0 || m.Material >= len(d.Materials) {
			return fmt.Errorf("mesh %d (%q) material %d of %d: %w", i, m.Name, m.Material, len(d.Materials), ErrMaterialRange)
		}
		if len(m.Vertices) == 0 || len(m.Indices)%3 != 0 {
			return fmt.Errorf("mesh %d (%q) has %d vertices and %d indices: %w", i, m.Name, len(m.Vertices), len(m.Indices), ErrMeshGeometry)
		}
		for _, idx := range m.Indices {
			if int(idx) >= len(m.Vertices) {
				return fmt.Errorf("mesh %d (%q) index %d of %d vertices: %w", i, m.Name, idx, len(m.Vertices), ErrMeshGeometry)
			}
		}
	}

	if len(d.Lights) > MaxLights {
		return fmt.Errorf("%d lights, limit %d: %w", len(d.Lights), MaxLights, ErrTooManyLights)
	}
	for i, l := range d.Lights {
		if !d.Graph.Contains(l.Node) {
			return fmt.Errorf("light %d (%q) node %d: %w", i, l.Name, l.Node, ErrNodeRange)
		}
	}

	if d.Camera != nil && !d.Graph.Contains(d.Camera.Node) {
		return fmt.Errorf("camera node %d: %w", d.Camera.Node, ErrNodeRange)
	}

	for _, a := range d.Animations {
		for _, tr := range a.Tracks {
			if !d.Graph.Contains(tr.Node) {
				return fmt.Errorf("animation %q node %d: %w", a.Name, tr.Node, ErrNodeRange)
			}
		}
	}
	return nil
}

// DefaultProjection is the projection used by scenes without a camera: a 45 degree vertical field of view
// at 16:9 with near 0.1 and far 100.
func DefaultProjection() mgl32.Mat4 {
	return common.Perspective(DefaultFovY, DefaultAspect, DefaultNear, DefaultFar)
}
