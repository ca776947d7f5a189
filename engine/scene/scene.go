package scene

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Camera is the GPU mirror of the scene camera.
type Camera struct {
	View       *uniform.Uniform
	Proj       *uniform.Uniform
	BindGroup  *wgpu.BindGroup
	projection mgl32.Mat4
}

// Lights is the GPU mirror of the scene lights. Descs and Count are written once; Transforms holds
// view * world for every light and is rewritten each frame.
type Lights struct {
	Descs      *uniform.Array
	Transforms *uniform.Array
	Count      *uniform.Uniform
	BindGroup  *wgpu.BindGroup
}

// Material is the GPU mirror of one MaterialDesc.
type Material struct {
	Desc      MaterialDesc
	Uniform   *uniform.Uniform
	Texture   *renderer.Texture
	Sampler   *wgpu.Sampler
	BindGroup *wgpu.BindGroup
}

// Mesh is the GPU mirror of one MeshDesc: vertex and index buffers plus its model matrix uniform.
type Mesh struct {
	Desc       MeshDesc
	Vertices   renderer.Buffer
	Indices    renderer.Buffer
	IndexCount uint32
	Transform  *uniform.Uniform
	BindGroup  *wgpu.BindGroup
}

// MaterialBatch lists the meshes drawn with one material.
type MaterialBatch struct {
	Material int
	Meshes   []int
}

// Scene is a scene description plus its GPU-resident camera, lights, materials and meshes.
//
// Meshes() and Materials() correspond positionally to Desc().Meshes and Desc().Materials.
// Update re-flattens the graph and uploads the camera, light transforms and mesh transforms through a Frame.
// A Scene is driven by one frame loop and is not safe for concurrent use.
type Scene interface {
	// ID returns the scene's unique identifier.
	ID() uuid.UUID

	// Name returns the description's name.
	Name() string

	// Desc returns the scene description. Node transforms in Desc().Graph may be mutated between frames.
	Desc() *Desc

	// Graph is shorthand for Desc().Graph.
	Graph() *Graph

	// Camera returns the GPU camera.
	Camera() *Camera

	// Lights returns the GPU lights.
	Lights() *Lights

	// Materials returns the GPU materials.
	Materials() []Material

	// Meshes returns the GPU meshes.
	Meshes() []Mesh

	// Batches returns mesh indices grouped by material, in material order.
	Batches() []MaterialBatch

	// Layouts returns the bind group layouts the scene's bind groups were built with, or nil for devices
	// without a wgpu backing.
	Layouts() *Layouts

	// SetProjection replaces the camera projection used from the next Update on.
	//
	// Parameters:
	//   - proj: the projection matrix
	SetProjection(proj mgl32.Mat4)

	// Projection returns the current camera projection.
	Projection() mgl32.Mat4

	// Update flattens the graph and uploads the camera view and projection, the view-space light
	// transforms and every mesh's world transform.
	//
	// Parameters:
	//   - f: the frame the uploads are staged through
	Update(f *frame.Frame)
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu     *sync.Mutex
	id     uuid.UUID
	logger *slog.Logger

	desc      *Desc
	camera    Camera
	lights    Lights
	materials []Material
	meshes    []Mesh
	batches   []MaterialBatch
	layouts   *Layouts
}

var _ Scene = &scene{}

// New builds the GPU resources for desc: camera and light uniforms, material uniforms and textures, and
// vertex, index and transform buffers for every mesh. Camera, light and mesh transforms start out at the
// description's rest pose, so the scene can be encoded before its first Update. An invalid description or
// a failed allocation panics.
//
// Parameters:
//   - device: the device that allocates the GPU resources
//   - desc: the scene description; it is retained, not copied
//   - options: functional options for logging
//
// Returns:
//   - Scene: the scene
func New(device renderer.Device, desc *Desc, options ...SceneBuilderOption) Scene {
	if err := desc.Validate(); err != nil {
		panic(fmt.Sprintf("scene: invalid description %q: %v", desc.Name, err))
	}

	s := &scene{
		mu:     &sync.Mutex{},
		id:     uuid.New(),
		logger: common.NopLogger(),
		desc:   desc,
	}
	for _, opt := range options {
		opt(s)
	}

	queue := device.Queue()

	s.camera = Camera{
		View:       uniform.New(device, s.label("camera view"), common.Mat4Size),
		Proj:       uniform.New(device, s.label("camera proj"), common.Mat4Size),
		projection: DefaultProjection(),
	}
	if desc.Camera != nil {
		s.camera.projection = desc.Camera.Projection
	}

	s.lights = Lights{
		Descs:      uniform.NewArray(device, s.label("light descs"), GPULightSize, MaxLights),
		Transforms: uniform.NewArray(device, s.label("light transforms"), common.Mat4Size, MaxLights),
		Count:      uniform.New(device, s.label("light count"), 16),
	}
	if len(desc.Lights) > 0 {
		descs := make([]byte, len(desc.Lights)*GPULightSize)
		for i, l := range desc.Lights {
			NewGPULight(l).MarshalTo(descs[i*GPULightSize:])
		}
		queue.WriteBuffer(s.lights.Descs.Buffer(), 0, descs)
	}
	count := make([]byte, 16)
	GPULightCount(len(desc.Lights)).MarshalTo(count)
	queue.WriteBuffer(s.lights.Count.Buffer(), 0, count)

	s.materials = make([]Material, len(desc.Materials))
	for i, m := range desc.Materials {
		u := uniform.New(device, s.label(fmt.Sprintf("material %d", i)), GPUMaterialSize)
		buf := make([]byte, GPUMaterialSize)
		NewGPUMaterial(m).MarshalTo(buf)
		queue.WriteBuffer(u.Buffer(), 0, buf)
		s.materials[i] = Material{Desc: m, Uniform: u}
	}

	s.meshes = make([]Mesh, len(desc.Meshes))
	for i, m := range desc.Meshes {
		s.meshes[i] = s.newMesh(device, i, m)
	}
	s.batches = batchByMaterial(desc.Meshes, len(desc.Materials))

	s.stageTransforms(queue)
	s.bind(device)

	s.logger.Info("scene loaded",
		slog.String("scene", desc.Name),
		slog.Int("nodes", desc.Graph.Len()),
		slog.Int("meshes", len(desc.Meshes)),
		slog.Int("lights", len(desc.Lights)),
		slog.Int("animations", len(desc.Animations)))
	return s
}

func (s *scene) newMesh(device renderer.Device, i int, m MeshDesc) Mesh {
	queue := device.Queue()
	name := common.Coalesce(m.Name, fmt.Sprintf("mesh %d", i))

	vertices := MarshalVertices(m.Vertices)
	vb, err := device.CreateBuffer(s.label(name+" vertices"), wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst, uint64(len(vertices)))
	if err != nil {
		panic(fmt.Sprintf("scene: failed to create vertex buffer for %s: %v", name, err))
	}
	queue.WriteBuffer(vb, 0, vertices)

	// Index buffers are padded to a 4-byte multiple; uint32 indices already are, but an empty list is not
	// a valid buffer size.
	indices := MarshalIndices(m.Indices)
	if len(indices) == 0 {
		indices = make([]byte, 4)
	}
	ib, err := device.CreateBuffer(s.label(name+" indices"), wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst, uint64(len(indices)))
	if err != nil {
		panic(fmt.Sprintf("scene: failed to create index buffer for %s: %v", name, err))
	}
	queue.WriteBuffer(ib, 0, indices)

	return Mesh{
		Desc:       m,
		Vertices:   vb,
		Indices:    ib,
		IndexCount: uint32(len(m.Indices)),
		Transform:  uniform.New(device, s.label(name+" transform"), common.Mat4Size),
	}
}

func batchByMaterial(meshes []MeshDesc, materials int) []MaterialBatch {
	byMaterial := make(map[int][]int, materials)
	for i, m := range meshes {
		byMaterial[m.Material] = append(byMaterial[m.Material], i)
	}
	keys := make([]int, 0, len(byMaterial))
	for k := range byMaterial {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	batches := make([]MaterialBatch, 0, len(keys))
	for _, k := range keys {
		batches = append(batches, MaterialBatch{Material: k, Meshes: byMaterial[k]})
	}
	return batches
}

func (s *scene) label(what string) string {
	return fmt.Sprintf("%s %s", common.Coalesce(s.desc.Name, "scene"), what)
}

func (s *scene) ID() uuid.UUID            { return s.id }
func (s *scene) Name() string             { return s.desc.Name }
func (s *scene) Desc() *Desc              { return s.desc }
func (s *scene) Graph() *Graph            { return s.desc.Graph }
func (s *scene) Camera() *Camera          { return &s.camera }
func (s *scene) Lights() *Lights          { return &s.lights }
func (s *scene) Materials() []Material    { return s.materials }
func (s *scene) Meshes() []Mesh           { return s.meshes }
func (s *scene) Batches() []MaterialBatch { return s.batches }
func (s *scene) Layouts() *Layouts        { return s.layouts }

func (s *scene) SetProjection(proj mgl32.Mat4) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.projection = proj
}

func (s *scene) Projection() mgl32.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera.projection
}

func (s *scene) Update(f *frame.Frame) {
	world := s.desc.Graph.Flat()
	view := s.view(world)

	f.WriteUniform(s.camera.View, uniform.Mat4(view))
	f.WriteUniform(s.camera.Proj, uniform.Mat4(s.Projection()))
	if lights := s.lightTransforms(view, world); len(lights) > 0 {
		frame.WriteUniformSlice(f, s.lights.Transforms, 0, lights)
	}
	for i := range s.meshes {
		f.WriteUniform(s.meshes[i].Transform, uniform.Mat4(world[s.meshes[i].Desc.Node]))
	}
}

// stageTransforms writes the initial camera, light and mesh transforms straight through the queue so the
// scene can be drawn before its first Update.
func (s *scene) stageTransforms(queue renderer.Queue) {
	world := s.desc.Graph.Flat()
	view := s.view(world)

	write := func(buffer renderer.Buffer, offset uint64, v uniform.Value) {
		buf := make([]byte, v.Size())
		v.MarshalTo(buf)
		queue.WriteBuffer(buffer, offset, buf)
	}
	write(s.camera.View.Buffer(), 0, uniform.Mat4(view))
	write(s.camera.Proj.Buffer(), 0, uniform.Mat4(s.camera.projection))
	for i, m := range s.lightTransforms(view, world) {
		write(s.lights.Transforms.Buffer(), uint64(i)*s.lights.Transforms.ElemSize(), m)
	}
	for i := range s.meshes {
		write(s.meshes[i].Transform.Buffer(), 0, uniform.Mat4(world[s.meshes[i].Desc.Node]))
	}
}

// view is the inverse of the camera node's world matrix, or the identity without a camera.
func (s *scene) view(world map[NodeIndex]mgl32.Mat4) mgl32.Mat4 {
	if s.desc.Camera == nil {
		return mgl32.Ident4()
	}
	return world[s.desc.Camera.Node].Inv()
}

// lightTransforms moves every light into view space.
func (s *scene) lightTransforms(view mgl32.Mat4, world map[NodeIndex]mgl32.Mat4) []uniform.Mat4 {
	out := make([]uniform.Mat4, len(s.desc.Lights))
	for i, l := range s.desc.Lights {
		out[i] = uniform.Mat4(view.Mul4(world[l.Node]))
	}
	return out
}
