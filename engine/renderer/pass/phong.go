package pass

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/Carmen-Shannon/phantoma/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/phong.wgsl
var phongSource string

// MeshVertexLayout is the vertex buffer layout of scene.Vertex.
var MeshVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: scene.VertexStride,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

// Phong draws a scene with per-fragment Blinn-Phong lighting into a depth-tested target.
//
// Meshes are drawn batch by batch so each material is bound once. The caller runs Scene.Update on the
// same frame before encoding.
type Phong struct {
	billboard
	scene  scene.Scene
	device *wgpu.Device
	depth  *renderer.Texture
}

var _ Pass = &Phong{}

// NewPhong creates the lit mesh pass for sc. The pipeline shares the scene's bind group layouts.
//
// Parameters:
//   - surface: the surface the pass renders for
//   - label: the debug label
//   - sc: the scene to draw; it must have been created on a wgpu-backed device
//   - options: functional options for the clear color and depth target size
//
// Returns:
//   - *Phong: the pass
func NewPhong(surface Surface, label string, sc scene.Scene, options ...PassBuilderOption) *Phong {
	cfg := newConfig(surface, options)
	raw := surface.Device().Raw()
	layouts := sc.Layouts()
	if raw == nil || layouts == nil {
		panic(fmt.Sprintf("pass: %s needs a wgpu-backed device and scene", label))
	}

	s := shader.Must("phong", phongSource)
	pl := pipeline.New(raw, label, s,
		pipeline.WithFormat(surface.Format()),
		pipeline.WithDepth(renderer.DepthFormat, true),
		pipeline.WithBlendState(cfg.blend),
		pipeline.WithCullMode(wgpu.CullModeBack),
		pipeline.WithFrontFace(wgpu.FrontFaceCCW),
		pipeline.WithVertexLayouts(MeshVertexLayout),
		pipeline.WithBindGroupLayout(scene.GroupCamera, layouts.Camera),
		pipeline.WithBindGroupLayout(scene.GroupLights, layouts.Lights),
		pipeline.WithBindGroupLayout(scene.GroupMaterial, layouts.Material),
		pipeline.WithBindGroupLayout(scene.GroupMesh, layouts.Mesh))

	p := &Phong{
		billboard: billboard{label: label, pipeline: pl, clear: cfg.clear, logger: cfg.logger},
		scene:     sc,
		device:    raw,
	}
	p.Resize(cfg.width, cfg.height)
	return p
}

// Resize recreates the depth target. It must match the size of the color target the pass renders into.
//
// Parameters:
//   - width: the new width in pixels
//   - height: the new height in pixels
func (p *Phong) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if p.depth != nil {
		if int(p.depth.Width) == width && int(p.depth.Height) == height {
			return
		}
		p.depth.Release()
	}
	depth, err := renderer.CreateDepthTarget(p.device, p.label+" depth", uint32(width), uint32(height))
	if err != nil {
		panic(fmt.Sprintf("pass: %v", err))
	}
	p.depth = depth
	p.logger.Debug("depth target resized", slog.String("pass", p.label), slog.Int("width", width), slog.Int("height", height))
}

func (p *Phong) Encode(f *frame.Frame, target *wgpu.TextureView) {
	p.encode(f, target, wgpu.LoadOpClear)
}

func (p *Phong) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	p.encode(f, target, wgpu.LoadOpLoad)
}

func (p *Phong) encode(f *frame.Frame, target *wgpu.TextureView, load wgpu.LoadOp) {
	rp := p.begin(f, target, load, p.depth.View)
	rp.SetBindGroup(scene.GroupCamera, p.scene.Camera().BindGroup)
	rp.SetBindGroup(scene.GroupLights, p.scene.Lights().BindGroup)

	materials := p.scene.Materials()
	meshes := p.scene.Meshes()
	for _, batch := range p.scene.Batches() {
		rp.SetBindGroup(scene.GroupMaterial, materials[batch.Material].BindGroup)
		for _, i := range batch.Meshes {
			m := &meshes[i]
			rp.SetBindGroup(scene.GroupMesh, m.BindGroup)
			rp.SetVertexBuffer(0, m.Vertices)
			if m.IndexCount == 0 {
				rp.Draw(uint32(len(m.Desc.Vertices)), 1)
				continue
			}
			rp.SetIndexBuffer(m.Indices)
			rp.DrawIndexed(m.IndexCount, 1)
		}
	}
	rp.End()
}

// Release frees the depth target and pipeline. The scene is owned by the caller.
func (p *Phong) Release() {
	if p.depth != nil {
		p.depth.Release()
		p.depth = nil
	}
	if p.pipeline != nil {
		p.pipeline.Release()
	}
}
