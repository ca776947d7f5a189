package pipeline

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// AlphaBlend is straight alpha blending over the existing target content.
	AlphaBlend = &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}

	// AdditiveBlend adds the source color, weighted by its alpha, onto the target.
	AdditiveBlend = &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	}
)

// pipeline is the implementation of the Pipeline interface.
// The configuration fields are set by the builder options before the GPU pipeline is created.
type pipeline struct {
	key     string
	raw     *wgpu.RenderPipeline
	layouts []*wgpu.BindGroupLayout
	owned   []bool

	format            wgpu.TextureFormat
	depthFormat       wgpu.TextureFormat
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
	vertexLayouts     []wgpu.VertexBufferLayout
	layoutOverrides   map[int]*wgpu.BindGroupLayout
	vertexShader      shader.Shader
}

// Pipeline is a compiled render pipeline together with the bind group layouts it was built from.
type Pipeline interface {
	// Key returns the pipeline's label.
	Key() string

	// Raw returns the underlying render pipeline.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline
	Raw() *wgpu.RenderPipeline

	// Layout returns the bind group layout of group, or nil if the shader declares no such group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	Layout(group int) *wgpu.BindGroupLayout

	// Groups returns the number of bind group slots in the pipeline layout.
	Groups() int

	// Format returns the color target format.
	Format() wgpu.TextureFormat

	// DepthFormat returns the depth attachment format, or TextureFormatUndefined without depth.
	DepthFormat() wgpu.TextureFormat

	// Release frees the pipeline and the layouts it created. Layouts passed in by WithBindGroupLayout
	// belong to the caller and are left alone.
	Release()
}

var _ Pipeline = &pipeline{}

// New compiles s and creates a render pipeline for it. Bind group layouts come from the shader's
// @group/@binding declarations unless overridden with WithBindGroupLayout. Groups the shader skips get
// an empty layout so the pipeline layout has no holes. Any GPU error panics.
//
// Parameters:
//   - device: the wgpu device
//   - key: the pipeline label
//   - s: the shader providing the vertex and fragment entry points
//   - options: functional options configuring targets, depth, blending and vertex input
//
// Returns:
//   - Pipeline: the pipeline
func New(device *wgpu.Device, key string, s shader.Shader, options ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:          key,
		format:       wgpu.TextureFormatBGRA8UnormSrgb,
		depthFormat:  wgpu.TextureFormatUndefined,
		depthCompare: wgpu.CompareFunctionLess,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
	}
	for _, opt := range options {
		opt(p)
	}

	vertexShader := s
	if p.vertexShader != nil {
		vertexShader = p.vertexShader
	}
	if vertexShader.VertexEntry() == "" {
		panic(fmt.Sprintf("pipeline: %s: shader %s has no @vertex entry point", key, vertexShader.Key()))
	}

	fs := shader.Compile(device, s)
	defer fs.Release()
	vs := fs
	if vertexShader != s {
		vs = shader.Compile(device, vertexShader)
		defer vs.Release()
	}

	p.createLayouts(device, s.BindGroupLayoutDescriptors(), vertexShader.BindGroupLayoutDescriptors())

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            key,
		BindGroupLayouts: p.layouts,
	})
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to create layout for %s: %v", key, err))
	}
	defer pipelineLayout.Release()

	target := wgpu.ColorTargetState{
		Format:    p.format,
		WriteMask: p.writeMask,
		Blend:     p.blendState,
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  key + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.VertexEntry(),
			Buffers:    p.vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: s.FragmentEntry(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if p.depthFormat != wgpu.TextureFormatUndefined {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      p.depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	p.raw, err = device.CreateRenderPipeline(desc)
	if err != nil {
		panic(fmt.Sprintf("pipeline: failed to create %s: %v", key, err))
	}
	return p
}

// createLayouts merges the fragment and vertex shader declarations and creates one layout per group.
func (p *pipeline) createLayouts(device *wgpu.Device, descs ...map[int]wgpu.BindGroupLayoutDescriptor) {
	merged := map[int]wgpu.BindGroupLayoutDescriptor{}
	for _, d := range descs {
		for g, desc := range d {
			existing := merged[g]
			for _, e := range desc.Entries {
				if !slices.ContainsFunc(existing.Entries, func(x wgpu.BindGroupLayoutEntry) bool { return x.Binding == e.Binding }) {
					existing.Entries = append(existing.Entries, e)
				}
			}
			merged[g] = existing
		}
	}

	groups := 0
	for g := range merged {
		groups = max(groups, g+1)
	}
	for g := range p.layoutOverrides {
		groups = max(groups, g+1)
	}

	p.layouts = make([]*wgpu.BindGroupLayout, groups)
	p.owned = make([]bool, groups)
	for g := range groups {
		if l, ok := p.layoutOverrides[g]; ok {
			p.layouts[g] = l
			continue
		}
		desc := merged[g]
		slices.SortFunc(desc.Entries, func(a, b wgpu.BindGroupLayoutEntry) int { return int(a.Binding) - int(b.Binding) })
		desc.Label = fmt.Sprintf("%s group %d", p.key, g)
		layout, err := device.CreateBindGroupLayout(&desc)
		if err != nil {
			panic(fmt.Sprintf("pipeline: failed to create bind group layout %d for %s: %v", g, p.key, err))
		}
		p.layouts[g] = layout
		p.owned[g] = true
	}
}

func (p *pipeline) Key() string                     { return p.key }
func (p *pipeline) Raw() *wgpu.RenderPipeline       { return p.raw }
func (p *pipeline) Groups() int                     { return len(p.layouts) }
func (p *pipeline) Format() wgpu.TextureFormat      { return p.format }
func (p *pipeline) DepthFormat() wgpu.TextureFormat { return p.depthFormat }

func (p *pipeline) Layout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.layouts) {
		return nil
	}
	return p.layouts[group]
}

func (p *pipeline) Release() {
	for g, l := range p.layouts {
		if p.owned[g] && l != nil {
			l.Release()
		}
	}
	p.layouts = nil
	if p.raw != nil {
		p.raw.Release()
		p.raw = nil
	}
}
