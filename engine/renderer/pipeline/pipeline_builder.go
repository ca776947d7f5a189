package pipeline

import (
	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option for configuring a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithFormat sets the color target format. The default is BGRA8UnormSrgb.
//
// Parameters:
//   - format: the color target format, usually the surface format
//
// Returns:
//   - PipelineBuilderOption: a function that applies the format option to a pipeline
func WithFormat(format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.format = format
	}
}

// WithDepth enables a depth attachment of the given format with a less-than depth test.
//
// Parameters:
//   - format: the depth attachment format
//   - write: whether fragments write depth
//
// Returns:
//   - PipelineBuilderOption: a function that applies the depth option to a pipeline
func WithDepth(format wgpu.TextureFormat, write bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
		p.depthWriteEnabled = write
	}
}

// WithDepthCompare replaces the depth comparison function.
func WithDepthCompare(compare wgpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthCompare = compare
	}
}

// WithBlendState enables blending with the given state. Nil disables blending.
//
// Parameters:
//   - blendState: the blend state, e.g. AlphaBlend or AdditiveBlend
//
// Returns:
//   - PipelineBuilderOption: a function that applies the blend option to a pipeline
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}

// WithCullMode sets which faces are discarded. The default culls nothing.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithFrontFace sets the winding treated as front facing. The default is counter-clockwise.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithVertexLayouts sets the vertex buffer layouts. Fullscreen pipelines have none.
//
// Parameters:
//   - layouts: the vertex buffer layouts in slot order
//
// Returns:
//   - PipelineBuilderOption: a function that applies the vertex layouts to a pipeline
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithBindGroupLayout uses an existing layout for group instead of deriving one from the shader. Passes
// that bind groups created elsewhere, such as the scene's camera and light groups, must share their
// layouts.
//
// Parameters:
//   - group: the bind group index
//   - layout: the layout, owned by the caller
//
// Returns:
//   - PipelineBuilderOption: a function that applies the layout override to a pipeline
func WithBindGroupLayout(group int, layout *wgpu.BindGroupLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		if p.layoutOverrides == nil {
			p.layoutOverrides = map[int]*wgpu.BindGroupLayout{}
		}
		p.layoutOverrides[group] = layout
	}
}

// WithVertexShader takes the vertex stage from a different shader than the fragment stage.
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}
