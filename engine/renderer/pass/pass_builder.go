package pass

import (
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// PassBuilderOption is a functional option for configuring a pass during construction.
type PassBuilderOption func(*config)

// WithUniform binds u after the pass's textures and sampler in group 0. The caller writes it through the
// frame before encoding.
//
// Parameters:
//   - u: the uniform to bind
//
// Returns:
//   - PassBuilderOption: a function that applies the uniform option to a pass
func WithUniform(u *uniform.Uniform) PassBuilderOption {
	return func(c *config) {
		c.uniform = u
	}
}

// WithClearColor sets the color Encode clears the target to. The default is opaque black.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - PassBuilderOption: a function that applies the clear color option to a pass
func WithClearColor(color wgpu.Color) PassBuilderOption {
	return func(c *config) {
		c.clear = color
	}
}

// WithBlend enables blending onto the target, typically used with EncodeLoad.
func WithBlend(blend *wgpu.BlendState) PassBuilderOption {
	return func(c *config) {
		c.blend = blend
	}
}

// WithSize overrides the size of the pass's input textures. It defaults to the surface size.
func WithSize(width, height int) PassBuilderOption {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.width = width
			c.height = height
		}
	}
}

// WithSampler replaces the sampler used for the pass's inputs.
func WithSampler(sampler common.SamplerStagingData) PassBuilderOption {
	return func(c *config) {
		c.sampler = sampler
	}
}

func WithLogger(logger *slog.Logger) PassBuilderOption {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
