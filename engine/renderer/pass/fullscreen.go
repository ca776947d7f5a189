package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
)

// Synth generates an image from nothing but its uniform, e.g. a noise field or a gradient driven by time
// and audio.
type Synth struct{ *fullscreen }

// Filter transforms one input texture.
type Filter struct{ *fullscreen }

// Composite combines several input textures.
type Composite struct{ *fullscreen }

// Ring keeps the last N frames rendered into it. View(0) is the slot the upstream pass writes this frame
// and is also the newest input the shader sees; input i is the frame rendered i frames ago. The ring
// advances each time it is encoded.
type Ring struct{ *fullscreen }

var (
	_ Pass  = &Synth{}
	_ Stage = &Filter{}
	_ Stage = &Composite{}
	_ Stage = &Ring{}
)

// NewSynth creates a pass without inputs. Its shader's group 0 holds at most the uniform.
//
// Parameters:
//   - surface: the surface the pass renders for
//   - label: the debug label
//   - s: the fragment shader, usually including the fullscreen snippet
//   - options: functional options for the uniform, clear color and blending
//
// Returns:
//   - *Synth: the pass
func NewSynth(surface Surface, label string, s shader.Shader, options ...PassBuilderOption) *Synth {
	return &Synth{newFullscreen(surface, label, s, 0, false, options)}
}

// NewFilter creates a pass with one input. Group 0 binds the input texture, a sampler and, when set, the
// uniform.
//
// Parameters:
//   - surface: the surface the pass renders for
//   - label: the debug label
//   - s: the fragment shader
//   - options: functional options for the uniform, clear color, blending and input size
//
// Returns:
//   - *Filter: the pass
func NewFilter(surface Surface, label string, s shader.Shader, options ...PassBuilderOption) *Filter {
	return &Filter{newFullscreen(surface, label, s, 1, false, options)}
}

// NewComposite creates a pass with inputs textures, bound in slot order before the sampler and uniform.
//
// Parameters:
//   - surface: the surface the pass renders for
//   - label: the debug label
//   - s: the fragment shader
//   - inputs: the number of inputs, at least one
//   - options: functional options for the uniform, clear color, blending and input size
//
// Returns:
//   - *Composite: the pass
func NewComposite(surface Surface, label string, s shader.Shader, inputs int, options ...PassBuilderOption) *Composite {
	if inputs < 1 {
		panic(fmt.Sprintf("pass: composite %s needs at least one input, got %d", label, inputs))
	}
	return &Composite{newFullscreen(surface, label, s, inputs, false, options)}
}

// NewRing creates a pass over the last slots frames. The shader binds slots textures, newest first.
//
// Parameters:
//   - surface: the surface the pass renders for
//   - label: the debug label
//   - s: the fragment shader
//   - slots: the history length, at least one
//   - options: functional options for the uniform, clear color, blending and input size
//
// Returns:
//   - *Ring: the pass
func NewRing(surface Surface, label string, s shader.Shader, slots int, options ...PassBuilderOption) *Ring {
	if slots < 1 {
		panic(fmt.Sprintf("pass: ring %s needs at least one slot, got %d", label, slots))
	}
	return &Ring{newFullscreen(surface, label, s, slots, true, options)}
}
