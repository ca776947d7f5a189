package compose

import (
	_ "embed"
	"sync"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pass"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/stencil.wgsl
var stencilSource string

const (
	// StencilContent is the input slot holding the image that is cut out.
	StencilContent = 0
	// StencilMask is the input slot holding the mask.
	StencilMask = 1
)

// StencilParams controls how the mask is keyed. The mask value is its luminance, or its alpha when
// UseAlpha is set; it is compared against Threshold with a Softness wide ramp.
type StencilParams struct {
	Threshold float32
	Softness  float32
	Invert    bool
	UseAlpha  bool
}

var _ uniform.Value = StencilParams{}

func (p StencilParams) Size() int { return 16 }

func (p StencilParams) MarshalTo(buf []byte) {
	common.PutFloat32(buf[0:], p.Threshold)
	common.PutFloat32(buf[4:], p.Softness)
	common.PutFloat32(buf[8:], boolFloat(p.Invert))
	common.PutFloat32(buf[12:], boolFloat(p.UseAlpha))
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// Stencil is a two-input stage that keeps the content input only where the mask input is lit.
type Stencil struct {
	stage   pass.Stage
	uniform *uniform.Uniform
	mu      *sync.Mutex
	params  StencilParams
}

var _ pass.Stage = &Stencil{}

// NewStencil creates the stencil stage. Render the content into View(StencilContent) and the mask into
// View(StencilMask).
//
// Parameters:
//   - surface: the surface the stage renders for
//   - label: the debug label
//   - params: the initial keying parameters
//   - options: pass options such as blending or input size
//
// Returns:
//   - *Stencil: the stage
func NewStencil(surface pass.Surface, label string, params StencilParams, options ...pass.PassBuilderOption) *Stencil {
	u := uniform.NewFor(surface.Device(), label+" params", StencilParams{})
	opts := append([]pass.PassBuilderOption{pass.WithUniform(u)}, options...)
	return &Stencil{
		stage:   pass.NewComposite(surface, label, shader.Must("stencil", stencilSource), 2, opts...),
		uniform: u,
		mu:      &sync.Mutex{},
		params:  params,
	}
}

// Set replaces the keying parameters.
func (s *Stencil) Set(params StencilParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
}

func (s *Stencil) Label() string                { return s.stage.Label() }
func (s *Stencil) View(i int) *wgpu.TextureView { return s.stage.View(i) }
func (s *Stencil) Inputs() int                  { return s.stage.Inputs() }

func (s *Stencil) Encode(f *frame.Frame, target *wgpu.TextureView) {
	s.write(f)
	s.stage.Encode(f, target)
}

func (s *Stencil) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	s.write(f)
	s.stage.EncodeLoad(f, target)
}

func (s *Stencil) write(f *frame.Frame) {
	s.mu.Lock()
	params := s.params
	s.mu.Unlock()
	f.WriteUniform(s.uniform, params)
}
