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

//go:embed assets/fx.wgsl
var fxSource string

// FxParams drives the built-in effect stage. Every effect is off at zero. Offsets are in texture
// coordinates; Invert, Edge and Vignette blend from 0 to 1; Posterize is a level count and is off below 2.
type FxParams struct {
	Time       float32
	Shake      float32
	Glitch     float32
	Aberration float32
	Invert     float32
	Edge       float32
	Posterize  float32
	Vignette   float32
}

// FxParamsSize is the byte size of FxParams on the GPU.
const FxParamsSize = 32

var _ uniform.Value = FxParams{}

func (p FxParams) Size() int { return FxParamsSize }

func (p FxParams) MarshalTo(buf []byte) {
	for i, f := range [8]float32{p.Time, p.Shake, p.Glitch, p.Aberration, p.Invert, p.Edge, p.Posterize, p.Vignette} {
		common.PutFloat32(buf[i*4:], f)
	}
}

// Fx is a single-input stage applying shake, band glitch, chromatic aberration, edge detection, invert,
// posterize and vignette in one pass. Its parameters are uploaded every time it is encoded.
type Fx struct {
	stage   pass.Stage
	uniform *uniform.Uniform
	mu      *sync.Mutex
	params  FxParams
}

var _ pass.Stage = &Fx{}

// NewFx creates the effect stage.
//
// Parameters:
//   - surface: the surface the stage renders for
//   - label: the debug label
//   - options: pass options such as the clear color or input size
//
// Returns:
//   - *Fx: the stage
func NewFx(surface pass.Surface, label string, options ...pass.PassBuilderOption) *Fx {
	u := uniform.NewFor(surface.Device(), label+" params", FxParams{})
	opts := append([]pass.PassBuilderOption{pass.WithUniform(u)}, options...)
	return &Fx{
		stage:   pass.NewFilter(surface, label, shader.Must("fx", fxSource), opts...),
		uniform: u,
		mu:      &sync.Mutex{},
	}
}

// Set replaces the parameters used from the next encode on.
func (x *Fx) Set(params FxParams) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.params = params
}

// Params returns the current parameters.
func (x *Fx) Params() FxParams {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.params
}

func (x *Fx) Label() string                { return x.stage.Label() }
func (x *Fx) View(i int) *wgpu.TextureView { return x.stage.View(i) }
func (x *Fx) Inputs() int                  { return x.stage.Inputs() }

func (x *Fx) Encode(f *frame.Frame, target *wgpu.TextureView) {
	f.WriteUniform(x.uniform, x.Params())
	x.stage.Encode(f, target)
}

func (x *Fx) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	f.WriteUniform(x.uniform, x.Params())
	x.stage.EncodeLoad(f, target)
}
