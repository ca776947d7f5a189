package main

import (
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/config"
	"github.com/Carmen-Shannon/phantoma/engine/loader"
	"github.com/Carmen-Shannon/phantoma/engine/midi"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/compose"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pass"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/Carmen-Shannon/phantoma/engine/sketch"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/plasma.wgsl
var plasmaSource string

// Controller assignments shared by the demo stages.
const (
	ctrlDrive  = 0
	ctrlHue    = 1
	ctrlGlitch = 2
)

// plasma is a noise field pushed by the audio level, run through the effect stage, with a text HUD.
type plasma struct {
	cfg config.Config

	params *uniform.Uniform
	chain  *compose.Chain
	fx     *compose.Fx
	hud    *pass.Text

	drive, hue, glitch float32
	invert             bool
}

var _ sketch.Stage = &plasma{}

func newPlasma(cfg config.Config) *plasma {
	return &plasma{cfg: cfg}
}

func (p *plasma) Name() string { return "plasma" }

func (p *plasma) Init(ctx *sketch.Context) {
	dev := ctx.Surface.Device()
	p.params = uniform.NewFor(dev, "plasma params", uniform.Params{})
	synth := pass.NewSynth(ctx.Surface, "plasma", shader.Must("plasma", plasmaSource), pass.WithUniform(p.params))
	p.fx = compose.NewFx(ctx.Surface, "plasma fx")
	p.chain = compose.NewChain(synth, p.fx)

	atlas, err := pass.NewGlyphAtlas(loader.ReadFont(p.cfg.Asset(p.cfg.Font)), p.cfg.FontSize)
	if err != nil {
		panic(fmt.Sprintf("phantoma: failed to build glyph atlas: %v", err))
	}
	p.hud = pass.NewText(ctx.Surface, "hud", atlas, 0, pass.WithLogger(ctx.Logger))
	p.hud.SetOrigin(mgl32.Vec2{24, 24})
	p.hud.SetColor(mgl32.Vec4{1, 1, 1, 0.85})
	ctx.Logger.Debug("stage initialized", slog.String("stage", p.Name()), slog.String("chain", p.chain.Label()))
}

func (p *plasma) Input(ctx *sketch.Context, in sketch.Input) {
	switch in.Kind {
	case sketch.Resize:
		p.hud.Resize(in.Width, in.Height)
	case sketch.KeyDown:
		if in.Key == common.KeySpace {
			p.invert = !p.invert
		}
	case sketch.Controller:
		p.control(ctx, in.MIDI)
	}
}

func (p *plasma) control(ctx *sketch.Context, in midi.Input) {
	switch {
	case in.Kind == midi.Button && in.Pressed():
		p.invert = !p.invert
		if ctx.MIDI != nil {
			ctx.MIDI.Send(midi.Output{Control: in.Control, Value: boolValue(p.invert)})
		}
	case in.Control == ctrlDrive:
		p.drive = in.Value
	case in.Control == ctrlHue:
		p.hue = in.Value
	case in.Control == ctrlGlitch:
		p.glitch = in.Value
	}
}

func boolValue(on bool) uint8 {
	if on {
		return 127
	}
	return 0
}

func (p *plasma) Update(ctx *sketch.Context) {
	var rms, peak float32
	if ctx.Audio != nil {
		rms, peak = ctx.Audio.RMS(), ctx.Audio.Peak()
	}
	invert := float32(0)
	if p.invert {
		invert = 1
	}
	p.fx.Set(compose.FxParams{
		Time:       ctx.T,
		Shake:      rms * 0.02,
		Glitch:     p.glitch,
		Aberration: 0.002 + peak*0.01,
		Invert:     invert,
		Vignette:   0.4,
	})
	fps := float32(0)
	if ctx.Dt > 0 {
		fps = 1 / ctx.Dt
	}
	p.hud.SetText(fmt.Sprintf("%s  %3.0f fps\nrms %.2f  peak %.2f", p.Name(), fps, rms, peak))
}

func (p *plasma) View(ctx *sketch.Context, f *frame.Frame, target *wgpu.TextureView) {
	params := uniform.Params{
		Time:       ctx.T,
		Delta:      ctx.Dt,
		Resolution: mgl32.Vec2{float32(ctx.Width), float32(ctx.Height)},
	}
	if ctx.Audio != nil {
		params.Audio = mgl32.Vec4{ctx.Audio.RMS(), ctx.Audio.Peak(), ctx.Audio.RMSRange(20, 250), ctx.Audio.RMSRange(4000, 16000)}
	}
	params.Values[0] = mgl32.Vec4{p.drive, p.hue}
	f.WriteUniform(p.params, params)

	p.chain.Encode(f, target)
	p.hud.EncodeLoad(f, target)
}
