package pass

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is what passes are built against: a device and the color format and size of the targets they
// render into. renderer.Renderer satisfies it.
type Surface interface {
	Device() renderer.Device
	Format() wgpu.TextureFormat
	Width() int
	Height() int
}

// Pass renders into a target view.
//
// Encode clears the target first; EncodeLoad keeps its content so the pass can layer over what an
// earlier pass drew. Both record one complete render pass into the frame's encoder.
type Pass interface {
	// Label returns the pass's debug label.
	Label() string

	// Encode records the pass into f, clearing target.
	//
	// Parameters:
	//   - f: the frame being recorded
	//   - target: the view to render into
	Encode(f *frame.Frame, target *wgpu.TextureView)

	// EncodeLoad records the pass into f, preserving target's content.
	//
	// Parameters:
	//   - f: the frame being recorded
	//   - target: the view to render into
	EncodeLoad(f *frame.Frame, target *wgpu.TextureView)
}

// Stage is a pass that samples textured inputs. Its input slots are allocated up front so an upstream
// pass can render straight into them.
type Stage interface {
	Pass

	// View returns input slot i. An out-of-range slot panics.
	//
	// Parameters:
	//   - i: the input slot
	//
	// Returns:
	//   - *wgpu.TextureView: the view an upstream pass renders into
	View(i int) *wgpu.TextureView

	// Inputs returns the number of input slots.
	Inputs() int
}

// billboard is the shared core of every pass that draws with a single pipeline: it begins a render pass
// against the target and binds the pipeline; the embedding pass binds its groups and draws.
type billboard struct {
	label    string
	pipeline pipeline.Pipeline
	clear    wgpu.Color
	logger   *slog.Logger
}

func (b *billboard) Label() string { return b.label }

func (b *billboard) raw() *wgpu.RenderPipeline {
	if b.pipeline == nil {
		return nil
	}
	return b.pipeline.Raw()
}

func (b *billboard) begin(f *frame.Frame, target *wgpu.TextureView, load wgpu.LoadOp, depth *wgpu.TextureView) renderer.RenderPass {
	desc := &wgpu.RenderPassDescriptor{
		Label: b.label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: b.clear,
		}},
	}
	if depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		}
	}
	rp := f.BeginRenderPass(desc)
	rp.SetPipeline(b.raw())
	return rp
}

// fullscreen draws the fixed three-vertex fullscreen triangle. sets holds one bind group list per ring
// position; passes that do not rotate have a single set.
type fullscreen struct {
	billboard
	inputs []*renderer.Texture
	sets   [][]*wgpu.BindGroup
	cursor int
	rotate bool
}

func (p *fullscreen) Encode(f *frame.Frame, target *wgpu.TextureView) {
	p.encode(f, target, wgpu.LoadOpClear)
}

func (p *fullscreen) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	p.encode(f, target, wgpu.LoadOpLoad)
}

func (p *fullscreen) encode(f *frame.Frame, target *wgpu.TextureView, load wgpu.LoadOp) {
	rp := p.begin(f, target, load, nil)
	if len(p.sets) > 0 {
		for g, bg := range p.sets[p.cursor] {
			rp.SetBindGroup(uint32(g), bg)
		}
	}
	rp.Draw(3, 1)
	rp.End()

	if p.rotate && len(p.inputs) > 0 {
		p.cursor = (p.cursor + 1) % len(p.inputs)
	}
}

func (p *fullscreen) View(i int) *wgpu.TextureView {
	n := len(p.inputs)
	if i < 0 || i >= n {
		panic(fmt.Sprintf("pass: %s has %d inputs, view %d requested", p.label, n, i))
	}
	if p.rotate {
		return p.inputs[(p.cursor-i+n)%n].View
	}
	return p.inputs[i].View
}

func (p *fullscreen) Inputs() int {
	return len(p.inputs)
}

// Release frees the pass's input textures and pipeline.
func (p *fullscreen) Release() {
	for _, t := range p.inputs {
		t.Release()
	}
	p.inputs = nil
	if p.pipeline != nil {
		p.pipeline.Release()
	}
}

// config collects the builder options shared by all pass constructors.
type config struct {
	uniform       *uniform.Uniform
	clear         wgpu.Color
	blend         *wgpu.BlendState
	width, height int
	sampler       common.SamplerStagingData
	logger        *slog.Logger
}

func newConfig(surface Surface, options []PassBuilderOption) *config {
	cfg := &config{
		clear:  wgpu.Color{A: 1},
		width:  surface.Width(),
		height: surface.Height(),
		logger: common.NopLogger(),
	}
	for _, opt := range options {
		opt(cfg)
	}
	return cfg
}

// newFullscreen builds a fullscreen pass with inputs texture slots. Group 0 binds, in order: every input
// texture (rotated per ring position when rotate is set), one sampler when there are inputs, and the
// optional uniform. The shader's group 0 declarations must match that shape.
func newFullscreen(surface Surface, label string, s shader.Shader, inputs int, rotate bool, options []PassBuilderOption) *fullscreen {
	cfg := newConfig(surface, options)
	raw := surface.Device().Raw()
	if raw == nil {
		panic(fmt.Sprintf("pass: %s needs a wgpu-backed device", label))
	}

	want := inputs
	if inputs > 0 {
		want++
	}
	if cfg.uniform != nil {
		want++
	}
	if got := len(s.BindGroupLayoutDescriptors()[0].Entries); got != want {
		panic(fmt.Sprintf("pass: %s: shader %s declares %d bindings in group 0, pass binds %d", label, s.Key(), got, want))
	}

	pl := pipeline.New(raw, label, s,
		pipeline.WithFormat(surface.Format()),
		pipeline.WithBlendState(cfg.blend))

	p := &fullscreen{
		billboard: billboard{label: label, pipeline: pl, clear: cfg.clear, logger: cfg.logger},
		rotate:    rotate,
	}

	for i := range inputs {
		tex, err := renderer.CreateRenderTarget(raw, fmt.Sprintf("%s input %d", label, i), uint32(cfg.width), uint32(cfg.height), surface.Format())
		if err != nil {
			panic(fmt.Sprintf("pass: %v", err))
		}
		p.inputs = append(p.inputs, tex)
	}

	if want == 0 {
		return p
	}

	var sampler *wgpu.Sampler
	if inputs > 0 {
		var err error
		sampler, err = renderer.CreateSampler(raw, label+" sampler", cfg.sampler)
		if err != nil {
			panic(fmt.Sprintf("pass: %v", err))
		}
	}

	positions := 1
	if rotate {
		positions = inputs
	}
	for cursor := range positions {
		entries := make([]wgpu.BindGroupEntry, 0, want)
		for i := range inputs {
			slot := i
			if rotate {
				slot = (cursor - i + inputs) % inputs
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(len(entries)), TextureView: p.inputs[slot].View})
		}
		if sampler != nil {
			entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(len(entries)), Sampler: sampler})
		}
		if cfg.uniform != nil {
			entries = append(entries, cfg.uniform.Entry(uint32(len(entries))))
		}

		bg, err := raw.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s bind group %d", label, cursor),
			Layout:  pl.Layout(0),
			Entries: entries,
		})
		if err != nil {
			panic(fmt.Sprintf("pass: failed to create bind group for %s: %v", label, err))
		}
		p.sets = append(p.sets, []*wgpu.BindGroup{bg})
	}

	cfg.logger.Debug("pass created", slog.String("pass", label), slog.Int("inputs", inputs), slog.Bool("ring", rotate))
	return p
}
