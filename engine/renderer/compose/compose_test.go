package compose

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/gputest"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pass"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/shader"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/staging"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStage draws one fullscreen triangle into whatever target it is given.
type fakeStage struct {
	label  string
	inputs []*wgpu.TextureView
}

func newFakeStage(label string, inputs int) *fakeStage {
	s := &fakeStage{label: label}
	for range inputs {
		s.inputs = append(s.inputs, &wgpu.TextureView{})
	}
	return s
}

func (s *fakeStage) Label() string                { return s.label }
func (s *fakeStage) View(i int) *wgpu.TextureView { return s.inputs[i] }
func (s *fakeStage) Inputs() int                  { return len(s.inputs) }

func (s *fakeStage) Encode(f *frame.Frame, target *wgpu.TextureView) {
	s.draw(f, target, wgpu.LoadOpClear)
}

func (s *fakeStage) EncodeLoad(f *frame.Frame, target *wgpu.TextureView) {
	s.draw(f, target, wgpu.LoadOpLoad)
}

func (s *fakeStage) draw(f *frame.Frame, target *wgpu.TextureView, load wgpu.LoadOp) {
	rp := f.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            s.label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{View: target, LoadOp: load, StoreOp: wgpu.StoreOpStore}},
	})
	rp.Draw(3, 1)
	rp.End()
}

func newFrame() (*gputest.Device, *frame.Frame) {
	dev := gputest.NewDevice()
	return dev, frame.New(dev, staging.NewPool(dev))
}

func TestChainFeedsEachStageIntoTheNext(t *testing.T) {
	dev, f := newFrame()
	head := newFakeStage("scene", 0)
	edge := newFakeStage("edge", 1)
	shake := newFakeStage("shake", 1)
	pause := newFakeStage("pause", 1)
	surface := &wgpu.TextureView{}

	c := NewChain(head, edge, shake, pause)
	assert.Equal(t, "scene > edge > shake > pause", c.Label())

	c.Encode(f, surface)
	f.Submit()

	recorded := dev.Encoders()[0].Passes()
	require.Len(t, recorded, 4)
	want := []*wgpu.TextureView{edge.View(0), shake.View(0), pause.View(0), surface}
	for i, rp := range recorded {
		require.Len(t, rp.Targets, 1)
		assert.Same(t, want[i], rp.Targets[0], "pass %d", i)
		assert.Equal(t, wgpu.LoadOpClear, rp.LoadOps[0])
		assert.True(t, rp.Ended)
	}
}

func TestTwoStageChainWritesBeforeRead(t *testing.T) {
	dev, f := newFrame()
	solid := newFakeStage("solid", 0)
	invert := newFakeStage("invert", 1)

	NewChain(solid, invert).Encode(f, &wgpu.TextureView{})
	f.Submit()

	commands := dev.Encoders()[0].Commands
	require.Len(t, commands, 2)
	first := commands[0].(*gputest.Pass)
	second := commands[1].(*gputest.Pass)
	assert.Same(t, invert.View(0), first.Targets[0])
	assert.True(t, first.Ended)
	assert.NotSame(t, invert.View(0), second.Targets[0])
}

func TestChainEncodeLoadOnlyAffectsTheLastPass(t *testing.T) {
	dev, f := newFrame()
	c := NewChain(newFakeStage("a", 0), newFakeStage("b", 1))
	c.EncodeLoad(f, &wgpu.TextureView{})
	f.Submit()

	recorded := dev.Encoders()[0].Passes()
	require.Len(t, recorded, 2)
	assert.Equal(t, wgpu.LoadOpClear, recorded[0].LoadOps[0])
	assert.Equal(t, wgpu.LoadOpLoad, recorded[1].LoadOps[0])
}

func TestChainAsStage(t *testing.T) {
	head := newFakeStage("blur", 1)
	c := NewChain(head, newFakeStage("grade", 1))
	assert.Equal(t, 1, c.Inputs())
	assert.Same(t, head.View(0), c.View(0))

	synth := NewChain(newFakeStage("noise", 0))
	assert.Equal(t, 0, synth.Inputs())
	assert.Len(t, synth.Passes(), 1)
}

func TestNewChainRejectsBadStages(t *testing.T) {
	assert.Panics(t, func() { NewChain(nil) })
	assert.Panics(t, func() { NewChain(newFakeStage("a", 0), newFakeStage("b", 0)) })
	assert.Panics(t, func() { NewChain(newFakeStage("a", 0), nil) })
}

func TestFxUploadsParamsBeforeItsPass(t *testing.T) {
	dev, f := newFrame()
	inner := newFakeStage("fx", 1)
	x := &Fx{stage: inner, uniform: uniform.NewFor(dev, "fx params", FxParams{}), mu: &sync.Mutex{}}
	x.Set(FxParams{Time: 1.5, Invert: 1, Posterize: 4})

	x.Encode(f, &wgpu.TextureView{})
	f.Submit()

	commands := dev.Encoders()[0].Commands
	require.Len(t, commands, 2)
	_, isCopy := commands[0].(*gputest.Copy)
	assert.True(t, isCopy)
	_, isPass := commands[1].(*gputest.Pass)
	assert.True(t, isPass)

	want := make([]byte, FxParamsSize)
	FxParams{Time: 1.5, Invert: 1, Posterize: 4}.MarshalTo(want)
	assert.Equal(t, want, x.uniform.Buffer().(*gputest.Buffer).Bytes())
	assert.Equal(t, "fx", x.Label())
	assert.Same(t, inner.View(0), x.View(0))
}

func TestStencilParamsLayout(t *testing.T) {
	buf := make([]byte, 16)
	StencilParams{Threshold: 0.5, Softness: 0.25, Invert: true}.MarshalTo(buf)

	want := make([]byte, 16)
	common.PutFloat32(want[0:], 0.5)
	common.PutFloat32(want[4:], 0.25)
	common.PutFloat32(want[8:], 1)
	assert.Equal(t, want, buf)
}

func TestStencilEncodeLoad(t *testing.T) {
	dev, f := newFrame()
	inner := newFakeStage("stencil", 2)
	s := &Stencil{stage: inner, uniform: uniform.NewFor(dev, "stencil params", StencilParams{}), mu: &sync.Mutex{}}
	s.Set(StencilParams{Threshold: 0.1, UseAlpha: true})

	// The mask feeds slot 1 and the content slot 0.
	mask := newFakeStage("mask", 0)
	content := newFakeStage("content", 0)
	mask.Encode(f, s.View(StencilMask))
	content.Encode(f, s.View(StencilContent))
	s.EncodeLoad(f, &wgpu.TextureView{})
	f.Submit()

	recorded := dev.Encoders()[0].Passes()
	require.Len(t, recorded, 3)
	assert.Same(t, inner.View(1), recorded[0].Targets[0])
	assert.Same(t, inner.View(0), recorded[1].Targets[0])
	assert.Equal(t, wgpu.LoadOpLoad, recorded[2].LoadOps[0])

	b := s.uniform.Buffer().(*gputest.Buffer).Bytes()
	want := make([]byte, 16)
	StencilParams{Threshold: 0.1, UseAlpha: true}.MarshalTo(want)
	assert.Equal(t, want, b)
}

func TestBuiltinShadersMatchTheirBindings(t *testing.T) {
	cases := map[string]struct {
		source   string
		bindings int
	}{
		"fx":      {fxSource, 3},
		"stencil": {stencilSource, 4},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := shader.NewShader(name, tc.source)
			require.NoError(t, err)
			layouts := s.BindGroupLayoutDescriptors()
			require.Len(t, layouts, 1)
			assert.Len(t, layouts[0].Entries, tc.bindings)
			assert.Equal(t, "vs_fullscreen", s.VertexEntry())
		})
	}
}

var _ pass.Stage = &fakeStage{}
