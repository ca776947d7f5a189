package sketch

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/midi"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStage struct {
	name   string
	calls  []string
	inputs []Input
}

func (s *recordingStage) Name() string    { return s.name }
func (s *recordingStage) Init(*Context)   { s.calls = append(s.calls, "init") }
func (s *recordingStage) Update(*Context) { s.calls = append(s.calls, "update") }
func (s *recordingStage) Input(_ *Context, in Input) {
	s.calls = append(s.calls, "input")
	s.inputs = append(s.inputs, in)
}
func (s *recordingStage) View(*Context, *frame.Frame, *wgpu.TextureView) {
	s.calls = append(s.calls, "view")
}

func TestDirectorDispatchesToSelected(t *testing.T) {
	boot, show := &recordingStage{name: "boot"}, &recordingStage{name: "show"}
	d := NewDirector(boot, show)
	ctx := &Context{}

	d.Init(ctx)
	assert.Equal(t, []string{"init"}, boot.calls)
	assert.Equal(t, []string{"init"}, show.calls)

	d.Update(ctx)
	d.View(ctx, nil, nil)
	assert.Equal(t, []string{"init", "update", "view"}, boot.calls)
	assert.Equal(t, []string{"init"}, show.calls)
	assert.Equal(t, "boot", d.Name())
}

func TestDirectorNumberKeysSelect(t *testing.T) {
	boot, show := &recordingStage{name: "boot"}, &recordingStage{name: "show"}
	d := NewDirector(boot, show)

	var buf bytes.Buffer
	ctx := &Context{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	var picked []string
	d.OnSelect(func(s Stage) { picked = append(picked, s.Name()) })

	d.Input(ctx, Input{Kind: KeyDown, Key: common.Key2})
	assert.Equal(t, 1, d.Index())
	assert.Equal(t, "show", d.Name())
	assert.Equal(t, []string{"show"}, picked)
	assert.Contains(t, buf.String(), "stage selected")

	// Out of range and zero keys are ignored and not forwarded.
	d.Input(ctx, Input{Kind: KeyDown, Key: common.Key9})
	d.Input(ctx, Input{Kind: KeyDown, Key: common.Key0})
	assert.Equal(t, 1, d.Index())
	assert.Empty(t, boot.inputs)
	assert.Empty(t, show.inputs)

	d.Update(ctx)
	assert.Equal(t, []string{"update"}, show.calls)
	assert.Empty(t, boot.calls)
}

func TestDirectorForwardsInputs(t *testing.T) {
	boot, show := &recordingStage{name: "boot"}, &recordingStage{name: "show"}
	d := NewDirector(boot, show)
	ctx := &Context{}

	d.Input(ctx, Input{Kind: KeyDown, Key: common.KeySpace})
	d.Input(ctx, Input{Kind: Controller, MIDI: midi.Input{Kind: midi.Knob, Control: 3, Value: 0.5}})
	require.Len(t, boot.inputs, 2)
	assert.Equal(t, midi.Knob, boot.inputs[1].MIDI.Kind)
	assert.Empty(t, show.inputs)

	d.Input(ctx, Input{Kind: Resize, Width: 800, Height: 600})
	assert.Len(t, boot.inputs, 3)
	require.Len(t, show.inputs, 1)
	assert.Equal(t, 800, show.inputs[0].Width)
}

func TestDirectorSelectBounds(t *testing.T) {
	d := NewDirector(&recordingStage{name: "only"})
	assert.True(t, d.Select(0))
	assert.False(t, d.Select(1))
	assert.False(t, d.Select(-1))
	assert.Equal(t, 1, d.Len())
	assert.Panics(t, func() { NewDirector() })
}

func TestContextAspect(t *testing.T) {
	assert.Equal(t, float32(2), (&Context{Width: 200, Height: 100}).Aspect())
	assert.Equal(t, float32(1), (&Context{}).Aspect())
}
