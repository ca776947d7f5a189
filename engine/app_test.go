package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/audio"
	"github.com/Carmen-Shannon/phantoma/engine/config"
	"github.com/Carmen-Shannon/phantoma/engine/midi"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/gputest"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/Carmen-Shannon/phantoma/engine/sketch"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisplay struct {
	dev *gputest.Device

	mu          sync.Mutex
	width       int
	height      int
	failAcquire int
	acquires    int
	presents    int
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{dev: gputest.NewDevice(), width: 1280, height: 720}
}

func (d *fakeDisplay) Device() renderer.Device    { return d.dev }
func (d *fakeDisplay) Format() wgpu.TextureFormat { return wgpu.TextureFormatBGRA8Unorm }

func (d *fakeDisplay) Width() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width
}

func (d *fakeDisplay) Height() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.height
}

func (d *fakeDisplay) Resize(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.width, d.height = width, height
}

func (d *fakeDisplay) Acquire() (*renderer.SurfaceTarget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acquires++
	if d.failAcquire > 0 {
		d.failAcquire--
		return nil, renderer.ErrSurfaceUnavailable
	}
	return &renderer.SurfaceTarget{}, nil
}

func (d *fakeDisplay) Present(*renderer.SurfaceTarget) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.presents++
}

func (d *fakeDisplay) Poll(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.dev.Poll(false)
		}
	}
}

type fakeHost struct {
	resize  func(width, height int)
	keyDown func(key common.Key)
	keyUp   func(key common.Key)
	closed  chan struct{}
	once    sync.Once
}

func (h *fakeHost) SetResizeCallback(cb func(width, height int)) { h.resize = cb }
func (h *fakeHost) SetKeyDownCallback(cb func(key common.Key))   { h.keyDown = cb }
func (h *fakeHost) SetKeyUpCallback(cb func(key common.Key))     { h.keyUp = cb }
func (h *fakeHost) RequestClose()                                { h.once.Do(func() { close(h.closed) }) }

func (h *fakeHost) ProcessMessages() {
	h.resize(640, 360)
	h.keyDown(common.Key2)
	h.keyUp(common.Key2)
	<-h.closed
}

type testStage struct {
	app       App
	tint      *uniform.Uniform
	quitAfter int
	quitOn    func(s *testStage) bool
	panics    bool

	updates  int
	views    int
	inputs   []sketch.Input
	sizes    [][2]int
	audio    bool
	lastTick uint64
}

func (s *testStage) Name() string { return "test" }

func (s *testStage) Init(ctx *sketch.Context) {
	s.tint = uniform.NewFor(ctx.Surface.Device(), "tint", uniform.Vec4{})
}

func (s *testStage) Input(ctx *sketch.Context, in sketch.Input) {
	s.inputs = append(s.inputs, in)
	s.sizes = append(s.sizes, [2]int{ctx.Width, ctx.Height})
}

func (s *testStage) Update(ctx *sketch.Context) {
	if s.panics {
		panic("boom")
	}
	s.updates++
	s.audio = s.audio || ctx.Audio != nil
	s.lastTick = ctx.Tick
}

func (s *testStage) View(_ *sketch.Context, f *frame.Frame, _ *wgpu.TextureView) {
	f.WriteUniform(s.tint, uniform.Vec4{1, 0, 0, 1})
	s.views++
	if (s.quitAfter > 0 && s.views == s.quitAfter) || (s.quitOn != nil && s.quitOn(s)) {
		s.app.Quit()
	}
}

func TestRunRendersUntilQuit(t *testing.T) {
	d := newFakeDisplay()
	s := &testStage{quitAfter: 3}

	feed := audio.NewFeed()
	feed.Publish(audio.Analyze([]float32{0.5, -0.5}, 16000))
	pad := midi.NewQueue("pad", nil)
	require.True(t, pad.Push(midi.Input{Kind: midi.Button, Control: 1, Value: 1}))

	a := NewApp(config.Default(), WithStage(s), WithDisplay(d, nil), WithAudio(feed), WithMIDI(pad))
	s.app = a
	require.NoError(t, a.Run())
	require.NoError(t, pad.Close())

	assert.Equal(t, 3, s.views)
	assert.Equal(t, 3, s.updates)
	assert.Equal(t, uint64(3), a.Frames())
	assert.Equal(t, uint64(2), s.lastTick)
	assert.Len(t, d.dev.Submitted(), 3)
	assert.Equal(t, 3, d.presents)
	assert.True(t, s.audio)

	require.Len(t, s.inputs, 1)
	assert.Equal(t, sketch.Controller, s.inputs[0].Kind)
	assert.True(t, s.inputs[0].MIDI.Pressed())
}

func TestRunSkipsFramesWithoutSurface(t *testing.T) {
	d := newFakeDisplay()
	d.failAcquire = 2
	s := &testStage{quitAfter: 2}

	a := NewApp(config.Default(), WithStage(s), WithDisplay(d, nil))
	s.app = a
	require.NoError(t, a.Run())

	assert.Equal(t, uint64(2), a.Skipped())
	assert.Equal(t, 4, d.acquires)
	assert.Equal(t, 2, s.views)
	assert.Len(t, d.dev.Submitted(), 2)
}

func TestRunStopsOnRecallFailure(t *testing.T) {
	d := newFakeDisplay()
	d.dev.MapFailure = errors.New("device lost")
	s := &testStage{quitAfter: 1000}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	a := NewApp(config.Default(), WithStage(s), WithDisplay(d, nil), WithLogger(logger))
	s.app = a

	err := a.Run()
	require.Error(t, err)
	assert.ErrorContains(t, err, "staging recall")
	assert.Contains(t, buf.String(), "staging recall failed")
	assert.Less(t, s.views, 1000)
}

func TestRunRecoversRenderPanic(t *testing.T) {
	s := &testStage{panics: true}
	var buf bytes.Buffer
	a := NewApp(config.Default(), WithStage(s), WithDisplay(newFakeDisplay(), nil),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	s.app = a

	err := a.Run()
	assert.ErrorContains(t, err, "panicked")
	assert.Contains(t, buf.String(), "recovered from panic")
}

func TestRunDeliversWindowEvents(t *testing.T) {
	d := newFakeDisplay()
	h := &fakeHost{closed: make(chan struct{})}
	s := &testStage{quitOn: func(s *testStage) bool { return len(s.inputs) >= 3 }}

	a := NewApp(config.Default(), WithStage(s), WithDisplay(d, h))
	s.app = a
	require.NoError(t, a.Run())

	require.Len(t, s.inputs, 3)
	assert.Equal(t, sketch.Input{Kind: sketch.Resize, Width: 640, Height: 360}, s.inputs[0])
	assert.Equal(t, [2]int{640, 360}, s.sizes[0])
	assert.Equal(t, sketch.Input{Kind: sketch.KeyDown, Key: common.Key2}, s.inputs[1])
	assert.Equal(t, sketch.KeyUp, s.inputs[2].Kind)
	assert.Equal(t, 640, d.Width())
}

func TestFrameLimitAndProfiling(t *testing.T) {
	cfg := config.Default()
	cfg.FrameLimit = 200
	cfg.Profiling = true
	cfg.StagingPools = 1
	s := &testStage{quitAfter: 4}

	a := NewApp(cfg, WithStage(s), WithDisplay(newFakeDisplay(), nil))
	s.app = a
	begin := time.Now()
	require.NoError(t, a.Run())

	assert.GreaterOrEqual(t, time.Since(begin), 3*5*time.Millisecond)
	assert.Equal(t, cfg, a.Config())
}

func TestNewAppPanics(t *testing.T) {
	assert.Panics(t, func() { NewApp(config.Default(), WithDisplay(newFakeDisplay(), nil)) })

	bad := config.Default()
	bad.StagingPools = 0
	assert.Panics(t, func() { NewApp(bad, WithStage(&testStage{}), WithDisplay(newFakeDisplay(), nil)) })
}
