package frame

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/gputest"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/staging"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitUploadsAndReturnsPool(t *testing.T) {
	dev := gputest.NewDevice()
	pool := staging.NewPool(dev, staging.WithChunkSize(256))

	view := uniform.NewFor(dev, "view", uniform.Mat4{})
	lights := uniform.NewArray(dev, "lights", 16, 3)

	f := New(dev, pool)
	f.WriteUniform(view, uniform.Mat4(mgl32.Translate3D(4, 5, 6)))
	WriteUniformSlice(f, lights, 1, []uniform.Vec4{{1, 2, 3, 4}, {5, 6, 7, 8}})

	returned := f.Submit()
	assert.Same(t, pool, returned)
	assert.Equal(t, 0, returned.Stats().Active)
	assert.Equal(t, 1, returned.Stats().Closed)

	require.Len(t, dev.Submitted(), 1)
	assert.True(t, dev.Submitted()[0].Released())

	viewBytes := view.Buffer().(*gputest.Buffer).Bytes()
	assert.Equal(t, mgl32.Translate3D(4, 5, 6), common.Mat4From(viewBytes))

	lightBytes := lights.Buffer().(*gputest.Buffer).Bytes()
	assert.Equal(t, make([]byte, 16), lightBytes[:16])
	assert.Equal(t, float32(5), float32frombuf(lightBytes[32:]))

	require.NoError(t, returned.Recall())
	assert.Equal(t, 1, returned.Stats().Free)
}

func float32frombuf(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func TestFrameIsSingleUse(t *testing.T) {
	dev := gputest.NewDevice()
	u := uniform.New(dev, "time", 4)
	f := New(dev, staging.NewPool(dev))
	f.Submit()

	assert.PanicsWithValue(t, "frame: already submitted", func() { f.Submit() })
	assert.Panics(t, func() { f.WriteUniform(u, uniform.Float32(1)) })
	assert.Panics(t, func() { f.BeginRenderPass(&wgpu.RenderPassDescriptor{}) })
	assert.Len(t, dev.Submitted(), 1)
}

func TestWriteUniformSizeMismatchPanics(t *testing.T) {
	dev := gputest.NewDevice()
	u := uniform.NewFor(dev, "view", uniform.Mat4{})
	a := uniform.NewArray(dev, "values", 16, 2)
	f := New(dev, staging.NewPool(dev))

	assert.Panics(t, func() { f.WriteUniform(u, uniform.Vec4{}) })
	assert.Panics(t, func() { f.WriteUniformElement(a, 0, uniform.Float32(1)) })
	assert.Panics(t, func() { f.WriteUniformElement(a, 2, uniform.Vec4{}) })
}

func TestPassesShareTheFrameEncoder(t *testing.T) {
	dev := gputest.NewDevice()
	f := New(dev, staging.NewPool(dev))

	target := &wgpu.TextureView{}
	pass := f.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{View: target, LoadOp: wgpu.LoadOpClear, StoreOp: wgpu.StoreOpStore}},
	})
	pass.Draw(3, 1)
	pass.End()
	f.Submit()

	encoders := dev.Encoders()
	require.Len(t, encoders, 1)
	passes := encoders[0].Passes()
	require.Len(t, passes, 1)
	assert.Same(t, target, passes[0].Targets[0])
	assert.Equal(t, 1, f.Passes())
}
