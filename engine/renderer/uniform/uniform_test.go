package uniform

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/phantoma/engine/renderer/gputest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestMat4IsColumnMajor(t *testing.T) {
	m := Mat4(mgl32.Translate3D(1, 2, 3))
	buf := make([]byte, m.Size())
	m.MarshalTo(buf)

	assert.Equal(t, float32(1), f32At(buf, 48))
	assert.Equal(t, float32(2), f32At(buf, 52))
	assert.Equal(t, float32(3), f32At(buf, 56))
	assert.Equal(t, float32(1), f32At(buf, 60))
}

func TestParamsLayout(t *testing.T) {
	p := Params{
		Time:       1.5,
		Delta:      0.25,
		Resolution: mgl32.Vec2{640, 480},
		Audio:      mgl32.Vec4{0.1, 0.2, 0.3, 0.4},
	}
	p.Values[3] = mgl32.Vec4{9, 8, 7, 6}

	buf := make([]byte, p.Size())
	p.MarshalTo(buf)

	assert.Equal(t, 96, p.Size())
	assert.Equal(t, float32(1.5), f32At(buf, 0))
	assert.Equal(t, float32(0.25), f32At(buf, 4))
	assert.Equal(t, float32(640), f32At(buf, 8))
	assert.Equal(t, float32(480), f32At(buf, 12))
	assert.Equal(t, float32(0.4), f32At(buf, 28))
	assert.Equal(t, float32(9), f32At(buf, 80))
	assert.Equal(t, float32(6), f32At(buf, 92))
}

func TestNewAllocatesUniformBuffers(t *testing.T) {
	dev := gputest.NewDevice()

	u := NewFor(dev, "view", Mat4{})
	a := NewArray(dev, "lights", 32, 4)

	assert.Equal(t, uint64(64), u.Size())
	assert.Equal(t, uint64(64), u.Buffer().Size())
	assert.Equal(t, uint64(128), a.Buffer().Size())
	assert.Equal(t, 4, a.Len())

	bufs := dev.Buffers()
	require.Len(t, bufs, 2)
	assert.Equal(t, "view", bufs[0].Label)
}

func TestNewRejectsInvalidShapes(t *testing.T) {
	dev := gputest.NewDevice()
	assert.Panics(t, func() { New(dev, "empty", 0) })
	assert.Panics(t, func() { NewArray(dev, "none", 16, 0) })
}
