package uniform

import (
	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Mat4 is a mat4x4<f32>, column-major.
type Mat4 mgl32.Mat4

// Vec4 is a vec4<f32>.
type Vec4 mgl32.Vec4

// Float32 is a single f32.
type Float32 float32

// Uint32 is a single u32.
type Uint32 uint32

// Params is the parameter block shared by the fullscreen shader passes.
//
//	struct Params {
//	    time: f32, dt: f32, resolution: vec2<f32>,
//	    audio: vec4<f32>,        // rms, peak, low band, high band
//	    values: array<vec4<f32>, 4>,
//	}
type Params struct {
	Time       float32
	Delta      float32
	Resolution mgl32.Vec2
	Audio      mgl32.Vec4
	Values     [4]mgl32.Vec4
}

// ParamsSize is the byte size of Params on the GPU.
const ParamsSize = 16 + 16 + 4*16

var _ Value = Mat4{}
var _ Value = Vec4{}
var _ Value = Float32(0)
var _ Value = Uint32(0)
var _ Value = Params{}

func (m Mat4) Size() int { return common.Mat4Size }

func (m Mat4) MarshalTo(buf []byte) {
	common.PutMat4(buf, mgl32.Mat4(m))
}

func (v Vec4) Size() int { return 16 }

func (v Vec4) MarshalTo(buf []byte) {
	common.PutVec4(buf, mgl32.Vec4(v))
}

func (f Float32) Size() int { return 4 }

func (f Float32) MarshalTo(buf []byte) {
	common.PutFloat32(buf, float32(f))
}

func (u Uint32) Size() int { return 4 }

func (u Uint32) MarshalTo(buf []byte) {
	common.PutUint32(buf, uint32(u))
}

func (p Params) Size() int { return ParamsSize }

func (p Params) MarshalTo(buf []byte) {
	common.PutFloat32(buf[0:], p.Time)
	common.PutFloat32(buf[4:], p.Delta)
	common.PutFloat32(buf[8:], p.Resolution.X())
	common.PutFloat32(buf[12:], p.Resolution.Y())
	common.PutVec4(buf[16:], p.Audio)
	for i, v := range p.Values {
		common.PutVec4(buf[32+i*16:], v)
	}
}
