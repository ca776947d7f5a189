package common

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mat4Size is the byte size of a column-major mat4x4<f32>.
const Mat4Size = 64

// PutFloat32 writes f as a little-endian float32 into buf[0:4].
func PutFloat32(buf []byte, f float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
}

// PutUint32 writes v as a little-endian uint32 into buf[0:4].
func PutUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// PutVec4 writes the four components of v into buf[0:16].
func PutVec4(buf []byte, v mgl32.Vec4) {
	for i := range 4 {
		PutFloat32(buf[i*4:], v[i])
	}
}

// PutMat4 writes m into buf[0:64] in column-major order, matching the WGSL mat4x4<f32> layout.
//
// Parameters:
//   - buf: destination slice (must be at least 64 bytes)
//   - m: the matrix to serialize
func PutMat4(buf []byte, m mgl32.Mat4) {
	for i := range 16 {
		PutFloat32(buf[i*4:], m[i])
	}
}

// Mat4From reads a column-major matrix previously written with PutMat4.
func Mat4From(buf []byte) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range 16 {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return m
}

// Perspective creates a right-handed perspective projection matrix mapping depth to the
// WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// AlignUp rounds n up to the next multiple of align. align must be a power of two.
func AlignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
