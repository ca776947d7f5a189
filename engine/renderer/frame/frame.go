// Package frame scopes one render frame: a single command encoder plus a checked-out staging pool.
//
// Every upload made during the frame is staged through the pool and copied by the frame's encoder, and the
// render passes are recorded into the same encoder. Submit finishes the pool, submits the command buffer
// exactly once and hands the pool back to the caller, who must Recall it before using it for another frame.
package frame

import (
	"fmt"

	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/staging"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/uniform"
	"github.com/cogentcore/webgpu/wgpu"
)

// Frame is a single-use recording scope. It is not safe for concurrent use.
type Frame struct {
	device    renderer.Device
	encoder   renderer.Encoder
	pool      staging.Pool
	submitted bool
	passes    int
}

// New opens a command encoder for a frame that stages its uploads through pool.
// Failing to create the encoder panics.
//
// Parameters:
//   - device: the device whose queue receives the frame
//   - pool: a staging pool that is not in use by another frame
//
// Returns:
//   - *Frame: the open frame
func New(device renderer.Device, pool staging.Pool) *Frame {
	enc, err := device.CreateCommandEncoder("frame")
	if err != nil {
		panic(fmt.Sprintf("frame: failed to create command encoder: %v", err))
	}
	return &Frame{device: device, encoder: enc, pool: pool}
}

func (f *Frame) check() {
	if f.submitted {
		panic("frame: already submitted")
	}
}

// Device returns the device the frame records for.
func (f *Frame) Device() renderer.Device {
	return f.device
}

// Passes returns the number of render passes begun so far.
func (f *Frame) Passes() int {
	return f.passes
}

// WriteUniform stages v into u. v's size must equal the uniform's size.
func (f *Frame) WriteUniform(u *uniform.Uniform, v uniform.Value) {
	f.check()
	if uint64(v.Size()) != u.Size() {
		panic(fmt.Sprintf("frame: value of %d bytes written to uniform %s of %d bytes", v.Size(), u.Label(), u.Size()))
	}
	v.MarshalTo(f.pool.WriteBuffer(f.encoder, u.Buffer(), 0, u.Size()))
}

// WriteUniformElement stages v into element index of a. v's size must equal the element size.
func (f *Frame) WriteUniformElement(a *uniform.Array, index int, v uniform.Value) {
	WriteUniformSlice(f, a, index, []uniform.Value{v})
}

// WriteUniformSlice stages values into consecutive elements of a starting at index, with a single staging
// reservation. Every value's size must equal the element size and the range must fit in the array.
//
// Parameters:
//   - f: the frame
//   - a: the destination array
//   - index: the first element written
//   - values: the values, one per element
func WriteUniformSlice[T uniform.Value](f *Frame, a *uniform.Array, index int, values []T) {
	f.check()
	if len(values) == 0 {
		return
	}
	if index < 0 || index+len(values) > a.Len() {
		panic(fmt.Sprintf("frame: elements [%d, %d) out of range for %s of length %d", index, index+len(values), a.Label(), a.Len()))
	}

	elem := a.ElemSize()
	for _, v := range values {
		if uint64(v.Size()) != elem {
			panic(fmt.Sprintf("frame: value of %d bytes written to %s with %d-byte elements", v.Size(), a.Label(), elem))
		}
	}

	region := f.pool.WriteBuffer(f.encoder, a.Buffer(), uint64(index)*elem, uint64(len(values))*elem)
	for i, v := range values {
		v.MarshalTo(region[uint64(i)*elem:])
	}
}

// WriteBuffer stages raw bytes into target at offset. len(data) must be a multiple of 4.
func (f *Frame) WriteBuffer(target renderer.Buffer, offset uint64, data []byte) {
	f.check()
	copy(f.pool.WriteBuffer(f.encoder, target, offset, uint64(len(data))), data)
}

// BeginRenderPass starts a render pass in the frame's command stream. The pass must be ended before the next
// one begins.
func (f *Frame) BeginRenderPass(desc *wgpu.RenderPassDescriptor) renderer.RenderPass {
	f.check()
	f.passes++
	return f.encoder.BeginRenderPass(desc)
}

// Submit finishes the staging pool, submits the frame's command buffer and returns the pool. The caller owns
// the pool again and must Recall it before the next frame uses it. Any use of the frame afterwards panics.
//
// Returns:
//   - staging.Pool: the pool, with all of this frame's chunks closed
func (f *Frame) Submit() staging.Pool {
	f.check()
	f.submitted = true

	f.pool.Finish()
	cb, err := f.encoder.Finish()
	if err != nil {
		panic(fmt.Sprintf("frame: failed to finish command buffer: %v", err))
	}
	f.device.Queue().Submit(cb)
	cb.Release()

	pool := f.pool
	f.pool = nil
	return pool
}
