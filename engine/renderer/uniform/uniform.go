package uniform

import (
	"fmt"

	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Value is a CPU-side value with a fixed GPU layout. MarshalTo writes exactly Size bytes in the layout the
// shader declares, little-endian, including any padding.
type Value interface {
	// Size returns the byte size of the GPU representation.
	Size() int

	// MarshalTo writes the GPU representation into buf[0:Size()].
	MarshalTo(buf []byte)
}

// Uniform is a GPU buffer holding exactly one Value of a fixed size.
type Uniform struct {
	label  string
	buffer renderer.Buffer
	size   uint64
}

// Array is a GPU buffer holding count elements of elemSize bytes each.
type Array struct {
	label    string
	buffer   renderer.Buffer
	elemSize uint64
	count    int
}

// New allocates a uniform buffer of size bytes. Allocation failure panics.
//
// Parameters:
//   - device: the device that allocates the buffer
//   - label: the debug label
//   - size: the byte size of the value this uniform holds
//
// Returns:
//   - *Uniform: the uniform
func New(device renderer.Device, label string, size int) *Uniform {
	if size <= 0 {
		panic(fmt.Sprintf("uniform: %s has non-positive size %d", label, size))
	}
	buf, err := device.CreateBuffer(label, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, uint64(size))
	if err != nil {
		panic(fmt.Sprintf("uniform: failed to create %s: %v", label, err))
	}
	return &Uniform{label: label, buffer: buf, size: uint64(size)}
}

// NewFor allocates a uniform sized for v.
func NewFor(device renderer.Device, label string, v Value) *Uniform {
	return New(device, label, v.Size())
}

// NewArray allocates a uniform array of count elements of elemSize bytes. Allocation failure panics.
//
// Parameters:
//   - device: the device that allocates the buffer
//   - label: the debug label
//   - elemSize: the byte size of one element
//   - count: the number of elements
//
// Returns:
//   - *Array: the uniform array
func NewArray(device renderer.Device, label string, elemSize, count int) *Array {
	if elemSize <= 0 || count <= 0 {
		panic(fmt.Sprintf("uniform: %s has invalid shape %d x %d", label, count, elemSize))
	}
	size := uint64(elemSize) * uint64(count)
	buf, err := device.CreateBuffer(label, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, size)
	if err != nil {
		panic(fmt.Sprintf("uniform: failed to create %s: %v", label, err))
	}
	return &Array{label: label, buffer: buf, elemSize: uint64(elemSize), count: count}
}

func (u *Uniform) Label() string           { return u.label }
func (u *Uniform) Buffer() renderer.Buffer { return u.buffer }
func (u *Uniform) Size() uint64            { return u.size }

// Entry returns the bind group entry binding this uniform's whole buffer.
func (u *Uniform) Entry(binding uint32) wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{Binding: binding, Buffer: u.buffer.Raw(), Offset: 0, Size: wgpu.WholeSize}
}

func (a *Array) Label() string           { return a.label }
func (a *Array) Buffer() renderer.Buffer { return a.buffer }
func (a *Array) ElemSize() uint64        { return a.elemSize }
func (a *Array) Len() int                { return a.count }

// Entry returns the bind group entry binding this array's whole buffer.
func (a *Array) Entry(binding uint32) wgpu.BindGroupEntry {
	return wgpu.BindGroupEntry{Binding: binding, Buffer: a.buffer.Raw(), Offset: 0, Size: wgpu.WholeSize}
}

// LayoutEntry describes a uniform buffer binding visible to the vertex and fragment stages.
//
// Parameters:
//   - binding: the binding index
//   - minSize: the minimum binding size in bytes
//
// Returns:
//   - wgpu.BindGroupLayoutEntry: the layout entry
func LayoutEntry(binding uint32, minSize uint64) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
		Buffer: wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: minSize,
		},
	}
}
