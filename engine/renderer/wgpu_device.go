package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDevice adapts a *wgpu.Device to the Device interface.
type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpuQueue
}

type wgpuBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

type wgpuQueue struct {
	queue *wgpu.Queue
}

type wgpuEncoder struct {
	encoder *wgpu.CommandEncoder
}

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

type wgpuCommandBuffer struct {
	commands *wgpu.CommandBuffer
}

var _ Device = &wgpuDevice{}
var _ MappedBuffer = &wgpuBuffer{}
var _ Queue = &wgpuQueue{}
var _ Encoder = &wgpuEncoder{}
var _ RenderPass = &wgpuRenderPass{}
var _ CommandBuffer = &wgpuCommandBuffer{}

// WrapDevice exposes an existing wgpu device through the Device interface.
//
// Parameters:
//   - device: the wgpu device
//
// Returns:
//   - Device: the wrapped device
func WrapDevice(device *wgpu.Device) Device {
	return &wgpuDevice{
		device: device,
		queue:  &wgpuQueue{queue: device.GetQueue()},
	}
}

func (d *wgpuDevice) CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", label, err)
	}
	return &wgpuBuffer{buffer: buf, size: size}, nil
}

func (d *wgpuDevice) CreateStagingBuffer(label string, size uint64) (MappedBuffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            wgpu.BufferUsageMapWrite | wgpu.BufferUsageCopySrc,
		MappedAtCreation: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create staging buffer %q: %w", label, err)
	}
	return &wgpuBuffer{buffer: buf, size: size}, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (Encoder, error) {
	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %q: %w", label, err)
	}
	return &wgpuEncoder{encoder: enc}, nil
}

func (d *wgpuDevice) Queue() Queue {
	return d.queue
}

func (d *wgpuDevice) Poll(wait bool) {
	d.device.Poll(wait, nil)
}

func (d *wgpuDevice) Raw() *wgpu.Device {
	return d.device
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Raw() *wgpu.Buffer {
	return b.buffer
}

func (b *wgpuBuffer) MappedRange(offset, size uint64) []byte {
	return b.buffer.GetMappedRange(uint(offset), uint(size))
}

func (b *wgpuBuffer) Unmap() {
	b.buffer.Unmap()
}

func (b *wgpuBuffer) MapWriteAsync(callback func(error)) {
	b.buffer.MapAsync(wgpu.MapModeWrite, 0, b.size, func(status wgpu.BufferMapAsyncStatus) {
		if status != wgpu.BufferMapAsyncStatusSuccess {
			callback(fmt.Errorf("buffer map failed with status %v", status))
			return
		}
		callback(nil)
	})
}

func (b *wgpuBuffer) Release() {
	b.buffer.Release()
}

func (q *wgpuQueue) Submit(commands CommandBuffer) {
	cb, ok := commands.(*wgpuCommandBuffer)
	if !ok {
		panic(fmt.Sprintf("renderer: cannot submit foreign command buffer %T", commands))
	}
	q.queue.Submit(cb.commands)
}

func (q *wgpuQueue) WriteBuffer(buffer Buffer, offset uint64, data []byte) {
	q.queue.WriteBuffer(buffer.Raw(), offset, data)
}

func (e *wgpuEncoder) CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64) {
	e.encoder.CopyBufferToBuffer(src.Raw(), srcOffset, dst.Raw(), dstOffset, size)
}

func (e *wgpuEncoder) BeginRenderPass(desc *wgpu.RenderPassDescriptor) RenderPass {
	return &wgpuRenderPass{pass: e.encoder.BeginRenderPass(desc)}
}

func (e *wgpuEncoder) Finish() (CommandBuffer, error) {
	defer e.encoder.Release()
	cb, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to finish command encoder: %w", err)
	}
	return &wgpuCommandBuffer{commands: cb}, nil
}

func (p *wgpuRenderPass) SetPipeline(pipeline *wgpu.RenderPipeline) {
	p.pass.SetPipeline(pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	p.pass.SetBindGroup(index, group, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buffer Buffer) {
	p.pass.SetVertexBuffer(slot, buffer.Raw(), 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(buffer Buffer) {
	p.pass.SetIndexBuffer(buffer.Raw(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount uint32) {
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuRenderPass) End() {
	p.pass.End()
	p.pass.Release()
}

func (c *wgpuCommandBuffer) Release() {
	c.commands.Release()
}
