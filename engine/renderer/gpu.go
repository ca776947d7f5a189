package renderer

import "github.com/cogentcore/webgpu/wgpu"

// Buffer is a GPU-resident buffer that can be the target of staged copies and bound to a pipeline.
type Buffer interface {
	// Size returns the byte size the buffer was created with.
	//
	// Returns:
	//   - uint64: the buffer size in bytes
	Size() uint64

	// Raw returns the underlying wgpu buffer for binding into bind groups and vertex/index slots.
	// Test doubles return nil.
	//
	// Returns:
	//   - *wgpu.Buffer: the wgpu buffer handle
	Raw() *wgpu.Buffer
}

// MappedBuffer is a CPU-writable upload buffer (MapWrite | CopySrc) used by the staging pool.
// It is created already mapped; after Unmap it can be remapped with MapWriteAsync.
type MappedBuffer interface {
	Buffer

	// MappedRange returns the host-visible bytes of the mapped buffer.
	// Calling it while the buffer is unmapped is a programming error.
	//
	// Parameters:
	//   - offset: the byte offset into the buffer
	//   - size: the number of bytes to expose
	//
	// Returns:
	//   - []byte: the host-visible memory
	MappedRange(offset, size uint64) []byte

	// Unmap ends host access so the GPU can read the buffer.
	Unmap()

	// MapWriteAsync requests the whole buffer to be mapped for writing again. The callback fires from
	// a device poll once the GPU has finished every submitted command that reads the buffer.
	//
	// Parameters:
	//   - callback: receives nil on success or the map failure
	MapWriteAsync(callback func(error))

	// Release destroys the buffer.
	Release()
}

// CommandBuffer is a finished, submittable command stream.
type CommandBuffer interface {
	Release()
}

// RenderPass records draw commands into one render pass of an Encoder.
type RenderPass interface {
	SetPipeline(pipeline *wgpu.RenderPipeline)
	SetBindGroup(index uint32, group *wgpu.BindGroup)
	SetVertexBuffer(slot uint32, buffer Buffer)
	SetIndexBuffer(buffer Buffer)
	Draw(vertexCount, instanceCount uint32)
	DrawIndexed(indexCount, instanceCount uint32)
	End()
}

// Encoder records commands for a single submission.
type Encoder interface {
	// CopyBufferToBuffer records a copy of size bytes from src to dst.
	CopyBufferToBuffer(src Buffer, srcOffset uint64, dst Buffer, dstOffset uint64, size uint64)

	// BeginRenderPass starts a render pass with the given attachments. The pass must be ended before
	// the next pass begins or the encoder finishes.
	BeginRenderPass(desc *wgpu.RenderPassDescriptor) RenderPass

	// Finish closes the encoder and returns its command buffer.
	Finish() (CommandBuffer, error)
}

// Queue submits command buffers and performs direct buffer writes.
type Queue interface {
	Submit(commands CommandBuffer)
	WriteBuffer(buffer Buffer, offset uint64, data []byte)
}

// Device is the narrow slice of a GPU device the frame-scoped components depend on. The staging pool,
// uniforms, frames and scene only talk to the GPU through this interface, which keeps them testable
// with the gputest doubles.
type Device interface {
	// CreateBuffer allocates a GPU buffer.
	//
	// Parameters:
	//   - label: the debug label
	//   - usage: the wgpu usage flags
	//   - size: the byte size
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: error if allocation fails
	CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (Buffer, error)

	// CreateStagingBuffer allocates a MapWrite | CopySrc buffer that is mapped at creation.
	//
	// Parameters:
	//   - label: the debug label
	//   - size: the byte size
	//
	// Returns:
	//   - MappedBuffer: the created, mapped buffer
	//   - error: error if allocation fails
	CreateStagingBuffer(label string, size uint64) (MappedBuffer, error)

	// CreateCommandEncoder opens a new command recording session.
	CreateCommandEncoder(label string) (Encoder, error)

	// Queue returns the device queue.
	Queue() Queue

	// Poll services completed GPU work and fires pending map callbacks.
	//
	// Parameters:
	//   - wait: block until the queue is idle when true
	Poll(wait bool)

	// Raw returns the underlying wgpu device, used to build pipelines, bind groups and textures.
	// Test doubles return nil.
	Raw() *wgpu.Device
}
