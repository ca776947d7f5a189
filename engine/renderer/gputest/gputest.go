// Package gputest provides recording in-memory doubles for the renderer device boundary.
//
// Buffers are plain byte slices. Submitting a command buffer replays its recorded copies into the
// destination buffers, so tests can read back exactly what a frame uploaded. Render passes record the
// attachments, pipelines, bind groups and draws they receive.
package gputest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device is a fake renderer.Device.
type Device struct {
	mu *sync.Mutex

	queue    *Queue
	buffers  []*Buffer
	staging  []*MappedBuffer
	encoders []*Encoder
	polls    int

	// AsyncMaps delivers MapWriteAsync callbacks from a new goroutine instead of inline.
	AsyncMaps bool
	// MapFailure, when set, is reported by every MapWriteAsync callback and leaves the buffer unmapped.
	MapFailure error
	// AllocFailure, when set, is returned by every buffer allocation.
	AllocFailure error
}

// Buffer is a fake GPU buffer backed by a byte slice.
type Buffer struct {
	Label string
	Usage wgpu.BufferUsage
	data  []byte
}

// MappedBuffer is a fake staging buffer.
type MappedBuffer struct {
	Buffer
	device   *Device
	mapped   bool
	released bool
}

// Copy is a recorded buffer-to-buffer copy.
type Copy struct {
	Src       renderer.Buffer
	SrcOffset uint64
	Dst       renderer.Buffer
	DstOffset uint64
	Size      uint64
}

// Draw is a recorded draw call.
type Draw struct {
	Pipeline   *wgpu.RenderPipeline
	BindGroups map[uint32]*wgpu.BindGroup
	Vertex     renderer.Buffer
	Index      renderer.Buffer
	Count      uint32
	Instances  uint32
	Indexed    bool
}

// Pass is a recorded render pass.
type Pass struct {
	Targets []*wgpu.TextureView
	LoadOps []wgpu.LoadOp
	Depth   *wgpu.TextureView
	Draws   []Draw
	Ended   bool

	pipeline   *wgpu.RenderPipeline
	bindGroups map[uint32]*wgpu.BindGroup
	vertex     renderer.Buffer
	index      renderer.Buffer
	onEnd      func()
}

// Command is one entry of an Encoder's command stream: either a *Copy or a *Pass.
type Command any

// Encoder is a fake command encoder recording copies and passes in order.
type Encoder struct {
	Label    string
	Commands []Command
	finished bool
	open     *Pass
}

// CommandBuffer is the fake result of Encoder.Finish.
type CommandBuffer struct {
	Encoder  *Encoder
	released bool
}

// Queue is a fake queue that executes copies on submit.
type Queue struct {
	mu        *sync.Mutex
	submitted []*CommandBuffer
}

var _ renderer.Device = &Device{}
var _ renderer.Buffer = &Buffer{}
var _ renderer.MappedBuffer = &MappedBuffer{}
var _ renderer.Encoder = &Encoder{}
var _ renderer.RenderPass = &Pass{}
var _ renderer.Queue = &Queue{}
var _ renderer.CommandBuffer = &CommandBuffer{}

// NewDevice creates an empty fake device with inline map callbacks.
//
// Returns:
//   - *Device: the fake device
func NewDevice() *Device {
	return &Device{
		mu:    &sync.Mutex{},
		queue: &Queue{mu: &sync.Mutex{}},
	}
}

func (d *Device) CreateBuffer(label string, usage wgpu.BufferUsage, size uint64) (renderer.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AllocFailure != nil {
		return nil, d.AllocFailure
	}
	b := &Buffer{Label: label, Usage: usage, data: make([]byte, size)}
	d.buffers = append(d.buffers, b)
	return b, nil
}

func (d *Device) CreateStagingBuffer(label string, size uint64) (renderer.MappedBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.AllocFailure != nil {
		return nil, d.AllocFailure
	}
	b := &MappedBuffer{
		Buffer: Buffer{Label: label, Usage: wgpu.BufferUsageMapWrite | wgpu.BufferUsageCopySrc, data: make([]byte, size)},
		device: d,
		mapped: true,
	}
	d.staging = append(d.staging, b)
	return b, nil
}

func (d *Device) CreateCommandEncoder(label string) (renderer.Encoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := &Encoder{Label: label}
	d.encoders = append(d.encoders, e)
	return e, nil
}

func (d *Device) Queue() renderer.Queue {
	return d.queue
}

func (d *Device) Poll(wait bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.polls++
}

func (d *Device) Raw() *wgpu.Device {
	return nil
}

// Polls returns how many times Poll was called.
func (d *Device) Polls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

// StagingBuffers returns every staging buffer allocated so far, in allocation order.
func (d *Device) StagingBuffers() []*MappedBuffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MappedBuffer(nil), d.staging...)
}

// Buffers returns every non-staging buffer allocated so far, in allocation order.
func (d *Device) Buffers() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Buffer(nil), d.buffers...)
}

// Encoders returns every encoder created so far.
func (d *Device) Encoders() []*Encoder {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Encoder(nil), d.encoders...)
}

// Submitted returns the command buffers submitted to the device queue.
func (d *Device) Submitted() []*CommandBuffer {
	d.queue.mu.Lock()
	defer d.queue.mu.Unlock()
	return append([]*CommandBuffer(nil), d.queue.submitted...)
}

func (b *Buffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *Buffer) Raw() *wgpu.Buffer {
	return nil
}

// Bytes returns the current contents of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Mapped reports whether the buffer is currently host-visible.
func (b *MappedBuffer) Mapped() bool {
	b.device.mu.Lock()
	defer b.device.mu.Unlock()
	return b.mapped
}

// Released reports whether Release was called.
func (b *MappedBuffer) Released() bool {
	b.device.mu.Lock()
	defer b.device.mu.Unlock()
	return b.released
}

func (b *MappedBuffer) MappedRange(offset, size uint64) []byte {
	b.device.mu.Lock()
	defer b.device.mu.Unlock()
	if !b.mapped {
		panic(fmt.Sprintf("gputest: MappedRange on unmapped buffer %q", b.Label))
	}
	return b.data[offset : offset+size]
}

func (b *MappedBuffer) Unmap() {
	b.device.mu.Lock()
	defer b.device.mu.Unlock()
	if !b.mapped {
		panic(fmt.Sprintf("gputest: Unmap on unmapped buffer %q", b.Label))
	}
	b.mapped = false
}

func (b *MappedBuffer) MapWriteAsync(callback func(error)) {
	b.device.mu.Lock()
	async := b.device.AsyncMaps
	failure := b.device.MapFailure
	if b.mapped {
		b.device.mu.Unlock()
		panic(fmt.Sprintf("gputest: MapWriteAsync on mapped buffer %q", b.Label))
	}
	b.device.mu.Unlock()

	deliver := func() {
		if failure == nil {
			b.device.mu.Lock()
			b.mapped = true
			b.device.mu.Unlock()
		}
		callback(failure)
	}
	if async {
		go deliver()
		return
	}
	deliver()
}

func (b *MappedBuffer) Release() {
	b.device.mu.Lock()
	defer b.device.mu.Unlock()
	b.released = true
}

func (e *Encoder) CopyBufferToBuffer(src renderer.Buffer, srcOffset uint64, dst renderer.Buffer, dstOffset uint64, size uint64) {
	e.checkRecording()
	if e.open != nil {
		panic("gputest: copy recorded inside an open render pass")
	}
	e.Commands = append(e.Commands, &Copy{Src: src, SrcOffset: srcOffset, Dst: dst, DstOffset: dstOffset, Size: size})
}

func (e *Encoder) BeginRenderPass(desc *wgpu.RenderPassDescriptor) renderer.RenderPass {
	e.checkRecording()
	if e.open != nil {
		panic("gputest: render pass begun while another is open")
	}
	p := &Pass{bindGroups: map[uint32]*wgpu.BindGroup{}}
	for _, att := range desc.ColorAttachments {
		p.Targets = append(p.Targets, att.View)
		p.LoadOps = append(p.LoadOps, att.LoadOp)
	}
	if desc.DepthStencilAttachment != nil {
		p.Depth = desc.DepthStencilAttachment.View
	}
	p.onEnd = func() { e.open = nil }
	e.open = p
	e.Commands = append(e.Commands, p)
	return p
}

func (e *Encoder) Finish() (renderer.CommandBuffer, error) {
	e.checkRecording()
	if e.open != nil {
		return nil, fmt.Errorf("gputest: encoder %q finished with an open render pass", e.Label)
	}
	e.finished = true
	return &CommandBuffer{Encoder: e}, nil
}

func (e *Encoder) checkRecording() {
	if e.finished {
		panic(fmt.Sprintf("gputest: encoder %q used after Finish", e.Label))
	}
}

// Copies returns the recorded copies in order.
func (e *Encoder) Copies() []*Copy {
	var out []*Copy
	for _, c := range e.Commands {
		if cp, ok := c.(*Copy); ok {
			out = append(out, cp)
		}
	}
	return out
}

// Passes returns the recorded render passes in order.
func (e *Encoder) Passes() []*Pass {
	var out []*Pass
	for _, c := range e.Commands {
		if p, ok := c.(*Pass); ok {
			out = append(out, p)
		}
	}
	return out
}

// Finished reports whether Finish was called.
func (e *Encoder) Finished() bool {
	return e.finished
}

func (p *Pass) SetPipeline(pipeline *wgpu.RenderPipeline) {
	p.pipeline = pipeline
}

func (p *Pass) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	p.bindGroups[index] = group
}

func (p *Pass) SetVertexBuffer(slot uint32, buffer renderer.Buffer) {
	p.vertex = buffer
}

func (p *Pass) SetIndexBuffer(buffer renderer.Buffer) {
	p.index = buffer
}

func (p *Pass) Draw(vertexCount, instanceCount uint32) {
	p.record(vertexCount, instanceCount, false)
}

func (p *Pass) DrawIndexed(indexCount, instanceCount uint32) {
	p.record(indexCount, instanceCount, true)
}

func (p *Pass) record(count, instances uint32, indexed bool) {
	if p.Ended {
		panic("gputest: draw on ended render pass")
	}
	groups := make(map[uint32]*wgpu.BindGroup, len(p.bindGroups))
	for k, v := range p.bindGroups {
		groups[k] = v
	}
	p.Draws = append(p.Draws, Draw{
		Pipeline:   p.pipeline,
		BindGroups: groups,
		Vertex:     p.vertex,
		Index:      p.index,
		Count:      count,
		Instances:  instances,
		Indexed:    indexed,
	})
}

func (p *Pass) End() {
	if p.Ended {
		panic("gputest: render pass ended twice")
	}
	p.Ended = true
	if p.onEnd != nil {
		p.onEnd()
	}
}

func (c *CommandBuffer) Release() {
	c.released = true
}

// Released reports whether Release was called.
func (c *CommandBuffer) Released() bool {
	return c.released
}

func (q *Queue) Submit(commands renderer.CommandBuffer) {
	cb, ok := commands.(*CommandBuffer)
	if !ok {
		panic(fmt.Sprintf("gputest: cannot submit %T", commands))
	}
	if cb.released {
		panic("gputest: submitting released command buffer")
	}

	q.mu.Lock()
	q.submitted = append(q.submitted, cb)
	q.mu.Unlock()

	for _, cp := range cb.Encoder.Copies() {
		src := bytesOf(cp.Src)
		if m, ok := cp.Src.(*MappedBuffer); ok && m.Mapped() {
			panic(fmt.Sprintf("gputest: copy from mapped staging buffer %q", m.Label))
		}
		copy(bytesOf(cp.Dst)[cp.DstOffset:cp.DstOffset+cp.Size], src[cp.SrcOffset:cp.SrcOffset+cp.Size])
	}
}

func (q *Queue) WriteBuffer(buffer renderer.Buffer, offset uint64, data []byte) {
	copy(bytesOf(buffer)[offset:], data)
}

func bytesOf(b renderer.Buffer) []byte {
	switch v := b.(type) {
	case *Buffer:
		return v.data
	case *MappedBuffer:
		return v.data
	default:
		panic(fmt.Sprintf("gputest: foreign buffer %T", b))
	}
}
