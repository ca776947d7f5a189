package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/google/uuid"
)

// CopyBufferAlignment is the alignment required for buffer-to-buffer copy offsets and sizes.
const CopyBufferAlignment = 4

// DefaultChunkSize is the chunk size used when no size is configured.
const DefaultChunkSize = 1 << 16

// chunk is one staging buffer. It is mapped (data != nil) only while active.
type chunk struct {
	id     int
	buffer renderer.MappedBuffer
	data   []byte
	size   uint64
	offset uint64
}

func (c *chunk) fits(size uint64) bool {
	return c.offset+size <= c.size
}

// Stats is a point-in-time view of a pool's chunk sets.
type Stats struct {
	Active    int
	Closed    int
	Free      int
	Allocated uint64
}

// pool is the implementation of the Pool interface.
type pool struct {
	mu     *sync.Mutex
	device renderer.Device
	logger *slog.Logger

	label     string
	chunkSize uint64
	nextID    int
	allocated uint64

	active []*chunk
	closed []*chunk
	free   []*chunk
}

// Pool is a growable ring of CPU-writable upload buffers.
//
// Each write reserves a region of a mapped chunk and records a copy from that region into a GPU buffer.
// Chunks move active -> closed (Finish) -> free (Recall) -> active. A chunk is only reused after the GPU has
// signalled, through an async map, that every copy reading it has completed. A Pool is owned by one frame
// at a time and is not meant to be shared between goroutines while in use.
type Pool interface {
	// WriteBuffer reserves size bytes of staging memory and records a copy of them into target at offset.
	// The caller fills the returned slice before the frame is submitted.
	// A zero size, a size that is not a multiple of CopyBufferAlignment, or a failed chunk allocation panics.
	//
	// Parameters:
	//   - encoder: the encoder that will carry the copy command
	//   - target: the destination GPU buffer
	//   - offset: the destination byte offset
	//   - size: the number of bytes to upload
	//
	// Returns:
	//   - []byte: the writable region, exactly size bytes long
	WriteBuffer(encoder renderer.Encoder, target renderer.Buffer, offset, size uint64) []byte

	// Finish unmaps every active chunk and marks it closed. Call it once after the last WriteBuffer of a
	// frame and before the frame's command buffer is submitted.
	Finish()

	// Recall requests a write-mapping of every closed chunk and blocks until all of them resolve. Successful
	// chunks are reset and become free. Call it only after the command buffer carrying the copies was
	// submitted, with the device being polled, or it will never return.
	//
	// Returns:
	//   - error: the joined map failures; failed chunks are released and dropped from the pool
	Recall() error

	// Stats reports the size of each chunk set and the total bytes allocated.
	//
	// Returns:
	//   - Stats: the current counts
	Stats() Stats

	// Label returns the pool's debug label.
	Label() string
}

var _ Pool = &pool{}

// NewPool creates an empty staging pool. Chunks are allocated lazily on the first writes.
//
// Parameters:
//   - device: the device that allocates staging buffers
//   - options: functional options for chunk size, label and logger
//
// Returns:
//   - Pool: the staging pool
func NewPool(device renderer.Device, options ...PoolBuilderOption) Pool {
	p := &pool{
		mu:        &sync.Mutex{},
		device:    device,
		logger:    common.NopLogger(),
		label:     "staging-" + uuid.NewString()[:8],
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range options {
		opt(p)
	}
	p.chunkSize = common.AlignUp(p.chunkSize, CopyBufferAlignment)
	return p
}

func (p *pool) WriteBuffer(encoder renderer.Encoder, target renderer.Buffer, offset, size uint64) []byte {
	if size == 0 {
		panic("staging: zero-size write")
	}
	if size%CopyBufferAlignment != 0 {
		panic(fmt.Sprintf("staging: write size %d is not a multiple of %d", size, CopyBufferAlignment))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	c := p.selectChunk(size)
	encoder.CopyBufferToBuffer(c.buffer, c.offset, target, offset, size)

	start := c.offset
	c.offset += common.AlignUp(size, CopyBufferAlignment)
	return c.data[start : start+size : start+size]
}

// selectChunk returns an active chunk with room for size bytes, activating a free chunk or allocating a
// new one when none has room. Callers hold mu.
func (p *pool) selectChunk(size uint64) *chunk {
	for _, c := range p.active {
		if c.fits(size) {
			return c
		}
	}

	for i, c := range p.free {
		if c.size >= size {
			p.free = append(p.free[:i], p.free[i+1:]...)
			c.data = c.buffer.MappedRange(0, c.size)
			p.active = append(p.active, c)
			return c
		}
	}

	chunkSize := max(p.chunkSize, size)
	label := fmt.Sprintf("%s chunk %d", p.label, p.nextID)
	buf, err := p.device.CreateStagingBuffer(label, chunkSize)
	if err != nil {
		panic(fmt.Sprintf("staging: failed to allocate chunk: %v", err))
	}

	c := &chunk{
		id:     p.nextID,
		buffer: buf,
		data:   buf.MappedRange(0, chunkSize),
		size:   chunkSize,
	}
	p.nextID++
	p.allocated += chunkSize
	p.active = append(p.active, c)

	p.logger.Debug("staging chunk allocated",
		slog.String("pool", p.label),
		slog.Uint64("size", chunkSize),
		slog.Uint64("allocated", p.allocated))
	return c
}

func (p *pool) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.active {
		c.buffer.Unmap()
		c.data = nil
	}
	p.closed = append(p.closed, p.active...)
	p.active = nil
}

type recallResult struct {
	chunk *chunk
	err   error
}

func (p *pool) Recall() error {
	p.mu.Lock()
	closed := p.closed
	p.closed = nil
	p.mu.Unlock()

	if len(closed) == 0 {
		return nil
	}

	results := make(chan recallResult, len(closed))
	for _, c := range closed {
		c.buffer.MapWriteAsync(func(err error) {
			results <- recallResult{chunk: c, err: err}
		})
	}

	var errs []error
	var lost uint64
	recalled := make([]*chunk, 0, len(closed))
	for range closed {
		res := <-results
		if res.err != nil {
			res.chunk.buffer.Release()
			lost += res.chunk.size
			errs = append(errs, fmt.Errorf("chunk %d: %w", res.chunk.id, res.err))
			continue
		}
		res.chunk.offset = 0
		recalled = append(recalled, res.chunk)
	}

	p.mu.Lock()
	p.free = append(p.free, recalled...)
	p.allocated -= lost
	p.mu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("staging: recall of %s failed: %w", p.label, errors.Join(errs...))
	}
	return nil
}

func (p *pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Active:    len(p.active),
		Closed:    len(p.closed),
		Free:      len(p.free),
		Allocated: p.allocated,
	}
}

func (p *pool) Label() string {
	return p.label
}
