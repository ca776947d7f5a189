package staging

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/phantoma/engine/renderer/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTarget(t *testing.T, dev *gputest.Device, size uint64) *gputest.Buffer {
	t.Helper()
	buf, err := dev.CreateBuffer("target", wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, size)
	require.NoError(t, err)
	return buf.(*gputest.Buffer)
}

func newEncoder(t *testing.T, dev *gputest.Device) *gputest.Encoder {
	t.Helper()
	enc, err := dev.CreateCommandEncoder("test")
	require.NoError(t, err)
	return enc.(*gputest.Encoder)
}

func TestWriteBufferRangesAreDisjoint(t *testing.T) {
	dev := gputest.NewDevice()
	p := NewPool(dev, WithChunkSize(64)).(*pool)
	enc := newEncoder(t, dev)
	target := newTarget(t, dev, 1024)

	sizes := []uint64{16, 32, 8, 64, 4, 128, 12, 20, 40}
	for i, size := range sizes {
		region := p.WriteBuffer(enc, target, uint64(i)*128, size)
		assert.Len(t, region, int(size))
		assert.Equal(t, int(size), cap(region), "region must not expose bytes past its end")
	}

	type span struct{ start, end uint64 }
	perChunk := map[any][]span{}
	for _, cp := range enc.Copies() {
		perChunk[cp.Src] = append(perChunk[cp.Src], span{cp.SrcOffset, cp.SrcOffset + cp.Size})
	}

	for src, spans := range perChunk {
		var total uint64
		for i, a := range spans {
			total += a.end - a.start
			assert.LessOrEqual(t, a.end, src.(*gputest.MappedBuffer).Size())
			for _, b := range spans[i+1:] {
				assert.True(t, a.end <= b.start || b.end <= a.start, "overlap %v %v", a, b)
			}
		}
		assert.LessOrEqual(t, total, src.(*gputest.MappedBuffer).Size())
	}
}

func TestWriteBufferGrowsForLargeWrites(t *testing.T) {
	dev := gputest.NewDevice()
	p := NewPool(dev, WithChunkSize(64))
	enc := newEncoder(t, dev)
	target := newTarget(t, dev, 512)

	p.WriteBuffer(enc, target, 0, 256)

	staging := dev.StagingBuffers()
	require.Len(t, staging, 1)
	assert.Equal(t, uint64(256), staging[0].Size())
	assert.Equal(t, uint64(256), p.Stats().Allocated)
}

func TestWriteBufferPanics(t *testing.T) {
	dev := gputest.NewDevice()
	p := NewPool(dev)
	enc := newEncoder(t, dev)
	target := newTarget(t, dev, 64)

	assert.Panics(t, func() { p.WriteBuffer(enc, target, 0, 0) })
	assert.Panics(t, func() { p.WriteBuffer(enc, target, 0, 6) })

	dev.AllocFailure = errors.New("out of memory")
	assert.Panics(t, func() { p.WriteBuffer(enc, target, 0, 16) })
}

func TestLifecycleClosure(t *testing.T) {
	for _, async := range []bool{false, true} {
		dev := gputest.NewDevice()
		dev.AsyncMaps = async
		p := NewPool(dev, WithChunkSize(32)).(*pool)
		target := newTarget(t, dev, 256)

		enc := newEncoder(t, dev)
		for i := range 5 {
			region := p.WriteBuffer(enc, target, uint64(i)*32, 24)
			for j := range region {
				region[j] = byte(i + 1)
			}
		}
		require.Equal(t, 5, p.Stats().Active)

		p.Finish()
		stats := p.Stats()
		assert.Equal(t, 0, stats.Active)
		assert.Equal(t, 5, stats.Closed)
		for _, c := range p.closed {
			assert.Nil(t, c.data)
		}

		cb, err := enc.Finish()
		require.NoError(t, err)
		dev.Queue().Submit(cb)
		assert.Equal(t, byte(3), target.Bytes()[2*32])

		require.NoError(t, p.Recall())
		stats = p.Stats()
		assert.Equal(t, Stats{Active: 0, Closed: 0, Free: 5, Allocated: 5 * 32}, stats)
		for _, c := range p.free {
			assert.Zero(t, c.offset)
		}

		enc2 := newEncoder(t, dev)
		for i := range 5 {
			p.WriteBuffer(enc2, target, uint64(i)*32, 24)
		}
		assert.Len(t, dev.StagingBuffers(), 5, "recalled chunks are reused instead of growing the pool")
	}
}

func TestRecallWithoutClosedChunks(t *testing.T) {
	p := NewPool(gputest.NewDevice())
	assert.NoError(t, p.Recall())
}

func TestRecallReportsMapFailure(t *testing.T) {
	dev := gputest.NewDevice()
	p := NewPool(dev, WithChunkSize(16))
	enc := newEncoder(t, dev)
	target := newTarget(t, dev, 64)

	p.WriteBuffer(enc, target, 0, 16)
	p.WriteBuffer(enc, target, 16, 16)
	p.Finish()

	dev.MapFailure = errors.New("device lost")
	err := p.Recall()
	require.Error(t, err)
	assert.ErrorIs(t, err, dev.MapFailure)

	assert.Equal(t, Stats{}, p.Stats())
	for _, buf := range dev.StagingBuffers() {
		assert.True(t, buf.Released())
	}
}
