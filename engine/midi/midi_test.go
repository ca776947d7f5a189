package midi

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	knobs := map[uint8]bool{16: true}

	in, ok := Decode([]byte{0x91, 36, 100}, knobs)
	require.True(t, ok)
	assert.Equal(t, Input{Kind: Button, Channel: 1, Control: 36, Value: 1}, in)
	assert.True(t, in.Pressed())

	in, ok = Decode([]byte{0x90, 36, 0}, knobs)
	require.True(t, ok)
	assert.False(t, in.Pressed())

	in, ok = Decode([]byte{0x80, 36, 64}, knobs)
	require.True(t, ok)
	assert.Equal(t, Button, in.Kind)
	assert.False(t, in.Pressed())

	in, ok = Decode([]byte{0xB0, 7, 127}, knobs)
	require.True(t, ok)
	assert.Equal(t, Slider, in.Kind)
	assert.Equal(t, float32(1), in.Value)

	in, ok = Decode([]byte{0xB0, 16, 0}, knobs)
	require.True(t, ok)
	assert.Equal(t, Knob, in.Kind)
	assert.Equal(t, float32(0), in.Value)

	_, ok = Decode([]byte{0xE0, 0, 64}, knobs)
	assert.False(t, ok)
	_, ok = Decode([]byte{0x90, 36}, knobs)
	assert.False(t, ok)
}

func TestDecodeRelative(t *testing.T) {
	in, ok := DecodeRelative([]byte{0xB2, 20, 61})
	require.True(t, ok)
	assert.Equal(t, Input{Kind: Encoder, Channel: 2, Control: 20, Value: -3}, in)
	assert.Equal(t, "encoder", in.Kind.String())

	_, ok = DecodeRelative([]byte{0x90, 20, 61})
	assert.False(t, ok)
}

func TestOutputMessage(t *testing.T) {
	assert.Equal(t, [3]byte{0xB3, 10, 127}, Output{Channel: 3, Control: 10, Value: 0xFF}.Message())
}

func TestQueueRecvDrainsInOrder(t *testing.T) {
	q := NewQueue("pad", nil)
	defer q.Close()

	assert.Empty(t, q.Recv())
	for i := range 3 {
		require.True(t, q.Push(Input{Kind: Slider, Control: uint8(i)}))
	}
	got := q.Recv()
	require.Len(t, got, 3)
	for i, in := range got {
		assert.Equal(t, uint8(i), in.Control)
	}
	assert.Empty(t, q.Recv())
}

func TestQueueDropsWhenFull(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	q := NewQueue("pad", nil, WithCapacity(2, 0), WithLogger(logger))
	defer q.Close()

	assert.True(t, q.Push(Input{}))
	assert.True(t, q.Push(Input{}))
	assert.False(t, q.Push(Input{}))

	inputs, outputs := q.Dropped()
	assert.Equal(t, uint64(1), inputs)
	assert.Equal(t, uint64(0), outputs)
	assert.Contains(t, buf.String(), "midi input dropped")
	assert.Len(t, q.Recv(), 2)
}

func TestQueueWritesOutputsThenCloses(t *testing.T) {
	var (
		mu      sync.Mutex
		written []Output
	)
	var buf bytes.Buffer
	w := WriterFunc(func(out Output) error {
		mu.Lock()
		defer mu.Unlock()
		written = append(written, out)
		if out.Control == 2 {
			return errors.New("pad unplugged")
		}
		return nil
	})
	q := NewQueue("pad", w, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	for i := range 3 {
		require.True(t, q.Send(Output{Control: uint8(i), Value: 127}))
	}
	require.NoError(t, q.Close())

	mu.Lock()
	assert.Len(t, written, 3)
	mu.Unlock()
	assert.Contains(t, buf.String(), "midi write failed")

	assert.False(t, q.Send(Output{}))
	require.NoError(t, q.Close())
}

func TestQueueImplementsDevice(t *testing.T) {
	var d Device = NewQueue("launchpad", nil)
	assert.Equal(t, "launchpad", d.Name())
	assert.NoError(t, d.Close())
}
