package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq, rate, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}

func TestAnalyzeSine(t *testing.T) {
	// 1 kHz lands exactly on bin 64 of a 1024-point transform at 16 kHz.
	a := Analyze(sine(1024, 1000, 16000, 0.5), 16000)

	assert.InDelta(t, 0.5/math.Sqrt2, a.RMS(), 1e-3)
	assert.InDelta(t, 0.5, a.Peak(), 1e-3)
	require.Len(t, a.FFT(), 513)
	assert.InDelta(t, 0.5, a.FFT()[64], 1e-3)
	assert.InDelta(t, 0, a.FFT()[10], 1e-3)

	assert.Greater(t, a.RMSRange(900, 1100), float32(0.1))
	assert.InDelta(t, 0, a.RMSRange(3000, 4000), 1e-3)
	assert.Equal(t, float32(0), a.RMSRange(500, 500))
	assert.Equal(t, float32(0), a.RMSRange(2000, 1000))
}

func TestAnalyzeCopiesAndPads(t *testing.T) {
	in := []float32{1, -1, 1}
	a := Analyze(in, 8)
	in[0] = 9
	assert.Equal(t, []float32{1, -1, 1}, a.Samples())
	assert.Len(t, a.FFT(), 3)
	assert.Equal(t, float32(1), a.Peak())
	assert.Equal(t, float32(8), a.SampleRate())
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil, 44100)
	assert.Equal(t, float32(0), a.RMS())
	assert.Equal(t, float32(0), a.RMSRange(0, 20000))
}

func TestAnalyzeImpulseIsFlat(t *testing.T) {
	a := Analyze([]float32{1, 0, 0, 0, 0, 0, 0, 0}, 8)
	require.Len(t, a.FFT(), 5)
	for k, m := range a.FFT() {
		assert.InDelta(t, 0.25, m, 1e-6, "bin %d", k)
	}
}

func TestFeedKeepsNewest(t *testing.T) {
	f := NewFeed()
	_, ok := f.Latest()
	assert.False(t, ok)

	a, b, c := Analyze([]float32{1}, 1), Analyze([]float32{2}, 1), Analyze([]float32{3}, 1)
	f.Publish(a)
	f.Publish(b)
	f.Publish(c)

	got, ok := f.Latest()
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.Equal(t, uint64(2), f.Dropped())

	// Reading again without a new publish is not a drop.
	got, _ = f.Latest()
	assert.Same(t, c, got)
	assert.Equal(t, uint64(2), f.Dropped())

	f.Publish(a)
	f.Latest()
	assert.Equal(t, uint64(2), f.Dropped())
}

func TestNilFeedIsAbsent(t *testing.T) {
	var f *Feed
	_, ok := f.Latest()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), f.Dropped())
}
