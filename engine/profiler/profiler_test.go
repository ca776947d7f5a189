package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	var out bytes.Buffer
	p := NewProfiler(time.Second, common.NewLogger(slog.LevelInfo, &out))
	start := p.last

	for i := 1; i < 30; i++ {
		_, reported := p.Tick(start.Add(time.Duration(i) * 10 * time.Millisecond))
		assert.False(t, reported)
	}
	assert.Empty(t, out.String())

	s, reported := p.Tick(start.Add(time.Second))
	require.True(t, reported)
	assert.InDelta(t, 30, s.FPS, 1e-9)
	assert.Greater(t, s.HeapMB, 0.0)
	assert.Contains(t, out.String(), "frame stats")

	// The next interval starts fresh.
	_, reported = p.Tick(start.Add(1500 * time.Millisecond))
	assert.False(t, reported)
}

func TestDefaultInterval(t *testing.T) {
	p := NewProfiler(0, nil)
	assert.Equal(t, time.Second, p.interval)
	assert.NotNil(t, p.logger)
}
