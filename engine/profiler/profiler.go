// Package profiler reports frame rate and memory statistics once per interval.
package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/phantoma/common"
)

// Stats is one reporting interval's measurements.
type Stats struct {
	FPS float64
	// HeapMB is live heap memory; SysMB is memory obtained from the OS.
	HeapMB float64
	SysMB  float64
	// AllocRateMB is heap allocation churn in MB per second over the interval.
	AllocRateMB float64
	GCCount     uint32
	// LastPause and MaxPause are GC pauses; MaxPause covers the interval only.
	LastPause time.Duration
	MaxPause  time.Duration
}

// Profiler counts frames and samples runtime memory statistics. It is not safe for concurrent use; the
// render goroutine owns it.
type Profiler struct {
	frames         int
	last           time.Time
	interval       time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	logger         *slog.Logger
}

// NewProfiler creates a profiler that reports every interval. A non-positive interval means one second.
//
// Parameters:
//   - interval: the reporting interval
//   - logger: where reports go at Info level; nil discards them
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(interval time.Duration, logger *slog.Logger) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		last:     time.Now(),
		interval: interval,
		logger:   common.Coalesce(logger, common.NopLogger()),
	}
}

// Tick counts one frame at now. When the interval has elapsed it samples memory, logs the stats and
// starts a new interval.
//
// Parameters:
//   - now: the frame time
//
// Returns:
//   - Stats: the interval's stats, valid only when reported is true
//   - bool: true if this tick closed an interval
func (p *Profiler) Tick(now time.Time) (Stats, bool) {
	p.frames++
	elapsed := now.Sub(p.last)
	if elapsed < p.interval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	m := &p.memStats
	s := Stats{
		FPS:         float64(p.frames) / elapsed.Seconds(),
		HeapMB:      float64(m.Alloc) / (1 << 20),
		SysMB:       float64(m.Sys) / (1 << 20),
		AllocRateMB: float64(m.TotalAlloc-p.lastTotalAlloc) / (1 << 20) / elapsed.Seconds(),
		GCCount:     m.NumGC,
	}
	if m.NumGC > 0 {
		// PauseNs is a ring of the last 256 pauses.
		s.LastPause = time.Duration(m.PauseNs[(m.NumGC-1)%256])
		from := max(p.lastGCCount, m.NumGC-min(m.NumGC, 256))
		for i := from; i < m.NumGC; i++ {
			s.MaxPause = max(s.MaxPause, time.Duration(m.PauseNs[i%256]))
		}
	}

	p.logger.Info("frame stats",
		"fps", s.FPS,
		"heap_mb", s.HeapMB,
		"alloc_mb_s", s.AllocRateMB,
		"gc", s.GCCount,
		"gc_last", s.LastPause,
		"gc_max", s.MaxPause,
		"sys_mb", s.SysMB,
	)

	p.frames = 0
	p.last = now
	p.lastGCCount = m.NumGC
	p.lastTotalAlloc = m.TotalAlloc
	return s, true
}
