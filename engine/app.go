// Package engine runs a sketch: it owns the window, the GPU surface and the staging pools, and drives the
// per-frame acquire, record, submit, present and recall sequence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/Carmen-Shannon/phantoma/engine/audio"
	"github.com/Carmen-Shannon/phantoma/engine/config"
	"github.com/Carmen-Shannon/phantoma/engine/midi"
	"github.com/Carmen-Shannon/phantoma/engine/profiler"
	"github.com/Carmen-Shannon/phantoma/engine/renderer"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/frame"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/pass"
	"github.com/Carmen-Shannon/phantoma/engine/renderer/staging"
	"github.com/Carmen-Shannon/phantoma/engine/sketch"
	"github.com/Carmen-Shannon/phantoma/engine/window"
	"golang.org/x/sync/errgroup"
)

// eventCapacity bounds the window event mailbox between the main thread and the render goroutine.
const eventCapacity = 64

// Display is the presentation side of the frame loop. renderer.Renderer satisfies it.
type Display interface {
	pass.Surface
	Resize(width, height int)
	Acquire() (*renderer.SurfaceTarget, error)
	Present(target *renderer.SurfaceTarget)
	Poll(ctx context.Context) error
}

// Host is the OS event loop. window.Window satisfies it.
type Host interface {
	SetResizeCallback(callback func(width, height int))
	SetKeyDownCallback(callback func(key common.Key))
	SetKeyUpCallback(callback func(key common.Key))
	ProcessMessages()
	RequestClose()
}

// app is the implementation of the App interface.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	display Display
	host    Host
	owned   []func()
	stage   sketch.Stage

	audio *audio.Feed
	midi  midi.Device

	pools  chan staging.Pool
	events chan sketch.Input

	droppedEvents atomic.Uint64
	frames        atomic.Uint64
	skipped       atomic.Uint64

	profiler   *profiler.Profiler
	frameLimit time.Duration

	quit     chan struct{}
	quitOnce *sync.Once
}

// App runs one stage against a window until the window closes, Quit is called or a fatal error occurs.
type App interface {
	// Run starts the render goroutine and the device poller, then runs the window event loop on the calling
	// goroutine, which must be the main thread. Without a window it blocks until Quit.
	//
	// Returns:
	//   - error: the first fatal error: a staging recall failure or a panic in the render goroutine
	Run() error

	// Quit stops the frame loop and closes the window. Safe to call more than once and from any goroutine.
	Quit()

	// Config returns the configuration the app was built with.
	Config() config.Config

	// Frames returns the number of frames submitted so far.
	Frames() uint64

	// Skipped returns the number of ticks skipped because no surface texture was available.
	Skipped() uint64
}

var _ App = &app{}

// NewApp builds an app from cfg. Unless a display is supplied with WithDisplay, it opens a window and a
// renderer sized and titled from cfg. A stage is required; without one NewApp panics.
//
// Parameters:
//   - cfg: the validated configuration
//   - options: functional options for stage, display, peripherals and logging
//
// Returns:
//   - App: the app, ready to Run
func NewApp(cfg config.Config, options ...AppBuilderOption) App {
	a := &app{
		cfg:      cfg,
		logger:   common.NopLogger(),
		events:   make(chan sketch.Input, eventCapacity),
		quit:     make(chan struct{}),
		quitOnce: &sync.Once{},
	}
	for _, opt := range options {
		opt(a)
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("engine: failed to validate config: %v", err))
	}
	if a.stage == nil {
		panic("engine: failed to create app: no stage")
	}

	if a.display == nil {
		win := window.NewWindow(window.WithTitle(cfg.Title), window.WithSize(cfg.Width, cfg.Height))
		mode := renderer.PresentModeUncapped
		if cfg.VSync {
			mode = renderer.PresentModeVSync
		}
		r := renderer.NewRenderer(win, renderer.WithPresentMode(mode), renderer.WithLogger(a.logger))
		a.display, a.host = r, win
		a.owned = append(a.owned, r.Release, func() { _ = win.Close() })
	}

	if a.host != nil {
		a.host.SetResizeCallback(a.resized)
		a.host.SetKeyDownCallback(func(k common.Key) { a.post(sketch.Input{Kind: sketch.KeyDown, Key: k}) })
		a.host.SetKeyUpCallback(func(k common.Key) { a.post(sketch.Input{Kind: sketch.KeyUp, Key: k}) })
	}

	a.pools = make(chan staging.Pool, cfg.StagingPools)
	for i := range cfg.StagingPools {
		a.pools <- staging.NewPool(a.display.Device(),
			staging.WithChunkSize(cfg.StagingChunkSize),
			staging.WithLabel(fmt.Sprintf("frame-staging-%d", i)),
			staging.WithLogger(a.logger),
		)
	}

	if cfg.FrameLimit > 0 {
		a.frameLimit = time.Duration(float64(time.Second) / cfg.FrameLimit)
	}
	if cfg.Profiling {
		a.profiler = profiler.NewProfiler(time.Second, a.logger)
	}
	return a
}

func (a *app) Config() config.Config {
	return a.cfg
}

func (a *app) Frames() uint64 {
	return a.frames.Load()
}

func (a *app) Skipped() uint64 {
	return a.skipped.Load()
}

func (a *app) Quit() {
	a.quitOnce.Do(func() {
		close(a.quit)
	})
}

func (a *app) Run() error {
	defer func() {
		for i := len(a.owned) - 1; i >= 0; i-- {
			a.owned[i]()
		}
	}()

	// The poller outlives the frame loop so in-flight recalls can still resolve while it winds down.
	pollCtx, stopPolling := context.WithCancel(context.Background())
	var poller errgroup.Group
	poller.Go(func() error { return a.display.Poll(pollCtx) })

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return a.render(ctx, g) })
	g.Go(func() error {
		select {
		case <-a.quit:
		case <-ctx.Done():
			a.Quit()
		}
		if a.host != nil {
			a.host.RequestClose()
		}
		return nil
	})

	if a.host != nil {
		a.host.ProcessMessages()
		a.Quit()
	} else {
		<-a.quit
	}

	err := g.Wait()
	stopPolling()
	return errors.Join(err, poller.Wait())
}

// resized runs on the main thread: the surface is reconfigured at once and the stage hears about it on
// its next tick.
func (a *app) resized(width, height int) {
	a.display.Resize(width, height)
	a.logger.Debug("surface resized", slog.Int("width", width), slog.Int("height", height))
	a.post(sketch.Input{Kind: sketch.Resize, Width: width, Height: height})
}

// post queues a window event for the render goroutine, dropping it if the mailbox is full.
func (a *app) post(in sketch.Input) {
	select {
	case a.events <- in:
	default:
		n := a.droppedEvents.Add(1)
		a.logger.Warn("window event dropped", slog.Uint64("dropped", n))
	}
}

// render is the frame producer. It owns the sketch context and the stage.
func (a *app) render(ctx context.Context, g *errgroup.Group) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("render goroutine recovered from panic", slog.Any("panic", r))
			err = fmt.Errorf("render goroutine panicked: %v", r)
			a.Quit()
		}
	}()

	start := time.Now()
	sc := &sketch.Context{
		Surface: a.display,
		Width:   a.display.Width(),
		Height:  a.display.Height(),
		MIDI:    a.midi,
		Logger:  a.logger,
	}
	a.stage.Init(sc)
	a.logger.Info("stage ready", slog.String("stage", a.stage.Name()))

	last := start
	for {
		select {
		case <-a.quit:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		now := time.Now()
		sc.T = float32(now.Sub(start).Seconds())
		sc.Dt = float32(now.Sub(last).Seconds())
		last = now
		if snap, ok := a.audio.Latest(); ok {
			sc.Audio = snap
		}

		a.deliver(sc)
		if !a.tick(ctx, g, sc) {
			return nil
		}
		if a.profiler != nil {
			a.profiler.Tick(now)
		}
		if a.frameLimit > 0 {
			if remaining := a.frameLimit - time.Since(now); remaining > 0 {
				select {
				case <-time.After(remaining):
				case <-a.quit:
				}
			}
		}
	}
}

// deliver hands queued window and controller events to the stage.
func (a *app) deliver(sc *sketch.Context) {
drain:
	for {
		select {
		case in := <-a.events:
			if in.Kind == sketch.Resize {
				sc.Width, sc.Height = in.Width, in.Height
			}
			a.stage.Input(sc, in)
		default:
			break drain
		}
	}
	if a.midi == nil {
		return
	}
	for _, m := range a.midi.Recv() {
		a.stage.Input(sc, sketch.Input{Kind: sketch.Controller, MIDI: m})
	}
}

// tick renders one frame. It returns false when the loop should stop.
func (a *app) tick(ctx context.Context, g *errgroup.Group, sc *sketch.Context) bool {
	var pool staging.Pool
	select {
	case pool = <-a.pools:
	case <-a.quit:
		return false
	case <-ctx.Done():
		return false
	}

	target, err := a.display.Acquire()
	if err != nil {
		a.pools <- pool
		a.skipped.Add(1)
		a.logger.Debug("skipping frame", slog.Any("err", err))
		return true
	}

	f := frame.New(a.display.Device(), pool)
	a.stage.Update(sc)
	a.stage.View(sc, f, target.View)
	pool = f.Submit()
	a.display.Present(target)
	sc.Tick = a.frames.Add(1)

	g.Go(func() error {
		if err := pool.Recall(); err != nil {
			a.logger.Error("staging recall failed", slog.String("pool", pool.Label()), slog.Any("err", err))
			a.Quit()
			return fmt.Errorf("staging recall: %w", err)
		}
		a.pools <- pool
		return nil
	})
	return true
}
