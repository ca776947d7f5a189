package renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultPollInterval is how often the background poller services the device when no interval is configured.
const DefaultPollInterval = time.Millisecond

// ErrSurfaceUnavailable is returned by Acquire while the surface has no drawable size (e.g. the window is minimized).
var ErrSurfaceUnavailable = errors.New("surface unavailable")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *slog.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface
	device   *wgpu.Device
	gpu      Device

	format      wgpu.TextureFormat
	presentMode PresentMode
	width       int
	height      int

	forceFallbackAdapter bool
	pollInterval         time.Duration
}

// Renderer owns the GPU instance, adapter, device and presentation surface.
//
// It is the window-facing half of the frame loop: it hands out a texture view to render into each frame
// and presents it afterwards. Everything that records commands does so through the Device it exposes.
type Renderer interface {
	// Device returns the GPU device behind the renderer.
	//
	// Returns:
	//   - Device: the device used for buffers, encoders and the queue
	Device() Device

	// Format returns the surface texture format. Passes that render to the surface build their pipelines
	// against this format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the configured surface format
	Format() wgpu.TextureFormat

	// Width returns the configured surface width in pixels.
	Width() int

	// Height returns the configured surface height in pixels.
	Height() int

	// Resize reconfigures the surface for a new size. This should be called when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Acquire fetches the next swapchain image. A failure is transient: the caller should skip the frame.
	//
	// Returns:
	//   - *SurfaceTarget: the acquired image and its view
	//   - error: ErrSurfaceUnavailable or the acquisition error
	Acquire() (*SurfaceTarget, error)

	// Present displays an acquired image and releases it. Must be called after the frame's commands were submitted.
	//
	// Parameters:
	//   - target: the image returned by Acquire
	Present(target *SurfaceTarget)

	// Poll services the device on a fixed interval until ctx is done, so that staging map callbacks fire.
	//
	// Parameters:
	//   - ctx: cancelled when the frame loop exits
	//
	// Returns:
	//   - error: always nil; the signature fits an errgroup
	Poll(ctx context.Context) error

	// Release destroys the device, surface, adapter and instance.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer bound to the given window surface. It requests an adapter compatible with the
// surface, opens a device and configures the surface at the window's current size.
// Adapter or device failures panic since nothing can be rendered without them.
//
// Parameters:
//   - source: the window providing the surface descriptor and size
//   - options: functional options for present mode, adapter selection, polling and logging
//
// Returns:
//   - Renderer: the ready renderer
func NewRenderer(source SurfaceSource, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:           &sync.Mutex{},
		logger:       common.NopLogger(),
		presentMode:  PresentModeVSync,
		pollInterval: DefaultPollInterval,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before requesting a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	runtime.LockOSThread()
	r.instance = wgpu.CreateInstance(nil)
	r.surface = r.instance.CreateSurface(source.SurfaceDescriptor())

	a, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: r.forceFallbackAdapter,
		CompatibleSurface:    r.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to request adapter: %v", err))
	}
	r.adapter = a

	limits := wgpu.DefaultLimits()
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "PHANTOMa Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to request device: %v", err))
	}
	r.device = d
	r.gpu = WrapDevice(d)

	r.logger.Info("gpu device ready",
		slog.Bool("fallback_adapter", r.forceFallbackAdapter),
		slog.String("present_mode", r.presentMode.String()))

	r.Resize(source.Width(), source.Height())
	return r
}

func (r *renderer) Device() Device {
	return r.gpu
}

func (r *renderer) Format() wgpu.TextureFormat {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.format
}

func (r *renderer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width
}

func (r *renderer) Height() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	r.configure()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presentMode = mode
	r.configure()
}

// configure applies the current size and present mode to the surface. Callers hold mu.
func (r *renderer) configure() {
	if r.width <= 0 || r.height <= 0 {
		r.logger.Warn("surface has no drawable area, skipping configure",
			slog.Int("width", r.width), slog.Int("height", r.height))
		return
	}

	capabilities := r.surface.GetCapabilities(r.adapter)
	r.format = capabilities.Formats[0]

	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.format,
		Width:       uint32(r.width),
		Height:      uint32(r.height),
		PresentMode: r.presentMode.wgpu(),
		AlphaMode:   capabilities.AlphaModes[0],
	})
	r.logger.Debug("surface configured", slog.Int("width", r.width), slog.Int("height", r.height))
}

func (r *renderer) Acquire() (*SurfaceTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.width <= 0 || r.height <= 0 {
		return nil, ErrSurfaceUnavailable
	}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire surface texture: %w", err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, fmt.Errorf("failed to create surface view: %w", err)
	}

	return &SurfaceTarget{View: view, texture: surfaceTexture}, nil
}

func (r *renderer) Present(target *SurfaceTarget) {
	if target == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.surface.Present()
	target.release()
}

func (r *renderer) Poll(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.gpu.Poll(false)
		}
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		r.device.Release()
		r.device = nil
	}
	if r.surface != nil {
		r.surface.Release()
		r.surface = nil
	}
	if r.adapter != nil {
		r.adapter.Release()
		r.adapter = nil
	}
	if r.instance != nil {
		r.instance.Release()
		r.instance = nil
	}
}
