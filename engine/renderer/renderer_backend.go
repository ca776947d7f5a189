package renderer

import "github.com/cogentcore/webgpu/wgpu"

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

func (m PresentMode) wgpu() wgpu.PresentMode {
	switch m {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		return wgpu.PresentModeImmediate
	}
}

func (m PresentMode) String() string {
	if m == PresentModeVSync {
		return "vsync"
	}
	return "uncapped"
}

// SurfaceSource is the window-side contract the Renderer needs: a platform surface descriptor and
// the current client area size.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// SurfaceTarget is an acquired swapchain image. View is what the frame renders into; the target is
// handed back through Renderer.Present once the frame's commands are submitted.
type SurfaceTarget struct {
	View    *wgpu.TextureView
	texture *wgpu.Texture
}

func (t *SurfaceTarget) release() {
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
