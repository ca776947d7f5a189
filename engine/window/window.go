// Package window is the GLFW shell around the presentation surface. It owns the OS event loop, which must
// run on the main thread, and reports keys and framebuffer resizes through callbacks.
package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a platform window with a WebGPU-compatible surface.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key
	SetKeyDownCallback(callback func(key common.Key))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key
	SetKeyUpCallback(callback func(key common.Key))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor for creating the WebGPU surface. The descriptor
	// is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// RequestClose asks the event loop to stop. It is safe to call from any goroutine.
	RequestClose()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never opened
	Close() error

	// ProcessMessages runs the event loop on the calling goroutine, which must be the main thread.
	// It blocks until the window is closed or RequestClose is called.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	mu *sync.Mutex

	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	maxWidth  int
	maxHeight int
	escQuits  bool

	// internalWindow holds the platform window (glfwWindow).
	internalWindow any

	onResize  func(width, height int)
	onKeyDown func(key common.Key)
	onKeyUp   func(key common.Key)
}

var _ Window = &engineWindow{}

// NewWindow opens a window with the given options. Failing to open it panics.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		mu:        &sync.Mutex{},
		title:     "PHANTOMa",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 180,
		maxWidth:  -1,
		maxHeight: -1,
		escQuits:  true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key common.Key)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(key common.Key)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for platformProcessMessages(w) {
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

func (w *engineWindow) Height() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.height
}

// resized records a new framebuffer size and notifies the callback.
func (w *engineWindow) resized(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// key routes a key event. Escape closes the window unless disabled.
func (w *engineWindow) key(k common.Key, down bool) (closing bool) {
	if down && w.escQuits && k == common.KeyEsc {
		return true
	}
	if down && w.onKeyDown != nil {
		w.onKeyDown(k)
	}
	if !down && w.onKeyUp != nil {
		w.onKeyUp(k)
	}
	return false
}
