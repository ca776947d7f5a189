package window

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/phantoma/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// waitTimeout bounds how long the event loop sleeps waiting for events, so RequestClose from another
// goroutine is noticed promptly.
const waitTimeout = 10 * time.Millisecond

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	window  *glfw.Window
	closing atomic.Bool
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so no OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, limit(w.maxWidth), limit(w.maxHeight))

	gw := &glfwWindow{window: win}
	w.internalWindow = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyUnknown {
			return
		}
		down := action == glfw.Press || action == glfw.Repeat
		if w.key(common.Key(key), down) {
			gw.closing.Store(true)
			win.SetShouldClose(true)
		}
	})

	// Framebuffer size, not window size: the surface needs pixels, which differ on high-DPI displays.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.mu.Lock()
	w.width, w.height = fbWidth, fbHeight
	w.mu.Unlock()
	return nil
}

func limit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.internalWindow.(*glfwWindow).window)
}

func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return !gw.closing.Load() && !gw.window.ShouldClose()
}

// platformRequestClose only flips a flag; GLFW window calls stay on the main thread.
func platformRequestClose(w *engineWindow) {
	if w.internalWindow == nil {
		return
	}
	w.internalWindow.(*glfwWindow).closing.Store(true)
	glfw.PostEmptyEvent()
}

func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.closing.Store(true)
	gw.window.Destroy()
	glfw.Terminate()
	w.internalWindow = nil
	return nil
}

// platformProcessMessages waits briefly for events and dispatches them.
func platformProcessMessages(w *engineWindow) bool {
	if !platformIsRunningCheck(w) {
		return false
	}
	glfw.WaitEventsTimeout(waitTimeout.Seconds())
	return platformIsRunningCheck(w)
}
