package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var errNotInitialized = errors.New("window is not initialized")

// glfwWindow owns the GLFW handle. GLFW calls must come from the thread that created the
// window, so openGLFW pins the calling goroutine to its OS thread.
type glfwWindow struct {
	win *glfw.Window
	// closed is set once the window has been destroyed.
	closed bool
}

// openGLFW initializes GLFW, opens a window sized from w and routes its input events to w's
// callbacks.
//
// Reference: https://www.glfw.org/docs/latest/window_guide.html
func openGLFW(w *engineWindow) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	// The surface belongs to WebGPU; GLFW must not create an OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create glfw window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	g := &glfwWindow{win: win}
	g.route(w)

	// Framebuffer pixels, which differ from screen coordinates on high-DPI displays.
	w.width, w.height = win.GetFramebufferSize()
	return g, nil
}

func (g *glfwWindow) route(w *engineWindow) {
	g.win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch {
		case key == glfw.KeyEscape && action == glfw.Press:
			g.win.SetShouldClose(true)
		case action != glfw.Release && w.onKeyDown != nil:
			if k := mapKey(key); k != KeyUnknown {
				w.onKeyDown(k)
			}
		}
	})

	g.win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	g.win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		if action == glfw.Press {
			w.drag.begin(g.win.GetCursorPos())
		} else if action == glfw.Release {
			w.drag.end()
		}
	})

	g.win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if dx, dy, ok := w.drag.move(x, y); ok && w.onDrag != nil {
			w.onDrag(dx, dy)
		}
	})

	g.win.SetDropCallback(func(_ *glfw.Window, paths []string) {
		if w.onDrop != nil {
			w.onDrop(paths)
		}
	})

	g.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width, w.height = width, height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
}

// mapKey translates the GLFW keys the viewer binds. Arrow keys and WASD orbit,
// +/- and PageUp/PageDown zoom, R reloads.
func mapKey(key glfw.Key) Key {
	switch key {
	case glfw.KeyLeft, glfw.KeyA:
		return KeyLeft
	case glfw.KeyRight, glfw.KeyD:
		return KeyRight
	case glfw.KeyUp, glfw.KeyW:
		return KeyUp
	case glfw.KeyDown, glfw.KeyS:
		return KeyDown
	case glfw.KeyEqual, glfw.KeyKPAdd, glfw.KeyPageUp:
		return KeyZoomIn
	case glfw.KeyMinus, glfw.KeyKPSubtract, glfw.KeyPageDown:
		return KeyZoomOut
	case glfw.KeyR:
		return KeyReload
	default:
		return KeyUnknown
	}
}

// surfaceDescriptor asks the wgpuglfw bridge for the native handles (Win32, X11, Wayland or
// Metal layer) backing the window.
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.win)
}

func (g *glfwWindow) running() bool {
	return !g.closed && !g.win.ShouldClose()
}

// poll drains pending events without blocking and reports whether the window is still open.
func (g *glfwWindow) poll() bool {
	glfw.PollEvents()
	return g.running()
}

// destroy releases the window and shuts GLFW down. Only one window is ever open.
func (g *glfwWindow) destroy() {
	g.closed = true
	g.win.Destroy()
	glfw.Terminate()
}
