package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Key identifies a keyboard key the viewer reacts to, independent of the windowing library.
type Key uint32

const (
	KeyUnknown Key = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyZoomIn
	KeyZoomOut
	KeyReload
)

var keyNames = [...]string{
	KeyUnknown: "unknown",
	KeyLeft:    "left",
	KeyRight:   "right",
	KeyUp:      "up",
	KeyDown:    "down",
	KeyZoomIn:  "zoom-in",
	KeyZoomOut: "zoom-out",
	KeyReload:  "reload",
}

func (k Key) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return keyNames[KeyUnknown]
}

// Window is a native window with a WebGPU-capable surface. Input arrives through callbacks
// that fire on the goroutine running ProcessMessages; a nil callback ignores the event.
type Window interface {
	// SetUpdateCallback registers the per-iteration hook of ProcessMessages.
	SetUpdateCallback(callback func())
	// SetResizeCallback is told the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))
	// SetScrollCallback receives vertical wheel movement; positive is away from the user.
	SetScrollCallback(callback func(delta float32))
	// SetKeyDownCallback receives presses and repeats of mapped keys only.
	SetKeyDownCallback(callback func(key Key))
	// SetDragCallback receives cursor movement in pixels while the left button is held.
	SetDragCallback(callback func(dx, dy float32))
	SetDropCallback(callback func(paths []string))

	SetTitle(title string)

	// SurfaceDescriptor describes the native surface for wgpu.Instance.CreateSurface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is gone
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning is false after the user asks to close or after Close.
	IsRunning() bool

	// Close destroys the native window. Closing twice is an error.
	//
	// Returns:
	//   - error: if the window was never opened or is already closed
	Close() error

	// ProcessMessages pumps events until the window stops running, calling the update
	// callback once per iteration. It must run on the main OS thread.
	ProcessMessages()

	// Width and Height are the framebuffer size in pixels.
	Width() int
	Height() int
}

type engineWindow struct {
	title string

	minWidth, minHeight int
	maxWidth, maxHeight int

	// framebuffer size in pixels
	width, height int

	native *glfwWindow
	drag   dragTracker

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(key Key)
	onDrag    func(dx, dy float32)
	onDrop    func(paths []string)
}

var _ Window = &engineWindow{}

// NewWindow opens a 1280x720 window titled "prism", then applies options. It panics if GLFW
// cannot create the window.
//
// Parameters:
//   - options: title, size and size limit options
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "prism",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	native, err := openGLFW(w)
	if err != nil {
		panic(fmt.Sprintf("failed to open window: %v", err))
	}
	w.native = native
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func())                  { w.onUpdate = callback }
func (w *engineWindow) SetResizeCallback(callback func(width, height int)) { w.onResize = callback }
func (w *engineWindow) SetScrollCallback(callback func(delta float32))     { w.onScroll = callback }
func (w *engineWindow) SetKeyDownCallback(callback func(key Key))          { w.onKeyDown = callback }
func (w *engineWindow) SetDragCallback(callback func(dx, dy float32))      { w.onDrag = callback }
func (w *engineWindow) SetDropCallback(callback func(paths []string))      { w.onDrop = callback }

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	if w.native != nil {
		w.native.win.SetTitle(title)
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	return w.native != nil && w.native.running()
}

func (w *engineWindow) Close() error {
	if w.native == nil || w.native.closed {
		return errNotInitialized
	}
	w.native.destroy()
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() && w.native.poll() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int  { return w.width }
func (w *engineWindow) Height() int { return w.height }

// dragTracker turns absolute cursor positions into deltas while a drag is active.
type dragTracker struct {
	active bool
	lastX  float64
	lastY  float64
}

func (d *dragTracker) begin(x, y float64) {
	d.active = true
	d.lastX, d.lastY = x, y
}

func (d *dragTracker) end() {
	d.active = false
}

// move records the cursor position and reports the delta since the last one.
// ok is false when no drag is active.
func (d *dragTracker) move(x, y float64) (dx, dy float32, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	dx, dy = float32(x-d.lastX), float32(y-d.lastY)
	d.lastX, d.lastY = x, y
	return dx, dy, true
}
