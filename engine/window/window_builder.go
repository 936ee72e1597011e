package window

// WindowBuilderOption configures a window before it is opened.
type WindowBuilderOption func(w *engineWindow)

func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) { w.title = title }
}

// WithSize sets the initial size in screen coordinates. The framebuffer can be larger on
// high-DPI displays; Width and Height report the framebuffer.
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) { w.width, w.height = width, height }
}

// WithSizeLimits bounds interactive resizing. glfw.DontCare (-1) leaves a bound open.
//
// Parameters:
//   - minWidth, minHeight: smallest size
//   - maxWidth, maxHeight: largest size
//
// Returns:
//   - WindowBuilderOption: the option
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = minWidth, minHeight
		w.maxWidth, w.maxHeight = maxWidth, maxHeight
	}
}
