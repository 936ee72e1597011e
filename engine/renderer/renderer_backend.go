package renderer

// RendererBackendType selects the GPU API behind a Renderer. WebGPU is the only backend.
type RendererBackendType int

const (
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode picks between tear-free and lowest-latency presentation.
type PresentMode int

const (
	// PresentModeVSync presents on vertical blank (FIFO), so the frame rate follows the display.
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents as soon as a frame is ready and may tear.
	PresentModeUncapped
)

// MSAASampleCount is the per-pixel sample count of the color and depth attachments.
// 1 and 4 are always available on WebGPU; 8 and 16 depend on the adapter.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
	MSAA8x  MSAASampleCount = 8
	MSAA16x MSAASampleCount = 16
)

// RendererBackend is what a Renderer delegates GPU work to.
type RendererBackend interface {
	wgpuRendererBackend
}
