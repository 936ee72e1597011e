package renderer

import (
	"errors"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

var (
	errNoFrame        = errors.New("no frame in progress")
	errFrameHeld      = errors.New("previous frame surface not yet presented")
	errMissingBuffer  = errors.New("buffer binding not initialized")
	errMissingShaders = errors.New("both vertex and fragment shaders must be set to create a render pipeline")
)

// wgpuRendererBackend is the WebGPU implementation behind Renderer. Every method is safe to call
// from any goroutine; the backend serializes device and queue access on one mutex.
type wgpuRendererBackend interface {
	// ConfigureSurface (re)configures the swapchain for a framebuffer of width x height pixels
	// and rebuilds the MSAA and depth attachments to match.
	ConfigureSurface(width, height int)

	// SetPresentMode is applied by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline compiles p's shaders, derives the pipeline layout from their bind
	// group layouts and stores the result on p.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: missing shaders or a device error
	RegisterRenderPipeline(p pipeline.Pipeline) error

	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int, indexFormat wgpu.IndexFormat) error
	WriteInstances(provider bind_group_provider.BindGroupProvider, data []byte) error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	BeginFrame() error

	// DrawCall binds p, bindGroups (group i = bindGroups[i]), the mesh vertex buffer at slot 0 and
	// its instance buffer at slot 1, then issues one indexed draw of instanceCount instances.
	//
	// Parameters:
	//   - p: a registered pipeline
	//   - meshProvider: the mesh buffers
	//   - instanceCount: number of instances
	//   - bindGroups: bind groups in group order
	//
	// Returns:
	//   - error: errNoFrame outside BeginFrame/EndFrame, or an unregistered pipeline
	DrawCall(p pipeline.Pipeline, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	EndFrame() error
	AbortFrame()
	Present()
	Release()
}

// renderTargets are the attachments whose size follows the surface.
type renderTargets struct {
	msaa, depth    *textureWithView
	passDescriptor *wgpu.RenderPassDescriptor
	// resolveIntoFrame is set when the surface texture is the MSAA resolve target rather than
	// the color attachment itself.
	resolveIntoFrame bool
}

type textureWithView struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *textureWithView) release() {
	if t == nil {
		return
	}
	t.view.Release()
	t.texture.Release()
}

// frame is the state of one BeginFrame..Present cycle.
type frame struct {
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
	surface *wgpu.Texture
	view    *wgpu.TextureView
}

type wgpuRendererBackendImpl struct {
	mu sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	clearColor    wgpu.Color

	targets renderTargets
	frame   frame
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend acquires an adapter compatible with the window surface and a device
// with default limits. Failure to get either is fatal.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, clearColor wgpu.Color) wgpuRendererBackend {
	runtime.LockOSThread()

	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(surfaceDescriptor)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface:    surface,
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		panic(err)
	}

	// The camera and material bind groups fit the WebGPU default limits.
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "prism device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: wgpu.DefaultLimits()},
	})
	if err != nil {
		panic(err)
	}

	return &wgpuRendererBackendImpl{
		instance:    instance,
		surface:     surface,
		adapter:     adapter,
		device:      device,
		queue:       device.GetQueue(),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  clearColor,
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.presentMode = wgpu.PresentModeImmediate
	if mode == PresentModeVSync {
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	caps := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = caps.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})

	b.releaseTargets()
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	// With MSAA the pass renders into a multisampled texture and resolves into the surface
	// texture, so the multisampled contents never need storing.
	color := wgpu.RenderPassColorAttachment{
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clearColor,
	}
	if b.sampleCount > 1 {
		b.targets.msaa = b.attachment("msaa color", size, b.surfaceFormat)
		color.View = b.targets.msaa.view
		color.StoreOp = wgpu.StoreOpDiscard
		b.targets.resolveIntoFrame = true
	}
	b.targets.depth = b.attachment("depth", size, depthFormat)

	b.targets.passDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.targets.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
		},
	}
}

// attachment creates a render attachment at the backend's sample count. Caller holds mu.
func (b *wgpuRendererBackendImpl) attachment(label string, size wgpu.Extent3D, format wgpu.TextureFormat) *textureWithView {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   uint32(b.sampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return &textureWithView{texture: tex, view: view}
}

// releaseTargets frees the size-dependent attachments. Caller holds mu.
func (b *wgpuRendererBackendImpl) releaseTargets() {
	b.targets.msaa.release()
	b.targets.depth.release()
	b.targets = renderTargets{}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropFrame()
	b.releaseTargets()

	if b.device == nil {
		return
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
	b.queue, b.device, b.adapter, b.surface, b.instance = nil, nil, nil, nil, nil
}
