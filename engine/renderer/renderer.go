package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// DrawTarget is the slice of a Renderer the Dispatcher and the camera uniform manager need:
// making resources resident, writing buffers and encoding one frame of instanced draws.
type DrawTarget interface {
	// InitMeshBuffers uploads a primitive's interleaved vertices and its indices and attaches the
	// resulting buffers to provider.
	//
	// Parameters:
	//   - provider: receives the vertex and index buffers
	//   - vertexData: interleaved vertex bytes
	//   - indexData: index bytes in indexFormat
	//   - indexCount: number of indices drawn per instance
	//   - indexFormat: uint16 or uint32
	//
	// Returns:
	//   - error: the device error, if any
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int, indexFormat wgpu.IndexFormat) error

	// WriteInstances copies a frame's instance records into provider's instance buffer. The
	// buffer is reallocated, never shrunk, when data outgrows it.
	WriteInstances(provider bind_group_provider.BindGroupProvider, data []byte) error

	// InitBindGroup builds provider's bind group for descriptor. Texture views and samplers named
	// by descriptor must already be set on provider; uniform buffers are created here, sized by
	// each entry's MinBindingSize.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// InitTextureView uploads stagingData as an RGBA8 sRGB texture and sets its view on provider
	// under bindingKey.
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler and sets it on provider under bindingKey.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers queues every write in order.
	//
	// Returns:
	//   - error: the first write whose target buffer is missing or that the queue rejects
	WriteBuffers(writes []bind_group_provider.BufferWrite) error

	// BeginFrame acquires the next surface texture and opens the main render pass. Every
	// successful call is followed by EndFrame or AbortFrame.
	BeginFrame() error

	// DrawCall records one instanced, indexed draw in the open pass.
	//
	// Parameters:
	//   - pipelineKey: key of a registered pipeline
	//   - meshProvider: holds the vertex, instance and index buffers
	//   - instanceCount: instances to draw
	//   - bindGroups: set at group 0, 1, ... in slice order
	//
	// Returns:
	//   - error: unknown pipeline, or no open frame
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame closes the pass and submits it. Present shows the result.
	EndFrame() error

	// AbortFrame drops an open frame without submitting it. It is a no-op with no frame open.
	AbortFrame()
}

// Renderer owns the device and the window surface. It keeps pipelines by key and hands
// everything else to its backend.
type Renderer interface {
	DrawTarget

	// Pipeline returns the pipeline registered under key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates GPU pipelines for every p not already registered under its key.
	//
	// Parameters:
	//   - pipelines: the pipelines to create
	//
	// Returns:
	//   - error: the first creation failure; pipelines before it stay registered
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface, and the MSAA and depth targets, for a new framebuffer size.
	Resize(width, height int)

	// Present shows the frame submitted by EndFrame.
	Present()

	// SetPresentMode takes effect on the next Resize.
	SetPresentMode(mode PresentMode)

	// Release frees the device and the surface.
	Release()
}

type renderer struct {
	RendererBackend

	mu            sync.Mutex
	pipelineCache map[string]pipeline.Pipeline

	// Set by options, consumed by NewRenderer.
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	clearColor           wgpu.Color
}

var _ Renderer = &renderer{}

// NewRenderer requests an adapter and device and configures a surface for win.
//
// Parameters:
//   - backendType: the GPU API; only BackendTypeWGPU exists
//   - win: supplies the surface descriptor and the initial framebuffer size
//   - options: renderer options
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		pipelineCache: make(map[string]pipeline.Pipeline),
		clearColor:    wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
	}
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		r.RendererBackend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.clearColor)
	default:
		panic(fmt.Sprintf("unsupported renderer backend %d", backendType))
	}

	if r.pendingPresentMode != nil {
		r.RendererBackend.SetPresentMode(*r.pendingPresentMode)
	}
	r.ConfigureSurface(win.Width(), win.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	r.ConfigureSurface(width, height)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range pipelines {
		key := p.PipelineKey()
		if cached, ok := r.pipelineCache[key]; ok && cached.RenderPipeline() != nil {
			continue
		}
		if err := r.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("register pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
	}
	return nil
}

// DrawCall resolves pipelineKey and forwards to the backend.
func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	p, ok := r.pipelineCache[pipelineKey]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("render pipeline %q is not registered", pipelineKey)
	}
	return r.RendererBackend.DrawCall(p, meshProvider, instanceCount, bindGroups)
}
