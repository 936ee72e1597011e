package renderer

import (
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption configures a renderer inside NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline registers p ahead of time. GPU objects for it are created later by
// RegisterPipelines, once the device exists.
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineCache[p.PipelineKey()] = p
	}
}

// WithPresentMode chooses VSync (the default) or uncapped presentation.
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the sample count of the render targets. Without this option the renderer uses
// MSAA4x; MSAAOff renders single-sampled.
//
// Parameters:
//   - count: sample count; 8 and 16 fail surface setup on adapters that lack them
//
// Returns:
//   - RendererBuilderOption: the option
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithClearColor sets the RGBA color, components in [0, 1], that each frame starts from.
func WithClearColor(rgba [4]float64) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = wgpu.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
	}
}

// WithForceSoftwareRenderer requests the fallback (CPU) adapter. Useful on headless CI machines
// with lavapipe or SwiftShader installed.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
