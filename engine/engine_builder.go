package engine

import (
	"time"

	"github.com/Carmen-Shannon/prism/engine/loader"
	"github.com/Carmen-Shannon/prism/engine/profiler"
	"github.com/Carmen-Shannon/prism/engine/renderer"
	"github.com/Carmen-Shannon/prism/engine/window"
)

// EngineBuilderOption configures an engine inside NewEngine. Options run after the
// configuration is read, so they win over it.
type EngineBuilderOption func(*engine)

// WithProfiling turns the periodic frame-time report on or off.
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) { e.profilingEnabled = enabled }
}

// WithProfiler swaps in a profiler, for instance one with a different report interval.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) { e.profiler = p }
}

// WithWindow hands the engine an existing window instead of opening one from the config.
// The engine still closes it.
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) { e.window = w }
}

// WithRenderer hands the engine a renderer that already presents to its window.
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) { e.renderer = r }
}

// WithLoader replaces the loader behind LoadAsset, Reload and Watch.
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) { e.loader = l }
}

// WithRenderFrameLimit caps the render loop.
//
// Parameters:
//   - fps: frames per second; zero or less leaves the loop uncapped
//
// Returns:
//   - EngineBuilderOption: the option
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = 0
		if fps > 0 {
			e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
		}
	}
}
