package renderer

import "github.com/Carmen-Shannon/prism/engine/model"

// DispatcherBuilderOption is a functional option applied to a dispatcher during construction via NewDispatcher.
type DispatcherBuilderOption func(*dispatcher)

// WithPipelineKey overrides the pipeline drawing a variant in one pass.
//
// Parameters:
//   - v: the pipeline variant
//   - transparent: true to override the blend pass, false for the opaque pass
//   - key: the key of a pipeline registered with the Renderer
//
// Returns:
//   - DispatcherBuilderOption: a function that applies the pipeline key option to a dispatcher
func WithPipelineKey(v model.Variant, transparent bool, key string) DispatcherBuilderOption {
	return func(d *dispatcher) {
		if transparent {
			d.blend[v] = key
		} else {
			d.opaque[v] = key
		}
	}
}
