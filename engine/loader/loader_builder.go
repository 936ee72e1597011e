package loader

import (
	"github.com/Carmen-Shannon/prism/engine/model"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets how many primitives may be built concurrently. Values below 2 build serially.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.workers = max(n, 1)
	}
}

// WithTangentSynthesizer sets the synthesizer used for primitives that need tangents.
//
// Parameters:
//   - s: the tangent synthesizer
//
// Returns:
//   - LoaderBuilderOption: a function that applies the synthesizer to a loader
func WithTangentSynthesizer(s model.TangentSynthesizer) LoaderBuilderOption {
	return func(l *loader) {
		l.synth = s
	}
}

// WithAsset pre-populates the cache.
//
// Parameters:
//   - key: the cache key
//   - asset: the asset to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache entry to a loader
func WithAsset(key string, asset *Asset) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = asset
	}
}
