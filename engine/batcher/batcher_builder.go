package batcher

import "github.com/Carmen-Shannon/prism/engine/model"

// BatcherBuilderOption is a functional option for configuring a Batcher.
type BatcherBuilderOption func(b *batcher)

// WithCapacity preallocates batch slots for n primitives.
//
// Parameters:
//   - n: the expected primitive span
//
// Returns:
//   - BatcherBuilderOption: option function to apply
func WithCapacity(n int) BatcherBuilderOption {
	return func(b *batcher) {
		if n > 0 {
			b.slots = make([]Batch, n)
			b.touched = make([]model.PrimitiveID, 0, n)
			b.out = make([]Batch, 0, n)
		}
	}
}
