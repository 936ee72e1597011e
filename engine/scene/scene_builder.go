package scene

import "github.com/Carmen-Shannon/prism/engine/model"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithCapacity preallocates the component arenas for n entities.
//
// Parameters:
//   - n: the expected entity count
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCapacity(n int) SceneBuilderOption {
	return func(s *scene) {
		if n <= 0 {
			return
		}
		s.alive = make([]bool, 0, n)
		s.prims = make([]model.PrimitiveID, 0, n)
		s.parent = make([]EntityID, 0, n)
		s.local = make([][16]float32, 0, n)
		s.world = make([][16]float32, 0, n)
	}
}
