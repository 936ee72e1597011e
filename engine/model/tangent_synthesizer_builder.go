package model

// TangentSynthesizerBuilderOption is a functional option for configuring a TangentSynthesizer via NewTangentSynthesizer.
type TangentSynthesizerBuilderOption func(*tangentSynthesizerImpl)

// WithWorkers sets how many goroutines the accumulate and normalize passes may use.
// Values below 2 run both passes on the calling goroutine.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - TangentSynthesizerBuilderOption: a function that applies the worker count
func WithWorkers(n int) TangentSynthesizerBuilderOption {
	return func(s *tangentSynthesizerImpl) {
		s.workers = max(n, 1)
	}
}

// WithEpsilon sets the degeneracy threshold for UV determinants, triangle areas and accumulated tangents.
//
// Parameters:
//   - eps: the threshold; non-positive values are ignored
//
// Returns:
//   - TangentSynthesizerBuilderOption: a function that applies the threshold
func WithEpsilon(eps float32) TangentSynthesizerBuilderOption {
	return func(s *tangentSynthesizerImpl) {
		if eps > 0 {
			s.epsilon = eps
		}
	}
}

// WithTrianglesPerChunk sets the minimum number of triangles handed to one worker in the accumulate pass.
//
// Parameters:
//   - n: triangles per chunk; non-positive values are ignored
//
// Returns:
//   - TangentSynthesizerBuilderOption: a function that applies the chunk size
func WithTrianglesPerChunk(n int) TangentSynthesizerBuilderOption {
	return func(s *tangentSynthesizerImpl) {
		if n > 0 {
			s.trianglesPerChunk = n
		}
	}
}
