package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequiredAttribute is returned when a primitive has no POSITION stream.
	ErrMissingRequiredAttribute = errors.New("missing required attribute POSITION")

	// ErrAttributeLength is returned when an optional stream's length differs from the position count.
	ErrAttributeLength = errors.New("attribute stream length does not match vertex count")

	// ErrIndexOutOfRange is returned when an index refers past the end of the vertex stream.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrIncompleteTriangle is returned when an index buffer length is not a multiple of three.
	ErrIncompleteTriangle = errors.New("index count is not a multiple of 3")

	// ErrEmptyPrimitive is returned when a primitive has no triangles to draw.
	ErrEmptyPrimitive = errors.New("primitive has no triangles")
)

// TangentWarning records a vertex whose tangent accumulator received no valid contribution
// and was given a fallback axis orthogonal to its normal.
type TangentWarning struct {
	// Vertex is the index of the affected vertex within its primitive.
	Vertex int
	// Normal is the normal the fallback tangent was made orthogonal to.
	Normal [3]float32
}

func (w TangentWarning) Error() string {
	return fmt.Sprintf("tangent synthesis: vertex %d received no contribution, substituted orthogonal axis", w.Vertex)
}
