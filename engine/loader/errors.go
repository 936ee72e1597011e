package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/prism/engine/model"
)

// ErrMalformedPrimitive marks a primitive whose structure the engine cannot draw:
// a non-triangle topology, an unreadable accessor or mismatched stream lengths.
var ErrMalformedPrimitive = errors.New("malformed primitive")

// AssetErrorKind classifies a per-primitive ingestion failure.
type AssetErrorKind int

const (
	// MissingRequiredAttribute means the primitive has no POSITION stream.
	MissingRequiredAttribute AssetErrorKind = iota
	// IndexOutOfRange means an index refers past the end of the vertex stream.
	IndexOutOfRange
	// MalformedPrimitive covers every other structural defect.
	MalformedPrimitive
)

func (k AssetErrorKind) String() string {
	switch k {
	case MissingRequiredAttribute:
		return "MissingRequiredAttribute"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case MalformedPrimitive:
		return "MalformedPrimitive"
	default:
		return fmt.Sprintf("AssetErrorKind(%d)", int(k))
	}
}

// AssetError reports a primitive that was skipped during loading. The rest of the asset still loads;
// these errors are collected in Asset.Warnings.
type AssetError struct {
	Kind      AssetErrorKind
	Mesh      int
	Primitive int
	Err       error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("mesh %d primitive %d: %s: %v", e.Mesh, e.Primitive, e.Kind, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// newAssetError classifies err by the model sentinel it wraps.
func newAssetError(mesh, primitive int, err error) *AssetError {
	kind := MalformedPrimitive
	switch {
	case errors.Is(err, model.ErrMissingRequiredAttribute):
		kind = MissingRequiredAttribute
	case errors.Is(err, model.ErrIndexOutOfRange):
		kind = IndexOutOfRange
	case !errors.Is(err, ErrMalformedPrimitive):
		err = fmt.Errorf("%w: %w", ErrMalformedPrimitive, err)
	}
	return &AssetError{Kind: kind, Mesh: mesh, Primitive: primitive, Err: err}
}
