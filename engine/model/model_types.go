package model

import (
	"math"

	"github.com/Carmen-Shannon/prism/common"
)

// AlphaMode is the material's alpha rendering mode.
type AlphaMode int

const (
	AlphaModeOpaque AlphaMode = iota
	AlphaModeMask
	AlphaModeBlend
)

// DefaultAlphaCutoff is the glTF default threshold for AlphaModeMask.
const DefaultAlphaCutoff float32 = 0.5

// Material is the CPU-side description of a primitive's surface, shared by every
// primitive of an asset that references it.
type Material struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the base color factor (RGBA).
	BaseColor [4]float32

	// Emissive is the emissive color factor (RGB).
	Emissive [3]float32

	// DiffuseTexture holds the base color texture, or nil when the material is untextured.
	DiffuseTexture *common.ImportedTexture

	// AlphaMode selects opaque, masked or blended rendering.
	AlphaMode AlphaMode

	// AlphaCutoff is the mask threshold used by AlphaModeMask.
	AlphaCutoff float32

	// DoubleSided disables back-face culling.
	DoubleSided bool
}

// DefaultMaterial returns the material used by primitives that reference none: opaque white, untextured.
//
// Returns:
//   - *Material: a new default material
func DefaultMaterial() *Material {
	return &Material{
		Name:        "default",
		BaseColor:   [4]float32{1, 1, 1, 1},
		AlphaCutoff: DefaultAlphaCutoff,
	}
}

// IsTinted reports whether the base color differs from opaque white.
//
// Returns:
//   - bool: true if the base color factor would change the rendered color
func (m *Material) IsTinted() bool {
	return m.BaseColor != [4]float32{1, 1, 1, 1}
}

// RawAttributes are the per-vertex attribute streams of one primitive as authored in the source asset.
// A nil slice means the attribute was not authored. Every non-nil stream must have len(Positions) entries.
type RawAttributes struct {
	Positions  [][3]float32
	Normals    [][3]float32
	TexCoords0 [][2]float32
	TexCoords1 [][2]float32
	Tangents   [][4]float32
	Weights    [][4]float32
	Joints     [][4]uint32
	Colors     [][4]float32
}

// BoundingBox is an axis-aligned bounding box in the primitive's local space.
type BoundingBox struct {
	Min [3]float32
	Max [3]float32
}

// computeBoundingBox returns the bounds of the given positions, or a zero box when there are none.
func computeBoundingBox(positions [][3]float32) BoundingBox {
	if len(positions) == 0 {
		return BoundingBox{}
	}

	box := BoundingBox{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for _, p := range positions {
		for j := 0; j < 3; j++ {
			box.Min[j] = min(box.Min[j], p[j])
			box.Max[j] = max(box.Max[j], p[j])
		}
	}
	return box
}
