package model

import "strings"

// PresenceMask records which vertex attributes a primitive actually authored.
// It is constant across every vertex of a primitive and drives pipeline selection
// on the host and the color-versus-texture decision in the fragment stage.
type PresenceMask uint32

const (
	PresencePosition  PresenceMask = 0x01
	PresenceNormal    PresenceMask = 0x02
	PresenceTexCoord0 PresenceMask = 0x04
	PresenceTexCoord1 PresenceMask = 0x08
	PresenceTangent   PresenceMask = 0x10
	PresenceWeight    PresenceMask = 0x20
	PresenceJoint     PresenceMask = 0x40
	PresenceColor     PresenceMask = 0x80
)

var presenceNames = [...]struct {
	flag PresenceMask
	name string
}{
	{PresencePosition, "POSITION"},
	{PresenceNormal, "NORMAL"},
	{PresenceTexCoord0, "TEX_COORD_0"},
	{PresenceTexCoord1, "TEX_COORD_1"},
	{PresenceTangent, "TANGENT"},
	{PresenceWeight, "WEIGHT"},
	{PresenceJoint, "JOINT"},
	{PresenceColor, "COLOR"},
}

// Has reports whether every bit of flag is set.
//
// Parameters:
//   - flag: one or more presence flags
//
// Returns:
//   - bool: true if all bits in flag are present
func (m PresenceMask) Has(flag PresenceMask) bool {
	return m&flag == flag
}

// HasTexCoord reports whether either UV set is present.
//
// Returns:
//   - bool: true if TEX_COORD_0 or TEX_COORD_1 is set
func (m PresenceMask) HasTexCoord() bool {
	return m&(PresenceTexCoord0|PresenceTexCoord1) != 0
}

// Variant selects the render pipeline variant for geometry carrying this mask.
// Geometry without TEX_COORD_0 and without JOINT only needs position, normal and color
// and is drawn by the reduced pipeline; everything else uses the full pipeline.
//
// Returns:
//   - Variant: VariantReduced or VariantFull
func (m PresenceMask) Variant() Variant {
	if m&(PresenceTexCoord0|PresenceJoint) == 0 {
		return VariantReduced
	}
	return VariantFull
}

// String lists the set flags joined by " | ", or "NONE" for an empty mask.
func (m PresenceMask) String() string {
	var names []string
	for _, p := range presenceNames {
		if m.Has(p.flag) {
			names = append(names, p.name)
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, " | ")
}

// Variant identifies one of the two render pipeline variants. It is used directly as
// an index into the dispatcher's pipeline lookup table.
type Variant int

const (
	VariantReduced Variant = iota
	VariantFull

	// VariantCount is the size of a lookup table indexed by Variant.
	VariantCount
)

func (v Variant) String() string {
	switch v {
	case VariantReduced:
		return "reduced"
	case VariantFull:
		return "full"
	default:
		return "unknown"
	}
}
