package model

import "fmt"

// Default attribute values written for streams a primitive did not author.
var (
	DefaultNormal   = [3]float32{0, 0, 0}
	DefaultTexCoord = [2]float32{0, 0}
	DefaultWeights  = [4]float32{0, 0, 0, 0}
	DefaultJoints   = [4]uint32{0, 0, 0, 0}
	DefaultColor    = [4]float32{1, 1, 1, 1}
)

// NormalizedPrimitive is a primitive's geometry in the fixed Vertex layout.
type NormalizedPrimitive struct {
	// Vertices holds exactly one record per authored position.
	Vertices []Vertex

	// Mask is the presence mask derived from the authored streams. It is already stamped into every vertex.
	Mask PresenceMask

	// NeedsTangents is true when the primitive has normals and a UV set but no authored tangents.
	// Such primitives must go through a TangentSynthesizer before use.
	NeedsTangents bool

	// TangentUVSet is the UV set tangent synthesis should read (0 or 1).
	TangentUVSet int

	// Bounds is the local-space bounding box of the positions.
	Bounds BoundingBox
}

// Normalize converts authored attribute streams into the fixed Vertex layout.
// Absent streams are filled with the package defaults; the tangent is left zero when the
// primitive qualifies for synthesis.
//
// Parameters:
//   - raw: the authored attribute streams
//
// Returns:
//   - NormalizedPrimitive: the normalized geometry
//   - error: ErrMissingRequiredAttribute when there are no positions, ErrAttributeLength when a stream is short or long
func Normalize(raw RawAttributes) (NormalizedPrimitive, error) {
	n := len(raw.Positions)
	if n == 0 {
		return NormalizedPrimitive{}, ErrMissingRequiredAttribute
	}

	mask := PresencePosition
	checks := []struct {
		name    string
		length  int
		present bool
		flag    PresenceMask
	}{
		{"NORMAL", len(raw.Normals), raw.Normals != nil, PresenceNormal},
		{"TEXCOORD_0", len(raw.TexCoords0), raw.TexCoords0 != nil, PresenceTexCoord0},
		{"TEXCOORD_1", len(raw.TexCoords1), raw.TexCoords1 != nil, PresenceTexCoord1},
		{"TANGENT", len(raw.Tangents), raw.Tangents != nil, PresenceTangent},
		{"WEIGHTS_0", len(raw.Weights), raw.Weights != nil, PresenceWeight},
		{"JOINTS_0", len(raw.Joints), raw.Joints != nil, PresenceJoint},
		{"COLOR_0", len(raw.Colors), raw.Colors != nil, PresenceColor},
	}
	for _, c := range checks {
		if !c.present {
			continue
		}
		if c.length != n {
			return NormalizedPrimitive{}, fmt.Errorf("%s has %d entries, want %d: %w", c.name, c.length, n, ErrAttributeLength)
		}
		mask |= c.flag
	}

	vertices := make([]Vertex, n)
	for i := range vertices {
		v := &vertices[i]
		v.Position = raw.Positions[i]
		v.Normal = pick(raw.Normals, i, DefaultNormal)
		v.TexCoord0 = pick(raw.TexCoords0, i, DefaultTexCoord)
		v.TexCoord1 = pick(raw.TexCoords1, i, DefaultTexCoord)
		v.Tangent = pick(raw.Tangents, i, [4]float32{})
		v.Weights = pick(raw.Weights, i, DefaultWeights)
		v.Joints = pick(raw.Joints, i, DefaultJoints)
		v.Color = pick(raw.Colors, i, DefaultColor)
		v.Presence = mask
	}

	out := NormalizedPrimitive{
		Vertices: vertices,
		Mask:     mask,
		Bounds:   computeBoundingBox(raw.Positions),
	}
	if mask.Has(PresenceNormal) && mask.HasTexCoord() && !mask.Has(PresenceTangent) {
		out.NeedsTangents = true
		if !mask.Has(PresenceTexCoord0) {
			out.TangentUVSet = 1
		}
	}
	return out, nil
}

// SetMask replaces the presence mask on the primitive and on every vertex, keeping them consistent.
//
// Parameters:
//   - mask: the new presence mask
func (p *NormalizedPrimitive) SetMask(mask PresenceMask) {
	p.Mask = mask
	for i := range p.Vertices {
		p.Vertices[i].Presence = mask
	}
}

func pick[T any](stream []T, i int, def T) T {
	if stream == nil {
		return def
	}
	return stream[i]
}
