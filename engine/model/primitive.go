package model

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// PrimitiveID identifies a primitive within a Store. IDs are dense and assigned in ascending load order.
type PrimitiveID uint32

// InvalidPrimitiveID is never assigned by a Store.
const InvalidPrimitiveID PrimitiveID = math.MaxUint32

// Primitive is one drawable piece of geometry: an immutable vertex buffer, an immutable index
// buffer, a material reference and the presence mask shared by all of its vertices.
// A Primitive is never mutated after it is added to a Store, so it may be read from any goroutine.
type Primitive struct {
	id       PrimitiveID
	name     string
	mesh     int
	index    int
	vertices []Vertex
	indices  []uint32
	mask     PresenceMask
	material *Material
	bounds   BoundingBox
}

// PrimitiveSource is everything needed to build a Primitive from authored data.
type PrimitiveSource struct {
	// Name is a human-readable label, usually "<mesh>/<primitive index>".
	Name string
	// Mesh is the source mesh index.
	Mesh int
	// Index is the primitive's position within its mesh.
	Index int
	// Attributes are the authored vertex streams.
	Attributes RawAttributes
	// Indices is the triangle list. Nil means the vertices are already a triangle list.
	Indices []uint32
	// Material is the referenced material, or nil for DefaultMaterial.
	Material *Material
}

// BuildPrimitive runs the ingestion chain for one primitive: index validation, attribute
// normalization, material tint resolution and, when required, tangent synthesis.
//
// A material whose base color is not opaque white and has no diffuse texture marks the primitive
// with COLOR so the fragment stage renders the tint. Authored vertex colors are multiplied by the
// base color; absent ones take it verbatim.
//
// Parameters:
//   - src: the authored primitive data
//   - synth: the tangent synthesizer; nil leaves qualifying primitives without tangents
//
// Returns:
//   - *Primitive: the built primitive, not yet assigned an ID
//   - []TangentWarning: vertices that received a fallback tangent
//   - error: ErrMissingRequiredAttribute, ErrAttributeLength, ErrEmptyPrimitive, ErrIndexOutOfRange or
//     ErrIncompleteTriangle
func BuildPrimitive(src PrimitiveSource, synth TangentSynthesizer) (*Primitive, []TangentWarning, error) {
	n := len(src.Attributes.Positions)
	if n == 0 {
		return nil, nil, ErrMissingRequiredAttribute
	}
	indices := src.Indices
	if indices == nil {
		indices = make([]uint32, n)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices) == 0 {
		return nil, nil, ErrEmptyPrimitive
	}
	if err := ValidateIndices(indices, n); err != nil {
		return nil, nil, err
	}
	if len(indices)%3 != 0 {
		return nil, nil, ErrIncompleteTriangle
	}

	norm, err := Normalize(src.Attributes)
	if err != nil {
		return nil, nil, err
	}

	mat := src.Material
	if mat == nil {
		mat = DefaultMaterial()
	}
	if mat.IsTinted() && mat.DiffuseTexture == nil {
		for i := range norm.Vertices {
			c := &norm.Vertices[i].Color
			for k := range c {
				c[k] *= mat.BaseColor[k]
			}
		}
		norm.SetMask(norm.Mask | PresenceColor)
	}

	var warnings []TangentWarning
	if norm.NeedsTangents && synth != nil {
		warnings, err = synth.Synthesize(norm.Vertices, indices, norm.TangentUVSet)
		if err != nil {
			return nil, nil, fmt.Errorf("tangent synthesis: %w", err)
		}
		norm.SetMask(norm.Mask | PresenceTangent)
	}

	return &Primitive{
		id:       InvalidPrimitiveID,
		name:     src.Name,
		mesh:     src.Mesh,
		index:    src.Index,
		vertices: norm.Vertices,
		indices:  indices,
		mask:     norm.Mask,
		material: mat,
		bounds:   norm.Bounds,
	}, warnings, nil
}

// ID returns the store-assigned identifier, or InvalidPrimitiveID before the primitive is stored.
func (p *Primitive) ID() PrimitiveID { return p.id }

// Name returns the primitive's label.
func (p *Primitive) Name() string { return p.name }

// Mesh returns the source mesh index.
func (p *Primitive) Mesh() int { return p.mesh }

// Index returns the primitive's position within its source mesh.
func (p *Primitive) Index() int { return p.index }

// Mask returns the presence mask shared by all vertices.
func (p *Primitive) Mask() PresenceMask { return p.mask }

// Material returns the referenced material. It is never nil.
func (p *Primitive) Material() *Material { return p.material }

// Bounds returns the local-space bounding box.
func (p *Primitive) Bounds() BoundingBox { return p.bounds }

// VertexCount returns the number of vertex records.
func (p *Primitive) VertexCount() int { return len(p.vertices) }

// IndexCount returns the number of indices.
func (p *Primitive) IndexCount() int { return len(p.indices) }

// Vertices returns the vertex records. The slice must be treated as read-only.
func (p *Primitive) Vertices() []Vertex { return p.vertices }

// Indices returns the triangle list. The slice must be treated as read-only.
func (p *Primitive) Indices() []uint32 { return p.indices }

// Transparent reports whether the primitive's material requires alpha blending.
func (p *Primitive) Transparent() bool { return p.material.AlphaMode == AlphaModeBlend }

// VertexBytes serializes the vertex buffer for GPU upload.
//
// Returns:
//   - []byte: len(Vertices())*VertexStride bytes
func (p *Primitive) VertexBytes() []byte {
	return MarshalVertices(p.vertices)
}

// IndexFormat returns the narrowest index format able to address every vertex:
// 16-bit for up to 65535 vertices, 32-bit otherwise.
//
// Returns:
//   - wgpu.IndexFormat: IndexFormatUint16 or IndexFormatUint32
func (p *Primitive) IndexFormat() wgpu.IndexFormat {
	if len(p.vertices) <= math.MaxUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

// IndexBytes serializes the index buffer in IndexFormat. 16-bit buffers are padded with a
// zero index to keep the byte length a multiple of 4, as required for GPU buffer writes;
// the padding is never drawn because IndexCount excludes it.
//
// Returns:
//   - []byte: the index buffer contents
func (p *Primitive) IndexBytes() []byte {
	if p.IndexFormat() == wgpu.IndexFormatUint32 {
		buf := make([]byte, len(p.indices)*4)
		for i, idx := range p.indices {
			binary.LittleEndian.PutUint32(buf[i*4:], idx)
		}
		return buf
	}

	size := len(p.indices) * 2
	buf := make([]byte, (size+3)&^3)
	for i, idx := range p.indices {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(idx))
	}
	return buf
}
