package model

import (
	"encoding/binary"
	"math"
)

const (
	// VertexStride is the byte distance between consecutive Vertex records in a vertex buffer.
	// The record occupies 116 bytes and is padded to the next 16-byte boundary.
	VertexStride = 128

	// InstanceStride is the byte distance between consecutive InstanceRecords in an instance buffer.
	InstanceStride = 64
)

// Vertex is the fixed host-side representation of one normalized vertex.
// Field order and padding match the WGSL vertex input of both render pipelines byte-for-byte:
//
//	offset   0  position   vec3<f32>
//	offset  12  pad        f32
//	offset  16  normal     vec3<f32>
//	offset  28  pad        f32
//	offset  32  uv0        vec2<f32>
//	offset  40  uv1        vec2<f32>
//	offset  48  tangent    vec4<f32> (xyz direction, w handedness)
//	offset  64  weights    vec4<f32>
//	offset  80  joints     vec4<u32>
//	offset  96  color      vec4<f32>
//	offset 112  presence   u32
//	offset 116  pad        3 x f32
type Vertex struct {
	Position  [3]float32
	_         float32
	Normal    [3]float32
	_         float32
	TexCoord0 [2]float32
	TexCoord1 [2]float32
	Tangent   [4]float32
	Weights   [4]float32
	Joints    [4]uint32
	Color     [4]float32
	Presence  PresenceMask
	_         [3]float32
}

// Size returns the size of the Vertex record in bytes, including trailing padding.
//
// Returns:
//   - int: the size of the record in bytes
func (v *Vertex) Size() int {
	return VertexStride
}

// Marshal serializes the Vertex into a 128-byte little-endian buffer suitable for GPU upload.
// Padding bytes are always zero.
//
// Returns:
//   - []byte: the serialized record
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexStride)
	v.marshalInto(buf)
	return buf
}

func (v *Vertex) marshalInto(buf []byte) {
	putF32s(buf[0:], v.Position[:])
	putF32s(buf[16:], v.Normal[:])
	putF32s(buf[32:], v.TexCoord0[:])
	putF32s(buf[40:], v.TexCoord1[:])
	putF32s(buf[48:], v.Tangent[:])
	putF32s(buf[64:], v.Weights[:])
	for i, j := range v.Joints {
		binary.LittleEndian.PutUint32(buf[80+i*4:], j)
	}
	putF32s(buf[96:], v.Color[:])
	binary.LittleEndian.PutUint32(buf[112:], uint32(v.Presence))
}

// MarshalVertices serializes a vertex slice into one contiguous buffer of len(vertices)*VertexStride bytes.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: the vertex buffer contents
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i := range vertices {
		vertices[i].marshalInto(buf[i*VertexStride : (i+1)*VertexStride])
	}
	return buf
}

// InstanceRecord is one per-instance transform, stored as four column vectors so a
// column-major world matrix uploads without transposition.
type InstanceRecord [4][4]float32

// NewInstanceRecord builds an InstanceRecord from a column-major 4x4 matrix.
//
// Parameters:
//   - m: the column-major world matrix
//
// Returns:
//   - InstanceRecord: the instance record
func NewInstanceRecord(m [16]float32) InstanceRecord {
	var r InstanceRecord
	for c := 0; c < 4; c++ {
		copy(r[c][:], m[c*4:c*4+4])
	}
	return r
}

// Size returns the size of the InstanceRecord in bytes.
//
// Returns:
//   - int: the size of the record in bytes
func (r *InstanceRecord) Size() int {
	return InstanceStride
}

// Marshal serializes the InstanceRecord into a 64-byte little-endian buffer.
//
// Returns:
//   - []byte: the serialized record
func (r *InstanceRecord) Marshal() []byte {
	buf := make([]byte, InstanceStride)
	r.marshalInto(buf)
	return buf
}

func (r *InstanceRecord) marshalInto(buf []byte) {
	for c := 0; c < 4; c++ {
		putF32s(buf[c*16:], r[c][:])
	}
}

// MarshalInstances serializes instance records into dst, growing it only when its capacity is too small.
// Passing the previous frame's buffer back in keeps per-frame uploads allocation-free.
//
// Parameters:
//   - dst: a reusable destination buffer (may be nil)
//   - records: the instance records to serialize
//
// Returns:
//   - []byte: the serialized records, possibly sharing dst's backing array
func MarshalInstances(dst []byte, records []InstanceRecord) []byte {
	n := len(records) * InstanceStride
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i := range records {
		records[i].marshalInto(dst[i*InstanceStride : (i+1)*InstanceStride])
	}
	return dst
}

func putF32s(buf []byte, values []float32) {
	for i, f := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}
