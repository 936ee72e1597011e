package model

import "github.com/cogentcore/webgpu/wgpu"

var vertexAttributes = [...]wgpu.VertexAttribute{
	{ShaderLocation: 0, Offset: 0, Format: wgpu.VertexFormatFloat32x3},  // position
	{ShaderLocation: 1, Offset: 12, Format: wgpu.VertexFormatFloat32},   // pad
	{ShaderLocation: 2, Offset: 16, Format: wgpu.VertexFormatFloat32x3}, // normal
	{ShaderLocation: 3, Offset: 28, Format: wgpu.VertexFormatFloat32},   // pad
	{ShaderLocation: 4, Offset: 32, Format: wgpu.VertexFormatFloat32x2}, // uv0
	{ShaderLocation: 5, Offset: 40, Format: wgpu.VertexFormatFloat32x2}, // uv1
	{ShaderLocation: 6, Offset: 48, Format: wgpu.VertexFormatFloat32x4}, // tangent
	{ShaderLocation: 7, Offset: 64, Format: wgpu.VertexFormatFloat32x4}, // weights
	{ShaderLocation: 8, Offset: 80, Format: wgpu.VertexFormatUint32x4},  // joints
	{ShaderLocation: 9, Offset: 96, Format: wgpu.VertexFormatFloat32x4}, // color
	{ShaderLocation: 10, Offset: 112, Format: wgpu.VertexFormatUint32},  // presence
}

// vertexLocationCount returns how many vertex attribute locations the variant declares.
// The reduced variant stops before the per-vertex presence scalar.
func vertexLocationCount(v Variant) int {
	if v == VariantReduced {
		return 10
	}
	return len(vertexAttributes)
}

// VertexBufferLayouts returns the two vertex buffer layouts bound by the given pipeline variant:
// slot 0 is the per-vertex Vertex stream and slot 1 is the per-instance transform stream.
// Instance columns occupy the four locations immediately after the last vertex location.
//
// Parameters:
//   - v: the pipeline variant
//
// Returns:
//   - []wgpu.VertexBufferLayout: the vertex and instance buffer layouts, in slot order
func VertexBufferLayouts(v Variant) []wgpu.VertexBufferLayout {
	n := vertexLocationCount(v)
	attrs := make([]wgpu.VertexAttribute, n)
	copy(attrs, vertexAttributes[:n])

	instanceAttrs := make([]wgpu.VertexAttribute, 4)
	for c := range instanceAttrs {
		instanceAttrs[c] = wgpu.VertexAttribute{
			ShaderLocation: uint32(n + c),
			Offset:         uint64(c * 16),
			Format:         wgpu.VertexFormatFloat32x4,
		}
	}

	return []wgpu.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		},
		{
			ArrayStride: InstanceStride,
			StepMode:    wgpu.VertexStepModeInstance,
			Attributes:  instanceAttrs,
		},
	}
}

// InstanceLocation returns the first shader location of the instance transform columns for a variant.
//
// Parameters:
//   - v: the pipeline variant
//
// Returns:
//   - uint32: the location of the first instance column
func InstanceLocation(v Variant) uint32 {
	return uint32(vertexLocationCount(v))
}
