package shader

import (
	_ "embed"

	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices shared by both variants.
const (
	CameraGroup   = 0
	MaterialGroup = 1
)

// Binding indices within each group.
const (
	CameraUniformBinding  = 0
	DiffuseTextureBinding = 0
	DiffuseSamplerBinding = 1
	MaterialParamsBinding = 2
)

const (
	cameraUniformSize  = 64
	materialParamsSize = 32
)

//go:embed assets/reduced.wgsl
var reducedSource string

//go:embed assets/full.wgsl
var fullSource string

// Source returns the embedded WGSL module for a pipeline variant.
//
// Parameters:
//   - v: the pipeline variant
//
// Returns:
//   - string: the WGSL source
func Source(v model.Variant) string {
	if v == model.VariantReduced {
		return reducedSource
	}
	return fullSource
}

// CameraLayout describes group 0: the view-projection matrix, visible to the vertex stage.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the camera layout
func CameraLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "camera",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    CameraUniformBinding,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: cameraUniformSize,
				},
			},
		},
	}
}

// MaterialLayout describes group 1: diffuse texture, its sampler and the material parameters.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the material layout
func MaterialLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "material",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    DiffuseTextureBinding,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    DiffuseSamplerBinding,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
			{
				Binding:    MaterialParamsBinding,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: materialParamsSize,
				},
			},
		},
	}
}

// VariantShaders builds the vertex and fragment shaders of a pipeline variant with their layouts declared.
//
// Parameters:
//   - v: the pipeline variant
//
// Returns:
//   - Shader: the vertex shader
//   - Shader: the fragment shader
func VariantShaders(v model.Variant) (Shader, Shader) {
	src := Source(v)
	vs := NewShader(v.String()+"_vs", ShaderTypeVertex, src,
		WithBindGroupLayout(CameraGroup, CameraLayout()),
		WithVertexLayouts(model.VertexBufferLayouts(v)),
	)
	fs := NewShader(v.String()+"_fs", ShaderTypeFragment, src,
		WithBindGroupLayout(MaterialGroup, MaterialLayout()),
	)
	return vs, fs
}
