package material

import (
	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine/logger"
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
)

// material is the implementation of the Material interface.
type material struct {
	label             string
	source            *model.Material
	mask              model.PresenceMask
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material is the GPU-facing view of a model.Material as drawn by one primitive. The
// primitive's presence mask is part of the material uniform, so each primitive binds its own.
type Material interface {
	// Name retrieves the source material's name.
	//
	// Returns:
	//   - string: the material name
	Name() string

	// Source returns the material this view was built from.
	//
	// Returns:
	//   - *model.Material: the source material
	Source() *model.Material

	// Params returns the uniform written to the material parameters binding.
	//
	// Returns:
	//   - GPUMaterialParams: the uniform value
	Params() GPUMaterialParams

	// TextureStagingData decodes the diffuse texture. Untextured materials, and textures
	// that fail to decode, get a 1x1 white texture so the bind group is always complete.
	//
	// Returns:
	//   - common.TextureStagingData: RGBA pixels ready for upload
	TextureStagingData() common.TextureStagingData

	// SamplerStagingData returns the diffuse texture's sampler, or the default sampler.
	//
	// Returns:
	//   - common.SamplerStagingData: the sampler configuration
	SamplerStagingData() common.SamplerStagingData

	// BindGroupProvider retrieves the provider holding this material's GPU resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	BindGroupProvider() bind_group_provider.BindGroupProvider
}

var _ Material = &material{}

// NewMaterial creates the GPU view of src for a primitive with the given mask.
// A nil src uses model.DefaultMaterial.
//
// Parameters:
//   - src: the source material
//   - mask: the drawing primitive's presence mask
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance with an uninitialized bind group provider
func NewMaterial(src *model.Material, mask model.PresenceMask, options ...MaterialBuilderOption) Material {
	if src == nil {
		src = model.DefaultMaterial()
	}
	m := &material{
		label:  src.Name,
		source: src,
		mask:   mask,
	}
	for _, opt := range options {
		opt(m)
	}
	m.bindGroupProvider = bind_group_provider.NewBindGroupProvider(m.label)
	return m
}

func (m *material) Name() string {
	return m.source.Name
}

func (m *material) Source() *model.Material {
	return m.source
}

func (m *material) Params() GPUMaterialParams {
	return NewGPUMaterialParams(m.source, m.mask)
}

func (m *material) TextureStagingData() common.TextureStagingData {
	tex := m.source.DiffuseTexture
	if tex == nil {
		return common.WhiteTexture()
	}
	pixels, w, h, err := tex.Decode()
	if err != nil {
		logger.Warn("diffuse texture unusable, binding white", "material", m.source.Name, "texture", tex.Name, "err", err)
		return common.WhiteTexture()
	}
	return common.TextureStagingData{Pixels: pixels, Width: w, Height: h}
}

func (m *material) SamplerStagingData() common.SamplerStagingData {
	if tex := m.source.DiffuseTexture; tex != nil && tex.SamplerData != nil {
		return *tex.SamplerData
	}
	return common.DefaultSamplerStagingData()
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}
