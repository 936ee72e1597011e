package shader

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourcesDeclareInstanceLocations(t *testing.T) {
	for _, v := range []model.Variant{model.VariantReduced, model.VariantFull} {
		src := Source(v)
		require.NotEmpty(t, src, v.String())
		loc := model.InstanceLocation(v)
		for c := range uint32(4) {
			assert.Contains(t, src, fmt.Sprintf("@location(%d) model_%d", loc+c, c), v.String())
		}
		assert.Contains(t, src, "@group(0) @binding(0) var<uniform> camera")
		assert.Contains(t, src, "@group(1) @binding(2) var<uniform> material")
	}
	assert.Contains(t, Source(model.VariantFull), "@location(10) presence: u32")
	assert.NotContains(t, Source(model.VariantReduced), "@location(10) presence")
}

func TestVariantShaders(t *testing.T) {
	vs, fs := VariantShaders(model.VariantFull)
	assert.Equal(t, ShaderTypeVertex, vs.ShaderType())
	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, "fs_main", fs.EntryPoint())
	require.Len(t, vs.VertexLayouts(), 2)
	assert.Equal(t, wgpu.VertexStepModeInstance, vs.VertexLayouts()[1].StepMode)
	assert.Empty(t, fs.VertexLayouts())

	cam := vs.BindGroupLayoutDescriptor(CameraGroup)
	require.Len(t, cam.Entries, 1)
	assert.Equal(t, uint64(64), cam.Entries[0].Buffer.MinBindingSize)

	mat := fs.BindGroupLayoutDescriptor(MaterialGroup)
	require.Len(t, mat.Entries, 3)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, mat.Entries[DiffuseSamplerBinding].Sampler.Type)
}

func TestNewShaderPanicsWithoutSource(t *testing.T) {
	assert.Panics(t, func() { NewShader("empty", ShaderTypeVertex, "") })
	assert.Panics(t, func() { NewShader("noentry", ShaderTypeVertex, "x", WithEntryPoint("")) })
}
