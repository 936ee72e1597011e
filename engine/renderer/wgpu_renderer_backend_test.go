package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Label: "camera", Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0, Visibility: wgpu.ShaderStageVertex}}},
		1: {Label: "material", Entries: []wgpu.BindGroupLayoutEntry{{Binding: 2, Visibility: wgpu.ShaderStageVertex}}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		1: {Label: "material", Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 2, Visibility: wgpu.ShaderStageFragment},
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
		}},
		2: {Label: "extra"},
	}

	merged := mergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 3)
	assert.Equal(t, vertex[0], merged[0])
	assert.Equal(t, "extra", merged[2].Label)

	mat := merged[1].Entries
	require.Len(t, mat, 2)
	assert.Equal(t, uint32(0), mat[0].Binding)
	assert.Equal(t, uint32(2), mat[1].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, mat[1].Visibility)

	assert.Len(t, vertex[1].Entries, 1, "inputs are not modified")
	assert.Equal(t, wgpu.ShaderStageVertex, vertex[1].Entries[0].Visibility)
}

func TestInstanceBufferSizeGrowsByPowersOfTwo(t *testing.T) {
	assert.Equal(t, uint64(minInstanceBufferSize), instanceBufferSize(0))
	assert.Equal(t, uint64(minInstanceBufferSize), instanceBufferSize(64))
	assert.Equal(t, uint64(2048), instanceBufferSize(minInstanceBufferSize+1))
	assert.Equal(t, uint64(4096), instanceBufferSize(4096))
}
