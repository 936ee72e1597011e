package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantKeysAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for v := range model.VariantCount {
		for _, transparent := range []bool{false, true} {
			key := VariantKey(v, transparent)
			assert.False(t, seen[key], key)
			seen[key] = true
		}
	}
	assert.Len(t, seen, 4)
}

func TestNewVariantPipeline(t *testing.T) {
	opaque := NewVariantPipeline(model.VariantReduced, false)
	assert.Equal(t, "reduced_opaque", opaque.PipelineKey())
	assert.True(t, opaque.DepthWriteEnabled())
	assert.False(t, opaque.BlendEnabled())
	assert.Equal(t, wgpu.CullModeNone, opaque.CullMode())
	assert.Nil(t, opaque.RenderPipeline())

	vs := opaque.Shader(shader.ShaderTypeVertex)
	require.NotNil(t, vs)
	layouts := vs.VertexLayouts()
	require.Len(t, layouts, 2)
	assert.Len(t, layouts[0].Attributes, 10)

	blend := NewVariantPipeline(model.VariantFull, true)
	assert.True(t, blend.BlendEnabled())
	assert.False(t, blend.DepthWriteEnabled())
	assert.Len(t, blend.Shader(shader.ShaderTypeVertex).VertexLayouts()[0].Attributes, 11)
}
