package pipeline

import (
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures a pipeline inside NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the shader whose vertex entry point and buffer layouts the pipeline uses.
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return withStage(shader.ShaderTypeVertex, s)
}

// WithFragmentShader sets the fragment stage. It may be the same shader as the vertex stage.
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return withStage(shader.ShaderTypeFragment, s)
}

func withStage(stage shader.ShaderType, s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		if s == nil {
			delete(p.stages, stage)
			return
		}
		p.stages[stage] = s
	}
}

// WithDepthWriteEnabled toggles depth writes. Depth testing stays on either way.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) { p.state.depthWrite = enabled }
}

// WithBlendEnabled turns on source-over alpha blending for the color target.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) { p.state.blend = enabled }
}

func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) { p.state.cull = mode }
}

func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) { p.state.frontFace = frontFace }
}
