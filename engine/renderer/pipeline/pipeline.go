package pipeline

import (
	"github.com/Carmen-Shannon/prism/engine/model"
	"github.com/Carmen-Shannon/prism/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// sourceOver is the straight-alpha blend used by every blending pipeline.
var sourceOver = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// fixedState is everything about a pipeline besides its shaders.
type fixedState struct {
	depthWrite bool
	blend      bool
	cull       wgpu.CullMode
	frontFace  wgpu.FrontFace
}

type pipeline struct {
	key    string
	stages map[shader.ShaderType]shader.Shader
	state  fixedState

	// gpu is nil until a renderer registers the pipeline.
	gpu *wgpu.RenderPipeline
}

// Pipeline describes a triangle-list render pipeline: its shader stages plus the depth, blend
// and rasterizer state needed to build it. The renderer backend fills in the GPU object.
type Pipeline interface {
	// PipelineKey identifies the pipeline in the renderer's cache.
	PipelineKey() string

	// Shader returns the shader bound to a stage.
	//
	// Parameters:
	//   - shaderType: the stage
	//
	// Returns:
	//   - shader.Shader: the shader, or nil if the stage is unset
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline is nil before registration.
	RenderPipeline() *wgpu.RenderPipeline
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// DepthWriteEnabled reports whether fragments write depth. Depth testing is always on.
	DepthWriteEnabled() bool
	BlendEnabled() bool
	CullMode() wgpu.CullMode
	FrontFace() wgpu.FrontFace
	// BlendState is the blend applied to the color target when BlendEnabled is true.
	BlendState() *wgpu.BlendState
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline that writes depth, does not blend and culls nothing.
//
// Parameters:
//   - pipelineKey: the cache key
//   - opts: options applied in order
//
// Returns:
//   - Pipeline: the pipeline, not yet registered with a renderer
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:    pipelineKey,
		stages: make(map[shader.ShaderType]shader.Shader, 2),
		state: fixedState{
			depthWrite: true,
			cull:       wgpu.CullModeNone,
			frontFace:  wgpu.FrontFaceCCW,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// VariantKey names the pipeline for a variant in either the opaque or the blended pass.
func VariantKey(v model.Variant, transparent bool) string {
	suffix := "_opaque"
	if transparent {
		suffix = "_blend"
	}
	return v.String() + suffix
}

// NewVariantPipeline builds the pipeline for a variant from its embedded shaders. The blended
// pipeline leaves the depth buffer untouched so transparent primitives do not hide each other.
//
// Parameters:
//   - v: the pipeline variant
//   - transparent: whether the pipeline blends
//
// Returns:
//   - Pipeline: the pipeline, not yet registered with a renderer
func NewVariantPipeline(v model.Variant, transparent bool) Pipeline {
	vs, fs := shader.VariantShaders(v)
	return NewPipeline(VariantKey(v, transparent),
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithBlendEnabled(transparent),
		WithDepthWriteEnabled(!transparent),
	)
}

func (p *pipeline) PipelineKey() string { return p.key }

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	return p.stages[shaderType]
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline { return p.gpu }

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) { p.gpu = rp }

func (p *pipeline) DepthWriteEnabled() bool { return p.state.depthWrite }

func (p *pipeline) BlendEnabled() bool { return p.state.blend }

func (p *pipeline) CullMode() wgpu.CullMode { return p.state.cull }

func (p *pipeline) FrontFace() wgpu.FrontFace { return p.state.frontFace }

func (p *pipeline) BlendState() *wgpu.BlendState {
	b := sourceOver
	return &b
}
