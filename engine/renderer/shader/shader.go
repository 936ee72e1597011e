package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader entry point belongs to.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
)

// defaultEntryPoints are the entry point names used when none is given.
var defaultEntryPoints = map[ShaderType]string{
	ShaderTypeVertex:   "vs_main",
	ShaderTypeFragment: "fs_main",
}

func (t ShaderType) String() string {
	if name, ok := map[ShaderType]string{ShaderTypeVertex: "vertex", ShaderTypeFragment: "fragment"}[t]; ok {
		return name
	}
	return fmt.Sprintf("ShaderType(%d)", int(t))
}

type shader struct {
	key        string
	source     string
	stage      ShaderType
	entryPoint string
	groups     map[int]wgpu.BindGroupLayoutDescriptor
	vertex     []wgpu.VertexBufferLayout
}

// Shader is one entry point of a WGSL module plus the layouts a pipeline needs to bind it.
// The layouts are declared by whoever builds the shader; nothing is reflected from the source.
type Shader interface {
	// Key names the shader module for caching and GPU labels.
	Key() string
	Source() string
	ShaderType() ShaderType
	EntryPoint() string

	// BindGroupLayoutDescriptor returns the declared layout of one group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the layout, or the zero descriptor if undeclared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every declared layout keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts returns the vertex buffer layouts in slot order. Fragment shaders have none.
	VertexLayouts() []wgpu.VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader wraps WGSL source as a Shader. Vertex shaders default to the entry point "vs_main"
// and fragment shaders to "fs_main". It panics when the source or the entry point is empty,
// since both come from embedded assets.
//
// Parameters:
//   - key: the shader's name
//   - shaderType: the stage of the entry point
//   - source: the WGSL source
//   - options: entry point and layout declarations
//
// Returns:
//   - Shader: the shader
func NewShader(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s has no source", key))
	}
	s := &shader{
		key:        key,
		source:     source,
		stage:      shaderType,
		entryPoint: defaultEntryPoints[shaderType],
		groups:     make(map[int]wgpu.BindGroupLayoutDescriptor),
	}
	for _, option := range options {
		option(s)
	}
	if s.entryPoint == "" {
		panic(fmt.Sprintf("shader: %s has no entry point", key))
	}
	return s
}

func (s *shader) Key() string            { return s.key }
func (s *shader) Source() string         { return s.source }
func (s *shader) ShaderType() ShaderType { return s.stage }
func (s *shader) EntryPoint() string     { return s.entryPoint }

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.groups[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout { return s.vertex }
