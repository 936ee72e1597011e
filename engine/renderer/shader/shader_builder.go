package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderBuilderOption configures a shader inside NewShader.
type ShaderBuilderOption func(*shader)

// WithEntryPoint replaces the stage's default entry point.
func WithEntryPoint(name string) ShaderBuilderOption {
	return func(s *shader) { s.entryPoint = name }
}

// WithBindGroupLayout declares the layout of one bind group the entry point reads. Declaring the
// same group twice keeps the last layout.
//
// Parameters:
//   - group: the bind group index
//   - descriptor: the layout
//
// Returns:
//   - ShaderBuilderOption: the option
func WithBindGroupLayout(group int, descriptor wgpu.BindGroupLayoutDescriptor) ShaderBuilderOption {
	return func(s *shader) { s.groups[group] = descriptor }
}

// WithVertexLayouts declares the vertex buffers a vertex entry point consumes, in slot order.
func WithVertexLayouts(layouts []wgpu.VertexBufferLayout) ShaderBuilderOption {
	return func(s *shader) { s.vertex = layouts }
}
