package camera

import "github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"

// UniformManagerBuilderOption is a function that configures a uniform manager during construction.
type UniformManagerBuilderOption func(*uniformManager)

// WithProvider uses an existing bind group provider for the camera uniform instead of creating one.
//
// Parameters:
//   - provider: the provider to write into
//
// Returns:
//   - UniformManagerBuilderOption: a function that sets the manager's provider
func WithProvider(provider bind_group_provider.BindGroupProvider) UniformManagerBuilderOption {
	return func(m *uniformManager) {
		m.provider = provider
	}
}
