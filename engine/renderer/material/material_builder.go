package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithLabel overrides the debug label of the material's GPU resources. Defaults to the material name.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - MaterialBuilderOption: a function that applies the label option to a material
func WithLabel(label string) MaterialBuilderOption {
	return func(m *material) {
		m.label = label
	}
}
