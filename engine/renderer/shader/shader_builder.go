package shader

// ShaderBuilderOption is a functional option for configuring a Shader during construction.
type ShaderBuilderOption func(*shader)

// WithSnippet registers an extra include snippet for this shader only.
//
// Parameters:
//   - name: the include name
//   - source: the snippet's WGSL source
//
// Returns:
//   - ShaderBuilderOption: option function to apply
func WithSnippet(name, source string) ShaderBuilderOption {
	return func(s *shader) {
		s.pp.Register(name, source)
	}
}
