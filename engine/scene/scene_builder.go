package scene

import "log/slog"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLogger sets the logger used to report scene loading.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated scene identifier.
func WithID(id [16]byte) SceneBuilderOption {
	return func(s *scene) {
		s.id = id
	}
}
