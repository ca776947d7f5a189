package animator

import "log/slog"

// AnimatorBuilderOption is a functional option for configuring an Animator during construction.
type AnimatorBuilderOption func(*animator)

// WithSampleRate overrides the keyframe rate. Non-positive rates are ignored.
//
// Parameters:
//   - rate: keyframes per second
//
// Returns:
//   - AnimatorBuilderOption: a function that applies the sample rate to an animator
func WithSampleRate(rate float32) AnimatorBuilderOption {
	return func(a *animator) {
		if rate > 0 {
			a.rate = rate
		}
	}
}

// WithLogger sets the logger that reports playback changes at Debug level.
func WithLogger(logger *slog.Logger) AnimatorBuilderOption {
	return func(a *animator) {
		if logger != nil {
			a.logger = logger
		}
	}
}
