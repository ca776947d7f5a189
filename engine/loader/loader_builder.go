package loader

import (
	"log/slog"

	"github.com/Carmen-Shannon/phantoma/engine/scene"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets how many goroutines decode textures and resample animations. Values below 1 are
// ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithProgress sets a callback for texture decoding progress.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - LoaderBuilderOption: a function that applies the callback to a loader
func WithProgress(fn ProgressFunc) LoaderBuilderOption {
	return func(l *loader) {
		l.progress = fn
	}
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithDesc pre-populates the cache, so Load and Get return d for key.
//
// Parameters:
//   - key: the cache key
//   - d: the description to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the entry to a loader
func WithDesc(key string, d *scene.Desc) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = d
	}
}
