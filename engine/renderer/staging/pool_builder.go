package staging

import "log/slog"

// PoolBuilderOption is a functional option for configuring a pool during construction via NewPool.
type PoolBuilderOption func(*pool)

// WithChunkSize sets the minimum size of newly allocated chunks. Writes larger than the chunk size get a
// chunk of their own size. Non-positive values keep DefaultChunkSize.
//
// Parameters:
//   - size: chunk size in bytes, rounded up to CopyBufferAlignment
//
// Returns:
//   - PoolBuilderOption: option function to apply
func WithChunkSize(size uint64) PoolBuilderOption {
	return func(p *pool) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithLabel sets the debug label used for the pool and its buffers.
func WithLabel(label string) PoolBuilderOption {
	return func(p *pool) {
		if label != "" {
			p.label = label
		}
	}
}

// WithLogger sets the logger used to report chunk growth.
func WithLogger(logger *slog.Logger) PoolBuilderOption {
	return func(p *pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}
