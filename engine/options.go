package engine

import "go.uber.org/zap"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostics logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMaxBuckets sets the series-length cap applied by ValidateRange.
// Zero or negative keeps DefaultMaxBuckets.
func WithMaxBuckets(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxBuckets = n
		}
	}
}
