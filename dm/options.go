package dm

import "go.uber.org/zap"

// Options configures parsing.
type Options struct {
	// Logger receives debug events for groups, lazy skips and text arrays,
	// and a warning when the header length disagrees with the stream size.
	// Nil means the package logger.
	Logger *zap.Logger

	// MaxDepth bounds tag group nesting. Values <= 0 or above MaxDepth
	// are treated as MaxDepth.
	MaxDepth int
}

// DefaultOptions returns default parse configuration.
func DefaultOptions() Options {
	return Options{
		MaxDepth: MaxDepth,
	}
}

func (o Options) normalize() Options {
	if o.Logger == nil {
		o.Logger = Logger()
	}
	if o.MaxDepth <= 0 || o.MaxDepth > MaxDepth {
		o.MaxDepth = MaxDepth
	}
	return o
}
