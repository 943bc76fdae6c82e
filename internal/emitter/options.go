package emitter

import "github.com/dshills/nsemit/internal/logging"

// Option configures an Emitter.
type Option func(*config)

type config struct {
	logger  *logging.Logger
	isolate bool
}

// WithLogger sets the logger used for debug tracing and for failures
// swallowed under isolation.
func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIsolation makes a failing or panicking callback not prevent delivery
// to the callbacks after it.
func WithIsolation() Option {
	return func(c *config) {
		c.isolate = true
	}
}
