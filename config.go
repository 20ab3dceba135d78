package herald

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// config carries the settings shared by all bus flavors. Engine-specific
// options are ignored by buses they do not apply to.
type config struct {
	defaultPriority int
	errorHandler    ErrorHandler
	logger          *zap.Logger
	maxWorkers      int
	queueWarnAfter  time.Duration
	clock           clock.Clock
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		defaultPriority: DefaultPriority,
		clock:           clock.New(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	return cfg
}

// handler resolves the error handler for a bus: the configured one, or a
// structured-logging default bound to the bus's logger.
func (c *config) handler() ErrorHandler {
	if c.errorHandler != nil {
		return c.errorHandler
	}
	log := c.logger
	return func(event string, err error, args []any) {
		log.Error("event listener failed",
			zap.String("event", event),
			zap.Error(err),
			zap.Any("args", args),
		)
	}
}

func defaultLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Option configures a bus instance.
type Option func(*config)

// WithDefaultPriority sets the priority assigned to listeners registered
// without an explicit one. Default is DefaultPriority.
func WithDefaultPriority(priority int) Option {
	return func(c *config) {
		c.defaultPriority = priority
	}
}

// WithErrorHandler sets the handler invoked for every listener failure.
// By default failures are logged through the bus's logger. The handler is
// per bus instance, never process-wide.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}

// WithLogger sets the logger used by the default error handler and by the
// threaded engine's dispatch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxWorkers bounds the ThreadedBus worker pool. Default is
// runtime.NumCPU. Other bus flavors ignore it.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithQueueWarnAfter makes the ThreadedBus log a warning whenever an
// emission waited longer than d in the dispatch queue before being picked
// up. Zero (the default) disables the check. Other bus flavors ignore it.
func WithQueueWarnAfter(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.queueWarnAfter = d
		}
	}
}

// WithClock injects the clock used for queue-wait measurement. Tests use a
// mock clock to make timing assertions deterministic.
func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// AddOption configures a single listener registration.
type AddOption func(*addOptions)

type addOptions struct {
	priority    int
	hasPriority bool
}

// WithPriority assigns an explicit invocation priority to the listener.
// Lower values dispatch earlier; equal values dispatch in registration
// order. Without it the bus's default priority applies.
func WithPriority(priority int) AddOption {
	return func(o *addOptions) {
		o.priority = priority
		o.hasPriority = true
	}
}
