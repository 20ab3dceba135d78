package herald

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// core is the registration surface shared by every bus flavor: the
// listener registry, the default priority, and the per-instance error
// handler. The dispatch strategy on top of it is what distinguishes Bus,
// AsyncBus, and ThreadedBus.
type core[F any] struct {
	reg             *registry[F]
	defaultPriority int
	onError         *atomic.Pointer[ErrorHandler]
	logger          *zap.Logger
}

func newCore[F any](cfg *config) core[F] {
	c := core[F]{
		reg:             newRegistry[F](),
		defaultPriority: cfg.defaultPriority,
		onError:         &atomic.Pointer[ErrorHandler]{},
		logger:          cfg.logger,
	}
	handler := cfg.handler()
	c.onError.Store(&handler)
	return c
}

// Add binds a callback to an event, optionally with an explicit priority
// (see WithPriority). Re-adding a callback already bound to the event
// moves it to its new position instead of duplicating it. Registration
// fails fast, before any state changes, on an empty event name or a nil
// callback.
func (c *core[F]) Add(event string, callback F, opts ...AddOption) error {
	if event == "" {
		return ErrEmptyEvent
	}
	if isNilFunc(callback) {
		return ErrNilCallback
	}
	c.reg.add(event, callbackKey(callback), callback, c.priority(opts))
	return nil
}

// Remove unbinds a callback from an event. Removing an unknown event or
// callback is a no-op.
func (c *core[F]) Remove(event string, callback F) {
	if event == "" || isNilFunc(callback) {
		return
	}
	c.reg.remove(event, callbackKey(callback))
}

// Callbacks returns the event's listeners grouped by ascending priority.
// The result is a point-in-time snapshot safe to iterate while the
// registry changes underneath.
func (c *core[F]) Callbacks(event string) [][]F {
	return c.reg.callbacks(event)
}

// DefaultPriority reports the priority assigned to listeners registered
// without an explicit one.
func (c *core[F]) DefaultPriority() int {
	return c.defaultPriority
}

// SetErrorHandler replaces this bus's error handler. A nil handler
// restores logging through the bus's logger.
func (c *core[F]) SetErrorHandler(handler ErrorHandler) {
	if handler == nil {
		cfg := &config{logger: c.logger}
		handler = cfg.handler()
	}
	c.onError.Store(&handler)
}

// fail routes one listener failure to the current error handler.
func (c *core[F]) fail(event string, err error, args []any) {
	(*c.onError.Load())(event, err, args)
}

func (c *core[F]) priority(opts []AddOption) int {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.hasPriority {
		return o.priority
	}
	return c.defaultPriority
}

// bind validates every binding of an eventful component and, only if all
// are valid, records self in the component's bus set and registers the
// bindings. Validation failures are aggregated so the caller sees every
// violation at once, and nothing is mutated on failure.
func (c *core[F]) bind(e Eventful[F], self Emitter) error {
	bindings := e.Listeners()

	var errs error
	for i, b := range bindings {
		if b.Event == "" {
			errs = multierr.Append(errs, fmt.Errorf("binding %d: %w", i, ErrEmptyEvent))
		}
		if isNilFunc(b.Callback) {
			errs = multierr.Append(errs, fmt.Errorf("binding %d (%q): %w", i, b.Event, ErrNilCallback))
		}
	}
	if errs != nil {
		return errs
	}

	e.AddBus(self)
	owner := ownerKey(e)
	for _, b := range bindings {
		priority := c.defaultPriority
		if b.hasPriority {
			priority = b.priority
		}
		// Owner-qualified keys keep two instances of one component type
		// registered side by side.
		key := boundKey{owner: owner, fn: callbackKey(b.Callback)}
		c.reg.add(b.Event, key, b.Callback, priority)
	}
	return nil
}

// unbind unregisters every binding of an eventful component and drops
// self from its bus set.
func (c *core[F]) unbind(e Eventful[F], self Emitter) {
	owner := ownerKey(e)
	for _, b := range e.Listeners() {
		if b.Event == "" || isNilFunc(b.Callback) {
			continue
		}
		c.reg.remove(b.Event, boundKey{owner: owner, fn: callbackKey(b.Callback)})
	}
	e.RemoveBus(self)
}

// safeCall invokes an immediate callback, converting a panic into a
// *PanicError. Runtime aborts are not recoverable and still tear down the
// process, which is the intended behavior for genuinely fatal conditions.
func safeCall(fn Callback, args []any) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return fn(args...)
}
