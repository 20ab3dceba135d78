package herald

import (
	"runtime/debug"
	"sync"
)

// AsyncBus is the fan-out engine. Within a priority group every callback
// is kicked off synchronously on the dispatching goroutine; callbacks that
// started background work hand back a Pending, and the bus joins all of a
// group's pendings before advancing to the next group. Execution is
// group-sequential, intra-group-concurrent. A failure in one callback
// never cancels the others.
type AsyncBus struct {
	core[AsyncCallback]
}

// NewAsync creates a fan-out bus.
func NewAsync(opts ...Option) *AsyncBus {
	return &AsyncBus{core: newCore[AsyncCallback](newConfig(opts...))}
}

// Emit starts the MetaEvent dispatch and the named-event dispatch
// concurrently and returns once both have fully settled, deferred work
// included.
func (b *AsyncBus) Emit(event string, args ...any) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.dispatch(MetaEvent, metaArgs(event, args))
	}()
	go func() {
		defer wg.Done()
		b.dispatch(event, args)
	}()
	wg.Wait()
}

func (b *AsyncBus) dispatch(event string, args []any) {
	for _, group := range b.Callbacks(event) {
		var (
			pendings []Pending
			errs     []error
		)

		// Kick off the whole group before waiting on anything, so all
		// deferred work of a group runs concurrently.
		for _, callback := range group {
			pending, err := kickoff(callback, args)
			if err != nil {
				errs = append(errs, err)
			}
			if pending != nil {
				pendings = append(pendings, pending)
			}
		}

		for _, pending := range pendings {
			if err, ok := <-pending; ok && err != nil {
				errs = append(errs, err)
			}
		}

		// The group has settled; forward every failure, synchronous and
		// deferred alike, before touching the next group.
		for _, err := range errs {
			b.fail(event, err, args)
		}
	}
}

// Bind registers every listener of an async eventful component on this
// bus and records the bus in the component's bus set. On validation
// failure nothing is registered.
func (b *AsyncBus) Bind(e Eventful[AsyncCallback]) error {
	return b.core.bind(e, b)
}

// Unbind removes every listener of an async eventful component from this
// bus and drops the bus from the component's bus set.
func (b *AsyncBus) Unbind(e Eventful[AsyncCallback]) {
	b.core.unbind(e, b)
}

// kickoff invokes the synchronous part of an async callback, converting a
// panic into a *PanicError.
func kickoff(fn AsyncCallback, args []any) (pending Pending, err error) {
	defer func() {
		if v := recover(); v != nil {
			pending = nil
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return fn(args...)
}

// Spawn runs fn in a new goroutine and returns a Pending that settles with
// its result. A panic inside fn settles the Pending with a *PanicError so
// the dispatching group never deadlocks on it.
func Spawn(fn func() error) Pending {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		defer func() {
			if v := recover(); v != nil {
				ch <- &PanicError{Value: v, Stack: debug.Stack()}
			}
		}()
		if err := fn(); err != nil {
			ch <- err
		}
	}()
	return ch
}
