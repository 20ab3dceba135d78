package herald

// Bus is the blocking engine: Emit invokes every matching listener on the
// calling goroutine, priority group by priority group, and returns once
// all of them have run. A listener may emit again; the nested emission
// runs depth-first on the same goroutine.
type Bus struct {
	core[Callback]
}

// New creates a blocking bus.
func New(opts ...Option) *Bus {
	return &Bus{core: newCore[Callback](newConfig(opts...))}
}

// Emit dispatches the MetaEvent hook and then the named event. Listener
// failures go to the error handler and never abort sibling listeners,
// later groups, or the emitter.
func (b *Bus) Emit(event string, args ...any) {
	b.dispatch(MetaEvent, metaArgs(event, args))
	b.dispatch(event, args)
}

func (b *Bus) dispatch(event string, args []any) {
	for _, group := range b.Callbacks(event) {
		for _, callback := range group {
			if err := safeCall(callback, args); err != nil {
				b.fail(event, err, args)
			}
		}
	}
}

// Bind registers every listener of an eventful component on this bus and
// records the bus in the component's bus set. On validation failure
// nothing is registered.
func (b *Bus) Bind(e Eventful[Callback]) error {
	return b.core.bind(e, b)
}

// Unbind removes every listener of an eventful component from this bus
// and drops the bus from the component's bus set.
func (b *Bus) Unbind(e Eventful[Callback]) {
	b.core.unbind(e, b)
}
