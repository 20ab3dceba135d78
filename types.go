package herald

// MetaEvent is the synthetic event dispatched before every named event.
// Listeners bound to it receive two arguments: the emitted event name
// (string) and the emission arguments ([]any). It is the generic
// "any event happened" hook.
const MetaEvent = "event"

// DefaultPriority is the priority assigned to listeners registered without
// an explicit one. Lower values dispatch earlier.
const DefaultPriority = 10_000

// Callback handles an emitted event. Arguments are the ones passed to Emit.
// A returned error is routed to the bus's ErrorHandler; it never reaches
// the emitter.
type Callback func(args ...any) error

// Pending represents deferred work started by an AsyncCallback. It settles
// with at most one error; a close without a value means success.
type Pending <-chan error

// AsyncCallback handles an emitted event on an AsyncBus. It runs
// synchronously up to the point where it either finishes (nil Pending) or
// hands back a Pending for work it has started in the background. The
// AsyncBus joins every Pending of a priority group before advancing to the
// next group.
type AsyncCallback func(args ...any) (Pending, error)

// ErrorHandler receives every listener failure for a bus: the event name,
// the error (a *PanicError when the listener panicked), and the original
// emission arguments. Handlers must not panic.
type ErrorHandler func(event string, err error, args []any)

// Emitter is the surface shared by all bus flavors. Eventful components
// hold Emitters so they can broadcast without caring which engine backs
// the bus.
type Emitter interface {
	Emit(event string, args ...any)
}

// metaArgs builds the argument list delivered to MetaEvent listeners.
func metaArgs(event string, args []any) []any {
	return []any{event, args}
}
