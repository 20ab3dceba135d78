package herald

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by ThreadedBus.Start when the bus is
	// already running.
	ErrAlreadyRunning = errors.New("herald: bus already running")

	// ErrNotRunning is returned by ThreadedBus.Shutdown when the bus is
	// already stopped.
	ErrNotRunning = errors.New("herald: bus not running")

	// ErrNilCallback is returned when a nil callback is registered.
	ErrNilCallback = errors.New("herald: nil callback")

	// ErrEmptyEvent is returned when an empty event name is registered.
	ErrEmptyEvent = errors.New("herald: empty event name")
)

// PanicError wraps a panic recovered from a listener so it can travel
// through the ErrorHandler like any other listener failure.
type PanicError struct {
	// Value is the value the listener panicked with.
	Value any

	// Stack is the stack trace captured at recovery.
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("listener panic: %v", e.Value)
}
