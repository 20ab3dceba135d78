// Package herald provides prioritized in-process event buses for Go.
//
// Callbacks register against named events with an optional integer
// priority (lower dispatches earlier). Emitting an event invokes all
// matching callbacks grouped by priority: groups run in ascending
// priority order, callbacks within a group keep registration order. Every
// emission first fires the MetaEvent hook carrying the event name and
// arguments, then the named event itself.
//
// Three engines share the same registration surface and differ only in
// how they execute groups:
//
//   - Bus runs everything synchronously on the caller's goroutine.
//   - AsyncBus kicks a group off synchronously, lets callbacks hand back
//     Pending handles for background work, and joins the whole group
//     before advancing.
//   - ThreadedBus decouples Emit from dispatch with a FIFO queue drained
//     by a dedicated loop that fans each group out across a bounded
//     worker pool.
//
// Listener failures, returned errors and recovered panics alike, are
// isolated per callback and routed to a per-bus ErrorHandler. The default
// handler logs through zap and the bus keeps going.
//
// Quick example:
//
//	bus := herald.New()
//	bus.Add("greet", func(args ...any) error {
//		fmt.Println("hello,", args[0])
//		return nil
//	}, herald.WithPriority(1))
//	bus.Emit("greet", "world")
//
// See the Eventful interface for bulk-registering a component's listeners
// and Scheduler for cron-driven emissions.
package herald
