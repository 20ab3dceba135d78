package herald

// Binding declares one listener of an eventful component: an event name,
// the bound callback, and an optional explicit priority. F is the
// callback flavor accepted by the target bus: Callback for Bus and
// ThreadedBus, AsyncCallback for AsyncBus.
type Binding[F any] struct {
	Event    string
	Callback F

	priority    int
	hasPriority bool
}

// NewBinding builds a Binding. WithPriority assigns an explicit priority;
// without it the bus's default applies at bind time.
func NewBinding[F any](event string, callback F, opts ...AddOption) Binding[F] {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	return Binding[F]{
		Event:       event,
		Callback:    callback,
		priority:    o.priority,
		hasPriority: o.hasPriority,
	}
}

// Eventful is a component whose listeners can be bulk-registered on a bus
// via Bind. Listeners enumerates the component's bindings as a static
// list assembled once, typically in the component's constructor. AddBus
// and RemoveBus are bookkeeping callbacks the bus invokes on bind and
// unbind; embedding Emitters provides them.
type Eventful[F any] interface {
	Listeners() []Binding[F]
	AddBus(Emitter)
	RemoveBus(Emitter)
}

// Emitters tracks which buses currently hold a component's listeners and
// broadcasts emissions to all of them. It is meant to be embedded in
// eventful component types.
//
// The set is a non-owning back-reference on both sides: neither the bus
// nor the component manages the other's lifetime, and teardown requires
// an explicit Unbind. It is deliberately unsynchronized; guard it
// externally if bind and unbind race across goroutines.
type Emitters struct {
	buses map[Emitter]struct{}
}

// AddBus records a bus as holding this component's listeners.
func (m *Emitters) AddBus(bus Emitter) {
	if bus == nil {
		return
	}
	if m.buses == nil {
		m.buses = make(map[Emitter]struct{})
	}
	m.buses[bus] = struct{}{}
}

// RemoveBus drops a bus from the set. Unknown buses are a no-op.
func (m *Emitters) RemoveBus(bus Emitter) {
	delete(m.buses, bus)
}

// Buses returns the buses currently holding this component's listeners.
func (m *Emitters) Buses() []Emitter {
	buses := make([]Emitter, 0, len(m.buses))
	for bus := range m.buses {
		buses = append(buses, bus)
	}
	return buses
}

// Emit broadcasts an event to every bound bus. Order across buses is
// unspecified.
func (m *Emitters) Emit(event string, args ...any) {
	for bus := range m.buses {
		bus.Emit(event, args...)
	}
}
