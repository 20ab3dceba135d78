package herald

import (
	"reflect"
	"slices"
	"sort"
	"sync"
)

// listener is one registered (callback, priority) pair. key defines
// identity: re-registering under the same key replaces the entry
// regardless of priority. Keys must be comparable.
type listener[F any] struct {
	callback F
	key      any
	priority int
}

// registry stores, per event name, a priority-sorted listener list and a
// derived cache of priority groups. A group is the maximal run of
// consecutive same-priority callbacks, ordered by insertion.
//
// One mutex serializes every mutation and every cache read. Reads only
// fetch the current cache slice, never iterate live state, so the lock is
// held momentarily and dispatch iterates an immutable snapshot while
// concurrent mutations build newer ones.
type registry[F any] struct {
	mu     sync.Mutex
	sorted map[string][]listener[F]
	cached map[string][][]F
}

func newRegistry[F any]() *registry[F] {
	return &registry[F]{
		sorted: make(map[string][]listener[F]),
		cached: make(map[string][][]F),
	}
}

// callbackKey returns the identity key for a plainly-added callback.
// Function values are not comparable in Go, so identity is the code
// pointer. That makes distinct named functions distinct, but closures
// minted from one literal share an identity, and method values on
// different receivers share their wrapper's code pointer; registrations
// that need receiver awareness (Bind) qualify the key with the owning
// component via boundKey instead.
func callbackKey(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// boundKey identifies a listener registered through Bind. Qualifying the
// method's code pointer with the owning component keeps two instances of
// one component type as two distinct listeners, and lets Unbind strip
// exactly its own component's registrations.
type boundKey struct {
	owner uintptr
	fn    uintptr
}

// ownerKey derives the owner qualifier for a component. Eventful
// components are pointer-shaped in practice; value-shaped ones collapse
// to a zero owner and dedup by method identity alone.
func ownerKey(e any) uintptr {
	v := reflect.ValueOf(e)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.UnsafePointer:
		return v.Pointer()
	default:
		return 0
	}
}

func isNilFunc(fn any) bool {
	v := reflect.ValueOf(fn)
	return !v.IsValid() || (v.Kind() == reflect.Func && v.IsNil())
}

// callbacks returns the cached priority groups for an event, ascending by
// priority. The returned slice is an immutable snapshot; it stays valid
// while concurrent mutations proceed on newer snapshots. Unknown events
// yield nil.
func (r *registry[F]) callbacks(event string) [][]F {
	r.mu.Lock()
	groups := r.cached[event]
	r.mu.Unlock()
	return groups
}

// add registers fn under event with the given identity key and priority.
// An existing entry for the same key is removed first, so a re-add moves
// the callback to its new position instead of duplicating it. Insertion
// is stable: equal priorities keep registration order.
func (r *registry[F]) add(event string, key any, fn F, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listeners := r.sorted[event]
	for i := range listeners {
		if listeners[i].key == key {
			listeners = slices.Delete(listeners, i, i+1)
			break
		}
	}

	// First index with a strictly greater priority keeps equal-priority
	// entries in registration order.
	idx := sort.Search(len(listeners), func(i int) bool {
		return listeners[i].priority > priority
	})
	listeners = slices.Insert(listeners, idx, listener[F]{
		callback: fn,
		key:      key,
		priority: priority,
	})

	r.sorted[event] = listeners
	r.cached[event] = regroup(listeners)
}

// remove unregisters the listener with the given identity key from event.
// Unknown events and keys are a no-op. Removing the last listener deletes
// the event entry and its cache entry outright.
func (r *registry[F]) remove(event string, key any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listeners, ok := r.sorted[event]
	if !ok {
		return
	}

	for i := range listeners {
		if listeners[i].key != key {
			continue
		}
		listeners = slices.Delete(listeners, i, i+1)
		if len(listeners) == 0 {
			delete(r.sorted, event)
			delete(r.cached, event)
		} else {
			r.sorted[event] = listeners
			r.cached[event] = regroup(listeners)
		}
		return
	}
}

// regroup materializes the cached group view of a sorted listener list.
func regroup[F any](listeners []listener[F]) [][]F {
	groups := make([][]F, 0, len(listeners))
	for i := 0; i < len(listeners); {
		priority := listeners[i].priority
		var group []F
		for ; i < len(listeners) && listeners[i].priority == priority; i++ {
			group = append(group, listeners[i].callback)
		}
		groups = append(groups, group)
	}
	return groups
}
