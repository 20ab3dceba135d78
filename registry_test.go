package herald

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Identity is the callback's code pointer, so each distinct listener in
// these tests needs its own function declaration; closures built from one
// literal would collapse into a single identity.

func appendMark(args []any, name string) {
	out := args[0].(*[]string)
	*out = append(*out, name)
}

func recorderA(args ...any) error { appendMark(args, "a"); return nil }
func recorderB(args ...any) error { appendMark(args, "b"); return nil }
func recorderC(args ...any) error { appendMark(args, "c"); return nil }
func recorderD(args ...any) error { appendMark(args, "d"); return nil }

// addFn and removeFn register plain callbacks the way core.Add does,
// keyed by code pointer.
func addFn(r *registry[Callback], event string, fn Callback, priority int) {
	r.add(event, callbackKey(fn), fn, priority)
}

func removeFn(r *registry[Callback], event string, fn Callback) {
	r.remove(event, callbackKey(fn))
}

// collect invokes every callback in group order and returns the markers
// they wrote, identifying the snapshot's layout.
func collect(groups [][]Callback) []string {
	var order []string
	for _, group := range groups {
		for _, cb := range group {
			_ = cb(&order)
		}
	}
	return order
}

func TestRegistryGroupsSortedByPriority(t *testing.T) {
	r := newRegistry[Callback]()

	addFn(r, "e", recorderA, 5)
	addFn(r, "e", recorderB, 1)
	addFn(r, "e", recorderC, 5)
	addFn(r, "e", recorderD, 3)

	groups := r.callbacks("e")
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 1)
	assert.Len(t, groups[1], 1)
	assert.Len(t, groups[2], 2)

	assert.Equal(t, []string{"b", "d", "a", "c"}, collect(groups))
}

func TestRegistryStableWithinGroup(t *testing.T) {
	r := newRegistry[Callback]()

	addFn(r, "e", recorderA, 7)
	addFn(r, "e", recorderB, 7)
	addFn(r, "e", recorderC, 7)

	groups := r.callbacks("e")
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a", "b", "c"}, collect(groups))
}

func TestRegistryReAddMovesWithoutDuplicating(t *testing.T) {
	r := newRegistry[Callback]()

	addFn(r, "e", recorderA, 5)
	addFn(r, "e", recorderB, 5)
	addFn(r, "e", recorderA, 1)

	groups := r.callbacks("e")
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "b"}, collect(groups))
	assert.Len(t, groups[0], 1)
	assert.Len(t, groups[1], 1)
}

func TestRegistryRemoveUnknownIsNoop(t *testing.T) {
	r := newRegistry[Callback]()

	removeFn(r, "missing", recorderA)
	assert.Empty(t, r.callbacks("missing"))

	addFn(r, "e", recorderA, 1)
	removeFn(r, "e", recorderB)
	assert.Len(t, r.callbacks("e"), 1)
}

func TestRegistryRemoveLastListenerDeletesEntry(t *testing.T) {
	r := newRegistry[Callback]()

	addFn(r, "e", recorderA, 1)
	removeFn(r, "e", recorderA)

	assert.Empty(t, r.callbacks("e"))
	assert.NotContains(t, r.sorted, "e")
	assert.NotContains(t, r.cached, "e")
}

func TestRegistrySnapshotSurvivesMutation(t *testing.T) {
	r := newRegistry[Callback]()

	addFn(r, "e", recorderA, 1)
	snapshot := r.callbacks("e")

	addFn(r, "e", recorderB, 1)
	addFn(r, "e", recorderC, 2)

	require.Len(t, snapshot, 1)
	assert.Equal(t, []string{"a"}, collect(snapshot))
	assert.Len(t, r.callbacks("e"), 2)
}

func TestRegistryConcurrentReadersAndWriters(t *testing.T) {
	r := newRegistry[Callback]()
	addFn(r, "e", recorderA, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				addFn(r, "e", recorderB, j%5)
				r.callbacks("e")
				removeFn(r, "e", recorderB)
			}
		}()
	}
	wg.Wait()

	removeFn(r, "e", recorderB)
	groups := r.callbacks("e")
	require.NotEmpty(t, groups)
	assert.Equal(t, []string{"a"}, collect(groups))
}
