package herald

import (
	"runtime"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ThreadedBus is the queue-and-pool engine. Emit enqueues and returns
// immediately; a dedicated dispatch loop drains emissions strictly FIFO,
// running each priority group's callbacks in parallel on a bounded worker
// pool and waiting for the group to finish before moving on. The pool
// lives for the whole running session, not per emission.
type ThreadedBus struct {
	core[Callback]

	maxWorkers     int
	queueWarnAfter time.Duration
	clock          clock.Clock

	queue *emissionQueue

	mu       sync.Mutex
	running  bool
	loopDone chan struct{}
}

// emission is one queued Emit call. stop marks the shutdown sentinel.
type emission struct {
	id       string
	event    string
	args     []any
	enqueued time.Time
	stop     bool
}

// NewThreaded creates a queue-and-pool bus. The bus starts stopped; call
// Start before emitting.
func NewThreaded(opts ...Option) *ThreadedBus {
	cfg := newConfig(opts...)
	workers := cfg.maxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &ThreadedBus{
		core:           newCore[Callback](cfg),
		maxWorkers:     workers,
		queueWarnAfter: cfg.queueWarnAfter,
		clock:          cfg.clock,
		queue:          newEmissionQueue(),
	}
}

// Running reports whether the dispatch loop is active.
func (b *ThreadedBus) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Start spawns the dispatch loop and its worker pool. It fails with
// ErrAlreadyRunning if the bus is already running.
func (b *ThreadedBus) Start() error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return ErrAlreadyRunning
	}
	b.running = true
	b.loopDone = make(chan struct{})
	done := b.loopDone
	b.mu.Unlock()

	go b.dispatchLoop(done)
	return nil
}

// Shutdown stops the bus. It enqueues a sentinel behind all pending
// emissions, so everything emitted before the call still dispatches, then
// blocks until the dispatch loop exits and the worker pool is torn down.
// The wait is unbounded; a slow listener delays shutdown accordingly.
// It fails with ErrNotRunning if the bus is already stopped.
//
// Lifecycle transitions must be serialized by the caller: a Start issued
// while a Shutdown is still draining can hand the sentinel to the new
// loop, stopping it instead of the old one. Scoped provides a correctly
// paired start/stop for the common case.
func (b *ThreadedBus) Shutdown() error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return ErrNotRunning
	}
	b.running = false
	done := b.loopDone
	b.mu.Unlock()

	b.queue.push(&emission{stop: true})
	<-done
	return nil
}

// Emit enqueues the event for dispatch and returns immediately. While the
// bus is stopped emissions are silently dropped.
func (b *ThreadedBus) Emit(event string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running {
		return
	}
	b.queue.push(&emission{
		id:       uuid.NewString(),
		event:    event,
		args:     args,
		enqueued: b.clock.Now(),
	})
}

// WaitForIdle blocks until every previously enqueued emission has fully
// dispatched, meaning all of its groups' tasks completed, not merely that
// the queue drained.
func (b *ThreadedBus) WaitForIdle() {
	b.queue.join()
}

// Scoped runs fn with the bus started: entering starts the bus if it is
// stopped, leaving shuts it down if it is running, even when fn panics.
func (b *ThreadedBus) Scoped(fn func()) {
	if !b.Running() {
		_ = b.Start()
	}
	defer func() {
		if b.Running() {
			_ = b.Shutdown()
		}
	}()
	fn()
}

// Bind registers every listener of an eventful component on this bus and
// records the bus in the component's bus set. On validation failure
// nothing is registered.
func (b *ThreadedBus) Bind(e Eventful[Callback]) error {
	return b.core.bind(e, b)
}

// Unbind removes every listener of an eventful component from this bus
// and drops the bus from the component's bus set.
func (b *ThreadedBus) Unbind(e Eventful[Callback]) {
	b.core.unbind(e, b)
}

// dispatchLoop is the sole queue consumer. It owns the worker pool for
// the whole running session and fully drains emission N before touching
// emission N+1.
func (b *ThreadedBus) dispatchLoop(done chan struct{}) {
	defer close(done)

	pool := newWorkerPool(b.maxWorkers)
	defer pool.close()

	for {
		em := b.queue.pop()
		if em.stop {
			b.queue.done()
			return
		}

		if wait := b.clock.Since(em.enqueued); b.queueWarnAfter > 0 && wait > b.queueWarnAfter {
			b.logger.Warn("emission stalled in dispatch queue",
				zap.String("emission_id", em.id),
				zap.String("event", em.event),
				zap.Duration("queue_wait", wait),
			)
		}
		b.logger.Debug("dispatching emission",
			zap.String("emission_id", em.id),
			zap.String("event", em.event),
		)

		b.dispatch(pool, MetaEvent, metaArgs(em.event, em.args))
		b.dispatch(pool, em.event, em.args)
		b.queue.done()
	}
}

func (b *ThreadedBus) dispatch(pool *workerPool, event string, args []any) {
	for _, group := range b.Callbacks(event) {
		results := make(chan error, len(group))
		for _, callback := range group {
			pool.submit(func() {
				results <- safeCall(callback, args)
			})
		}
		// Errors are forwarded from the loop goroutine so the handler is
		// never invoked concurrently with itself.
		for range group {
			if err := <-results; err != nil {
				b.fail(event, err, args)
			}
		}
	}
}

// emissionQueue is an unbounded FIFO with task accounting: join blocks
// until every pushed emission has been marked done, not merely popped.
type emissionQueue struct {
	mu         sync.Mutex
	ready      *sync.Cond
	idle       *sync.Cond
	items      []*emission
	unfinished int
}

func newEmissionQueue() *emissionQueue {
	q := &emissionQueue{}
	q.ready = sync.NewCond(&q.mu)
	q.idle = sync.NewCond(&q.mu)
	return q
}

func (q *emissionQueue) push(em *emission) {
	q.mu.Lock()
	q.items = append(q.items, em)
	q.unfinished++
	q.mu.Unlock()
	q.ready.Signal()
}

// pop blocks until an emission is available.
func (q *emissionQueue) pop() *emission {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.ready.Wait()
	}
	em := q.items[0]
	q.items = q.items[1:]
	return em
}

func (q *emissionQueue) done() {
	q.mu.Lock()
	q.unfinished--
	if q.unfinished == 0 {
		q.idle.Broadcast()
	}
	q.mu.Unlock()
}

func (q *emissionQueue) join() {
	q.mu.Lock()
	for q.unfinished > 0 {
		q.idle.Wait()
	}
	q.mu.Unlock()
}

// workerPool is a fixed set of goroutines draining a task channel. It is
// created once per running session to amortize start-up cost.
type workerPool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

func newWorkerPool(n int) *workerPool {
	p := &workerPool{tasks: make(chan func())}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

func (p *workerPool) submit(task func()) {
	p.tasks <- task
}

func (p *workerPool) close() {
	close(p.tasks)
	p.wg.Wait()
}
