package task

import (
	"sync"

	"github.com/lithos-os/lithos/internal/logger"
)

// readyQueueCapacity bounds the ready queue. Duplicate wakes of the same
// task collapse into redundant polls, so the queue only needs room for a
// burst of distinct wakes.
const readyQueueCapacity = 128

// queueWaker re-enqueues one task's ID. It holds no locks and performs a
// single non-blocking channel send, so interrupt handlers may call Wake
// directly.
type queueWaker struct {
	ready chan<- ID
	id    ID
}

func (w *queueWaker) Wake() {
	select {
	case w.ready <- w.id:
	default:
		// Dropping the wake would strand the task, so this is loud.
		logger.Default().Warn("executor ready queue full; dropping wake")
	}
}

// Executor owns spawned tasks and polls them as their wakers fire. It is the
// only source of progress for tasks; there is no preemption.
type Executor struct {
	mu     sync.Mutex
	tasks  map[ID]*Task
	wakers map[ID]*queueWaker
	ready  chan ID
}

func NewExecutor() *Executor {
	return &Executor{
		tasks:  make(map[ID]*Task),
		wakers: make(map[ID]*queueWaker),
		ready:  make(chan ID, readyQueueCapacity),
	}
}

// Spawn takes ownership of a task and queues its first poll.
func (e *Executor) Spawn(t *Task) ID {
	e.mu.Lock()
	if _, exists := e.tasks[t.id]; exists {
		e.mu.Unlock()
		panic("task with same ID spawned twice")
	}
	waker := &queueWaker{ready: e.ready, id: t.id}
	e.tasks[t.id] = t
	e.wakers[t.id] = waker
	e.mu.Unlock()

	waker.Wake()
	return t.id
}

// taskCount returns the number of live tasks.
func (e *Executor) taskCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

// pollOne runs a single poll for the given ID. Stale wakes — IDs whose task
// already finished — are ignored.
func (e *Executor) pollOne(id ID) {
	e.mu.Lock()
	t, ok := e.tasks[id]
	waker := e.wakers[id]
	e.mu.Unlock()
	if !ok {
		return
	}

	if t.poll(waker) == StatusDone {
		e.mu.Lock()
		delete(e.tasks, id)
		delete(e.wakers, id)
		e.mu.Unlock()
	}
}

// RunReady polls every task currently on the ready queue, without blocking.
func (e *Executor) RunReady() {
	for {
		select {
		case id := <-e.ready:
			e.pollOne(id)
		default:
			return
		}
	}
}

// Run polls tasks until none remain. With tasks alive but nothing ready it
// halts — blocks — until the next wake, the hosted analogue of hlt-until-
// interrupt.
func (e *Executor) Run() {
	for {
		e.RunReady()
		if e.taskCount() == 0 {
			return
		}

		// Idle: sleep until an interrupt-context wake arrives, then
		// re-check.
		id, ok := <-e.ready
		if !ok {
			return
		}
		e.pollOne(id)
	}
}
