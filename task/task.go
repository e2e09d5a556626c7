// Package task is the kernel's cooperative executor: asynchronous tasks
// identified by monotonic IDs, polled until done, suspended by returning
// pending, and re-awoken through interrupt-safe wakers.
package task

import "sync/atomic"

// ID uniquely identifies a task for the life of the process.
type ID uint64

var nextID atomic.Uint64

func newID() ID {
	return ID(nextID.Add(1))
}

// Status is a poll's verdict.
type Status int

const (
	// StatusPending means the task made what progress it could and a
	// registered waker will fire when more is possible.
	StatusPending Status = iota
	// StatusDone means the task completed and must not be polled again.
	StatusDone
)

// Waker marks a task ready for re-polling. Wake is safe to invoke from
// interrupt context: it neither allocates nor blocks.
type Waker interface {
	Wake()
}

// PollFunc advances a task. A pending return is a commitment that the given
// waker — or one registered downstream — will eventually fire.
type PollFunc func(w Waker) Status

// Task is a runnable asynchronous computation. The executor exclusively owns
// a task once spawned and drops it when its poll reports done.
type Task struct {
	id   ID
	poll PollFunc
}

// New wraps a polling function into a task with a fresh ID.
func New(poll PollFunc) *Task {
	return &Task{id: newID(), poll: poll}
}

// TaskID returns the task's unique ID.
func (t *Task) TaskID() ID {
	return t.id
}
