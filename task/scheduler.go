package task

import "sync"

// Scheduler is the global round-robin bookkeeper over task IDs, distinct
// from the executor's per-poll ready queue: it tracks which task is
// "current" at a coarser grain.
type Scheduler struct {
	mu         sync.Mutex
	readyQueue []ID
	current    ID
	hasCurrent bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Enqueue adds a task to the back of the ready queue.
func (s *Scheduler) Enqueue(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readyQueue = append(s.readyQueue, id)
}

// Schedule rotates: the previously current task moves to the back and the
// head of the queue becomes current. It reports false when nothing is
// runnable.
func (s *Scheduler) Schedule() (ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasCurrent {
		s.readyQueue = append(s.readyQueue, s.current)
		s.hasCurrent = false
	}

	if len(s.readyQueue) == 0 {
		return 0, false
	}
	s.current = s.readyQueue[0]
	s.readyQueue = s.readyQueue[1:]
	s.hasCurrent = true
	return s.current, true
}

// TaskCompleted retires the current task so Schedule won't requeue it.
func (s *Scheduler) TaskCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasCurrent = false
}

// Current returns the currently scheduled task, if any.
func (s *Scheduler) Current() (ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.hasCurrent
}

var globalScheduler = NewScheduler()

// AddTask adds a task to the global scheduler's ready queue.
func AddTask(id ID) {
	globalScheduler.Enqueue(id)
}

// ScheduleNext picks the next task to run, round-robin.
func ScheduleNext() (ID, bool) {
	return globalScheduler.Schedule()
}

// MarkCompleted retires the global scheduler's current task.
func MarkCompleted() {
	globalScheduler.TaskCompleted()
}

// CurrentTask returns the global scheduler's current task.
func CurrentTask() (ID, bool) {
	return globalScheduler.Current()
}
