// Package keyboard is the interrupt-to-task keyboard path: a bounded
// scancode queue fed from interrupt context, an asynchronous stream consumed
// by the keyboard task, and a scancode-set-1 decoder.
package keyboard

import (
	"sync"
	"sync/atomic"

	"github.com/lithos-os/lithos/internal/logger"
	"github.com/lithos-os/lithos/task"
)

// queueCapacity bounds the scancode queue. Keypresses beyond it between
// consumer polls are dropped.
const queueCapacity = 100

var (
	// queue holds the chan byte once the stream exists. An atomic slot
	// instead of a mutex keeps the interrupt path lock-free.
	queue         atomic.Value
	streamCreated atomic.Bool
	streamClosed  atomic.Bool

	// storedWaker is read in interrupt context and written from task
	// context; the mutex is held only for O(1) operations.
	wakerMu     sync.Mutex
	storedWaker task.Waker
)

func loadQueue() chan byte {
	q, _ := queue.Load().(chan byte)
	return q
}

// reset is for tests only.
func reset() {
	streamCreated.Store(false)
	streamClosed.Store(false)
	queue.Store((chan byte)(nil))
	wakerMu.Lock()
	storedWaker = nil
	wakerMu.Unlock()
}

// AddScancode is called by the keyboard interrupt handler. It must not
// allocate and must not block: a full or uninitialized queue drops the byte
// with a warning, and the wake is a by-reference call on the stored waker.
func AddScancode(scancode byte) {
	q := loadQueue()
	if q == nil {
		logger.Default().Warn("scancode queue uninitialized")
		return
	}
	if streamClosed.Load() {
		return
	}

	select {
	case q <- scancode:
		wakerMu.Lock()
		waker := storedWaker
		wakerMu.Unlock()
		if waker != nil {
			waker.Wake()
		}
	default:
		logger.Default().Warn("scancode queue full; dropping keyboard input")
	}
}

// PollResult is the outcome of one stream poll.
type PollResult int

const (
	PollReady PollResult = iota
	PollPending
	PollClosed
)

// ScancodeStream is the consumer half of the scancode queue.
type ScancodeStream struct {
	queue chan byte
}

// NewScancodeStream initializes the queue. Constructing a second stream is a
// kernel bug and panics.
func NewScancodeStream() *ScancodeStream {
	if !streamCreated.CompareAndSwap(false, true) {
		panic("keyboard: scancode stream constructed twice")
	}

	q := make(chan byte, queueCapacity)
	queue.Store(q)
	return &ScancodeStream{queue: q}
}

// PollNext pops the next scancode if one is queued. Otherwise it registers
// the waker and — because the interrupt may have raced in between the failed
// pop and the registration — pops once more before reporting pending. This
// ordering is what makes wakeups impossible to lose.
func (s *ScancodeStream) PollNext(w task.Waker) (byte, PollResult) {
	// Fast path.
	select {
	case scancode, ok := <-s.queue:
		if !ok {
			return 0, PollClosed
		}
		return scancode, PollReady
	default:
	}

	wakerMu.Lock()
	if storedWaker != w {
		storedWaker = w
	}
	wakerMu.Unlock()

	select {
	case scancode, ok := <-s.queue:
		if !ok {
			return 0, PollClosed
		}
		return scancode, PollReady
	default:
		return 0, PollPending
	}
}

// Close ends the stream: queued scancodes still drain, then polls report
// closed. Only the producer side may call this, after its last AddScancode.
func (s *ScancodeStream) Close() {
	streamClosed.Store(true)
	close(s.queue)

	wakerMu.Lock()
	waker := storedWaker
	wakerMu.Unlock()
	if waker != nil {
		waker.Wake()
	}
}
